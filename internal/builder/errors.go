// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package builder

import "errors"

var (
	// ErrValidation covers malformed property paths, values that do not fit
	// their property, unknown element types and invalid reorders. State is
	// left unchanged.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when an operation names an unknown instance.
	ErrNotFound = errors.New("element not found")

	// ErrNoSelection is returned by selection-scoped edits when nothing is
	// selected.
	ErrNoSelection = errors.New("no element selected")

	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)
