// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package builder

import "sitecraft/internal/element"

// DefaultHistoryLimit is the number of undo steps kept when no limit is set.
const DefaultHistoryLimit = 100

// History is a linear undo/redo stack over library snapshots. Snapshots are
// never modified after being handed to History.
type History struct {
	past    []*element.Library
	present *element.Library
	// future is stored with its head last so redo pops from the end.
	future []*element.Library
	limit  int
}

// NewHistory starts a history at initial. A limit of zero or less keeps
// DefaultHistoryLimit past snapshots.
func NewHistory(initial *element.Library, limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{present: initial, limit: limit}
}

// Present returns the current snapshot.
func (h *History) Present() *element.Library { return h.present }

// CanUndo reports whether Undo would succeed.
func (h *History) CanUndo() bool { return len(h.past) > 0 }

// CanRedo reports whether Redo would succeed.
func (h *History) CanRedo() bool { return len(h.future) > 0 }

// Commit records snap as the new present, making the old present undoable
// and discarding any redo steps.
func (h *History) Commit(snap *element.Library) {
	h.push(h.present)
	h.present = snap
	h.future = nil
}

// Undo moves back one step.
func (h *History) Undo() (*element.Library, error) {
	if len(h.past) == 0 {
		return nil, ErrNothingToUndo
	}
	prev := h.past[len(h.past)-1]
	h.past[len(h.past)-1] = nil
	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, h.present)
	h.present = prev
	return prev, nil
}

// Redo moves forward one step.
func (h *History) Redo() (*element.Library, error) {
	if len(h.future) == 0 {
		return nil, ErrNothingToRedo
	}
	next := h.future[len(h.future)-1]
	h.future[len(h.future)-1] = nil
	h.future = h.future[:len(h.future)-1]
	h.push(h.present)
	h.present = next
	return next, nil
}

// replace swaps the present without creating an undo step. Used for
// selection changes, which are not undoable on their own.
func (h *History) replace(snap *element.Library) {
	h.present = snap
}

// amend swaps the present inside a gesture. Redo steps are discarded as for
// any other edit; the undo step is recorded once the gesture ends.
func (h *History) amend(snap *element.Library) {
	h.present = snap
	h.future = nil
}

func (h *History) push(snap *element.Library) {
	h.past = append(h.past, snap)
	if over := len(h.past) - h.limit; over > 0 {
		clear(h.past[:over])
		h.past = h.past[over:]
	}
}
