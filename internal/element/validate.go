// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package element

import (
	"errors"
	"fmt"
)

// ErrCorrupt is returned by Validate when a library breaks a structural
// invariant.
var ErrCorrupt = errors.New("corrupt element library")

// Validate checks the structural invariants of the library: AllIDs is
// exactly the key set of ByID, children reference existing instances and
// only layouts own children, every instance has at most one parent, the
// layout composition is acyclic and the selection points at an instance.
func (l *Library) Validate() error {
	if len(l.AllIDs) != len(l.ByID) {
		return fmt.Errorf("%w: %d ids ordered, %d instances", ErrCorrupt, len(l.AllIDs), len(l.ByID))
	}
	seen := make(map[string]bool, len(l.AllIDs))
	for _, id := range l.AllIDs {
		if seen[id] {
			return fmt.Errorf("%w: duplicate id %s in order", ErrCorrupt, id)
		}
		seen[id] = true
		in, ok := l.ByID[id]
		if !ok || in == nil {
			return fmt.Errorf("%w: ordered id %s has no instance", ErrCorrupt, id)
		}
		if in.ID != id {
			return fmt.Errorf("%w: instance keyed %s carries id %s", ErrCorrupt, id, in.ID)
		}
	}

	parent := make(map[string]string)
	for _, id := range l.AllIDs {
		in := l.ByID[id]
		if len(in.Children) > 0 && !in.IsLayout {
			return fmt.Errorf("%w: %s is not a layout but owns children", ErrCorrupt, id)
		}
		for _, c := range in.Children {
			if _, ok := l.ByID[c]; !ok {
				return fmt.Errorf("%w: %s references missing child %s", ErrCorrupt, id, c)
			}
			if c == id {
				return fmt.Errorf("%w: %s contains itself", ErrCorrupt, id)
			}
			if p, dup := parent[c]; dup {
				return fmt.Errorf("%w: %s owned by both %s and %s", ErrCorrupt, c, p, id)
			}
			parent[c] = id
		}
	}

	// With single ownership, a cycle shows up as a walk up the parent chain
	// that never reaches a root.
	for _, id := range l.AllIDs {
		cur, steps := id, 0
		for {
			p, ok := parent[cur]
			if !ok {
				break
			}
			cur = p
			steps++
			if steps > len(l.AllIDs) {
				return fmt.Errorf("%w: cycle through %s", ErrCorrupt, id)
			}
		}
	}

	if l.SelectedID != "" {
		if _, ok := l.ByID[l.SelectedID]; !ok {
			return fmt.Errorf("%w: selected id %s has no instance", ErrCorrupt, l.SelectedID)
		}
	}
	return nil
}
