// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package builder

import (
	"testing"

	"sitecraft/internal/element"
)

func snap(selected string) *element.Library {
	l := element.New()
	l.SelectedID = selected
	return l
}

func TestHistoryLinear(t *testing.T) {
	s0, s1, s2, s3 := snap("0"), snap("1"), snap("2"), snap("3")
	h := NewHistory(s0, 0)

	h.Commit(s1)
	h.Commit(s2)
	h.Commit(s3)

	if got, err := h.Undo(); err != nil || got != s2 {
		t.Fatalf("first undo = %v, %v; want s2", got, err)
	}
	if got, err := h.Undo(); err != nil || got != s1 {
		t.Fatalf("second undo = %v, %v; want s1", got, err)
	}
	if got, err := h.Redo(); err != nil || got != s2 {
		t.Fatalf("redo = %v, %v; want s2", got, err)
	}

	s4 := snap("4")
	h.Commit(s4)
	if h.CanRedo() {
		t.Fatal("commit must clear the redo stack")
	}
	if _, err := h.Redo(); err != ErrNothingToRedo {
		t.Fatalf("redo after commit: got %v, want ErrNothingToRedo", err)
	}

	// s4 <- s2 <- s1 <- s0
	for _, want := range []*element.Library{s2, s1, s0} {
		got, err := h.Undo()
		if err != nil || got != want {
			t.Fatalf("undo = %v, %v; want selection %s", got, err, want.SelectedID)
		}
	}
	if _, err := h.Undo(); err != ErrNothingToUndo {
		t.Fatalf("undo past the start: got %v, want ErrNothingToUndo", err)
	}
}

func TestHistoryLimitDropsOldest(t *testing.T) {
	h := NewHistory(snap("0"), 2)
	h.Commit(snap("1"))
	h.Commit(snap("2"))
	h.Commit(snap("3"))

	if got, _ := h.Undo(); got.SelectedID != "2" {
		t.Fatalf("undo = %s, want 2", got.SelectedID)
	}
	if got, _ := h.Undo(); got.SelectedID != "1" {
		t.Fatalf("undo = %s, want 1", got.SelectedID)
	}
	if h.CanUndo() {
		t.Fatal("snapshot 0 should have been dropped")
	}
}
