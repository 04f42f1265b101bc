// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package autosave

import (
	"reflect"
	"slices"

	"sitecraft/internal/element"
)

// Patch carries the parts of a library that changed. Nil fields are
// unchanged and must not be written.
type Patch struct {
	ByID       map[string]*element.Instance `json:"byId,omitempty"`
	AllIDs     *[]string                    `json:"allIds,omitempty"`
	SelectedID *string                      `json:"selectedId,omitempty"`
	Configs    *element.Config              `json:"configs,omitempty"`
}

// Update is the payload of one persist call.
type Update struct {
	Updates    Patch    `json:"updates"`
	DeletedIDs []string `json:"deletedIds"`
}

// Empty reports whether the update would change nothing.
func (u Update) Empty() bool {
	return len(u.Updates.ByID) == 0 &&
		u.Updates.AllIDs == nil &&
		u.Updates.SelectedID == nil &&
		u.Updates.Configs == nil &&
		len(u.DeletedIDs) == 0
}

// Diff computes the minimal update turning prev into cur: added or modified
// instances, ids present in prev but not in cur, and the top-level
// collections only when they differ. A nil prev is an empty library.
func Diff(prev, cur *element.Library) Update {
	if prev == nil {
		prev = element.New()
	}
	u := Update{DeletedIDs: []string{}}

	for id, in := range cur.ByID {
		if old, ok := prev.ByID[id]; ok && instanceEqual(old, in) {
			continue
		}
		if u.Updates.ByID == nil {
			u.Updates.ByID = make(map[string]*element.Instance)
		}
		u.Updates.ByID[id] = in
	}
	for _, id := range prev.AllIDs {
		if _, ok := cur.ByID[id]; !ok {
			u.DeletedIDs = append(u.DeletedIDs, id)
		}
	}

	if !slices.Equal(prev.AllIDs, cur.AllIDs) {
		ids := slices.Clone(cur.AllIDs)
		if ids == nil {
			ids = []string{}
		}
		u.Updates.AllIDs = &ids
	}
	if prev.SelectedID != cur.SelectedID {
		sel := cur.SelectedID
		u.Updates.SelectedID = &sel
	}
	if !configEqual(prev.Configs, cur.Configs) {
		cfg := cur.Configs
		if cfg == nil {
			cfg = element.Config{}
		}
		u.Updates.Configs = &cfg
	}
	return u
}

// Apply returns lib with u applied. lib is not modified.
func (u Update) Apply(lib *element.Library) *element.Library {
	var out *element.Library
	if lib == nil {
		out = element.New()
	} else {
		out = lib.Clone()
	}
	for _, id := range u.DeletedIDs {
		delete(out.ByID, id)
	}
	for id, in := range u.Updates.ByID {
		out.ByID[id] = in
	}
	if u.Updates.AllIDs != nil {
		out.AllIDs = slices.Clone(*u.Updates.AllIDs)
	} else if len(u.DeletedIDs) > 0 {
		out.AllIDs = slices.DeleteFunc(out.AllIDs, func(id string) bool {
			_, ok := out.ByID[id]
			return !ok
		})
	}
	if u.Updates.SelectedID != nil {
		out.SelectedID = *u.Updates.SelectedID
	}
	if u.Updates.Configs != nil {
		out.Configs = *u.Updates.Configs
	}
	return out
}

func instanceEqual(a, b *element.Instance) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.ID == b.ID &&
		a.Type == b.Type &&
		a.Subtype == b.Subtype &&
		a.Content == b.Content &&
		a.IsLayout == b.IsLayout &&
		slices.Equal(a.Children, b.Children) &&
		configEqual(a.Config, b.Config)
}

// configEqual treats nil and empty bags as equal.
func configEqual(a, b element.Config) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}
