// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package builder implements the editing state machine of one website
// document: selection, property edits, structural edits and undo/redo.
//
// A Session is not safe for concurrent use; the workspace layer serialises
// calls per website.
package builder

import (
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/google/uuid"

	"sitecraft/internal/element"
	"sitecraft/internal/schema"
)

// Observer is notified with the new present snapshot after every change,
// including selection changes and undo/redo. The snapshot must be treated as
// read-only.
type Observer interface {
	Observe(lib *element.Library)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(lib *element.Library)

func (f ObserverFunc) Observe(lib *element.Library) { f(lib) }

// Option configures a Session.
type Option func(*Session)

// WithHistoryLimit caps the number of undo steps.
func WithHistoryLimit(n int) Option {
	return func(s *Session) { s.historyLimit = n }
}

// WithObserver registers an observer of state changes.
func WithObserver(o Observer) Option {
	return func(s *Session) { s.observers = append(s.observers, o) }
}

// WithIDGenerator overrides instance id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Session) { s.newID = fn }
}

// Session owns the editing state of one document.
type Session struct {
	registry     *schema.Registry
	history      *History
	historyLimit int
	observers    []Observer
	newID        func() string

	// gestureBase is the present at BeginGesture, nil outside a gesture.
	gestureBase  *element.Library
	gestureDirty bool
}

// NewSession starts editing lib. The library is validated and then owned by
// the session; callers must not modify it afterwards.
func NewSession(registry *schema.Registry, lib *element.Library, opts ...Option) (*Session, error) {
	if lib == nil {
		lib = element.New()
	}
	if err := lib.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if lib.Configs == nil {
		lib.Configs = element.Config{}
	}
	s := &Session{
		registry: registry,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.history = NewHistory(lib, s.historyLimit)
	return s, nil
}

// Library returns the present snapshot. It must be treated as read-only.
func (s *Session) Library() *element.Library { return s.history.Present() }

// Registry returns the element registry the session validates against.
func (s *Session) Registry() *schema.Registry { return s.registry }

// CanUndo reports whether Undo would succeed.
func (s *Session) CanUndo() bool { return s.history.CanUndo() || s.gestureDirty }

// CanRedo reports whether Redo would succeed.
func (s *Session) CanRedo() bool { return s.history.CanRedo() }

// Selected returns the selected instance, if any.
func (s *Session) Selected() (*element.Instance, bool) {
	lib := s.Library()
	if lib.SelectedID == "" {
		return nil, false
	}
	return lib.Instance(lib.SelectedID)
}

// Select selects id. Unknown ids are ignored and reported with false.
func (s *Session) Select(id string) bool {
	lib := s.Library()
	if _, ok := lib.ByID[id]; !ok {
		return false
	}
	if lib.SelectedID == id {
		return true
	}
	next := lib.Clone()
	next.SelectedID = id
	s.history.replace(next)
	s.notify()
	return true
}

// ClearSelection drops the selection.
func (s *Session) ClearSelection() {
	lib := s.Library()
	if lib.SelectedID == "" {
		return
	}
	next := lib.Clone()
	next.SelectedID = ""
	s.history.replace(next)
	s.notify()
}

// UpdateProperty sets the property at path on instance id. The value is
// validated and normalised against the instance's merged schema. Edits that
// leave the config unchanged do not create an undo step.
func (s *Session) UpdateProperty(id, path string, value any) error {
	return s.UpdateProperties(id, map[string]any{path: value})
}

// UpdateProperties sets several paths on instance id as one edit. Every
// value is validated before anything changes, so either all paths are
// written or none.
func (s *Session) UpdateProperties(id string, values map[string]any) error {
	lib := s.Library()
	in, ok := lib.ByID[id]
	if !ok {
		return fmt.Errorf("update property: %w: %s", ErrNotFound, id)
	}
	cfg, err := s.registry.Config(in.Type, in.Subtype)
	if err != nil {
		return fmt.Errorf("update property: %w: %w", ErrValidation, err)
	}

	updated := in.Config
	for _, path := range slices.Sorted(maps.Keys(values)) {
		nv, err := schema.NormalizePath(cfg, path, values[path])
		if err != nil {
			return fmt.Errorf("update property %s: %w: %w", path, ErrValidation, err)
		}
		if updated, err = element.Set(updated, path, nv); err != nil {
			return fmt.Errorf("update property %s: %w: %w", path, ErrValidation, err)
		}
	}
	if reflect.DeepEqual(updated, in.Config) {
		return nil
	}

	next := lib.Clone()
	next.ByID[id] = in.WithConfig(updated)
	s.apply(next)
	return nil
}

// UpdateSelectedProperty is UpdateProperty on the selected instance.
func (s *Session) UpdateSelectedProperty(path string, value any) error {
	id := s.Library().SelectedID
	if id == "" {
		return fmt.Errorf("update property %s: %w", path, ErrNoSelection)
	}
	return s.UpdateProperty(id, path, value)
}

// UpdateContent replaces the raw text or URL payload of instance id.
func (s *Session) UpdateContent(id, content string) error {
	lib := s.Library()
	in, ok := lib.ByID[id]
	if !ok {
		return fmt.Errorf("update content: %w: %s", ErrNotFound, id)
	}
	if in.Content == content {
		return nil
	}
	upd := *in
	upd.Content = content
	next := lib.Clone()
	next.ByID[id] = &upd
	s.apply(next)
	return nil
}

// UpdatePageConfig sets a property of the page-level bag.
func (s *Session) UpdatePageConfig(path string, value any) error {
	page := s.registry.Page()
	if page == nil {
		return fmt.Errorf("update page config: %w: no page schema", ErrValidation)
	}
	nv, err := schema.NormalizePath(page, path, value)
	if err != nil {
		return fmt.Errorf("update page config: %w: %w", ErrValidation, err)
	}
	lib := s.Library()
	updated, err := element.Set(lib.Configs, path, nv)
	if err != nil {
		return fmt.Errorf("update page config: %w: %w", ErrValidation, err)
	}
	if reflect.DeepEqual(updated, lib.Configs) {
		return nil
	}
	next := lib.Clone()
	next.Configs = updated
	s.apply(next)
	return nil
}

// AddSpec describes a new instance.
type AddSpec struct {
	Type    string `json:"type"`
	Subtype string `json:"subtype,omitempty"`
	Content string `json:"content,omitempty"`

	// ParentID places the instance inside a layout; empty adds a root.
	ParentID string `json:"parentId,omitempty"`

	// Index is the position among the parent's children; nil appends.
	Index *int `json:"index,omitempty"`
}

// AddElement creates an instance with schema defaults resolved for its
// subtype, inserts it and selects it.
func (s *Session) AddElement(spec AddSpec) (*element.Instance, error) {
	cfg, err := s.registry.Config(spec.Type, spec.Subtype)
	if err != nil {
		return nil, fmt.Errorf("add element: %w: %w", ErrValidation, err)
	}
	defaults, err := s.registry.Defaults(spec.Type, cfg.Subtype)
	if err != nil {
		return nil, fmt.Errorf("add element: %w: %w", ErrValidation, err)
	}

	lib := s.Library()
	var parent *element.Instance
	if spec.ParentID != "" {
		p, ok := lib.ByID[spec.ParentID]
		if !ok {
			return nil, fmt.Errorf("add element: parent %w: %s", ErrNotFound, spec.ParentID)
		}
		if !p.IsLayout {
			return nil, fmt.Errorf("add element: %w: parent %s is not a layout", ErrValidation, spec.ParentID)
		}
		parent = p
	}

	in := &element.Instance{
		ID:       s.newID(),
		Type:     cfg.Type,
		Subtype:  cfg.Subtype,
		Content:  spec.Content,
		IsLayout: cfg.IsLayout,
		Config:   element.Config(defaults),
	}
	if in.Content == "" {
		in.Content = defaultContent(cfg.Type)
	}
	if _, dup := lib.ByID[in.ID]; dup {
		return nil, fmt.Errorf("add element: generated id %s already in use", in.ID)
	}

	next := lib.Clone()
	next.ByID[in.ID] = in
	next.AllIDs = append(next.AllIDs, in.ID)
	if parent != nil {
		next.ByID[parent.ID] = parent.WithChildren(insertAt(parent.Children, in.ID, spec.Index))
	}
	next.SelectedID = in.ID
	s.apply(next)
	return in, nil
}

func defaultContent(typ string) string {
	switch typ {
	case schema.TypeText:
		return "New text"
	case schema.TypeButton:
		return "Button"
	}
	return ""
}

// DeleteElement removes id and, for layouts, everything below it. The
// selection is cleared when it pointed into the removed subtree.
func (s *Session) DeleteElement(id string) error {
	lib := s.Library()
	if _, ok := lib.ByID[id]; !ok {
		return fmt.Errorf("delete element: %w: %s", ErrNotFound, id)
	}

	removed := map[string]bool{id: true}
	for _, d := range lib.Descendants(id) {
		removed[d] = true
	}

	next := lib.Clone()
	if pid, ok := lib.Parent(id); ok {
		p := lib.ByID[pid]
		next.ByID[pid] = p.WithChildren(without(p.Children, id))
	}
	for rid := range removed {
		delete(next.ByID, rid)
	}
	next.AllIDs = slices.DeleteFunc(next.AllIDs, func(x string) bool { return removed[x] })
	if removed[next.SelectedID] {
		next.SelectedID = ""
	}
	s.apply(next)
	return nil
}

// Reorder replaces the rendering order. ids must be a permutation of the
// current order.
func (s *Session) Reorder(ids []string) error {
	lib := s.Library()
	if !isPermutation(lib.AllIDs, ids) {
		return fmt.Errorf("reorder: %w: not a permutation of the current order", ErrValidation)
	}
	if slices.Equal(lib.AllIDs, ids) {
		return nil
	}
	next := lib.Clone()
	next.AllIDs = append([]string{}, ids...)
	s.apply(next)
	return nil
}

// ReorderChildren replaces the child order of a layout. ids must be a
// permutation of its current children.
func (s *Session) ReorderChildren(parentID string, ids []string) error {
	lib := s.Library()
	p, ok := lib.ByID[parentID]
	if !ok {
		return fmt.Errorf("reorder children: %w: %s", ErrNotFound, parentID)
	}
	if !isPermutation(p.Children, ids) {
		return fmt.Errorf("reorder children: %w: not a permutation of the children of %s", ErrValidation, parentID)
	}
	if slices.Equal(p.Children, ids) {
		return nil
	}
	next := lib.Clone()
	next.ByID[parentID] = p.WithChildren(append([]string{}, ids...))
	s.apply(next)
	return nil
}

// Reparent moves id under parentID at index, or to the root level when
// parentID is empty. A layout cannot be moved into its own subtree.
func (s *Session) Reparent(id, parentID string, index *int) error {
	lib := s.Library()
	in, ok := lib.ByID[id]
	if !ok {
		return fmt.Errorf("reparent: %w: %s", ErrNotFound, id)
	}
	var parent *element.Instance
	if parentID != "" {
		parent, ok = lib.ByID[parentID]
		if !ok {
			return fmt.Errorf("reparent: parent %w: %s", ErrNotFound, parentID)
		}
		if !parent.IsLayout {
			return fmt.Errorf("reparent: %w: %s is not a layout", ErrValidation, parentID)
		}
		if lib.IsAncestor(in.ID, parentID) {
			return fmt.Errorf("reparent: %w: %s would contain itself", ErrValidation, id)
		}
	}

	old, hasOld := lib.Parent(id)
	switch {
	case !hasOld && parent == nil:
		return nil
	case hasOld && old == parentID:
		if slices.Equal(parent.Children, insertAt(without(parent.Children, id), id, index)) {
			return nil
		}
	}

	next := lib.Clone()
	if hasOld {
		op := next.ByID[old]
		next.ByID[old] = op.WithChildren(without(op.Children, id))
	}
	if parent != nil {
		np := next.ByID[parentID]
		next.ByID[parentID] = np.WithChildren(insertAt(np.Children, id, index))
	}
	s.apply(next)
	return nil
}

// Resize sets the size of instance id.
func (s *Session) Resize(id string, width, height float64) error {
	return s.UpdateProperty(id, "size", map[string]any{"width": width, "height": height})
}

// Move sets the position of instance id. Only free-form layouts honour it
// when rendering.
func (s *Session) Move(id string, x, y float64) error {
	return s.UpdateProperty(id, "position", map[string]any{"x": x, "y": y})
}

// Undo restores the previous snapshot. An open gesture is closed first.
func (s *Session) Undo() error {
	s.EndGesture()
	if _, err := s.history.Undo(); err != nil {
		return err
	}
	s.notify()
	return nil
}

// Redo re-applies the last undone snapshot.
func (s *Session) Redo() error {
	s.EndGesture()
	if _, err := s.history.Redo(); err != nil {
		return err
	}
	s.notify()
	return nil
}

// BeginGesture starts coalescing edits: everything until EndGesture becomes
// a single undo step. Nested calls are ignored.
func (s *Session) BeginGesture() {
	if s.gestureBase != nil {
		return
	}
	s.gestureBase = s.history.Present()
	s.gestureDirty = false
}

// EndGesture closes the current gesture, recording one undo step if any
// edit happened during it.
func (s *Session) EndGesture() {
	if s.gestureBase == nil {
		return
	}
	if s.gestureDirty {
		s.history.push(s.gestureBase)
	}
	s.gestureBase = nil
	s.gestureDirty = false
}

// InGesture reports whether a gesture is open.
func (s *Session) InGesture() bool { return s.gestureBase != nil }

func (s *Session) apply(next *element.Library) {
	if s.gestureBase != nil {
		s.history.amend(next)
		s.gestureDirty = true
	} else {
		s.history.Commit(next)
	}
	s.notify()
}

func (s *Session) notify() {
	lib := s.history.Present()
	for _, o := range s.observers {
		o.Observe(lib)
	}
}

func insertAt(ids []string, id string, index *int) []string {
	out := make([]string, 0, len(ids)+1)
	if index == nil || *index < 0 || *index >= len(ids) {
		out = append(out, ids...)
		return append(out, id)
	}
	out = append(out, ids[:*index]...)
	out = append(out, id)
	return append(out, ids[*index:]...)
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

func isPermutation(current, proposed []string) bool {
	if len(current) != len(proposed) {
		return false
	}
	counts := make(map[string]int, len(current))
	for _, id := range current {
		counts[id]++
	}
	for _, id := range proposed {
		counts[id]--
		if counts[id] < 0 {
			return false
		}
	}
	return true
}
