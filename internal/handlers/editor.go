package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"sitecraft/internal/autosave"
	"sitecraft/internal/builder"
	"sitecraft/internal/element"
	"sitecraft/internal/engine"
	"sitecraft/internal/workspace"
)

// Editor exposes the editing session of a website: selection, property and
// structural edits, undo/redo and autosave status.
type Editor struct {
	workspaces *workspace.Manager
	engine     *engine.Engine
}

// NewEditor creates the editor handler group.
func NewEditor(workspaces *workspace.Manager, eng *engine.Engine) *Editor {
	return &Editor{workspaces: workspaces, engine: eng}
}

// stateResponse is returned by every session endpoint so the client can
// redraw without a second request.
type stateResponse struct {
	WebsiteID  uuid.UUID          `json:"websiteId"`
	Library    *element.Library   `json:"library"`
	View       []*engine.ViewNode `json:"view"`
	SelectedID string             `json:"selectedId,omitempty"`
	CanUndo    bool               `json:"canUndo"`
	CanRedo    bool               `json:"canRedo"`
	InGesture  bool               `json:"inGesture"`
	Status     autosave.Status    `json:"status"`
}

type propertyRequest struct {
	Path    string  `json:"path"`
	Value   any     `json:"value"`
	Content *string `json:"content,omitempty"`
}

type orderRequest struct {
	ParentID string   `json:"parentId,omitempty"`
	IDs      []string `json:"ids"`
}

type moveRequest struct {
	ParentID string `json:"parentId"`
	Index    *int   `json:"index,omitempty"`
}

// frameRequest moves and/or resizes an element; omitted pairs are left as is.
type frameRequest struct {
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
}

type selectRequest struct {
	ID string `json:"id"`
}

func (h *Editor) state(ws *workspace.Workspace, s *builder.Session) stateResponse {
	lib := s.Library()
	return stateResponse{
		WebsiteID:  ws.Website().ID,
		Library:    lib,
		View:       h.engine.Renderer().RenderRoots(lib),
		SelectedID: lib.SelectedID,
		CanUndo:    s.CanUndo(),
		CanRedo:    s.CanRedo(),
		InGesture:  s.InGesture(),
	}
}

// Open starts (or joins) the editing session of a website.
func (h *Editor) Open(w http.ResponseWriter, r *http.Request) {
	userID, websiteID, ok := h.ids(w, r)
	if !ok {
		return
	}
	ws, err := h.workspaces.Open(r.Context(), userID, websiteID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, r, ws, http.StatusOK, nil)
}

// State returns the current session state.
func (h *Editor) State(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, nil)
}

// Close flushes pending edits and ends the session.
func (h *Editor) Close(w http.ResponseWriter, r *http.Request) {
	userID, websiteID, ok := h.ids(w, r)
	if !ok {
		return
	}
	if err := h.workspaces.Close(r.Context(), userID, websiteID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Flush persists pending edits immediately and reports the resulting status.
func (h *Editor) Flush(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if err := ws.Flush(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Status())
}

// AddElement inserts a new instance and selects it.
func (h *Editor) AddElement(w http.ResponseWriter, r *http.Request) {
	var spec builder.AddSpec
	if err := decodeJSON(w, r, &spec); err != nil {
		writeError(w, r, err)
		return
	}
	h.editStatus(w, r, http.StatusCreated, func(s *builder.Session) error {
		_, err := s.AddElement(spec)
		return err
	})
}

// DeleteElement removes an instance and its descendants.
func (h *Editor) DeleteElement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "elementID")
	h.edit(w, r, func(s *builder.Session) error {
		return s.DeleteElement(id)
	})
}

// UpdateElement sets one property of an instance, or its content.
func (h *Editor) UpdateElement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "elementID")
	var req propertyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.edit(w, r, func(s *builder.Session) error {
		if req.Content != nil {
			return s.UpdateContent(id, *req.Content)
		}
		if req.Path == "" {
			return fmt.Errorf("%w: path or content is required", errBadRequest)
		}
		return s.UpdateProperty(id, req.Path, req.Value)
	})
}

// MoveElement reparents an instance.
func (h *Editor) MoveElement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "elementID")
	var req moveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.edit(w, r, func(s *builder.Session) error {
		return s.Reparent(id, req.ParentID, req.Index)
	})
}

// SetFrame positions and/or sizes an element as one edit, typically at the
// end of a drag.
func (h *Editor) SetFrame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "elementID")
	var req frameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	move := req.X != nil && req.Y != nil
	resize := req.Width != nil && req.Height != nil
	if !move && !resize {
		writeError(w, r, fmt.Errorf("%w: x/y or width/height is required", errBadRequest))
		return
	}
	values := make(map[string]any, 2)
	if move {
		values["position"] = map[string]any{"x": *req.X, "y": *req.Y}
	}
	if resize {
		values["size"] = map[string]any{"width": *req.Width, "height": *req.Height}
	}
	h.edit(w, r, func(s *builder.Session) error {
		return s.UpdateProperties(id, values)
	})
}

// Reorder replaces the order of the root instances, or of a layout's
// children when parentId is given.
func (h *Editor) Reorder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.edit(w, r, func(s *builder.Session) error {
		if req.ParentID != "" {
			return s.ReorderChildren(req.ParentID, req.IDs)
		}
		return s.Reorder(req.IDs)
	})
}

// UpdatePage sets a page-level property.
func (h *Editor) UpdatePage(w http.ResponseWriter, r *http.Request) {
	var req propertyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.edit(w, r, func(s *builder.Session) error {
		return s.UpdatePageConfig(req.Path, req.Value)
	})
}

// Select marks an instance as selected.
func (h *Editor) Select(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.edit(w, r, func(s *builder.Session) error {
		if !s.Select(req.ID) {
			return fmt.Errorf("select: %w: %s", builder.ErrNotFound, req.ID)
		}
		return nil
	})
}

// ClearSelection deselects.
func (h *Editor) ClearSelection(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, func(s *builder.Session) error {
		s.ClearSelection()
		return nil
	})
}

// UpdateSelected sets a property of the selected instance.
func (h *Editor) UpdateSelected(w http.ResponseWriter, r *http.Request) {
	var req propertyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.edit(w, r, func(s *builder.Session) error {
		return s.UpdateSelectedProperty(req.Path, req.Value)
	})
}

func (h *Editor) Undo(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, func(s *builder.Session) error { return s.Undo() })
}

func (h *Editor) Redo(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, func(s *builder.Session) error { return s.Redo() })
}

// BeginGesture starts coalescing edits into one undo step.
func (h *Editor) BeginGesture(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, func(s *builder.Session) error {
		s.BeginGesture()
		return nil
	})
}

// EndGesture commits the edits made since BeginGesture.
func (h *Editor) EndGesture(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, func(s *builder.Session) error {
		s.EndGesture()
		return nil
	})
}

// Preview renders the session's current document as a full HTML page.
func (h *Editor) Preview(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var lib *element.Library
	_ = ws.Do(func(s *builder.Session) error {
		lib = s.Library()
		return nil
	})
	page, err := h.engine.RenderPreview(ws.Website(), lib)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(page)
}

func (h *Editor) edit(w http.ResponseWriter, r *http.Request, fn func(*builder.Session) error) {
	h.editStatus(w, r, http.StatusOK, fn)
}

func (h *Editor) editStatus(w http.ResponseWriter, r *http.Request, status int, fn func(*builder.Session) error) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	h.respond(w, r, ws, status, fn)
}

// respond runs fn against the session and writes the resulting state. The
// library is captured under the workspace lock so it matches the flags.
func (h *Editor) respond(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, status int, fn func(*builder.Session) error) {
	var resp stateResponse
	err := ws.Do(func(s *builder.Session) error {
		if fn != nil {
			if err := fn(s); err != nil {
				return err
			}
		}
		resp = h.state(ws, s)
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp.Status = ws.Status()
	writeJSON(w, status, resp)
}

func (h *Editor) workspace(w http.ResponseWriter, r *http.Request) (*workspace.Workspace, bool) {
	userID, websiteID, ok := h.ids(w, r)
	if !ok {
		return nil, false
	}
	ws, err := h.workspaces.Get(userID, websiteID)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return ws, true
}

func (h *Editor) ids(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return uuid.Nil, uuid.Nil, false
	}
	websiteID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, websiteID, true
}
