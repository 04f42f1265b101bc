package handlers

import (
	"net/http"

	"sitecraft/internal/schema"
)

// Schema serves the element catalog the editor builds its palette and
// property panels from.
type Schema struct {
	registry *schema.Registry
}

// NewSchema creates the schema handler.
func NewSchema(registry *schema.Registry) *Schema {
	return &Schema{registry: registry}
}

// Catalog lists every element type with its properties. With ?type= it
// describes one type, resolved for ?subtype= when given.
func (h *Schema) Catalog(w http.ResponseWriter, r *http.Request) {
	typ := r.URL.Query().Get("type")
	if typ == "" {
		writeJSON(w, http.StatusOK, h.registry.Catalog())
		return
	}
	cfg, err := h.registry.Config(typ, r.URL.Query().Get("subtype"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg.Describe())
}
