// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the JSON API of the editor and the public
// site renderer.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"sitecraft/internal/builder"
	"sitecraft/internal/imaging"
	"sitecraft/internal/middleware"
	"sitecraft/internal/schema"
	"sitecraft/internal/sites"
	"sitecraft/internal/workspace"
)

// maxJSONBody bounds request bodies of the JSON endpoints.
const maxJSONBody = 1 << 20

// errBadRequest marks malformed input detected by the handlers themselves.
var errBadRequest = errors.New("bad request")

// writeJSON writes v as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write json response failed", "error", err)
	}
}

// writeError maps domain errors to status codes. Unexpected errors are
// logged and reported as 500 without details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, sites.ErrNotFound), errors.Is(err, builder.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, sites.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, workspace.ErrNotOpen):
		status = http.StatusConflict
	case errors.Is(err, sites.ErrSlugTaken):
		status = http.StatusConflict
	case errors.Is(err, builder.ErrNothingToUndo), errors.Is(err, builder.ErrNothingToRedo),
		errors.Is(err, builder.ErrNoSelection):
		status = http.StatusConflict
	case errors.Is(err, builder.ErrValidation), errors.Is(err, schema.ErrUnknownType),
		errors.Is(err, schema.ErrUnknownSubtype), errors.Is(err, schema.ErrUnknownProperty),
		errors.Is(err, imaging.ErrUnsupported):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, sites.ErrInvalid), errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		middleware.JSONError(w, status, "internal server error")
		return
	}
	middleware.JSONError(w, status, err.Error())
}

// decodeJSON reads a JSON body into dst, rejecting unknown fields and
// trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("%w: unexpected data after JSON body", errBadRequest)
	}
	return nil
}

// pathUUID parses the URL parameter name as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", errBadRequest, name)
	}
	return id, nil
}

// currentUser returns the authenticated user's id. The routes using it sit
// behind RequireAuth, so a missing session is a wiring error.
func currentUser(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.UserID(r.Context())
	if !ok {
		return uuid.Nil, errors.New("no session in request context")
	}
	return id, nil
}
