package middleware

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the JSON shape of every API error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSONError writes {"error": message} with the given status.
func JSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorBody{Error: message})
}
