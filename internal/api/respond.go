package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every JSON error.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
	Field  string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, resp ErrorResponse) {
	writeJSON(w, logger, status, resp)
}

// decodeJSON reads a single JSON value from the request body.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ValidationError{Field: "body", Message: "request body is required"}
		}
		return ValidationError{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}

// pathID returns the path segment after prefix, e.g. the id in
// /api/analyses/{id}. Nested paths are rejected.
func pathID(path, prefix string) (string, bool) {
	id := strings.TrimPrefix(path, prefix)
	if id == path || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

func writeValidation(w http.ResponseWriter, logger *slog.Logger, err error) {
	var verr ValidationError
	if errors.As(err, &verr) {
		writeError(w, logger, http.StatusBadRequest, ErrorResponse{Error: verr.Message, Field: verr.Field})
		return
	}
	writeError(w, logger, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
}
