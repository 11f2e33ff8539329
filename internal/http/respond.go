package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"korexdash/internal/core"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondData wraps a payload in the success envelope the frontend expects.
func respondData(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, map[string]any{
		"success": true,
		"data":    data,
	})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{
		"success": false,
		"message": message,
	})
}

// respondMappedError translates the service error taxonomy to HTTP.
func respondMappedError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrAuthRequired):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, core.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrMalformedResponse), core.IsUpstreamError(err):
		respondError(w, http.StatusBadGateway, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
