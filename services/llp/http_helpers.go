package llp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

func decodeJSON(r *http.Request, dest any) error {
	if r.Body == nil {
		return errors.New("request body required")
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	respondJSON(w, status, map[string]any{"error": err.Error()})
}

// respondServiceError maps the service error taxonomy onto HTTP statuses:
// validation → 400, not found → 404, domain conflicts → 409.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case IsValidation(err):
		respondError(w, http.StatusBadRequest, err)
	case IsNotFound(err):
		respondError(w, http.StatusNotFound, err)
	case IsDomain(err):
		respondError(w, http.StatusConflict, err)
	default:
		respondError(w, http.StatusInternalServerError, err)
	}
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 5*time.Second)
}
