package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"repartition/internal/core"
	"repartition/internal/log"
)

// errorPayload is the uniform error body. Field is set for validation
// failures so clients can highlight the offending input.
type errorPayload struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Headers are already out; nothing left to do but log.
		slog.Error("Failed to encode response", log.FieldError, err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorPayload{Error: message})
}

// writeServiceError maps domain errors onto HTTP statuses. Validation
// failures are client errors, an over-allocated distribution is a
// conflict with the affaire's net amount, unknown cases are 404.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: verr.Reason, Field: verr.Field})
		return
	}

	var oerr *core.OverAllocationError
	if errors.As(err, &oerr) {
		writeJSON(w, http.StatusConflict, errorPayload{Error: oerr.Error()})
		return
	}

	if errors.Is(err, core.ErrAffaireNotFound) {
		writeError(w, http.StatusNotFound, "affaire introuvable")
		return
	}

	s.logger.ErrorContext(r.Context(), "Request failed",
		log.FieldError, err, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
	writeError(w, http.StatusInternalServerError, "erreur interne")
}

// decodeJSON parses a request body into dst with unknown fields rejected.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
