package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"magicwords/core/apperr"
	"magicwords/logger"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("Failed to encode response", logger.ErrorField(err))
	}
}

// reason returns the text after "<sentinel>: " in err, or fallback.
func reason(err, sentinel error, fallback string) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return fallback
}

// writeError maps the error taxonomy onto HTTP statuses and bodies.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if ve := apperr.AsValidation(err); ve != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"validation_errors": ve.Fields})
		return
	}

	switch {
	case errors.Is(err, apperr.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": reason(err, apperr.ErrInvalidCredentials, "Invalid credentials"),
		})
	case errors.Is(err, apperr.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": reason(err, apperr.ErrUnauthorized, "Authentication credentials were not provided."),
		})
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found."})
	case errors.Is(err, apperr.ErrUpstream):
		logger.Warn("Upstream failure", logger.String("path", r.URL.Path), logger.ErrorField(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "Image provider request failed."})
	default:
		logger.Error("Request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.ErrorField(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
}

// decodeJSON reads a JSON object from r into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	logger.Debug("Invalid request body", logger.String("path", r.URL.Path), logger.ErrorField(err))
	return apperr.FieldError("non_field_errors", "Malformed request body.")
}
