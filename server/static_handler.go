package server

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"magicwords/core/apperr"
	"magicwords/logger"
	"magicwords/storage"
)

// MediaHandler streams a stored profile image from object storage.
func (h *APIHandler) MediaHandler(prefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, prefix)
		if !storage.ValidKey(key) {
			writeError(w, r, apperr.ErrNotFound)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		object, info, err := h.images.Open(ctx, key)
		if err != nil {
			writeError(w, r, err)
			return
		}
		defer object.Close()

		contentType := info.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
		w.Header().Set("Cache-Control", "public, max-age=31536000") // keys are never reused

		if _, err := io.Copy(w, object); err != nil {
			logger.Warn("Error serving file from MinIO", logger.String("key", key), logger.ErrorField(err))
		}
	}
}

// HealthHandler reports 200 when the database answers and 503 otherwise.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.health != nil {
		if err := h.health(ctx); err != nil {
			logger.Warn("Health check failed", logger.ErrorField(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
