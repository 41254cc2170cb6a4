package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"magicwords/core/apperr"
)

// GenerateImageHandler forwards a prompt to the image provider. The prompt
// is read from {"prompt": "..."} or, for non-JSON bodies, the raw text.
func (h *APIHandler) GenerateImageHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 64<<10))
	if err != nil {
		writeError(w, r, apperr.FieldError("prompt", "The prompt is too long."))
		return
	}

	prompt := string(body)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req struct {
			Prompt string `json:"prompt"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, r, apperr.FieldError("non_field_errors", "Malformed request body."))
			return
		}
		prompt = req.Prompt
	}

	url, err := h.generator.Generate(r.Context(), prompt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"data": url})
}
