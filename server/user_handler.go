package server

import (
	"errors"
	"io"
	"net/http"

	"magicwords/core/account"
	"magicwords/core/apperr"
	"magicwords/logger"
)

// UserInfoHandler returns the caller's account.
func (h *APIHandler) UserInfoHandler(w http.ResponseWriter, r *http.Request) {
	view, err := h.accounts.GetSelf(r.Context(), PrincipalFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// UpdateUserInfoHandler applies a partial update to the caller's account.
func (h *APIHandler) UpdateUserInfoHandler(w http.ResponseWriter, r *http.Request) {
	var patch account.SelfUpdate
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	view, err := h.accounts.UpdateSelf(r.Context(), PrincipalFromContext(r.Context()), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// EditProfileImageHandler accepts a multipart form with an "image" file and
// an optional "email" selecting the target account.
func (h *APIHandler) EditProfileImageHandler(w http.ResponseWriter, r *http.Request) {
	limit := h.cfg.MaxUploadBytes
	// allow room for the multipart envelope; the service enforces the file limit
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, apperr.FieldError("image", "The submitted file is too large."))
			return
		}
		logger.Warn("[ProfileImage] 解析表单失败", logger.ErrorField(err))
		writeError(w, r, apperr.FieldError("image", "The submitted data was not a file. Check the encoding type on the form."))
		return
	}
	defer r.MultipartForm.RemoveAll()

	in := account.ProfileImage{Email: r.FormValue("email")}
	file, _, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, limit+1))
		if err != nil {
			writeError(w, r, err)
			return
		}
		in.Data = data
	case errors.Is(err, http.ErrMissingFile):
		// reported by the service as a missing file
	default:
		writeError(w, r, err)
		return
	}

	url, err := h.accounts.UpdateProfileImage(r.Context(), PrincipalFromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"updated_image": url})
}
