package server

import (
	"net/http"
	"strconv"

	"magicwords/core/account"
	"magicwords/core/apperr"

	"github.com/gorilla/mux"
)

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, apperr.ErrNotFound
	}
	return id, nil
}

func (h *APIHandler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	views, err := h.accounts.AdminList(r.Context(), PrincipalFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// SearchHandler filters non-superuser accounts by {"search": "..."}.
func (h *APIHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Search string `json:"search"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	views, err := h.accounts.AdminSearch(r.Context(), PrincipalFromContext(r.Context()), req.Search)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *APIHandler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.accounts.AdminDelete(r.Context(), PrincipalFromContext(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) UpdateUserAdminHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req account.AdminUpdateInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	view, err := h.accounts.AdminUpdate(r.Context(), PrincipalFromContext(r.Context()), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
