package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
)

// mediaPath is the local route prefix of the public media URL.
func (h *APIHandler) mediaPath() string {
	prefix := h.cfg.MediaURLPrefix
	if u, err := url.Parse(prefix); err == nil && u.Path != "" {
		prefix = u.Path
	}
	if prefix == "" {
		prefix = "/media/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}

// NewRouter 使用 gorilla/mux 创建路由器. Middleware wraps the whole router
// so preflight requests and unmatched routes are handled and logged too.
func NewRouter(h *APIHandler) http.Handler {
	router := mux.NewRouter()

	// 用户认证相关的API端点
	router.HandleFunc("/register/", h.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/token/", h.TokenHandler).Methods(http.MethodPost)
	router.HandleFunc("/token/refresh/", h.TokenRefreshHandler).Methods(http.MethodPost)
	router.HandleFunc("/token/blacklist/", h.TokenBlacklistHandler).Methods(http.MethodPost)

	router.HandleFunc("/userinfo/", h.AuthMiddleware(h.UserInfoHandler)).Methods(http.MethodGet)
	router.HandleFunc("/edit-profile-image/", h.AuthMiddleware(h.EditProfileImageHandler)).Methods(http.MethodPatch)
	router.HandleFunc("/update-user-info/", h.AuthMiddleware(h.UpdateUserInfoHandler)).Methods(http.MethodPut)

	// 管理员
	router.HandleFunc("/list-users/", h.AuthMiddleware(h.ListUsersHandler)).Methods(http.MethodPost)
	router.HandleFunc("/search/", h.AuthMiddleware(h.SearchHandler)).Methods(http.MethodPost)
	router.HandleFunc("/delete-user/{id:[0-9]+}/", h.AuthMiddleware(h.DeleteUserHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/update-user-admin/{id:[0-9]+}/", h.AuthMiddleware(h.UpdateUserAdminHandler)).Methods(http.MethodPut)

	router.HandleFunc("/img/", h.AuthMiddleware(h.GenerateImageHandler)).Methods(http.MethodPost)

	media := h.mediaPath()
	router.PathPrefix(media).HandlerFunc(h.MediaHandler(media)).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/healthz/", h.HealthHandler).Methods(http.MethodGet)

	return recoverMiddleware(loggingMiddleware(corsMiddleware(h.cfg.CORSAllowOrigin)(router)))
}
