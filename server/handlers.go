package server

import (
	"context"

	"magicwords/config"
	"magicwords/core/account"
	"magicwords/core/auth"
	"magicwords/core/imagegen"
	"magicwords/model"
	"magicwords/storage"
)

// AccountService is what the handlers need from the account service.
type AccountService interface {
	Register(ctx context.Context, in account.RegisterInput) (model.AccountView, error)
	Login(ctx context.Context, in account.LoginInput) (auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string) error
	Authenticate(accessToken string) (*model.Principal, error)

	GetSelf(ctx context.Context, p *model.Principal) (model.AccountView, error)
	UpdateSelf(ctx context.Context, p *model.Principal, patch account.SelfUpdate) (model.AccountView, error)
	UpdateProfileImage(ctx context.Context, p *model.Principal, in account.ProfileImage) (string, error)

	AdminList(ctx context.Context, p *model.Principal) ([]model.AccountView, error)
	AdminSearch(ctx context.Context, p *model.Principal, query string) ([]model.AccountView, error)
	AdminUpdate(ctx context.Context, p *model.Principal, id int64, in account.AdminUpdateInput) (model.AccountView, error)
	AdminDelete(ctx context.Context, p *model.Principal, id int64) error
}

// HealthFunc reports whether the backing store is reachable.
type HealthFunc func(ctx context.Context) error

// APIHandler 处理所有API请求
type APIHandler struct {
	accounts  AccountService
	images    storage.ImageStore
	generator imagegen.Generator
	health    HealthFunc
	cfg       *config.Config
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(
	accounts AccountService,
	images storage.ImageStore,
	generator imagegen.Generator,
	health HealthFunc,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		accounts:  accounts,
		images:    images,
		generator: generator,
		health:    health,
		cfg:       cfg,
	}
}
