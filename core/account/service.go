// Package account implements registration, sessions, self-service profile
// changes and admin management of accounts.
package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"magicwords/cache"
	"magicwords/core/apperr"
	"magicwords/core/auth"
	"magicwords/core/passwords"
	"magicwords/logger"
	"magicwords/model"
	"magicwords/repository"
	"magicwords/storage"

	"github.com/go-playground/validator/v10"
)

// Deps are the collaborators of a Service. Revocations and Images may be
// nil only in callers that never touch sessions or profile images.
type Deps struct {
	Accounts       repository.AccountRepository
	Passwords      *passwords.Validator
	Hasher         auth.Hasher
	Tokens         *auth.Issuer
	Revocations    cache.RevocationStore
	Images         storage.ImageStore
	URLs           storage.URLBuilder
	MaxUploadBytes int64
	// MaxImagePixels caps width*height of uploads; zero uses DefaultMaxImagePixels.
	MaxImagePixels int64
}

// DefaultMaxImagePixels matches Pillow's decompression-bomb limit.
const DefaultMaxImagePixels = 89478485

type Service struct {
	accounts    repository.AccountRepository
	passwords   *passwords.Validator
	hasher      auth.Hasher
	tokens      *auth.Issuer
	revocations cache.RevocationStore
	images      storage.ImageStore
	urls        storage.URLBuilder
	maxUpload   int64
	maxPixels   int64
	validate    *validator.Validate
	now         func() time.Time
}

func NewService(d Deps) *Service {
	if d.Passwords == nil {
		d.Passwords = passwords.NewDefaultValidator(passwords.Options{})
	}
	if d.Revocations == nil {
		d.Revocations = cache.NewMemoryRevocations()
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = 10 << 20
	}
	if d.MaxImagePixels <= 0 {
		d.MaxImagePixels = DefaultMaxImagePixels
	}
	return &Service{
		accounts:    d.Accounts,
		passwords:   d.Passwords,
		hasher:      d.Hasher,
		tokens:      d.Tokens,
		revocations: d.Revocations,
		images:      d.Images,
		urls:        d.URLs,
		maxUpload:   d.MaxUploadBytes,
		maxPixels:   d.MaxImagePixels,
		validate:    newValidate(),
		now:         time.Now,
	}
}

// subject is the token view of a.
func (s *Service) subject(a *model.Account) auth.Subject {
	return auth.Subject{
		ID:          a.ID,
		Username:    a.Username,
		PhoneNumber: a.PhoneNumber,
		Email:       a.Email,
		ImageURL:    s.urls.URL(a.Image),
		IsSuperuser: a.IsSuperuser,
	}
}

// requireSuperuser re-reads the caller so a demoted or deleted admin loses
// access before their token expires.
func (s *Service) requireSuperuser(ctx context.Context, p *model.Principal) error {
	if p == nil {
		return fmt.Errorf("%w: authentication required", apperr.ErrUnauthorized)
	}
	caller, err := s.accounts.GetByID(ctx, p.AccountID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return fmt.Errorf("%w: caller no longer exists", apperr.ErrUnauthorized)
		}
		return err
	}
	if !caller.IsActive || !caller.IsSuperuser {
		logger.Warn("[Admin] non-superuser denied", logger.Int64("account_id", p.AccountID))
		return fmt.Errorf("%w: only superusers can perform this action", apperr.ErrUnauthorized)
	}
	return nil
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}
