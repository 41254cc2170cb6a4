package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"magicwords/core/apperr"
	"magicwords/core/auth"
	"magicwords/logger"
	"magicwords/model"
)

// ErrNoActiveAccount is the credential failure every login miss reports,
// so callers cannot tell unknown emails from wrong passwords.
var ErrNoActiveAccount = fmt.Errorf("%w: No active account found with the given credentials", apperr.ErrInvalidCredentials)

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login exchanges credentials for an access and refresh token pair.
func (s *Service) Login(ctx context.Context, in LoginInput) (auth.TokenPair, error) {
	in.Email = normalizeEmail(in.Email)
	if errs := s.checkStruct(in); errs != nil {
		return auth.TokenPair{}, errs
	}

	a, err := s.accounts.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			logger.Warn("[Login] unknown email", logger.String("email", in.Email))
			return auth.TokenPair{}, ErrNoActiveAccount
		}
		return auth.TokenPair{}, err
	}

	ok, err := s.hasher.Verify(in.Password, a.PasswordHash)
	if err != nil {
		logger.Error("[Login] stored hash unreadable", logger.Int64("account_id", a.ID), logger.ErrorField(err))
		return auth.TokenPair{}, ErrNoActiveAccount
	}
	if !ok || !a.IsActive {
		logger.Warn("[Login] rejected", logger.Int64("account_id", a.ID), logger.Bool("active", a.IsActive))
		return auth.TokenPair{}, ErrNoActiveAccount
	}

	now := s.now()
	a.LastLogin = &now
	if err := s.accounts.Update(ctx, a); err != nil {
		return auth.TokenPair{}, err
	}

	pair, err := s.tokens.IssuePair(s.subject(a))
	if err != nil {
		return auth.TokenPair{}, err
	}
	logger.Info("[Login] success", logger.Int64("account_id", a.ID))
	return pair, nil
}

// Refresh returns a new access token for a live refresh token. Claims are
// re-read from the store so profile changes show up immediately.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.liveRefresh(ctx, refreshToken)
	if err != nil {
		return "", err
	}

	a, err := s.accounts.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", fmt.Errorf("%w: account no longer exists", apperr.ErrUnauthorized)
		}
		return "", err
	}
	if !a.IsActive {
		return "", fmt.Errorf("%w: account is inactive", apperr.ErrUnauthorized)
	}
	return s.tokens.IssueAccess(s.subject(a))
}

// Logout revokes a refresh token until it would have expired.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.liveRefresh(ctx, refreshToken)
	if err != nil {
		return err
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.revocations.Revoke(ctx, claims.ID, ttl); err != nil {
		return err
	}
	logger.Info("[Logout] refresh token revoked", logger.Int64("account_id", claims.UserID))
	return nil
}

func (s *Service) liveRefresh(ctx context.Context, refreshToken string) (*auth.Claims, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, apperr.FieldError("refresh", msgRequired)
	}
	claims, err := s.tokens.Parse(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("%w: Token is blacklisted", apperr.ErrUnauthorized)
	}
	return claims, nil
}

// Authenticate verifies a bearer access token and returns its principal.
func (s *Service) Authenticate(accessToken string) (*model.Principal, error) {
	claims, err := s.tokens.Parse(accessToken, auth.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	return &model.Principal{
		AccountID:   claims.UserID,
		Email:       claims.Email,
		IsSuperuser: claims.IsSuperuser,
	}, nil
}
