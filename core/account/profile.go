package account

import (
	"context"
	"fmt"
	"strings"

	"magicwords/core/apperr"
	"magicwords/core/passwords"
	"magicwords/logger"
	"magicwords/model"
)

// SelfUpdate is a partial update of the caller's own account. A nil field
// is left unchanged. Blank PhoneNumber and Password are also treated as
// unchanged; Username and Email apply whenever present.
type SelfUpdate struct {
	Username    *string `json:"username"`
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phone_number"`
	Password    *string `json:"password"`
}

func (s *Service) loadSelf(ctx context.Context, p *model.Principal) (*model.Account, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: authentication required", apperr.ErrUnauthorized)
	}
	return s.accounts.GetByID(ctx, p.AccountID)
}

// GetSelf returns the caller's own account.
func (s *Service) GetSelf(ctx context.Context, p *model.Principal) (model.AccountView, error) {
	a, err := s.loadSelf(ctx, p)
	if err != nil {
		return model.AccountView{}, err
	}
	return a.View(), nil
}

// UpdateSelf applies patch to the caller's account. On any validation
// failure nothing is written.
func (s *Service) UpdateSelf(ctx context.Context, p *model.Principal, patch SelfUpdate) (model.AccountView, error) {
	a, err := s.loadSelf(ctx, p)
	if err != nil {
		return model.AccountView{}, err
	}

	errs := apperr.NewValidationError()
	if patch.Username != nil {
		s.checkVar(errs, "username", *patch.Username, "required,max=255")
		a.Username = *patch.Username
	}
	if patch.Email != nil {
		email := normalizeEmail(*patch.Email)
		s.checkVar(errs, "email", email, "required,email,max=150")
		a.Email = email
	}
	if patch.PhoneNumber != nil && strings.TrimSpace(*patch.PhoneNumber) != "" {
		s.checkVar(errs, "phone_number", *patch.PhoneNumber, "max=12")
		a.PhoneNumber = *patch.PhoneNumber
	}
	if !errs.Empty() {
		return model.AccountView{}, errs
	}

	if patch.Password != nil && strings.TrimSpace(*patch.Password) != "" {
		if perrs := s.passwords.Validate(*patch.Password, passwords.Attributes{Username: a.Username, Email: a.Email}); perrs != nil {
			return model.AccountView{}, perrs
		}
		hash, err := s.hashPassword(*patch.Password)
		if err != nil {
			return model.AccountView{}, err
		}
		a.PasswordHash = hash
	}

	if err := s.accounts.Update(ctx, a); err != nil {
		return model.AccountView{}, err
	}
	logger.Info("[UpdateSelf] profile updated", logger.Int64("account_id", a.ID))
	return a.View(), nil
}
