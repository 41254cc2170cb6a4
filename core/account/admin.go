package account

import (
	"context"
	"strings"

	"magicwords/core/passwords"
	"magicwords/logger"
	"magicwords/model"
	"magicwords/repository"
)

// AdminUpdateInput replaces every editable field of an account.
type AdminUpdateInput struct {
	Username    string `json:"username" validate:"required,max=255"`
	Email       string `json:"email" validate:"required,email,max=150"`
	PhoneNumber string `json:"phone_number" validate:"required,max=12"`
	Password    string `json:"password" validate:"required"`
}

// AdminList returns every non-superuser account ordered by id.
func (s *Service) AdminList(ctx context.Context, p *model.Principal) ([]model.AccountView, error) {
	if err := s.requireSuperuser(ctx, p); err != nil {
		return nil, err
	}
	accounts, err := s.accounts.List(ctx, repository.ListOptions{ExcludeSuperusers: true, OrderBy: repository.OrderByID})
	if err != nil {
		return nil, err
	}
	return model.Views(accounts), nil
}

// AdminSearch matches query against username, email and phone number.
// A blank query lists everything like AdminList.
func (s *Service) AdminSearch(ctx context.Context, p *model.Principal, query string) ([]model.AccountView, error) {
	if err := s.requireSuperuser(ctx, p); err != nil {
		return nil, err
	}
	opts := repository.ListOptions{ExcludeSuperusers: true, OrderBy: repository.OrderByID}
	if q := strings.TrimSpace(query); q != "" {
		opts.Search = q
		opts.OrderBy = repository.OrderByUsername
	}
	accounts, err := s.accounts.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	return model.Views(accounts), nil
}

// AdminUpdate overwrites the account with id.
func (s *Service) AdminUpdate(ctx context.Context, p *model.Principal, id int64, in AdminUpdateInput) (model.AccountView, error) {
	if err := s.requireSuperuser(ctx, p); err != nil {
		return model.AccountView{}, err
	}
	a, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return model.AccountView{}, err
	}

	in.Email = normalizeEmail(in.Email)
	if errs := s.checkStruct(in); errs != nil {
		return model.AccountView{}, errs
	}
	if errs := s.passwords.Validate(in.Password, passwords.Attributes{Username: in.Username, Email: in.Email}); errs != nil {
		return model.AccountView{}, errs
	}
	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return model.AccountView{}, err
	}

	a.Username = in.Username
	a.Email = in.Email
	a.PhoneNumber = in.PhoneNumber
	a.PasswordHash = hash
	if err := s.accounts.Update(ctx, a); err != nil {
		return model.AccountView{}, err
	}
	logger.Info("[AdminUpdate] account updated",
		logger.Int64("account_id", a.ID),
		logger.Int64("by", p.AccountID))
	return a.View(), nil
}

// AdminDelete permanently removes the account with id and its image.
func (s *Service) AdminDelete(ctx context.Context, p *model.Principal, id int64) error {
	if err := s.requireSuperuser(ctx, p); err != nil {
		return err
	}
	a, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.accounts.Delete(ctx, id); err != nil {
		return err
	}
	if s.images != nil {
		s.removeImage(ctx, a.Image)
	}
	logger.Info("[AdminDelete] account deleted",
		logger.Int64("account_id", id),
		logger.Int64("by", p.AccountID))
	return nil
}
