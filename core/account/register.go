package account

import (
	"context"

	"magicwords/core/passwords"
	"magicwords/logger"
	"magicwords/model"
)

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Username    string `json:"username" validate:"required,max=255"`
	Email       string `json:"email" validate:"required,email,max=150"`
	PhoneNumber string `json:"phone_number" validate:"required,max=12"`
	Password    string `json:"password" validate:"required"`
}

// Register creates an ordinary account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (model.AccountView, error) {
	a, err := s.create(ctx, in, false)
	if err != nil {
		return model.AccountView{}, err
	}
	logger.Info("[Register] account created",
		logger.Int64("account_id", a.ID),
		logger.String("email", a.Email))
	return a.View(), nil
}

// CreateSuperuser creates an account with staff and superuser rights.
func (s *Service) CreateSuperuser(ctx context.Context, in RegisterInput) (model.AccountView, error) {
	a, err := s.create(ctx, in, true)
	if err != nil {
		return model.AccountView{}, err
	}
	logger.Info("[CreateSuperuser] superuser created",
		logger.Int64("account_id", a.ID),
		logger.String("email", a.Email))
	return a.View(), nil
}

func (s *Service) create(ctx context.Context, in RegisterInput, superuser bool) (*model.Account, error) {
	in.Email = normalizeEmail(in.Email)

	if errs := s.checkStruct(in); errs != nil {
		return nil, errs
	}
	if errs := s.passwords.Validate(in.Password, passwords.Attributes{Username: in.Username, Email: in.Email}); errs != nil {
		return nil, errs
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	a := &model.Account{
		Username:     in.Username,
		Email:        in.Email,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      superuser,
		IsSuperuser:  superuser,
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}
