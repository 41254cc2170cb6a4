package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"magicwords/core/apperr"
	"magicwords/model"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// Order selects the sort key for List.
type Order int

const (
	OrderByID Order = iota
	OrderByUsername
)

// ListOptions filters and orders List results.
type ListOptions struct {
	ExcludeSuperusers bool
	// Search is matched case-insensitively as a substring of username,
	// email or phone number. Empty disables matching.
	Search  string
	OrderBy Order
}

// AccountRepository defines the Account Store contract. Lookups that miss
// return apperr.ErrNotFound; uniqueness violations return a
// *apperr.DuplicateKeyError.
type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	GetByID(ctx context.Context, id int64) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	List(ctx context.Context, opts ListOptions) ([]model.Account, error)
	Update(ctx context.Context, account *model.Account) error
	Delete(ctx context.Context, id int64) error
}

// gormAccountRepository GORM 实现
type gormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a GORM-backed AccountRepository.
func NewGormAccountRepository(db *gorm.DB) AccountRepository {
	return &gormAccountRepository{db: db}
}

func (r *gormAccountRepository) Create(ctx context.Context, account *model.Account) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return fmt.Errorf("create account: %w", wrapGormError(err))
	}
	return nil
}

func (r *gormAccountRepository) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		return nil, fmt.Errorf("get account %d: %w", id, wrapGormError(err))
	}
	return &account, nil
}

func (r *gormAccountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		return nil, fmt.Errorf("get account by email: %w", wrapGormError(err))
	}
	return &account, nil
}

func (r *gormAccountRepository) List(ctx context.Context, opts ListOptions) ([]model.Account, error) {
	q := r.db.WithContext(ctx).Model(&model.Account{})
	if opts.ExcludeSuperusers {
		q = q.Where("is_superuser = ?", false)
	}
	if opts.Search != "" {
		like := "%" + escapeLike(strings.ToLower(opts.Search)) + "%"
		q = q.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(phone_number) LIKE ?", like, like, like)
	}
	switch opts.OrderBy {
	case OrderByUsername:
		q = q.Order("username ASC").Order("id ASC")
	default:
		q = q.Order("id ASC")
	}

	accounts := []model.Account{}
	if err := q.Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("list accounts: %w", wrapGormError(err))
	}
	return accounts, nil
}

// Update writes every mutable column, zero values included.
func (r *gormAccountRepository) Update(ctx context.Context, account *model.Account) error {
	err := r.db.WithContext(ctx).Model(account).
		Select("username", "email", "phone_number", "password", "is_active", "is_staff", "is_superuser", "image", "last_login", "updated_at").
		Updates(account).Error
	if err != nil {
		return fmt.Errorf("update account %d: %w", account.ID, wrapGormError(err))
	}
	return nil
}

func (r *gormAccountRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Account{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete account %d: %w", id, wrapGormError(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete account %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// escapeLike neutralises LIKE wildcards in user input (MySQL escape char is '\').
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

const mysqlErrDuplicateEntry = 1062

// wrapGormError maps driver and ORM errors onto the apperr taxonomy.
func wrapGormError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.ErrNotFound
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
		return &apperr.DuplicateKeyError{Field: duplicateField(mysqlErr.Message)}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &apperr.DuplicateKeyError{}
	}
	return err
}

// duplicateField reads the violated index out of a MySQL 1062 message:
// "Duplicate entry 'x' for key 'accounts.uq_accounts_email'".
func duplicateField(msg string) string {
	i := strings.LastIndex(msg, "for key")
	if i < 0 {
		return ""
	}
	key := msg[i:]
	switch {
	case strings.Contains(key, "phone_number"):
		return "phone_number"
	case strings.Contains(key, "email"):
		return "email"
	}
	return ""
}
