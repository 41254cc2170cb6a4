package model

import "time"

// Account is the sole persisted entity: a registered user identity.
// Email is the login identifier and is stored lower-cased.
type Account struct {
	ID           int64   `json:"id" gorm:"primaryKey;autoIncrement"`
	Username     string  `json:"username" gorm:"size:255;not null"`
	Email        string  `json:"email" gorm:"size:150;not null;uniqueIndex:uq_accounts_email"`
	PhoneNumber  string  `json:"phone_number" gorm:"size:12;not null;uniqueIndex:uq_accounts_phone_number"`
	PasswordHash string  `json:"-" gorm:"column:password;size:255;not null"` // never exposed
	IsActive     bool    `json:"is_active" gorm:"not null"`
	IsStaff      bool    `json:"is_staff" gorm:"not null"`
	IsSuperuser  bool    `json:"is_superuser" gorm:"not null;index"`
	Image        *string `json:"image,omitempty" gorm:"size:255"` // object key in the image store

	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName 指定表名
func (Account) TableName() string {
	return "accounts"
}

// AccountView is the public shape of an account. It never carries the hash.
type AccountView struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

// View returns the public shape of a.
func (a *Account) View() AccountView {
	return AccountView{
		ID:          a.ID,
		Username:    a.Username,
		Email:       a.Email,
		PhoneNumber: a.PhoneNumber,
	}
}

// Views maps a slice of accounts to their public shapes. The result is never nil.
func Views(accounts []Account) []AccountView {
	out := make([]AccountView, 0, len(accounts))
	for i := range accounts {
		out = append(out, accounts[i].View())
	}
	return out
}

// Principal is the authenticated caller of a request, derived from a
// verified access token.
type Principal struct {
	AccountID   int64
	Email       string
	IsSuperuser bool
}
