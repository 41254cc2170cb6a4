// Package passwords enforces the password policy applied at registration
// and whenever a password is changed.
package passwords

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"magicwords/core/apperr"
)

// Field is the key password problems are reported under.
const Field = "password"

// Attributes are the account values a password may not resemble.
type Attributes struct {
	Username string
	Email    string
}

// Policy checks one property of a candidate password and returns the
// messages for every way it fails.
type Policy interface {
	Check(password string, attrs Attributes) []string
}

// Validator runs a fixed list of policies and collects their messages.
type Validator struct {
	policies []Policy
}

func NewValidator(policies ...Policy) *Validator {
	return &Validator{policies: policies}
}

// Options configures NewDefaultValidator.
type Options struct {
	MinLength     int
	MaxSimilarity float64
	Denylist      *Denylist
}

// NewDefaultValidator returns the standard policy chain: similarity to
// account attributes, minimum length, common passwords, all digits.
func NewDefaultValidator(opts Options) *Validator {
	if opts.MinLength <= 0 {
		opts.MinLength = 8
	}
	if opts.MaxSimilarity <= 0 {
		opts.MaxSimilarity = 0.7
	}
	if opts.Denylist == nil {
		opts.Denylist = NewDenylist()
	}
	return NewValidator(
		UserAttributeSimilarity{MaxSimilarity: opts.MaxSimilarity},
		MinimumLength{Min: opts.MinLength},
		CommonPassword{List: opts.Denylist},
		NumericPassword{},
	)
}

// Validate returns nil when password satisfies every policy.
func (v *Validator) Validate(password string, attrs Attributes) *apperr.ValidationError {
	errs := apperr.NewValidationError()
	for _, p := range v.policies {
		for _, msg := range p.Check(password, attrs) {
			errs.Add(Field, msg)
		}
	}
	if errs.Empty() {
		return nil
	}
	return errs
}

type MinimumLength struct {
	Min int
}

func (p MinimumLength) Check(password string, _ Attributes) []string {
	if utf8.RuneCountInString(password) >= p.Min {
		return nil
	}
	unit := "characters"
	if p.Min == 1 {
		unit = "character"
	}
	return []string{fmt.Sprintf("This password is too short. It must contain at least %d %s.", p.Min, unit)}
}

type NumericPassword struct{}

func (NumericPassword) Check(password string, _ Attributes) []string {
	if password == "" {
		return nil
	}
	for _, r := range password {
		if !unicode.IsDigit(r) {
			return nil
		}
	}
	return []string{"This password is entirely numeric."}
}

type CommonPassword struct {
	List *Denylist
}

func (p CommonPassword) Check(password string, _ Attributes) []string {
	if p.List.Contains(strings.TrimSpace(strings.ToLower(password))) {
		return []string{"This password is too common."}
	}
	return nil
}
