// Package apperr holds the error taxonomy shared by the store, the services
// and the HTTP layer. Callers classify with errors.Is / errors.As.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUpstream           = errors.New("upstream provider failure")
	ErrDuplicateKey       = errors.New("duplicate key")
)

// ValidationError carries client-fixable problems keyed by field name.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns an empty ValidationError ready for Add.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

// FieldError is shorthand for a single-field ValidationError.
func FieldError(field string, messages ...string) *ValidationError {
	v := NewValidationError()
	for _, m := range messages {
		v.Add(field, m)
	}
	return v
}

func (v *ValidationError) Add(field, message string) {
	v.Fields[field] = append(v.Fields[field], message)
}

func (v *ValidationError) Empty() bool {
	return len(v.Fields) == 0
}

func (v *ValidationError) Error() string {
	fields := make([]string, 0, len(v.Fields))
	for f := range v.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(v.Fields[f], " ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// DuplicateKeyError names the unique field that was violated.
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	if e.Field == "" {
		return ErrDuplicateKey.Error()
	}
	return fmt.Sprintf("%s: %s", ErrDuplicateKey, e.Field)
}

func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

// AsValidation converts a DuplicateKeyError into the field-level shape the
// API returns for it. Other errors yield nil.
func AsValidation(err error) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	var dup *DuplicateKeyError
	if errors.As(err, &dup) {
		field := dup.Field
		if field == "" {
			field = "non_field_errors"
		}
		return FieldError(field, fmt.Sprintf("account with this %s already exists.", strings.ReplaceAll(field, "_", " ")))
	}
	return nil
}
