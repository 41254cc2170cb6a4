package account

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"magicwords/core/apperr"

	"github.com/go-playground/validator/v10"
)

const (
	msgRequired     = "This field is required."
	msgInvalidEmail = "Enter a valid email address."
)

func newValidate() *validator.Validate {
	v := validator.New()
	// report fields by their wire name
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "email":
		return msgInvalidEmail
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	default:
		return "Invalid value."
	}
}

// checkStruct converts validator failures on s into a ValidationError.
func (s *Service) checkStruct(in any) *apperr.ValidationError {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	out := apperr.NewValidationError()
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		out.Add("non_field_errors", err.Error())
		return out
	}
	for _, fe := range ves {
		out.Add(fe.Field(), fieldMessage(fe))
	}
	return out
}

// checkVar validates a single value against tag and records failures on field.
func (s *Service) checkVar(errs *apperr.ValidationError, field, value, tag string) {
	err := s.validate.Var(value, tag)
	if err == nil {
		return
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		for _, fe := range ves {
			errs.Add(field, fieldMessage(fe))
		}
		return
	}
	errs.Add(field, err.Error())
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
