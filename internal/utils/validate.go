package util

import (
	"errors"
	"reflect"
	"strings"

	"alumni-portal/internal/utils/crypto"

	"github.com/go-playground/validator/v10"
)

// FieldError is the per-field detail attached to validation failures.
type FieldError struct {
	Field string `json:"field" example:"email"`
	Rule  string `json:"rule" example:"required"`
}

// NewValidator returns a validator with the project's custom rules registered.
// Field names in errors follow the json tag.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := crypto.RegisterPasswordValidator(v); err != nil {
		panic(err)
	}
	return v
}

// FieldErrors flattens validator errors into per-field details.
// Errors of other types yield nil.
func FieldErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}
