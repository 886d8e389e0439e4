// Package crypto holds the password and one-time-code hashing used by the
// auth service, together with the "password" validation rule.
package crypto

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password the portal accepts, in characters.
const MinPasswordLength = 6

// ErrMismatch is returned by CheckPassword when the secret does not match.
var ErrMismatch = errors.New("secret does not match hash")

// HashPassword bcrypt-hashes secret. Costs outside bcrypt's range fall back
// to bcrypt.DefaultCost.
func HashPassword(secret string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares secret with a hash produced by HashPassword.
func CheckPassword(secret, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return err
}

// IsStrong reports whether password has at least MinPasswordLength
// characters and is not blank.
func IsStrong(password string) bool {
	return utf8.RuneCountInString(password) >= MinPasswordLength && strings.TrimSpace(password) != ""
}

// RegisterPasswordValidator installs the "password" tag on v. Registering
// it again replaces the rule with the same one.
func RegisterPasswordValidator(v *validator.Validate) error {
	return v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return IsStrong(fl.Field().String())
	})
}
