package testutil

import (
	"time"

	"alumni-portal/internal/services/auth"

	"github.com/golang-jwt/jwt/v5"
)

// TestJWTSecret signs tokens in handler and router tests.
const TestJWTSecret = "test-secret-with-32-plus-characters"

// CreateTestJWT signs an HS256 token carrying the same claims the auth
// service issues. A negative expiry yields an already expired token.
func CreateTestJWT(userID, email string, role auth.Role, secret []byte, expiry time.Duration) (string, error) {
	issued := time.Now().UTC()
	claims := jwt.MapClaims{
		"userId": userID,
		"email":  email,
		"role":   string(role),
		"iat":    issued.Unix(),
		"exp":    issued.Add(expiry).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
