package auth

import "errors"

// ErrGenAccessToken is returned when we cannot create a JWT.
var ErrGenAccessToken = errors.New("failed to generate access token")

// Registration errors.
var (
	ErrInvalidRole        = errors.New("Invalid role")
	ErrPasswordTooShort   = errors.New("Password must be at least 6 characters long")
	ErrInvalidEmailFormat = errors.New("Invalid email format")
	ErrUserExists         = errors.New("User exists")
)

// Login errors.
var (
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrPendingApproval    = errors.New("Your account is pending admin approval. Please wait for approval before logging in.")
)

// Password reset errors.
var (
	ErrOTPNotRequested = errors.New("OTP not requested")
	ErrInvalidOTP      = errors.New("Invalid OTP")
	ErrOTPExpired      = errors.New("OTP expired")
)

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("User not found")

// ErrWrongRole is returned when an operation targets a user of another role.
var ErrWrongRole = errors.New("operation not allowed for this role")
