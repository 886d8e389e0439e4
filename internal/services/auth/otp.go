package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"alumni-portal/internal/utils/crypto"
)

const (
	otpMin  = 100000
	otpSpan = 900000
)

// ForgotPasswordRequest starts the reset flow for an email.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email" example:"student@mgmcen.ac.in"`
}

// VerifyOTPRequest checks a code without consuming it.
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email" example:"student@mgmcen.ac.in"`
	OTP   string `json:"otp" validate:"required,len=6,numeric" example:"482913"`
}

// ResetPasswordRequest consumes a code and sets a new password.
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email" example:"student@mgmcen.ac.in"`
	OTP         string `json:"otp" validate:"required,len=6,numeric" example:"482913"`
	NewPassword string `json:"newPassword" validate:"required,password" example:"newsecret"`
}

// MessageResponse is a plain acknowledgement. Warning is set when a
// best-effort side effect such as mail delivery failed.
type MessageResponse struct {
	Message string `json:"message" example:"OTP sent to your email"`
	Warning string `json:"warning,omitempty" example:"email delivery failed"`
}

// generateOTP returns a uniformly random 6-digit code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpSpan))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}

func (s *Service) otpTTL() time.Duration {
	return time.Duration(s.config.OTPTTLMinutes) * time.Minute
}

// ForgotPassword stores a fresh reset code for the account, replacing any
// earlier one, and mails it. Mail failure is reported as a warning.
func (s *Service) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (*MessageResponse, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}

	code, err := generateOTP()
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}
	hash, err := crypto.HashPassword(code, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash otp: %w", err)
	}

	if err := s.repo.SetResetOTP(ctx, user.ID, hash, s.now().Add(s.otpTTL()).UTC()); err != nil {
		return nil, fmt.Errorf("store otp: %w", err)
	}

	resp := &MessageResponse{Message: "OTP sent to your email"}
	if err := s.mailer.SendOTP(ctx, user.Email, code, s.otpTTL()); err != nil {
		s.log.Warn("failed to send otp email", "user_id", user.ID.Hex(), "error", err)
		resp.Warning = "OTP generated but the email could not be delivered"
	}
	return resp, nil
}

// VerifyOTP checks the stored code without consuming it.
func (s *Service) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*MessageResponse, error) {
	if _, err := s.checkOTP(ctx, req.Email, req.OTP); err != nil {
		return nil, err
	}
	return &MessageResponse{Message: "OTP verified"}, nil
}

// ResetPassword checks the code, stores the new password hash and clears the code.
func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) (*MessageResponse, error) {
	if len(req.NewPassword) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	user, err := s.checkOTP(ctx, req.Email, req.OTP)
	if err != nil {
		return nil, err
	}

	hash, err := crypto.HashPassword(req.NewPassword, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.ResetPassword(ctx, user.ID, hash); err != nil {
		return nil, fmt.Errorf("reset password: %w", err)
	}

	s.log.Info("password reset", "user_id", user.ID.Hex())
	return &MessageResponse{Message: "Password reset successful"}, nil
}

// checkOTP applies the not-requested, mismatch and expiry checks in that order.
func (s *Service) checkOTP(ctx context.Context, email, otp string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrOTPNotRequested
		}
		return nil, err
	}

	if user.ResetOTPHash == "" || user.ResetOTPExpires == nil {
		return nil, ErrOTPNotRequested
	}
	if crypto.CheckPassword(otp, user.ResetOTPHash) != nil {
		return nil, ErrInvalidOTP
	}
	if s.now().After(*user.ResetOTPExpires) {
		return nil, ErrOTPExpired
	}
	return user, nil
}
