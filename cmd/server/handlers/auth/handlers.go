package auth

import (
	"context"

	"alumni-portal/cmd/server/handlers/handlerutil"
	"alumni-portal/internal/logger"
	"alumni-portal/internal/services/auth"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// AuthService defines the interface for auth service
type AuthService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.AuthResponse, error)
	Login(ctx context.Context, req auth.LoginRequest) (*auth.AuthResponse, error)
	ForgotPassword(ctx context.Context, req auth.ForgotPasswordRequest) (*auth.MessageResponse, error)
	VerifyOTP(ctx context.Context, req auth.VerifyOTPRequest) (*auth.MessageResponse, error)
	ResetPassword(ctx context.Context, req auth.ResetPasswordRequest) (*auth.MessageResponse, error)
	Me(ctx context.Context, userID bson.ObjectID) (*auth.User, error)
	UpdateStudentProfile(ctx context.Context, userID bson.ObjectID, patch auth.StudentProfileUpdate) (*auth.User, error)
	UpdateAlumniProfile(ctx context.Context, userID bson.ObjectID, patch auth.AlumniProfileUpdate) (*auth.User, error)
}

// Handlers contains the auth HTTP handlers
type Handlers struct {
	authService AuthService
	validator   *validator.Validate
}

// NewHandlers creates new auth handlers
func NewHandlers(authService AuthService, validator *validator.Validate) *Handlers {
	return &Handlers{
		authService: authService,
		validator:   validator,
	}
}

// Register handles account creation
// @Summary Register a student or alumni
// @Description Students must use the institutional email domain. Alumni accounts wait for admin approval before they can log in.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.RegisterRequest true "Registration request"
// @Success 201 {object} auth.AuthResponse
// @Failure 400 {object} httperr.E
// @Failure 429 {object} httperr.E
// @Router /auth/register [post]
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req auth.RegisterRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "Register"); err != nil {
		return err
	}

	resp, err := h.authService.Register(c.UserContext(), req)
	if err != nil {
		logger.L().Warn("registration failed", "handler", "Register", "email", req.Email, "role", req.Role, "error", err)
		return handlerutil.HandleServiceError(err, "Register", bson.ObjectID{})
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Login handles user authentication
// @Summary Authenticate a user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.LoginRequest true "Login request"
// @Success 200 {object} auth.AuthResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 403 {object} httperr.E "Alumni pending approval"
// @Failure 429 {object} httperr.E
// @Router /auth/login [post]
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req auth.LoginRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "Login"); err != nil {
		return err
	}

	resp, err := h.authService.Login(c.UserContext(), req)
	if err != nil {
		return handlerutil.HandleServiceError(err, "Login", bson.ObjectID{})
	}

	return c.JSON(resp)
}

// ForgotPassword mails a one-time reset code
// @Summary Request a password reset code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.ForgotPasswordRequest true "Email"
// @Success 200 {object} auth.MessageResponse
// @Failure 400 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /auth/forgot-password [post]
func (h *Handlers) ForgotPassword(c *fiber.Ctx) error {
	var req auth.ForgotPasswordRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "ForgotPassword"); err != nil {
		return err
	}

	resp, err := h.authService.ForgotPassword(c.UserContext(), req)
	if err != nil {
		return handlerutil.HandleServiceError(err, "ForgotPassword", bson.ObjectID{})
	}
	return c.JSON(resp)
}

// VerifyOTP checks a reset code without consuming it
// @Summary Verify a password reset code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.VerifyOTPRequest true "Email and code"
// @Success 200 {object} auth.MessageResponse
// @Failure 400 {object} httperr.E
// @Router /auth/verify-otp [post]
func (h *Handlers) VerifyOTP(c *fiber.Ctx) error {
	var req auth.VerifyOTPRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "VerifyOTP"); err != nil {
		return err
	}

	resp, err := h.authService.VerifyOTP(c.UserContext(), req)
	if err != nil {
		return handlerutil.HandleServiceError(err, "VerifyOTP", bson.ObjectID{})
	}
	return c.JSON(resp)
}

// ResetPassword sets a new password using a valid reset code
// @Summary Reset password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.ResetPasswordRequest true "Email, code and new password"
// @Success 200 {object} auth.MessageResponse
// @Failure 400 {object} httperr.E
// @Router /auth/reset-password [post]
func (h *Handlers) ResetPassword(c *fiber.Ctx) error {
	var req auth.ResetPasswordRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "ResetPassword"); err != nil {
		return err
	}

	resp, err := h.authService.ResetPassword(c.UserContext(), req)
	if err != nil {
		return handlerutil.HandleServiceError(err, "ResetPassword", bson.ObjectID{})
	}
	return c.JSON(resp)
}

// Me returns the authenticated user
// @Summary Get current user
// @Tags auth
// @Produce json
// @Security Bearer
// @Success 200 {object} auth.User
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /me [get]
func (h *Handlers) Me(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	user, err := h.authService.Me(c.UserContext(), userID)
	if err != nil {
		return handlerutil.HandleServiceError(err, "Me", userID)
	}
	return c.JSON(user)
}

// UpdateStudentProfile completes or edits the caller's student profile
// @Summary Update student profile
// @Tags profile
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body auth.StudentProfileUpdate true "Fields to change"
// @Success 200 {object} auth.User
// @Failure 400 {object} httperr.E
// @Failure 403 {object} httperr.E
// @Router /student/profile [put]
func (h *Handlers) UpdateStudentProfile(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	var req auth.StudentProfileUpdate
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "UpdateStudentProfile"); err != nil {
		return err
	}

	user, err := h.authService.UpdateStudentProfile(c.UserContext(), userID, req)
	if err != nil {
		return handlerutil.HandleServiceError(err, "UpdateStudentProfile", userID)
	}
	return c.JSON(user)
}

// UpdateAlumniProfile completes or edits the caller's alumni profile
// @Summary Update alumni profile
// @Tags profile
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body auth.AlumniProfileUpdate true "Fields to change"
// @Success 200 {object} auth.User
// @Failure 400 {object} httperr.E
// @Failure 403 {object} httperr.E
// @Router /alumni/profile [put]
func (h *Handlers) UpdateAlumniProfile(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	var req auth.AlumniProfileUpdate
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "UpdateAlumniProfile"); err != nil {
		return err
	}

	user, err := h.authService.UpdateAlumniProfile(c.UserContext(), userID, req)
	if err != nil {
		return handlerutil.HandleServiceError(err, "UpdateAlumniProfile", userID)
	}
	return c.JSON(user)
}

