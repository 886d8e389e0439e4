package handlerutil

import (
	"errors"
	"net/http"

	"alumni-portal/cmd/server/ctxkeys"
	"alumni-portal/cmd/server/handlers/httperr"
	"alumni-portal/internal/logger"
	"alumni-portal/internal/services/admin"
	"alumni-portal/internal/services/auth"
	"alumni-portal/internal/services/mentorship"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// GetUserID extracts user ID from fiber context
func GetUserID(c *fiber.Ctx) (bson.ObjectID, error) {
	userIDStr, ok := c.Locals(ctxkeys.UserIDKey).(string)
	if !ok {
		logger.L().Error("user ID not found in context", "handler", "getUserID", "path", c.Path())
		return bson.ObjectID{}, httperr.Fail(httperr.ErrUnauthorized)
	}

	userID, err := bson.ObjectIDFromHex(userIDStr)
	if err != nil {
		logger.L().Error("invalid user ID", "handler", "getUserID", "userIDStr", userIDStr, "path", c.Path(), "error", err)
		return bson.ObjectID{}, httperr.Fail(httperr.ErrUnauthorized)
	}

	return userID, nil
}

// GetCaller extracts the authenticated principal (id and role).
func GetCaller(c *fiber.Ctx) (mentorship.Caller, error) {
	userID, err := GetUserID(c)
	if err != nil {
		return mentorship.Caller{}, err
	}
	role, _ := c.Locals(ctxkeys.UserRoleKey).(string)
	if !auth.Role(role).Valid() {
		logger.L().Error("invalid role in context", "handler", "getCaller", "role", role, "path", c.Path())
		return mentorship.Caller{}, httperr.Fail(httperr.ErrUnauthorized)
	}
	return mentorship.Caller{ID: userID, Role: auth.Role(role)}, nil
}

// ParseAndValidateBody parses request body and validates it
func ParseAndValidateBody(c *fiber.Ctx, req any, validator *validator.Validate, handlerName string) error {
	userID, _ := GetUserID(c)
	userIDHex := userID.Hex()

	if err := c.BodyParser(req); err != nil {
		logger.L().Warn("failed to parse request body", "handler", handlerName, "userID", userIDHex, "error", err)
		return httperr.Fail(httperr.ErrBadRequest)
	}

	if err := validator.Struct(req); err != nil {
		logger.L().Warn("request validation failed", "handler", handlerName, "userID", userIDHex, "error", err)
		return httperr.InvalidInput(err)
	}

	return nil
}

// ExtractObjectID reads and validates an ObjectID URL parameter.
func ExtractObjectID(c *fiber.Ctx, param, handlerName string) (bson.ObjectID, error) {
	raw := c.Params(param)
	id, err := bson.ObjectIDFromHex(raw)
	if err != nil {
		logger.L().Warn("invalid id parameter", "handler", handlerName, "param", param, "value", raw, "path", c.Path())
		return bson.ObjectID{}, httperr.Fail(httperr.ErrInvalidID)
	}
	return id, nil
}

// ParseObjectID validates a hex id taken from a query string or form field.
// An empty value yields the zero id.
func ParseObjectID(raw, field, handlerName string) (bson.ObjectID, error) {
	if raw == "" {
		return bson.ObjectID{}, nil
	}
	id, err := bson.ObjectIDFromHex(raw)
	if err != nil {
		logger.L().Warn("invalid id field", "handler", handlerName, "field", field, "value", raw)
		return bson.ObjectID{}, httperr.Fail(httperr.E{
			Status:  http.StatusBadRequest,
			Message: "Invalid " + field,
		})
	}
	return id, nil
}

// statusByError maps domain errors to response codes. Their messages are
// safe to show to clients.
var statusByError = []struct {
	err    error
	status int
}{
	{auth.ErrInvalidRole, http.StatusBadRequest},
	{auth.ErrPasswordTooShort, http.StatusBadRequest},
	{auth.ErrInvalidEmailFormat, http.StatusBadRequest},
	{auth.ErrUserExists, http.StatusBadRequest},
	{auth.ErrOTPNotRequested, http.StatusBadRequest},
	{auth.ErrInvalidOTP, http.StatusBadRequest},
	{auth.ErrOTPExpired, http.StatusBadRequest},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized},
	{auth.ErrPendingApproval, http.StatusForbidden},
	{auth.ErrWrongRole, http.StatusForbidden},
	{auth.ErrUserNotFound, http.StatusNotFound},

	{mentorship.ErrEmptyMessage, http.StatusBadRequest},
	{mentorship.ErrMissingCounterpart, http.StatusBadRequest},
	{mentorship.ErrInvalidEmoji, http.StatusBadRequest},
	{mentorship.ErrNotParticipant, http.StatusForbidden},
	{mentorship.ErrStudentNotFound, http.StatusNotFound},
	{mentorship.ErrMentorNotFound, http.StatusNotFound},
	{mentorship.ErrMessageNotFound, http.StatusNotFound},
	{mentorship.ErrFileNotFound, http.StatusNotFound},
	{mentorship.ErrNotAssigned, http.StatusNotFound},
	{mentorship.ErrNoMentor, http.StatusNotFound},
	{mentorship.ErrMentorFull, http.StatusConflict},
	{mentorship.ErrStudentTaken, http.StatusConflict},
	{mentorship.ErrAlreadyAssigned, http.StatusConflict},
	{mentorship.ErrMentorNotApproved, http.StatusConflict},
	{mentorship.ErrAttachmentTooLarge, http.StatusRequestEntityTooLarge},

	{admin.ErrAlreadyApproved, http.StatusBadRequest},
	{admin.ErrMissingEmail, http.StatusBadRequest},
	{admin.ErrInvalidUsername, http.StatusBadRequest},
	{admin.ErrAlumniNotFound, http.StatusNotFound},
	{admin.ErrStudentNotFound, http.StatusNotFound},
	{admin.ErrAdminNotFound, http.StatusNotFound},
}

// StatusFor returns the response code for a domain error, or 0 if err is
// not a known domain error.
func StatusFor(err error) (int, error) {
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return m.status, m.err
		}
	}
	return 0, nil
}

// HandleServiceError converts a service error into the HTTP response error.
// Unknown errors are logged and hidden behind a generic 500.
func HandleServiceError(err error, handlerName string, userID bson.ObjectID) error {
	logFields := []any{"handler", handlerName, "userID", userID.Hex(), "error", err}

	if status, known := StatusFor(err); status != 0 {
		logger.L().Info("request rejected", append(logFields, "status", status)...)
		return httperr.WithStatus(status, known)
	}

	logger.L().Error("service operation failed", logFields...)
	return httperr.Fail(httperr.ErrInternal)
}
