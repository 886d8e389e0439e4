package httperr

import (
	"errors"
	"net/http"

	"alumni-portal/internal/logger"
	util "alumni-portal/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// E represents an HTTP error with status code and message
type E struct {
	Status  int    `json:"-" example:"400"`
	Message string `json:"error" example:"Bad Request"`
	Details any    `json:"details,omitempty"`
}

// Error implements the error interface
func (e E) Error() string {
	return e.Message
}

// JSON returns the error as JSON response
func (e E) JSON(c *fiber.Ctx) error {
	return c.Status(e.Status).JSON(e)
}

// Fail returns the error for Fiber's global error handler to process
func Fail(err E) error {
	return err
}

// InvalidInput wraps a validation error and returns the standard response
// with one detail entry per offending field.
func InvalidInput(err error) error {
	e := E{
		Status:  http.StatusBadRequest,
		Message: "Invalid input",
	}
	if details := util.FieldErrors(err); len(details) > 0 {
		e.Details = details
	} else {
		e.Message = "Invalid input: " + err.Error()
	}
	return Fail(e)
}

// WithStatus turns a domain error into an E carrying its message.
func WithStatus(status int, err error) error {
	return Fail(E{Status: status, Message: err.Error()})
}

// InternalError returns an internal server error with the given message
func InternalError(message string) E {
	return E{Status: http.StatusInternalServerError, Message: message}
}

var (
	ErrBadRequest           = E{Status: fiber.StatusBadRequest, Message: "Bad Request"}
	ErrInvalidID            = E{Status: fiber.StatusBadRequest, Message: "Invalid id"}
	ErrUnauthorized         = E{Status: fiber.StatusUnauthorized, Message: "Unauthorized"}
	ErrUserNotAuthenticated = E{Status: fiber.StatusUnauthorized, Message: "User not authenticated"}
	ErrForbidden            = E{Status: fiber.StatusForbidden, Message: "Access denied"}
	ErrNotFound             = E{Status: fiber.StatusNotFound, Message: "Not Found"}
	ErrTooManyRequests      = E{Status: fiber.StatusTooManyRequests, Message: "Too Many Requests"}
	ErrInternal             = InternalError("Internal Server Error")
)

// Handler renders every error returned from a route as {"error": ...}.
// Errors that are neither E nor *fiber.Error are logged and hidden behind a
// generic 500 so driver or mail failures never leak to clients.
func Handler(c *fiber.Ctx, err error) error {
	var e E
	var fe *fiber.Error
	switch {
	case errors.As(err, &e):
		if e.Status >= fiber.StatusInternalServerError {
			logger.L().Error("request failed", "method", c.Method(), "path", c.Path(), "status", e.Status, "error", e.Message)
		}
		return e.JSON(c)
	case errors.As(err, &fe):
		return E{Status: fe.Code, Message: fe.Message}.JSON(c)
	default:
		logger.L().Error("unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
		return ErrInternal.JSON(c)
	}
}
