// Package testutil builds Fiber apps, requests and tokens for the server's
// handler and middleware tests.
package testutil

import (
	"testing"

	"alumni-portal/cmd/server/ctxkeys"
	"alumni-portal/cmd/server/handlers/httperr"
	"alumni-portal/internal/config"
	"alumni-portal/internal/logger"
	"alumni-portal/internal/services/auth"
	util "alumni-portal/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// testBodyLimit leaves room for multipart attachment tests.
const testBodyLimit = 8 << 20

// CreateTestApp returns a Fiber app wired with the production error handler
// and a debug text logger.
func CreateTestApp(t *testing.T) *fiber.App {
	t.Helper()
	_, err := logger.Init(config.Config{LogLevel: "debug", LogFormat: "text"})
	require.NoError(t, err)

	return fiber.New(fiber.Config{
		ErrorHandler: httperr.Handler,
		BodyLimit:    testBodyLimit,
	})
}

func CreateTestValidator(t *testing.T) *validator.Validate {
	t.Helper()
	return util.NewValidator()
}

// AsUser stands in for the JWT middleware: every request through it is
// authenticated as id with role.
func AsUser(id bson.ObjectID, role auth.Role) fiber.Handler {
	email := id.Hex() + "@example.com"
	return func(c *fiber.Ctx) error {
		c.Locals(ctxkeys.UserIDKey, id.Hex())
		c.Locals(ctxkeys.UserEmailKey, email)
		c.Locals(ctxkeys.UserRoleKey, string(role))
		return c.Next()
	}
}
