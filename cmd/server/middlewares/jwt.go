package middlewares

import (
	"errors"
	"fmt"
	"net/http"
	"slices"

	"alumni-portal/cmd/server/ctxkeys"
	"alumni-portal/cmd/server/handlers/httperr"
	"alumni-portal/internal/config"
	"alumni-portal/internal/logger"
	"alumni-portal/internal/services/auth"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Token claim errors.
var (
	ErrMissingUserID = errors.New("invalid token: missing userId")
	ErrMissingEmail  = errors.New("invalid token: missing email")
	ErrInvalidRole   = errors.New("invalid token: missing or unknown role")
)

// Claims is the verified identity carried by an access token.
type Claims struct {
	UserID bson.ObjectID
	Email  string
	Role   auth.Role
}

// ClaimsFromMap extracts userId, email and role from verified token claims.
func ClaimsFromMap(m jwt.MapClaims) (Claims, error) {
	rawID, ok := m["userId"].(string)
	if !ok || rawID == "" {
		return Claims{}, ErrMissingUserID
	}
	id, err := bson.ObjectIDFromHex(rawID)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMissingUserID, err)
	}

	email, ok := m["email"].(string)
	if !ok || email == "" {
		return Claims{}, ErrMissingEmail
	}

	role, _ := m["role"].(string)
	if !auth.Role(role).Valid() {
		return Claims{}, ErrInvalidRole
	}

	return Claims{UserID: id, Email: email, Role: auth.Role(role)}, nil
}

// ParseToken verifies an HS256 token and returns its claims. It is used
// where the token does not arrive in the Authorization header.
func ParseToken(token, secret string) (Claims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Claims{}, err
	}
	if !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, errors.New("invalid claims")
	}
	return ClaimsFromMap(mc)
}

// SetLocals stores the caller identity for downstream handlers.
func SetLocals(c *fiber.Ctx, cl Claims) {
	c.Locals(ctxkeys.UserIDKey, cl.UserID.Hex())
	c.Locals(ctxkeys.UserEmailKey, cl.Email)
	c.Locals(ctxkeys.UserRoleKey, string(cl.Role))
}

// JWT returns a configured Fiber middleware that:
//
//   - validates the Bearer token signature using cfg.JWTSecret
//   - makes sure the token carries "userId", "email" and "role" claims
//   - stores those values in ctx.Locals so downstream handlers can trust them.
//
// On any problem it bubbles up a 401 via the global httperr handler.
func JWT(cfg config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		SuccessHandler: func(c *fiber.Ctx) error {
			// Token already verified at this point.
			token, _ := c.Locals("user").(*jwt.Token)
			if token == nil {
				return unauthorized(errors.New("token missing from context"))
			}
			mc, _ := token.Claims.(jwt.MapClaims)

			cl, err := ClaimsFromMap(mc)
			if err != nil {
				return unauthorized(err)
			}
			SetLocals(c, cl)
			return c.Next()
		},

		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return unauthorized(err)
		},
	})
}

func unauthorized(err error) error {
	return httperr.Fail(httperr.E{
		Status:  http.StatusUnauthorized,
		Message: "Unauthorized: " + err.Error(),
	})
}

// RequireRole lets the request through only when the caller holds one of roles.
// It must run after JWT.
func RequireRole(roles ...auth.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(ctxkeys.UserRoleKey).(string)
		if slices.Contains(roles, auth.Role(role)) {
			return c.Next()
		}
		logger.L().Warn("role not allowed", "path", c.Path(), "role", role, "allowed", roles)
		return httperr.Fail(httperr.ErrForbidden)
	}
}
