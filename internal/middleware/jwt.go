package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/coinwave/azax/internal/auth"
)

// UserIDLocal is the fiber Locals key carrying the authenticated identity id.
const UserIDLocal = "user_id"

// JWTAuth returns a middleware that validates bearer access tokens and stores
// the authenticated identity id in the request locals.
func JWTAuth(tokens *auth.TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])

		userID, err := tokens.Verify(tokenStr)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		c.Locals(UserIDLocal, userID)
		return c.Next()
	}
}

// AuthenticatedUser returns the identity id stored by JWTAuth.
func AuthenticatedUser(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDLocal).(string)
	return id
}
