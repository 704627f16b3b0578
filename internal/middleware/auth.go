package middleware

import (
	"github.com/gofiber/fiber/v2"

	"coachd/pkg/auth"
)

// JWTAuth verifies the bearer token and stores the authenticated identity
// in request locals under "user_id" and "user_email".
func JWTAuth(jwtAuth *auth.JWTAuth) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := auth.ExtractToken(c.Get("Authorization"))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing or malformed authorization header",
			})
		}

		user, err := jwtAuth.VerifyAccessToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("user_id", user.ID)
		c.Locals("user_email", user.Email)
		return c.Next()
	}
}

// UserID reads the authenticated user id set by JWTAuth. Handlers behind
// the middleware can rely on it being present.
func UserID(c *fiber.Ctx) string {
	if id, ok := c.Locals("user_id").(string); ok {
		return id
	}
	return ""
}
