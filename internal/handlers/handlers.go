// Package handlers contains the HTTP layer: thin fiber handlers that
// validate input, call into the service and store layers, and shape JSON
// responses. Ownership is enforced by scoping every query to the
// authenticated user id.
package handlers

import "github.com/gofiber/fiber/v2"

// mustUserID reads the authenticated user id placed in locals by the auth
// middleware. Routes using it are always registered behind that middleware.
func mustUserID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}
