package middleware

import (
	"strings"

	"go-distribution-ws/internal/model"
	"go-distribution-ws/internal/repository"
	"go-distribution-ws/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// RequireAuth is middleware that validates JWT token and sets user info in context
func RequireAuth(userRepo repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c, "missing authorization token")
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return unauthorized(c, "invalid authorization format, use: Bearer <token>")
		}

		claims, err := jwt.ValidateToken(parts[1])
		if err != nil {
			return unauthorized(c, "invalid or expired token")
		}

		// The role is read from storage, not from the token, so a stale token
		// cannot carry an outdated role.
		user, err := userRepo.FindByID(c.UserContext(), claims.UserID)
		if err != nil {
			return unauthorized(c, "user not found")
		}

		c.Locals("user_id", user.ID.String())
		c.Locals("user_email", user.Email)
		c.Locals("user_name", user.Username)
		c.Locals("user_role", string(user.Role))

		return c.Next()
	}
}

// RequireRole lets the request through when the authenticated user holds one of roles.
func RequireRole(roles ...model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		current, ok := c.Locals("user_role").(string)
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "no role found", "kind": "PERMISSION_ERROR"})
		}
		for _, r := range roles {
			if string(r) == current {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "forbidden for role " + current,
			"kind":  "PERMISSION_ERROR",
		})
	}
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg, "kind": "UNAUTHENTICATED"})
}
