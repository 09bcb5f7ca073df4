package middleware

import (
	"context"
	"slices"

	"github.com/gofiber/fiber/v2"
	"github.com/linkfro/linkfro-backend/internal/dto"
	"github.com/linkfro/linkfro-backend/internal/services"
)

type RoleResolver interface {
	Resolve(ctx context.Context, userID string) services.Role
}

// ResolveRole looks up the caller's role once per request. It must run after
// JWTProtected.
func ResolveRole(resolver RoleResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := GetUserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		c.Locals(roleLocalsKey, resolver.Resolve(c.UserContext(), userID))
		return c.Next()
	}
}

// RequireRoles lets the request through only when the resolved role is one of roles.
func RequireRoles(roles ...services.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if slices.Contains(roles, GetRole(c)) {
			return c.Next()
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "You do not have permission to perform this action",
		})
	}
}
