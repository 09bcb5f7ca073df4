package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/linkfro/linkfro-backend/internal/services"
)

const roleLocalsKey = "role"

// GetUserID extracts the identity provider user id (the sub claim) from the
// verified token in context.
func GetUserID(c *fiber.Ctx) (string, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return "", errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("missing sub claim")
	}
	return sub, nil
}

// GetRole returns the role stored by ResolveRole, or consumer.
func GetRole(c *fiber.Ctx) services.Role {
	if role, ok := c.Locals(roleLocalsKey).(services.Role); ok {
		return role
	}
	return services.RoleConsumer
}
