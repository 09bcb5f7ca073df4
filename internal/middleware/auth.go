package middleware

import (
	"github.com/linkfro/linkfro-backend/internal/config"
	"github.com/linkfro/linkfro-backend/internal/dto"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
)

// JWTProtected validates the identity provider's session token. A JWKS URL
// takes precedence over the shared HS256 secret.
func JWTProtected(cfg *config.Config) fiber.Handler {
	jwtCfg := jwtware.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Unauthorized: invalid or expired token",
			})
		},
	}
	if cfg.AuthJWKSURL != "" {
		jwtCfg.JWKSetURLs = []string{cfg.AuthJWKSURL}
	} else {
		jwtCfg.SigningKey = jwtware.SigningKey{Key: []byte(cfg.AuthJWTSecret)}
	}
	return jwtware.New(jwtCfg)
}
