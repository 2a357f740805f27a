package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/locate-ticket-service/internal/domain"
	apperrors "github.com/spec-kit/locate-ticket-service/pkg/util"
)

// RequireAuthenticated ensures a caller identity is present.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CallerFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireAdmin ensures the caller holds the admin role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := CallerFromContext(c)
		if !ok || caller.Role != domain.UserRoleAdmin {
			return apperrors.NewForbidden("admin role required")
		}
		return c.Next()
	}
}
