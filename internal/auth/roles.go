package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/gift-portal/pkg/util"
)

// RequireUser ensures a portal user session is attached to the request.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Kind != PrincipalUser || principal.User == nil {
			return apperrors.NewUnauthorized("user session required")
		}
		return c.Next()
	}
}

// RequireAdmin ensures an admin session is attached to the request.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Kind != PrincipalAdmin {
			return apperrors.NewUnauthorized("admin session required")
		}
		return c.Next()
	}
}

// RequireAnyKind ensures the caller is one of the allowed principal kinds.
func RequireAnyKind(allowed ...PrincipalKind) fiber.Handler {
	allowedSet := make(map[PrincipalKind]struct{}, len(allowed))
	for _, kind := range allowed {
		allowedSet[kind] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("unauthorized")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Kind]; !exists {
			return apperrors.NewForbidden("insufficient privileges")
		}
		return c.Next()
	}
}
