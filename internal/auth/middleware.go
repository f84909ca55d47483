package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gift-portal/internal/domain"
	apperrors "github.com/spec-kit/gift-portal/pkg/util"
)

const principalKey = "auth_principal"

const (
	AccessDeniedPath      = "/access-denied"
	AdminLoginPath        = "/admin"
	AdminAccessDeniedPath = "/admin/access-denied"
	AdminDashboardPath    = "/admin/dashboard"
	UserHomePath          = "/"

	// ServiceTokenHeader carries the service-to-service portal token.
	ServiceTokenHeader = "X-Access-Token"
)

// PrincipalKind differentiates the callers the gate lets through.
type PrincipalKind string

const (
	PrincipalUser    PrincipalKind = "user"
	PrincipalAdmin   PrincipalKind = "admin"
	PrincipalService PrincipalKind = "service"
)

// Principal represents the authenticated caller.
type Principal struct {
	Kind PrincipalKind
	User *domain.UserIdentity
}

// Authenticator answers the session questions the gate asks on every request.
type Authenticator interface {
	UserIdentity(c *fiber.Ctx) domain.UserAuth
	IsAdmin(c *fiber.Ctx) bool
	IsTrustedService(c *fiber.Ctx) bool
}

// RouteClass groups paths by the protection they need.
type RouteClass int

const (
	RoutePublic RouteClass = iota
	RouteAuthEndpoint
	RouteUserPage
	RouteAdminPage
	RouteAdminAPI
	RouteSubmissionsAPI
	RouteUserAPI
)

var authEndpoints = map[string]struct{}{
	"/api/user/login":         {},
	"/api/admin/login":        {},
	"/api/admin/authenticate": {},
	"/api/exchange-token":     {},
}

// Classify maps a request path to its route class.
func Classify(path string) RouteClass {
	path = normalizePath(path)

	if _, ok := authEndpoints[path]; ok {
		return RouteAuthEndpoint
	}
	switch {
	case path == "/api/auth" || strings.HasPrefix(path, "/api/auth/"):
		return RouteAuthEndpoint
	case path == "/health" || strings.HasPrefix(path, "/health/"):
		return RouteAuthEndpoint
	case path == UserHomePath || path == "/my-submissions":
		return RouteUserPage
	case path == AdminLoginPath || path == AdminAccessDeniedPath:
		return RoutePublic
	case strings.HasPrefix(path, "/admin/"):
		return RouteAdminPage
	case path == "/api/admin" || strings.HasPrefix(path, "/api/admin/"):
		return RouteAdminAPI
	case path == "/api/submissions" || strings.HasPrefix(path, "/api/submissions/"):
		return RouteSubmissionsAPI
	case path == "/api/session":
		return RouteUserAPI
	}
	return RoutePublic
}

// normalizePath folds case and trailing slashes the same way the router does
// with CaseSensitive and StrictRouting off.
func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	path = strings.ToLower(path)
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			return "/"
		}
	}
	return path
}

// RouteGate decides, per request, whether to forward, redirect or reject.
type RouteGate struct {
	auth Authenticator
}

// NewRouteGate constructs the gate.
func NewRouteGate(authenticator Authenticator) *RouteGate {
	return &RouteGate{auth: authenticator}
}

// Handle enforces route-level authentication. Handlers still check ownership.
func (g *RouteGate) Handle(c *fiber.Ctx) error {
	switch Classify(c.Path()) {
	case RouteUserPage:
		user := g.auth.UserIdentity(c)
		if !user.Authenticated {
			return c.Redirect(AccessDeniedPath, fiber.StatusFound)
		}
		setPrincipal(c, &Principal{Kind: PrincipalUser, User: user.User})

	case RouteAdminPage:
		if !g.auth.IsAdmin(c) {
			return c.Redirect(AdminAccessDeniedPath, fiber.StatusFound)
		}
		setPrincipal(c, &Principal{Kind: PrincipalAdmin})

	case RouteAdminAPI:
		switch {
		case g.auth.IsAdmin(c):
			setPrincipal(c, &Principal{Kind: PrincipalAdmin})
		case g.auth.IsTrustedService(c):
			setPrincipal(c, &Principal{Kind: PrincipalService})
		default:
			return apperrors.NewUnauthorized("unauthorized")
		}

	case RouteSubmissionsAPI, RouteUserAPI:
		if user := g.auth.UserIdentity(c); user.Authenticated {
			setPrincipal(c, &Principal{Kind: PrincipalUser, User: user.User})
			break
		}
		switch {
		case g.auth.IsAdmin(c):
			setPrincipal(c, &Principal{Kind: PrincipalAdmin})
		case g.auth.IsTrustedService(c):
			setPrincipal(c, &Principal{Kind: PrincipalService})
		default:
			return apperrors.NewUnauthorized("unauthorized")
		}
	}

	return c.Next()
}

func setPrincipal(c *fiber.Ctx, principal *Principal) {
	c.Locals(principalKey, principal)
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// BearerToken extracts the token from an Authorization: Bearer header.
func BearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
