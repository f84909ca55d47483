package auth

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/gift-portal/internal/domain"
	apperrors "github.com/spec-kit/gift-portal/pkg/util"
)

type fakeAuthenticator struct {
	user    *domain.UserIdentity
	admin   bool
	service bool
}

func (f fakeAuthenticator) UserIdentity(*fiber.Ctx) domain.UserAuth {
	if f.user == nil {
		return domain.UserAuth{}
	}
	return domain.UserAuth{Authenticated: true, User: f.user}
}

func (f fakeAuthenticator) IsAdmin(*fiber.Ctx) bool          { return f.admin }
func (f fakeAuthenticator) IsTrustedService(*fiber.Ctx) bool { return f.service }

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func gateApp(authenticator Authenticator) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"error": fiber.Map{"code": de.Code, "message": de.Message}})
		},
	})
	app.Use(NewRouteGate(authenticator).Handle)
	app.Use(func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return c.SendString("anonymous")
		}
		return c.SendString(string(principal.Kind))
	})
	return app
}

func TestClassify(t *testing.T) {
	cases := map[string]RouteClass{
		"/":                          RouteUserPage,
		"/my-submissions":            RouteUserPage,
		"/my-submissions/":           RouteUserPage,
		"/access-denied":             RoutePublic,
		"/admin":                     RoutePublic,
		"/admin/":                    RoutePublic,
		"/admin/access-denied":       RoutePublic,
		"/admin/dashboard":           RouteAdminPage,
		"/admin/anything/deeper":     RouteAdminPage,
		"/api/admin/submissions":     RouteAdminAPI,
		"/api/admin/submissions/abc": RouteAdminAPI,
		"/api/admin/session":         RouteAdminAPI,
		"/api/admin/login":           RouteAuthEndpoint,
		"/api/admin/authenticate":    RouteAuthEndpoint,
		"/api/user/login":            RouteAuthEndpoint,
		"/api/exchange-token":        RouteAuthEndpoint,
		"/api/auth/login":            RouteAuthEndpoint,
		"/api/auth/logout":           RouteAuthEndpoint,
		"/health/ready":              RouteAuthEndpoint,
		"/api/submissions":           RouteSubmissionsAPI,
		"/api/submissions/42":        RouteSubmissionsAPI,
		"/api/session":               RouteUserAPI,
		"/api/submissionsx":          RoutePublic,
		"/administrator":             RoutePublic,
		"/favicon.ico":               RoutePublic,
		"/ADMIN/DASHBOARD":           RouteAdminPage,
		"/Admin/Dashboard/":          RouteAdminPage,
		"/MY-SUBMISSIONS":            RouteUserPage,
		"/API/Admin/Submissions":     RouteAdminAPI,
		"/Api/Submissions/42":        RouteSubmissionsAPI,
		"/ADMIN":                     RoutePublic,
	}
	for path, want := range cases {
		require.Equal(t, want, Classify(path), path)
	}
}

func TestRouteGate(t *testing.T) {
	user := &domain.UserIdentity{ID: "u1", Name: "Ann"}

	cases := []struct {
		name     string
		auth     fakeAuthenticator
		method   string
		path     string
		status   int
		location string
		body     string
	}{
		{"home without session redirects", fakeAuthenticator{}, http.MethodGet, "/", http.StatusFound, AccessDeniedPath, ""},
		{"my submissions without session redirects", fakeAuthenticator{}, http.MethodGet, "/my-submissions", http.StatusFound, AccessDeniedPath, ""},
		{"admin session does not open user pages", fakeAuthenticator{admin: true}, http.MethodGet, "/", http.StatusFound, AccessDeniedPath, ""},
		{"home with user session", fakeAuthenticator{user: user}, http.MethodGet, "/", http.StatusOK, "", "user"},
		{"dashboard without admin redirects", fakeAuthenticator{}, http.MethodGet, "/admin/dashboard", http.StatusFound, AdminAccessDeniedPath, ""},
		{"user session does not open admin pages", fakeAuthenticator{user: user}, http.MethodGet, "/admin/dashboard", http.StatusFound, AdminAccessDeniedPath, ""},
		{"dashboard with admin session", fakeAuthenticator{admin: true}, http.MethodGet, "/admin/dashboard", http.StatusOK, "", "admin"},
		{"admin login page is open", fakeAuthenticator{}, http.MethodGet, "/admin", http.StatusOK, "", "anonymous"},
		{"admin denial page is open", fakeAuthenticator{}, http.MethodGet, "/admin/access-denied", http.StatusOK, "", "anonymous"},
		{"exchange endpoint is open", fakeAuthenticator{}, http.MethodGet, "/api/exchange-token", http.StatusOK, "", "anonymous"},
		{"login endpoint is open", fakeAuthenticator{}, http.MethodPost, "/api/auth/login", http.StatusOK, "", "anonymous"},
		{"admin api rejects anonymous", fakeAuthenticator{}, http.MethodGet, "/api/admin/submissions", http.StatusUnauthorized, "", ""},
		{"admin api rejects user session", fakeAuthenticator{user: user}, http.MethodGet, "/api/admin/submissions", http.StatusUnauthorized, "", ""},
		{"admin api accepts admin", fakeAuthenticator{admin: true}, http.MethodGet, "/api/admin/submissions", http.StatusOK, "", "admin"},
		{"admin api accepts service header", fakeAuthenticator{service: true}, http.MethodGet, "/api/admin/submissions", http.StatusOK, "", "service"},
		{"admin wins over service", fakeAuthenticator{admin: true, service: true}, http.MethodGet, "/api/admin/submissions", http.StatusOK, "", "admin"},
		{"submissions api rejects anonymous", fakeAuthenticator{}, http.MethodPost, "/api/submissions", http.StatusUnauthorized, "", ""},
		{"submissions api accepts user", fakeAuthenticator{user: user}, http.MethodPost, "/api/submissions", http.StatusOK, "", "user"},
		{"submissions api prefers user", fakeAuthenticator{user: user, admin: true}, http.MethodDelete, "/api/submissions/1", http.StatusOK, "", "user"},
		{"submissions api accepts service", fakeAuthenticator{service: true}, http.MethodGet, "/api/submissions", http.StatusOK, "", "service"},
		{"session api rejects anonymous", fakeAuthenticator{}, http.MethodGet, "/api/session", http.StatusUnauthorized, "", ""},
		{"unknown path passes through", fakeAuthenticator{}, http.MethodGet, "/favicon.ico", http.StatusOK, "", "anonymous"},
		{"legacy query token is ignored", fakeAuthenticator{}, http.MethodGet, "/?token=secret&userId=u1&userName=Ann", http.StatusFound, AccessDeniedPath, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := gateApp(tc.auth)
			resp, err := app.Test(httptest.NewRequest(tc.method, tc.path, nil))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
			if tc.location != "" {
				require.Equal(t, tc.location, resp.Header.Get(fiber.HeaderLocation))
			}
			body := readBody(t, resp)
			if tc.body != "" {
				require.Equal(t, tc.body, body)
			}
			if tc.status == http.StatusUnauthorized {
				require.Contains(t, body, `"error"`)
				require.Contains(t, resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON)
			}
		})
	}
}

func TestRequireGuards(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	app.Use(func(c *fiber.Ctx) error {
		switch c.Get("X-Test-Kind") {
		case "user":
			setPrincipal(c, &Principal{Kind: PrincipalUser, User: &domain.UserIdentity{ID: "u1", Name: "Ann"}})
		case "admin":
			setPrincipal(c, &Principal{Kind: PrincipalAdmin})
		case "service":
			setPrincipal(c, &Principal{Kind: PrincipalService})
		}
		return c.Next()
	})
	ok := func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) }
	app.Get("/user", RequireUser(), ok)
	app.Get("/admin", RequireAdmin(), ok)
	app.Get("/reader", RequireAnyKind(PrincipalAdmin, PrincipalService), ok)

	cases := []struct {
		path, kind string
		status     int
	}{
		{"/user", "user", http.StatusOK},
		{"/user", "admin", http.StatusUnauthorized},
		{"/user", "", http.StatusUnauthorized},
		{"/admin", "admin", http.StatusOK},
		{"/admin", "service", http.StatusUnauthorized},
		{"/reader", "service", http.StatusOK},
		{"/reader", "admin", http.StatusOK},
		{"/reader", "user", http.StatusForbidden},
		{"/reader", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		req.Header.Set("X-Test-Kind", tc.kind)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, tc.status, resp.StatusCode, "%s as %q", tc.path, tc.kind)
	}
}

func TestBearerToken(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		token, ok := BearerToken(c)
		if !ok {
			return errors.New("no token")
		}
		return c.SendString(token)
	})

	cases := map[string]int{
		"Bearer abc":  http.StatusOK,
		"bearer  abc": http.StatusOK,
		"Basic abc":   http.StatusInternalServerError,
		"Bearer ":     http.StatusInternalServerError,
		"":            http.StatusInternalServerError,
	}
	for header, status := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set(fiber.HeaderAuthorization, header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, status, resp.StatusCode, header)
		if status == http.StatusOK {
			require.Equal(t, "abc", readBody(t, resp))
		}
	}
}
