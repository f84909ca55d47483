package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/gift-portal/internal/auth"
	"github.com/spec-kit/gift-portal/internal/config"
	"github.com/spec-kit/gift-portal/internal/domain"
	apperrors "github.com/spec-kit/gift-portal/pkg/util"
)

const (
	testUserToken    = "user-portal-secret"
	testAdminToken   = "admin-portal-secret"
	testServiceToken = "service-portal-secret"
)

func testAuthConfig() config.Config {
	return config.Config{
		App: config.AppConfig{Env: "test"},
		Auth: config.AuthConfig{
			UserAccessToken:        testUserToken,
			AdminAccessToken:       testAdminToken,
			ServiceAccessToken:     testServiceToken,
			SessionSecret:          "test-session-secret",
			LoginTokenTTLSeconds:   300,
			UserSessionTTLMinutes:  480,
			AdminSessionTTLMinutes: 1440,
			CookieMode:             config.CookieModeSameOrigin,
			AdminUsername:          "admin",
			AdminPassword:          "correct horse",
			BcryptCost:             bcrypt.MinCost,
		},
	}
}

type memoryReplayGuard struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (g *memoryReplayGuard) Claim(_ context.Context, id string, _ time.Time) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen == nil {
		g.seen = map[string]bool{}
	}
	if g.seen[id] {
		return false, nil
	}
	g.seen[id] = true
	return true, nil
}

// authHarness exposes AuthService operations over a throwaway fiber app so
// cookies travel the same way they do in production.
type authHarness struct {
	svc     *AuthService
	app     *fiber.App
	logs    *observer.ObservedLogs
	mu      sync.Mutex
	lastErr error
}

func newAuthHarness(t *testing.T, cfg config.Config, replay auth.ReplayGuard) *authHarness {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	svc, err := NewAuthService(cfg, AuthDependencies{ReplayGuard: replay, Logger: zap.New(core)})
	require.NoError(t, err)

	h := &authHarness{svc: svc, app: fiber.New(), logs: logs}
	h.app.Post("/login/user", func(c *fiber.Ctx) error {
		_, _, err := svc.LoginUser(c, c.Get("X-Portal-Token"), UserLoginInput{
			UserID:       c.Query("userId"),
			UserName:     c.Query("userName"),
			ReadOnlyData: map[string]string{"country": c.Query("country")},
		})
		return h.result(c, err)
	})
	h.app.Post("/login/admin", func(c *fiber.Ctx) error {
		_, err := svc.LoginAdmin(c, c.Get("X-Portal-Token"))
		return h.result(c, err)
	})
	h.app.Post("/login/password", func(c *fiber.Ctx) error {
		_, err := svc.LoginAdminWithPassword(c, c.Query("u"), c.Query("p"))
		return h.result(c, err)
	})
	h.app.Get("/exchange", func(c *fiber.Ctx) error {
		target, err := svc.Exchange(c, c.Query("loginToken"))
		if err != nil {
			return h.result(c, err)
		}
		return c.Redirect(target, fiber.StatusFound)
	})
	h.app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user":    svc.UserIdentity(c),
			"admin":   svc.IsAdmin(c),
			"service": svc.IsTrustedService(c),
		})
	})
	h.app.Post("/logout", func(c *fiber.Ctx) error {
		svc.Logout(c)
		return c.SendStatus(fiber.StatusNoContent)
	})
	return h
}

func (h *authHarness) result(c *fiber.Ctx, err error) error {
	h.mu.Lock()
	h.lastErr = err
	h.mu.Unlock()
	if err != nil {
		return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *authHarness) err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastErr
}

func (h *authHarness) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := h.app.Test(req)
	require.NoError(t, err)
	return resp
}

type identityView struct {
	User    domain.UserAuth `json:"user"`
	Admin   bool            `json:"admin"`
	Service bool            `json:"service"`
}

func (h *authHarness) whoami(t *testing.T, mutate func(*http.Request)) identityView {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if mutate != nil {
		mutate(req)
	}
	resp := h.do(t, req)
	defer resp.Body.Close()
	var out identityView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func sessionCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name && c.Value != "" {
			return c
		}
	}
	return nil
}

func withCookie(name, value string) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: name, Value: value}) }
}

func TestAuthService_LoginUserSetsVerifiableSession(t *testing.T) {
	h := newAuthHarness(t, testAuthConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/login/user?userId=u1&userName=Alice&country=NL", nil)
	req.Header.Set("X-Portal-Token", testUserToken)
	resp := h.do(t, req)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	cookie := sessionCookie(resp, auth.UserSessionCookie)
	require.NotNil(t, cookie)
	require.True(t, cookie.HttpOnly)

	got := h.whoami(t, withCookie(cookie.Name, cookie.Value))
	require.True(t, got.User.Authenticated)
	require.Equal(t, "u1", got.User.User.ID)
	require.Equal(t, "u1@company.com", got.User.User.Email)
	require.Equal(t, map[string]string{"country": "NL"}, got.User.User.ReadOnlyData)
	require.False(t, got.Admin)
}

func TestAuthService_RejectsBadPortalTokens(t *testing.T) {
	h := newAuthHarness(t, testAuthConfig(), nil)

	for _, token := range []string{"", "wrong", testAdminToken, testUserToken + "x"} {
		req := httptest.NewRequest(http.MethodPost, "/login/user?userId=u1&userName=Alice", nil)
		req.Header.Set("X-Portal-Token", token)
		resp := h.do(t, req)
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "token %q", token)
		require.ErrorIs(t, h.err(), domain.ErrInvalidCredential)
		require.Nil(t, sessionCookie(resp, auth.UserSessionCookie))
	}

	// Surrounding whitespace is tolerated.
	req := httptest.NewRequest(http.MethodPost, "/login/user?userId=u1&userName=Alice", nil)
	req.Header.Set("X-Portal-Token", " "+testUserToken+" ")
	require.Equal(t, fiber.StatusOK, h.do(t, req).StatusCode)

	// Token is checked before the identity fields.
	req = httptest.NewRequest(http.MethodPost, "/login/user", nil)
	req.Header.Set("X-Portal-Token", "wrong")
	require.Equal(t, fiber.StatusUnauthorized, h.do(t, req).StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/login/user", nil)
	req.Header.Set("X-Portal-Token", testUserToken)
	require.Equal(t, fiber.StatusBadRequest, h.do(t, req).StatusCode)
}

func TestAuthService_UnconfiguredSecretFailsClosed(t *testing.T) {
	cfg := testAuthConfig()
	cfg.Auth.AdminAccessToken = ""
	h := newAuthHarness(t, cfg, nil)

	req := httptest.NewRequest(http.MethodPost, "/login/admin", nil)
	req.Header.Set("X-Portal-Token", "")
	resp := h.do(t, req)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.ErrorIs(t, h.err(), domain.ErrNotConfigured)
	require.Nil(t, sessionCookie(resp, auth.AdminSessionCookie))
	require.Positive(t, h.logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestAuthService_SessionKindsDoNotCross(t *testing.T) {
	h := newAuthHarness(t, testAuthConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/login/admin", nil)
	req.Header.Set("X-Portal-Token", testAdminToken)
	adminCookie := sessionCookie(h.do(t, req), auth.AdminSessionCookie)
	require.NotNil(t, adminCookie)

	req = httptest.NewRequest(http.MethodPost, "/login/user?userId=u1&userName=Alice", nil)
	req.Header.Set("X-Portal-Token", testUserToken)
	userCookie := sessionCookie(h.do(t, req), auth.UserSessionCookie)
	require.NotNil(t, userCookie)

	require.True(t, h.whoami(t, withCookie(auth.AdminSessionCookie, adminCookie.Value)).Admin)

	// An admin token planted in the user cookie, and the reverse, authenticate nobody.
	got := h.whoami(t, withCookie(auth.UserSessionCookie, adminCookie.Value))
	require.False(t, got.User.Authenticated)
	require.False(t, got.Admin)

	got = h.whoami(t, withCookie(auth.AdminSessionCookie, userCookie.Value))
	require.False(t, got.Admin)
	require.False(t, got.User.Authenticated)

	got = h.whoami(t, withCookie(auth.UserSessionCookie, "garbage"))
	require.False(t, got.User.Authenticated)
}

func TestAuthService_ExchangeFlow(t *testing.T) {
	h := newAuthHarness(t, testAuthConfig(), nil)

	loginToken, exp, err := h.svc.IssueUserLoginToken(testUserToken, UserLoginInput{
		UserID:      "u7",
		UserName:    "Grace",
		FormPrefill: map[string]string{"recipientName": "Ada", "recipientEmail": " "},
	})
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(5*time.Minute), exp, 5*time.Second)

	resp := h.do(t, httptest.NewRequest(http.MethodGet, "/exchange?loginToken="+url.QueryEscape(loginToken), nil))
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, auth.UserHomePath, resp.Header.Get(fiber.HeaderLocation))

	cookie := sessionCookie(resp, auth.UserSessionCookie)
	require.NotNil(t, cookie)
	got := h.whoami(t, withCookie(cookie.Name, cookie.Value))
	require.True(t, got.User.Authenticated)
	require.Equal(t, "Grace", got.User.User.Name)
	require.Equal(t, map[string]string{"recipientName": "Ada"}, got.User.User.FormPrefill)

	// Without single-use enforcement the token works until it expires.
	resp = h.do(t, httptest.NewRequest(http.MethodGet, "/exchange?loginToken="+url.QueryEscape(loginToken), nil))
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	// A login token is not a session, and a session is not a login token.
	require.False(t, h.whoami(t, withCookie(auth.UserSessionCookie, loginToken)).User.Authenticated)
	resp = h.do(t, httptest.NewRequest(http.MethodGet, "/exchange?loginToken="+url.QueryEscape(cookie.Value), nil))
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.ErrorIs(t, h.err(), domain.ErrInvalidLoginToken)

	resp = h.do(t, httptest.NewRequest(http.MethodGet, "/exchange", nil))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.ErrorIs(t, h.err(), domain.ErrMissingLoginToken)
}

func TestAuthService_AdminExchangeLandsOnDashboard(t *testing.T) {
	h := newAuthHarness(t, testAuthConfig(), nil)

	_, _, err := h.svc.IssueAdminLoginToken("nope")
	require.ErrorIs(t, err, domain.ErrInvalidCredential)

	loginToken, _, err := h.svc.IssueAdminLoginToken(testAdminToken)
	require.NoError(t, err)

	resp := h.do(t, httptest.NewRequest(http.MethodGet, "/exchange?loginToken="+url.QueryEscape(loginToken), nil))
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, auth.AdminDashboardPath, resp.Header.Get(fiber.HeaderLocation))

	cookie := sessionCookie(resp, auth.AdminSessionCookie)
	require.NotNil(t, cookie)
	require.True(t, h.whoami(t, withCookie(cookie.Name, cookie.Value)).Admin)
}

func TestAuthService_SingleUseExchange(t *testing.T) {
	cfg := testAuthConfig()
	cfg.Auth.ExchangeSingleUse = true
	h := newAuthHarness(t, cfg, &memoryReplayGuard{})

	loginToken, _, err := h.svc.IssueUserLoginToken(testUserToken, UserLoginInput{UserID: "u1", UserName: "Alice"})
	require.NoError(t, err)

	target := "/exchange?loginToken=" + url.QueryEscape(loginToken)
	require.Equal(t, fiber.StatusFound, h.do(t, httptest.NewRequest(http.MethodGet, target, nil)).StatusCode)

	resp := h.do(t, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.ErrorIs(t, h.err(), domain.ErrInvalidLoginToken)
	require.Nil(t, sessionCookie(resp, auth.UserSessionCookie))
}

func TestAuthService_AdminPasswordLogin(t *testing.T) {
	h := newAuthHarness(t, testAuthConfig(), nil)

	resp := h.do(t, httptest.NewRequest(http.MethodPost, "/login/password?u=admin&p=wrong", nil))
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.ErrorIs(t, h.err(), domain.ErrInvalidCredential)

	resp = h.do(t, httptest.NewRequest(http.MethodPost, "/login/password?u=root&p="+url.QueryEscape("correct horse"), nil))
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = h.do(t, httptest.NewRequest(http.MethodPost, "/login/password?u=admin&p="+url.QueryEscape("correct horse"), nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotNil(t, sessionCookie(resp, auth.AdminSessionCookie))

	cfg := testAuthConfig()
	cfg.Auth.AdminPassword = ""
	disabled := newAuthHarness(t, cfg, nil)
	resp = disabled.do(t, httptest.NewRequest(http.MethodPost, "/login/password?u=admin&p=anything", nil))
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.ErrorIs(t, disabled.err(), domain.ErrNotConfigured)
}

func TestAuthService_TrustedServiceHeader(t *testing.T) {
	h := newAuthHarness(t, testAuthConfig(), nil)

	require.True(t, h.whoami(t, func(r *http.Request) { r.Header.Set(auth.ServiceTokenHeader, testServiceToken) }).Service)
	require.False(t, h.whoami(t, func(r *http.Request) { r.Header.Set(auth.ServiceTokenHeader, testUserToken) }).Service)
	require.False(t, h.whoami(t, nil).Service)
}

func TestAuthService_LogoutClearsBothCookies(t *testing.T) {
	h := newAuthHarness(t, testAuthConfig(), nil)

	resp := h.do(t, httptest.NewRequest(http.MethodPost, "/logout", nil))
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	cleared := map[string]bool{}
	for _, c := range resp.Cookies() {
		if c.Value == "" {
			cleared[c.Name] = true
		}
	}
	require.True(t, cleared[auth.UserSessionCookie])
	require.True(t, cleared[auth.AdminSessionCookie])
}

func TestNewAuthService_AdminSessionTTLCapped(t *testing.T) {
	cfg := testAuthConfig()
	cfg.Auth.AdminSessionTTLMinutes = 7 * 24 * 60
	h := newAuthHarness(t, cfg, nil)

	req := httptest.NewRequest(http.MethodPost, "/login/admin", nil)
	req.Header.Set("X-Portal-Token", testAdminToken)
	cookie := sessionCookie(h.do(t, req), auth.AdminSessionCookie)
	require.NotNil(t, cookie)
	require.LessOrEqual(t, cookie.MaxAge, int((24 * time.Hour).Seconds()))
	require.False(t, strings.Contains(cookie.Value, testAdminToken))
}
