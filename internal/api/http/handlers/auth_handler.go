package handlers

import (
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gift-portal/internal/api/dto"
	"github.com/spec-kit/gift-portal/internal/auth"
	"github.com/spec-kit/gift-portal/internal/service"
	apperrors "github.com/spec-kit/gift-portal/pkg/util"
)

const exchangePath = "/api/exchange-token"

// AuthHandler exposes the portal login, token exchange and session endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login POST /api/auth/login. Same-origin flow: the session cookie is set on this response.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.DirectLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	switch {
	case req.Token != "":
		_, exp, err := h.auth.LoginUser(c, req.Token, service.UserLoginInput{
			UserID:       req.UserID,
			UserName:     req.UserName,
			UserEmail:    req.UserEmail,
			ReadOnlyData: map[string]string{"country": req.Country},
		})
		if err != nil {
			return err
		}
		return c.JSON(dto.LoginResponse{Success: true, RedirectTo: auth.UserHomePath, ExpiresAt: &exp})
	case req.AdminToken != "":
		exp, err := h.auth.LoginAdmin(c, req.AdminToken)
		if err != nil {
			return err
		}
		return c.JSON(dto.LoginResponse{Success: true, RedirectTo: auth.AdminDashboardPath, ExpiresAt: &exp})
	}
	return apperrors.NewValidationError("no valid authentication provided", nil)
}

// Logout POST /api/auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.auth.Logout(c)
	return c.JSON(fiber.Map{"success": true})
}

// UserLogin POST /api/user/login. Called by the portal backend with a bearer token;
// returns a login token for the browser to exchange.
func (h *AuthHandler) UserLogin(c *fiber.Ctx) error {
	token, ok := auth.BearerToken(c)
	if !ok {
		return apperrors.NewUnauthorized("missing or invalid authorization header")
	}

	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	loginToken, exp, err := h.auth.IssueUserLoginToken(token, service.UserLoginInput{
		UserID:       req.UserID,
		UserName:     req.UserName,
		UserEmail:    req.UserEmail,
		ReadOnlyData: map[string]string{"country": req.Country},
		FormPrefill: map[string]string{
			"recipientName":     req.RecipientName,
			"recipientEmail":    req.RecipientEmail,
			"recipientUsername": req.RecipientUsername,
		},
	})
	if err != nil {
		return err
	}
	return c.JSON(loginTokenResponse(loginToken, exp))
}

// AdminLogin POST /api/admin/login.
func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	token, ok := auth.BearerToken(c)
	if !ok {
		return apperrors.NewUnauthorized("missing or invalid authorization header")
	}
	loginToken, exp, err := h.auth.IssueAdminLoginToken(token)
	if err != nil {
		return err
	}
	return c.JSON(loginTokenResponse(loginToken, exp))
}

// AdminAuthenticate POST /api/admin/authenticate. Accepts the admin portal token
// or the configured admin username and password.
func (h *AuthHandler) AdminAuthenticate(c *fiber.Ctx) error {
	var req dto.AdminAuthenticateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	var (
		exp time.Time
		err error
	)
	switch {
	case strings.TrimSpace(req.AdminToken) != "":
		exp, err = h.auth.LoginAdmin(c, req.AdminToken)
	case req.Username != "" && req.Password != "":
		exp, err = h.auth.LoginAdminWithPassword(c, req.Username, req.Password)
	default:
		return apperrors.NewValidationError("admin token or username and password required", nil)
	}

	// The admin login page posts a plain HTML form.
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationForm) {
		if err != nil {
			return c.Redirect(auth.AdminAccessDeniedPath, fiber.StatusSeeOther)
		}
		return c.Redirect(auth.AdminDashboardPath, fiber.StatusSeeOther)
	}
	if err != nil {
		return err
	}
	return c.JSON(dto.LoginResponse{Success: true, RedirectTo: auth.AdminDashboardPath, ExpiresAt: &exp})
}

// Exchange GET /api/exchange-token?loginToken=. Sets the session cookie and redirects.
func (h *AuthHandler) Exchange(c *fiber.Ctx) error {
	target, err := h.auth.Exchange(c, c.Query("loginToken"))
	if err != nil {
		return err
	}
	return c.Redirect(target, fiber.StatusFound)
}

// Session GET /api/session.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	user := h.auth.UserIdentity(c)
	if !user.Authenticated {
		return apperrors.NewUnauthorized("no session found")
	}
	return c.JSON(dto.UserSessionResponse{
		Authenticated: true,
		UserID:        user.User.ID,
		UserName:      user.User.Name,
		UserEmail:     user.User.Email,
		ReadOnlyData:  orEmpty(user.User.ReadOnlyData),
		FormPrefill:   orEmpty(user.User.FormPrefill),
		ExpiresAt:     user.ExpiresAt,
	})
}

// AdminSession GET /api/admin/session.
func (h *AuthHandler) AdminSession(c *fiber.Ctx) error {
	session, ok := h.auth.AdminSession(c)
	if !ok {
		return apperrors.NewUnauthorized("no admin session found")
	}
	return c.JSON(dto.AdminSessionResponse{Authenticated: true, ExpiresAt: session.ExpiresAt})
}

func loginTokenResponse(token string, exp time.Time) dto.LoginTokenResponse {
	return dto.LoginTokenResponse{
		Success:     true,
		LoginToken:  token,
		RedirectURL: exchangePath + "?loginToken=" + url.QueryEscape(token),
		ExpiresAt:   exp,
	}
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
