package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gift-portal/internal/domain"
)

const (
	UserSessionCookie  = "user_session"
	AdminSessionCookie = "admin_session"
)

// CookieMode selects the SameSite policy for session cookies.
type CookieMode string

const (
	CookieModeSameOrigin  CookieMode = "same-origin"
	CookieModeCrossOrigin CookieMode = "cross-origin"
)

// SessionStore binds signed session tokens to HTTP-only cookies.
type SessionStore struct {
	mode   CookieMode
	secure bool
	now    func() time.Time
}

// NewSessionStore builds a store. Cross-origin mode always sets Secure,
// browsers drop SameSite=None cookies otherwise.
func NewSessionStore(mode CookieMode, secure bool) *SessionStore {
	if mode == CookieModeCrossOrigin {
		secure = true
	}
	return &SessionStore{mode: mode, secure: secure, now: time.Now}
}

// CookieName returns the cookie carrying sessions of the given kind.
func CookieName(kind domain.TokenKind) string {
	if kind == domain.TokenKindAdminSession {
		return AdminSessionCookie
	}
	return UserSessionCookie
}

// Set writes the session cookie; its lifetime matches the token expiry.
func (s *SessionStore) Set(c *fiber.Ctx, kind domain.TokenKind, token string, expiresAt time.Time) {
	maxAge := int(expiresAt.Sub(s.now()).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.Cookie(s.cookie(CookieName(kind), token, expiresAt, maxAge))
}

// Get returns the raw cookie value for kind, if present.
func (s *SessionStore) Get(c *fiber.Ctx, kind domain.TokenKind) (string, bool) {
	val := c.Cookies(CookieName(kind))
	if val == "" {
		return "", false
	}
	return val, true
}

// Clear expires the cookie for kind using the same attributes it was set with.
func (s *SessionStore) Clear(c *fiber.Ctx, kind domain.TokenKind) {
	c.Cookie(s.cookie(CookieName(kind), "", time.Unix(0, 0).UTC(), 0))
}

func (s *SessionStore) cookie(name, value string, expires time.Time, maxAge int) *fiber.Cookie {
	sameSite := fiber.CookieSameSiteLaxMode
	if s.mode == CookieModeCrossOrigin {
		sameSite = fiber.CookieSameSiteNoneMode
	}
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		Secure:   s.secure,
		HTTPOnly: true,
		SameSite: sameSite,
	}
}
