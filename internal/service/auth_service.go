package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/gift-portal/internal/auth"
	"github.com/spec-kit/gift-portal/internal/config"
	"github.com/spec-kit/gift-portal/internal/domain"
)

// UserLoginInput is the identity the portal vouches for when logging a user in.
type UserLoginInput struct {
	UserID       string
	UserName     string
	UserEmail    string
	ReadOnlyData map[string]string
	FormPrefill  map[string]string
}

// AuthService coordinates portal logins, token exchange and session queries.
type AuthService struct {
	verifier    *auth.PortalVerifier
	codec       *auth.SessionCodec
	store       *auth.SessionStore
	replay      auth.ReplayGuard
	admin       *auth.AdminCredentials
	logger      *zap.Logger
	loginTTL    time.Duration
	userTTL     time.Duration
	adminTTL    time.Duration
	replayCheck bool
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	ReplayGuard auth.ReplayGuard
	Logger      *zap.Logger
}

// NewAuthService builds the service from immutable configuration.
func NewAuthService(cfg config.Config, deps AuthDependencies) (*AuthService, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	replay := deps.ReplayGuard
	if replay == nil {
		replay = auth.NopReplayGuard{}
	}

	admin, err := auth.NewAdminCredentials(cfg.Auth.AdminUsername, cfg.Auth.AdminPassword, cfg.Auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}

	return &AuthService{
		verifier: auth.NewPortalVerifier(auth.PortalSecrets{
			User:    cfg.Auth.UserAccessToken,
			Admin:   cfg.Auth.AdminAccessToken,
			Service: cfg.Auth.ServiceAccessToken,
		}, logger),
		codec:       auth.NewSessionCodec(cfg.Auth.SessionSecret),
		store:       auth.NewSessionStore(auth.CookieMode(cfg.Auth.CookieMode), cfg.Auth.SecureCookies),
		replay:      replay,
		admin:       admin,
		logger:      logger,
		loginTTL:    cfg.Auth.LoginTokenTTL(),
		userTTL:     cfg.Auth.UserSessionTTL(),
		adminTTL:    cfg.Auth.AdminSessionTTL(),
		replayCheck: cfg.Auth.ExchangeSingleUse,
	}, nil
}

// LoginUser validates the user portal token and sets the user session cookie directly.
func (s *AuthService) LoginUser(c *fiber.Ctx, portalToken string, input UserLoginInput) (*domain.UserIdentity, time.Time, error) {
	if err := s.authorize(portalToken, domain.RoleUser); err != nil {
		return nil, time.Time{}, err
	}
	user, err := input.identity()
	if err != nil {
		return nil, time.Time{}, err
	}
	exp, err := s.startSession(c, domain.TokenKindUserSession, user)
	if err != nil {
		return nil, time.Time{}, err
	}
	s.logger.Info("user session issued", zap.String("user_id", user.ID))
	return user, exp, nil
}

// LoginAdmin validates the admin portal token and sets the admin session cookie directly.
func (s *AuthService) LoginAdmin(c *fiber.Ctx, portalToken string) (time.Time, error) {
	if err := s.authorize(portalToken, domain.RoleAdmin); err != nil {
		return time.Time{}, err
	}
	exp, err := s.startSession(c, domain.TokenKindAdminSession, nil)
	if err != nil {
		return time.Time{}, err
	}
	s.logger.Info("admin session issued", zap.String("method", "portal_token"))
	return exp, nil
}

// LoginAdminWithPassword checks username/password and sets the admin session cookie.
func (s *AuthService) LoginAdminWithPassword(c *fiber.Ctx, username, password string) (time.Time, error) {
	if !s.admin.Configured() {
		s.logger.Error("admin password login not configured")
		return time.Time{}, domain.ErrNotConfigured
	}
	if !s.admin.Verify(username, password) {
		s.logger.Warn("admin password rejected")
		return time.Time{}, domain.ErrInvalidCredential
	}
	exp, err := s.startSession(c, domain.TokenKindAdminSession, nil)
	if err != nil {
		return time.Time{}, err
	}
	s.logger.Info("admin session issued", zap.String("method", "password"))
	return exp, nil
}

// IssueUserLoginToken validates the user portal token and returns a short-lived
// login token for the browser to exchange.
func (s *AuthService) IssueUserLoginToken(portalToken string, input UserLoginInput) (string, time.Time, error) {
	if err := s.authorize(portalToken, domain.RoleUser); err != nil {
		return "", time.Time{}, err
	}
	user, err := input.identity()
	if err != nil {
		return "", time.Time{}, err
	}
	token, exp, err := s.codec.MintLoginToken(domain.TokenKindUserLogin, user, s.loginTTL)
	if err != nil {
		return "", time.Time{}, err
	}
	s.logger.Info("user login token issued", zap.String("user_id", user.ID), zap.Time("expires_at", exp))
	return token, exp, nil
}

// IssueAdminLoginToken validates the admin portal token and returns a short-lived login token.
func (s *AuthService) IssueAdminLoginToken(portalToken string) (string, time.Time, error) {
	if err := s.authorize(portalToken, domain.RoleAdmin); err != nil {
		return "", time.Time{}, err
	}
	token, exp, err := s.codec.MintLoginToken(domain.TokenKindAdminLogin, nil, s.loginTTL)
	if err != nil {
		return "", time.Time{}, err
	}
	s.logger.Info("admin login token issued", zap.Time("expires_at", exp))
	return token, exp, nil
}

// Exchange trades a login token for a session cookie and returns the landing path.
// Without single-use enforcement a token may be exchanged again until it expires.
func (s *AuthService) Exchange(c *fiber.Ctx, loginToken string) (string, error) {
	loginToken = strings.TrimSpace(loginToken)
	if loginToken == "" {
		return "", domain.ErrMissingLoginToken
	}

	grant, ok := s.codec.VerifyLoginToken(loginToken)
	if !ok {
		s.logger.Warn("login token rejected")
		return "", domain.ErrInvalidLoginToken
	}

	if s.replayCheck {
		first, err := s.replay.Claim(c.UserContext(), grant.ID, grant.ExpiresAt)
		if err != nil {
			return "", fmt.Errorf("claim login token: %w", err)
		}
		if !first {
			s.logger.Warn("login token replayed", zap.String("token_id", grant.ID))
			return "", domain.ErrInvalidLoginToken
		}
	}

	switch grant.Kind {
	case domain.TokenKindUserLogin:
		if _, err := s.startSession(c, domain.TokenKindUserSession, grant.User); err != nil {
			return "", err
		}
		s.logger.Info("login token exchanged", zap.String("kind", string(grant.Kind)), zap.String("user_id", grant.User.ID))
		return auth.UserHomePath, nil
	case domain.TokenKindAdminLogin:
		if _, err := s.startSession(c, domain.TokenKindAdminSession, nil); err != nil {
			return "", err
		}
		s.logger.Info("login token exchanged", zap.String("kind", string(grant.Kind)))
		return auth.AdminDashboardPath, nil
	}
	return "", domain.ErrInvalidLoginToken
}

// UserIdentity reports whether the request carries a valid user session. It never fails open.
func (s *AuthService) UserIdentity(c *fiber.Ctx) domain.UserAuth {
	session, ok := s.session(c, domain.TokenKindUserSession)
	if !ok || session.Kind != domain.TokenKindUserSession || session.User == nil {
		return domain.UserAuth{}
	}
	return domain.UserAuth{Authenticated: true, User: session.User, ExpiresAt: session.ExpiresAt}
}

// IsAdmin reports whether the request carries a valid admin session.
func (s *AuthService) IsAdmin(c *fiber.Ctx) bool {
	session, ok := s.session(c, domain.TokenKindAdminSession)
	return ok && session.Kind == domain.TokenKindAdminSession
}

// AdminSession returns the verified admin session, if any.
func (s *AuthService) AdminSession(c *fiber.Ctx) (domain.Session, bool) {
	session, ok := s.session(c, domain.TokenKindAdminSession)
	if !ok || session.Kind != domain.TokenKindAdminSession {
		return domain.Session{}, false
	}
	return session, true
}

// IsTrustedService reports whether the request carries the service-to-service header token.
func (s *AuthService) IsTrustedService(c *fiber.Ctx) bool {
	token := c.Get(auth.ServiceTokenHeader)
	if token == "" {
		return false
	}
	return s.verifier.Verify(token, domain.RoleService)
}

// Logout clears both session cookies.
func (s *AuthService) Logout(c *fiber.Ctx) {
	s.store.Clear(c, domain.TokenKindUserSession)
	s.store.Clear(c, domain.TokenKindAdminSession)
}

func (s *AuthService) authorize(portalToken string, role domain.Role) error {
	if !s.verifier.Configured(role) {
		s.logger.Error("configuration error: portal token missing", zap.String("role", string(role)))
		return domain.ErrNotConfigured
	}
	if !s.verifier.Verify(portalToken, role) {
		return domain.ErrInvalidCredential
	}
	return nil
}

func (s *AuthService) startSession(c *fiber.Ctx, kind domain.TokenKind, user *domain.UserIdentity) (time.Time, error) {
	ttl := s.userTTL
	if kind == domain.TokenKindAdminSession {
		ttl = s.adminTTL
	}
	token, exp, err := s.codec.MintSession(kind, user, ttl)
	if err != nil {
		return time.Time{}, fmt.Errorf("mint session: %w", err)
	}
	s.store.Set(c, kind, token, exp)
	return exp, nil
}

func (s *AuthService) session(c *fiber.Ctx, kind domain.TokenKind) (domain.Session, bool) {
	raw, ok := s.store.Get(c, kind)
	if !ok {
		return domain.Session{}, false
	}
	return s.codec.VerifySession(raw)
}

func (in UserLoginInput) identity() (*domain.UserIdentity, error) {
	userID := strings.TrimSpace(in.UserID)
	userName := strings.TrimSpace(in.UserName)
	if userID == "" || userName == "" {
		return nil, domain.NewValidationError("userId and userName are required", nil)
	}
	email := strings.TrimSpace(in.UserEmail)
	if email == "" {
		email = domain.DefaultUserEmail(userID)
	}
	return &domain.UserIdentity{
		ID:           userID,
		Name:         userName,
		Email:        email,
		ReadOnlyData: nonEmpty(in.ReadOnlyData),
		FormPrefill:  nonEmpty(in.FormPrefill),
	}, nil
}

func nonEmpty(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
