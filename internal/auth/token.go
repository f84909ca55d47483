package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/gift-portal/internal/domain"
)

const tokenIssuer = "gift-portal"

// SessionCodec mints and verifies the signed credentials used by the portal:
// short-lived login exchange tokens and longer-lived session tokens.
type SessionCodec struct {
	secret []byte
	now    func() time.Time
}

// NewSessionCodec builds a codec around a single process-wide secret.
func NewSessionCodec(secret string) *SessionCodec {
	return &SessionCodec{secret: []byte(secret), now: time.Now}
}

// Claims describes the JWT payload shared by every credential kind.
type Claims struct {
	Type          domain.TokenKind  `json:"type"`
	Authenticated bool              `json:"authenticated"`
	UserID        string            `json:"userId,omitempty"`
	UserName      string            `json:"userName,omitempty"`
	UserEmail     string            `json:"userEmail,omitempty"`
	ReadOnlyData  map[string]string `json:"readOnlyData,omitempty"`
	FormPrefill   map[string]string `json:"formPrefill,omitempty"`
	jwt.RegisteredClaims
}

// MintSession signs a session credential for a user or an admin.
func (c *SessionCodec) MintSession(kind domain.TokenKind, user *domain.UserIdentity, ttl time.Duration) (string, time.Time, error) {
	if !kind.IsSession() {
		return "", time.Time{}, errors.New("not a session kind")
	}
	return c.mint(kind, user, ttl)
}

// MintLoginToken signs a login exchange credential for a user or an admin.
func (c *SessionCodec) MintLoginToken(kind domain.TokenKind, user *domain.UserIdentity, ttl time.Duration) (string, time.Time, error) {
	if !kind.IsLogin() {
		return "", time.Time{}, errors.New("not a login kind")
	}
	return c.mint(kind, user, ttl)
}

func (c *SessionCodec) mint(kind domain.TokenKind, user *domain.UserIdentity, ttl time.Duration) (string, time.Time, error) {
	needsUser := kind == domain.TokenKindUserSession || kind == domain.TokenKindUserLogin
	if needsUser && (user == nil || user.ID == "" || user.Name == "") {
		return "", time.Time{}, errors.New("user identity required")
	}
	if !needsUser && user != nil {
		return "", time.Time{}, errors.New("admin credentials carry no user identity")
	}

	now := c.now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		Type:          kind,
		Authenticated: true,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if user != nil {
		claims.UserID = user.ID
		claims.UserName = user.Name
		claims.UserEmail = user.Email
		claims.ReadOnlyData = user.ReadOnlyData
		claims.FormPrefill = user.FormPrefill
		claims.Subject = user.ID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, claims.ExpiresAt.Time, nil
}

// VerifySession decodes a session credential. Any failure yields false.
func (c *SessionCodec) VerifySession(tokenStr string) (domain.Session, bool) {
	claims, ok := c.parse(tokenStr)
	if !ok || !claims.Type.IsSession() {
		return domain.Session{}, false
	}
	user, ok := claims.identity()
	if !ok {
		return domain.Session{}, false
	}
	return domain.Session{
		ID:        claims.ID,
		Kind:      claims.Type,
		User:      user,
		ExpiresAt: claims.ExpiresAt.Time,
	}, true
}

// VerifyLoginToken decodes a login exchange credential. Any failure yields false.
func (c *SessionCodec) VerifyLoginToken(tokenStr string) (domain.LoginGrant, bool) {
	claims, ok := c.parse(tokenStr)
	if !ok || !claims.Type.IsLogin() {
		return domain.LoginGrant{}, false
	}
	user, ok := claims.identity()
	if !ok {
		return domain.LoginGrant{}, false
	}
	return domain.LoginGrant{
		ID:        claims.ID,
		Kind:      claims.Type,
		User:      user,
		ExpiresAt: claims.ExpiresAt.Time,
	}, true
}

func (c *SessionCodec) parse(tokenStr string) (*Claims, bool) {
	if tokenStr == "" {
		return nil, false
	}
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, false
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || !claims.Authenticated || claims.ID == "" {
		return nil, false
	}
	return claims, true
}

// identity enforces the tagged-union shape: user kinds must carry a user,
// admin kinds must not.
func (cl *Claims) identity() (*domain.UserIdentity, bool) {
	switch cl.Type {
	case domain.TokenKindUserSession, domain.TokenKindUserLogin:
		if cl.UserID == "" || cl.UserName == "" {
			return nil, false
		}
		return &domain.UserIdentity{
			ID:           cl.UserID,
			Name:         cl.UserName,
			Email:        cl.UserEmail,
			ReadOnlyData: cl.ReadOnlyData,
			FormPrefill:  cl.FormPrefill,
		}, true
	case domain.TokenKindAdminSession, domain.TokenKindAdminLogin:
		if cl.UserID != "" || cl.UserName != "" {
			return nil, false
		}
		return nil, true
	}
	return nil, false
}
