package domain

import "time"

// Role identifies which portal secret a caller is expected to present.
type Role string

const (
	RoleUser    Role = "user"
	RoleAdmin   Role = "admin"
	RoleService Role = "service"
)

// TokenKind is the discriminant carried by every signed credential.
type TokenKind string

const (
	TokenKindUserSession  TokenKind = "user"
	TokenKindAdminSession TokenKind = "admin"
	TokenKindUserLogin    TokenKind = "user_login"
	TokenKindAdminLogin   TokenKind = "admin_login"
)

// IsSession reports whether the kind is a long-lived session credential.
func (k TokenKind) IsSession() bool {
	return k == TokenKindUserSession || k == TokenKindAdminSession
}

// IsLogin reports whether the kind is a short-lived login exchange credential.
func (k TokenKind) IsLogin() bool {
	return k == TokenKindUserLogin || k == TokenKindAdminLogin
}

// Session is the verified content of a session cookie.
// User is non-nil exactly when Kind is TokenKindUserSession.
type Session struct {
	ID        string
	Kind      TokenKind
	User      *UserIdentity
	ExpiresAt time.Time
}

// LoginGrant is the verified content of a login exchange token.
// User is non-nil exactly when Kind is TokenKindUserLogin.
type LoginGrant struct {
	ID        string
	Kind      TokenKind
	User      *UserIdentity
	ExpiresAt time.Time
}

// UserAuth answers "is this request authenticated as a user, and as whom".
type UserAuth struct {
	Authenticated bool
	User          *UserIdentity
	ExpiresAt     time.Time
}
