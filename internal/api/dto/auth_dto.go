package dto

import "time"

// DirectLoginRequest is the same-origin login payload. Exactly one of
// Token or AdminToken selects the role.
type DirectLoginRequest struct {
	Token      string `json:"token"`
	AdminToken string `json:"adminToken"`
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	UserEmail  string `json:"userEmail"`
	Country    string `json:"country"`
}

// UserLoginRequest is posted by the portal backend alongside its bearer token.
type UserLoginRequest struct {
	UserID            string `json:"userId"`
	UserName          string `json:"userName"`
	UserEmail         string `json:"userEmail"`
	Country           string `json:"country"`
	RecipientName     string `json:"recipientName"`
	RecipientEmail    string `json:"recipientEmail"`
	RecipientUsername string `json:"recipientUsername"`
}

// AdminAuthenticateRequest accepts either a portal admin token or username/password.
type AdminAuthenticateRequest struct {
	AdminToken string `json:"adminToken" form:"adminToken"`
	Username   string `json:"username" form:"username"`
	Password   string `json:"password" form:"password"`
}

// LoginResponse is returned by the direct-cookie flows.
type LoginResponse struct {
	Success    bool       `json:"success"`
	RedirectTo string     `json:"redirectTo"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

// LoginTokenResponse is returned to the portal backend by the exchange-token flow.
type LoginTokenResponse struct {
	Success     bool      `json:"success"`
	LoginToken  string    `json:"loginToken"`
	RedirectURL string    `json:"redirectUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// UserSessionResponse describes the current user session.
type UserSessionResponse struct {
	Authenticated bool              `json:"authenticated"`
	UserID        string            `json:"userId"`
	UserName      string            `json:"userName"`
	UserEmail     string            `json:"userEmail"`
	ReadOnlyData  map[string]string `json:"readOnlyData"`
	FormPrefill   map[string]string `json:"formPrefill"`
	ExpiresAt     time.Time         `json:"expiresAt"`
}

// AdminSessionResponse describes the current admin session.
type AdminSessionResponse struct {
	Authenticated bool      `json:"authenticated"`
	ExpiresAt     time.Time `json:"expiresAt"`
}
