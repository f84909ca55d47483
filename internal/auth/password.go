package auth

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

// AdminCredentials is the optional username/password admin login.
type AdminCredentials struct {
	username string
	hash     string
}

// NewAdminCredentials hashes password once. An empty password disables the login.
func NewAdminCredentials(username, password string, cost int) (*AdminCredentials, error) {
	if username == "" || password == "" {
		return &AdminCredentials{}, nil
	}
	hash, err := HashPassword(password, cost)
	if err != nil {
		return nil, err
	}
	return &AdminCredentials{username: username, hash: hash}, nil
}

// Configured reports whether password login is enabled.
func (a *AdminCredentials) Configured() bool {
	return a != nil && a.hash != ""
}

// Verify checks both username and password; the bcrypt comparison runs even
// when the username is wrong.
func (a *AdminCredentials) Verify(username, password string) bool {
	if !a.Configured() {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := ComparePassword(a.hash, password) == nil
	return userOK && passOK
}
