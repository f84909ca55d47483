package domain

import "fmt"

// UserIdentity is the portal user carried inside a user session.
type UserIdentity struct {
	ID           string
	Name         string
	Email        string
	ReadOnlyData map[string]string
	FormPrefill  map[string]string
}

// DefaultUserEmail mirrors the portal convention for users without a known address.
func DefaultUserEmail(userID string) string {
	return fmt.Sprintf("%s@company.com", userID)
}
