package auth

import (
	"crypto/subtle"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/gift-portal/internal/domain"
)

// PortalSecrets holds the pre-shared portal tokens, one per role.
type PortalSecrets struct {
	User    string
	Admin   string
	Service string
}

// PortalVerifier checks presented portal tokens against configured secrets.
type PortalVerifier struct {
	secrets map[domain.Role][]byte
	logger  *zap.Logger
}

// NewPortalVerifier builds a verifier. Secrets are trimmed once here.
func NewPortalVerifier(secrets PortalSecrets, logger *zap.Logger) *PortalVerifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortalVerifier{
		secrets: map[domain.Role][]byte{
			domain.RoleUser:    []byte(strings.TrimSpace(secrets.User)),
			domain.RoleAdmin:   []byte(strings.TrimSpace(secrets.Admin)),
			domain.RoleService: []byte(strings.TrimSpace(secrets.Service)),
		},
		logger: logger,
	}
}

// Configured reports whether a secret exists for role.
func (v *PortalVerifier) Configured(role domain.Role) bool {
	return len(v.secrets[role]) > 0
}

// Verify reports whether presented matches the secret for role.
// An unset secret never verifies.
func (v *PortalVerifier) Verify(presented string, role domain.Role) bool {
	expected := v.secrets[role]
	if len(expected) == 0 {
		v.logger.Error("portal token not configured", zap.String("role", string(role)))
		return false
	}

	token := []byte(strings.TrimSpace(presented))
	if subtle.ConstantTimeCompare(token, expected) != 1 {
		v.logger.Warn("portal token rejected",
			zap.String("role", string(role)),
			zap.Int("received_length", len(token)),
			zap.Int("expected_length", len(expected)))
		return false
	}
	return true
}
