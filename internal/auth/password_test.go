package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAdminCredentials(t *testing.T) {
	creds, err := NewAdminCredentials("admin", "changeme123", bcrypt.MinCost)
	require.NoError(t, err)
	require.True(t, creds.Configured())

	require.True(t, creds.Verify("admin", "changeme123"))
	require.False(t, creds.Verify("admin", "changeme124"))
	require.False(t, creds.Verify("root", "changeme123"))
	require.False(t, creds.Verify("", ""))
}

func TestAdminCredentials_DisabledWithoutPassword(t *testing.T) {
	creds, err := NewAdminCredentials("admin", "", bcrypt.MinCost)
	require.NoError(t, err)
	require.False(t, creds.Configured())
	require.False(t, creds.Verify("admin", ""))

	var missing *AdminCredentials
	require.False(t, missing.Configured())
}

func TestNopReplayGuard(t *testing.T) {
	var guard ReplayGuard = NopReplayGuard{}
	for i := 0; i < 2; i++ {
		ok, err := guard.Claim(context.Background(), "jti", time.Now().Add(time.Minute))
		require.NoError(t, err)
		require.True(t, ok)
	}
}
