package security

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-signing-key"), 15*time.Minute)
	token, jti, err := issuer.Issue("user-1", RoleAPAnalyst, "org-1")
	require.NoError(t, err)
	assert.NotEmpty(t, jti)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Sub)
	assert.Equal(t, string(RoleAPAnalyst), claims.Role)
	assert.Equal(t, "org-1", claims.Org)
	assert.Equal(t, jti, claims.ID)
}

func TestIssuerClampsExcessiveTTL(t *testing.T) {
	issuer := NewTokenIssuer([]byte("k"), 24*time.Hour)
	assert.Equal(t, MaxAccessTokenTTL, issuer.ttl)
}

func TestVerifyRejectsWrongSigningKey(t *testing.T) {
	issuer := NewTokenIssuer([]byte("key-a"), time.Minute)
	token, _, err := issuer.Issue("user-1", RoleViewer, "org-1")
	require.NoError(t, err)

	other := NewTokenIssuer([]byte("key-b"), time.Minute)
	_, err = other.Verify(token)
	require.Error(t, err)
}

func TestRefreshTokenHashRoundTrip(t *testing.T) {
	rt, err := NewRefreshToken()
	require.NoError(t, err)
	assert.Equal(t, rt.Hash, HashRefreshToken(rt.Raw))
}

func TestDenylistRevocation(t *testing.T) {
	// spec.md §8 property 3: after Revoke(jti), IsRevoked is true within TTL.
	dl := NewInProcessDenylist()
	ctx := context.Background()
	jti := "some-jti"

	assert.False(t, dl.IsRevoked(ctx, jti))
	require.NoError(t, dl.Revoke(ctx, jti, time.Now().Add(time.Minute)))
	assert.True(t, dl.IsRevoked(ctx, jti))
}

func TestDenylistRevokeAllForUser(t *testing.T) {
	dl := NewInProcessDenylist()
	ctx := context.Background()
	userID := "user-1"

	assert.True(t, dl.RevokedBefore(ctx, userID).IsZero())
	cutoff := time.Now()
	require.NoError(t, dl.RevokeAllForUser(ctx, userID, cutoff))
	assert.WithinDuration(t, cutoff, dl.RevokedBefore(ctx, userID), time.Second)
}
