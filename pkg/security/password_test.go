package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery-staple")
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "correct-horse-battery-staple"))
	assert.False(t, VerifyPassword(hash, "wrong-password-entirely"))
}

func TestHashPasswordRejectsShortPassword(t *testing.T) {
	_, err := HashPassword("short1")
	require.Error(t, err)
}

func TestVerifyPasswordToleratesLongInput(t *testing.T) {
	// bcrypt truncates at 72 bytes; the SHA-256 pre-hash means passwords
	// longer than that still differ in full.
	long := strings.Repeat("a", 200)
	hash, err := HashPassword(long)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, long))
	assert.False(t, VerifyPassword(hash, strings.Repeat("a", 199)+"b"))
}
