package fileenc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	return []byte("01234567890123456789012345678901") // 32 bytes
}

func TestEncryptDecryptFileRoundTrip(t *testing.T) {
	svc, err := New(testKey(), EnvProduction)
	require.NoError(t, err)

	plaintext := []byte("sensitive purchase order contents")
	envelope, err := svc.EncryptFile(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, envelope)

	decrypted, err := svc.DecryptFile(envelope)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestEncryptFileUsesDistinctDEKPerCall(t *testing.T) {
	svc, err := New(testKey(), EnvProduction)
	require.NoError(t, err)
	plaintext := []byte("same contents twice")

	e1, err := svc.EncryptFile(plaintext)
	require.NoError(t, err)
	e2, err := svc.EncryptFile(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, e1, e2, "two encryptions of the same plaintext must differ (random DEK + nonce)")
}

func TestEncryptDecryptFieldRoundTrip(t *testing.T) {
	svc, err := New(testKey(), EnvProduction)
	require.NoError(t, err)

	encoded, err := svc.EncryptField("vendor-tax-id-12345")
	require.NoError(t, err)
	assert.NotEqual(t, "vendor-tax-id-12345", encoded)

	decoded, err := svc.DecryptField(encoded)
	require.NoError(t, err)
	assert.Equal(t, "vendor-tax-id-12345", decoded)
}

func TestNewRequiresMasterKeyInProduction(t *testing.T) {
	_, err := New(nil, EnvProduction)
	require.Error(t, err)
}

func TestNewIsNoOpWithoutKeyInDevelopment(t *testing.T) {
	svc, err := New(nil, EnvDevelopment)
	require.NoError(t, err)

	out, err := svc.EncryptFile([]byte("plain"))
	require.NoError(t, err)
	assert.Equal(t, []byte("plain"), out, "no-op mode must pass through unchanged")
}

func TestNewRejectsWrongKeySize(t *testing.T) {
	_, err := New([]byte("too-short"), EnvProduction)
	require.Error(t, err)
}

func TestDecryptFileRejectsTamperedEnvelope(t *testing.T) {
	svc, err := New(testKey(), EnvProduction)
	require.NoError(t, err)
	envelope, err := svc.EncryptFile([]byte("contents"))
	require.NoError(t, err)

	tampered := append([]byte(nil), envelope...)
	tampered[len(tampered)-1] ^= 0xFF
	_, err = svc.DecryptFile(tampered)
	require.Error(t, err)
}
