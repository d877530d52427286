// Package fileenc implements the two-tier envelope encryption service (C4):
// a master key held by a secrets provider protects a random per-file data
// encryption key (DEK), both under AES-256-GCM.
package fileenc

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"log/slog"

	"github.com/NeoOne601/ventro/pkg/apperrors"
)

const (
	keySize   = 32 // AES-256
	nonceSize = 12
)

// Environment distinguishes production (hard-fail on missing key) from every
// other mode (no-op-with-warning on missing key), per spec.md §4.4.
type Environment int

const (
	EnvDevelopment Environment = iota
	EnvProduction
)

// Service holds the master key and performs envelope and field-level
// encryption/decryption. A nil masterKey in a non-production environment
// makes every operation a pass-through no-op; in production it is a
// construction-time error so misconfiguration surfaces at startup.
type Service struct {
	masterKey []byte
	env       Environment
	noop      bool
}

// New constructs a Service. masterKey must be exactly 32 bytes if provided.
func New(masterKey []byte, env Environment) (*Service, error) {
	if len(masterKey) == 0 {
		if env == EnvProduction {
			return nil, apperrors.New(apperrors.KindFatal, "file encryption master key is required in production")
		}
		slog.Warn("file encryption running with no master key; encryption is a no-op")
		return &Service{env: env, noop: true}, nil
	}
	if len(masterKey) != keySize {
		return nil, apperrors.New(apperrors.KindFatal, "file encryption master key must be 32 bytes")
	}
	return &Service{masterKey: masterKey, env: env}, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindFatal, "failed to construct AES cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindFatal, "failed to construct GCM mode", err)
	}
	return gcm, nil
}

func randomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, apperrors.Wrap(apperrors.KindFatal, "failed to read random bytes", err)
	}
	return buf, nil
}

func seal(gcm cipher.AEAD, plaintext []byte) (nonce, ciphertext []byte, err error) {
	nonce, err = randomBytes(gcm.NonceSize())
	if err != nil {
		return nil, nil, err
	}
	return nonce, gcm.Seal(nil, nonce, plaintext, nil), nil
}

// EncryptFile produces the on-disk envelope format: u32 dek_ciphertext_len ||
// dek_ciphertext || 12B nonce || ciphertext_with_tag. The DEK is random per
// call and is itself sealed under the master key.
func (s *Service) EncryptFile(plaintext []byte) ([]byte, error) {
	if s.noop {
		return plaintext, nil
	}
	dek, err := randomBytes(keySize)
	if err != nil {
		return nil, err
	}
	masterGCM, err := newGCM(s.masterKey)
	if err != nil {
		return nil, err
	}
	dekNonce, dekCiphertext, err := seal(masterGCM, dek)
	if err != nil {
		return nil, err
	}
	// The envelope stores the DEK's own nonce prepended to its ciphertext so
	// a single blob round-trips through DecryptFile without a side channel.
	dekBlob := append(dekNonce, dekCiphertext...)

	fileGCM, err := newGCM(dek)
	if err != nil {
		return nil, err
	}
	fileNonce, fileCiphertext, err := seal(fileGCM, plaintext)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 4+len(dekBlob)+nonceSize+len(fileCiphertext))
	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(dekBlob)))
	out = append(out, lenBuf...)
	out = append(out, dekBlob...)
	out = append(out, fileNonce...)
	out = append(out, fileCiphertext...)
	return out, nil
}

// DecryptFile reverses EncryptFile.
func (s *Service) DecryptFile(envelope []byte) ([]byte, error) {
	if s.noop {
		return envelope, nil
	}
	if len(envelope) < 4 {
		return nil, apperrors.New(apperrors.KindValidation, "encrypted file envelope too short")
	}
	dekBlobLen := binary.BigEndian.Uint32(envelope[:4])
	offset := 4
	if len(envelope) < offset+int(dekBlobLen)+nonceSize {
		return nil, apperrors.New(apperrors.KindValidation, "encrypted file envelope truncated")
	}
	dekBlob := envelope[offset : offset+int(dekBlobLen)]
	offset += int(dekBlobLen)

	masterGCM, err := newGCM(s.masterKey)
	if err != nil {
		return nil, err
	}
	if len(dekBlob) < masterGCM.NonceSize() {
		return nil, apperrors.New(apperrors.KindValidation, "encrypted data key blob truncated")
	}
	dekNonce := dekBlob[:masterGCM.NonceSize()]
	dekCiphertext := dekBlob[masterGCM.NonceSize():]
	dek, err := masterGCM.Open(nil, dekNonce, dekCiphertext, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindIntegrity, "failed to unseal data encryption key", err)
	}

	fileNonce := envelope[offset : offset+nonceSize]
	fileCiphertext := envelope[offset+nonceSize:]
	fileGCM, err := newGCM(dek)
	if err != nil {
		return nil, err
	}
	plaintext, err := fileGCM.Open(nil, fileNonce, fileCiphertext, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindIntegrity, "failed to decrypt file", err)
	}
	return plaintext, nil
}

// EncryptField encrypts a single value under the master key directly and
// returns a compact base64 nonce||ciphertext||tag encoding, per spec.md §4.4.
func (s *Service) EncryptField(plaintext string) (string, error) {
	if s.noop {
		return plaintext, nil
	}
	gcm, err := newGCM(s.masterKey)
	if err != nil {
		return "", err
	}
	nonce, ciphertext, err := seal(gcm, []byte(plaintext))
	if err != nil {
		return "", err
	}
	blob := append(nonce, ciphertext...)
	return base64.StdEncoding.EncodeToString(blob), nil
}

// DecryptField reverses EncryptField.
func (s *Service) DecryptField(encoded string) (string, error) {
	if s.noop {
		return encoded, nil
	}
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindValidation, "invalid base64 field ciphertext", err)
	}
	gcm, err := newGCM(s.masterKey)
	if err != nil {
		return "", err
	}
	if len(blob) < gcm.NonceSize() {
		return "", apperrors.New(apperrors.KindValidation, "field ciphertext too short")
	}
	nonce := blob[:gcm.NonceSize()]
	ciphertext := blob[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindIntegrity, "failed to decrypt field", err)
	}
	return string(plaintext), nil
}
