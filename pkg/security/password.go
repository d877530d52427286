package security

import (
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"

	"github.com/NeoOne601/ventro/pkg/apperrors"
)

// BcryptCost matches spec.md §4.1: cost factor 12.
const BcryptCost = 12

// MinPasswordLength enforces spec.md §8's boundary: passwords under 12
// characters are rejected with an explicit reason.
const MinPasswordLength = 12

// preHash neutralizes bcrypt's silent truncation at 72 bytes by SHA-256
// pre-hashing the password before bcrypt ever sees it.
func preHash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	// base64-encode so the bcrypt input is printable ASCII, matching the
	// common Go idiom for this pattern (bcrypt operates on bytes either way,
	// but the encoded form avoids surprises with bcrypt implementations
	// that balk at raw non-UTF8 byte sequences).
	encoded := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(encoded, sum[:])
	return encoded
}

// ValidatePasswordStrength enforces the minimum length rule. Additional
// complexity rules can be layered on without changing callers.
func ValidatePasswordStrength(password string) error {
	if len(password) < MinPasswordLength {
		return apperrors.WithReason(apperrors.KindValidation,
			"password must be at least 12 characters", "password_too_short")
	}
	return nil
}

// HashPassword returns a bcrypt hash of the SHA-256 pre-hashed password.
func HashPassword(password string) (string, error) {
	if err := ValidatePasswordStrength(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword(preHash(password), BcryptCost)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindFatal, "password hashing failed", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored bcrypt hash.
func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), preHash(password)) == nil
}
