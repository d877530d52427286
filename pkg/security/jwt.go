package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/NeoOne601/ventro/pkg/apperrors"
)

// TokenType distinguishes access tokens from everything else that might
// ride on a JWT in the future; verification rejects any non-access type.
type TokenType string

const AccessTokenType TokenType = "access"

// MaxAccessTokenTTL bounds access token expiry per spec.md §4.1 ("≤ 60 minutes").
const MaxAccessTokenTTL = 60 * time.Minute

// MaxRefreshTokenTTL bounds refresh token expiry ("≤ 7 days").
const MaxRefreshTokenTTL = 7 * 24 * time.Hour

// Claims is the access-token payload shape from spec.md §4.1.
type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"`
	Org  string `json:"org"`
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// TokenIssuer issues and verifies access tokens.
type TokenIssuer struct {
	signingKey []byte
	ttl        time.Duration
}

// NewTokenIssuer builds an issuer with a TTL clamped to MaxAccessTokenTTL.
func NewTokenIssuer(signingKey []byte, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 || ttl > MaxAccessTokenTTL {
		ttl = MaxAccessTokenTTL
	}
	return &TokenIssuer{signingKey: signingKey, ttl: ttl}
}

// Issue mints a signed access token with a fresh jti.
func (t *TokenIssuer) Issue(userID string, role Role, orgID string) (token string, jti string, err error) {
	jti = uuid.NewString()
	now := time.Now()
	claims := Claims{
		Sub:  userID,
		Role: string(role),
		Org:  orgID,
		Type: string(AccessTokenType),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			ID:        jti,
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(t.signingKey)
	if err != nil {
		return "", "", apperrors.Wrap(apperrors.KindFatal, "failed to sign access token", err)
	}
	return signed, jti, nil
}

// Verify decodes and validates a token's signature, expiry and type. It does
// NOT consult the revocation denylist — callers combine this with a
// Denylist/RevokedBefore check (see denylist.go), per spec.md §4.1's
// "decode, check expiry and type, then consult the denylist" sequencing.
func (t *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.signingKey, nil
	})
	if err != nil || !parsed.Valid {
		return nil, apperrors.Wrap(apperrors.KindAuth, "invalid access token", err)
	}
	if claims.Type != string(AccessTokenType) {
		return nil, apperrors.New(apperrors.KindAuth, "token is not an access token")
	}
	return claims, nil
}

// RefreshToken is the raw, unhashed credential handed to the client. Only
// its digest is ever persisted.
type RefreshToken struct {
	Raw  string
	Hash string
}

// NewRefreshToken generates a 64-byte random token and its SHA-256 digest.
func NewRefreshToken() (RefreshToken, error) {
	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		return RefreshToken{}, apperrors.Wrap(apperrors.KindFatal, "failed to generate refresh token", err)
	}
	raw := base64.RawURLEncoding.EncodeToString(buf)
	return RefreshToken{Raw: raw, Hash: HashRefreshToken(raw)}, nil
}

// HashRefreshToken returns the hex-encoded SHA-256 digest of a raw refresh
// token, satisfying the round-trip law in spec.md §8:
// hash_refresh_token(raw) == hash produced at creation time.
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
