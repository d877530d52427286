package workpaper

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Signature attests that SignerID reviewed the workpaper whose content
// digest is Digest at SignedAt. MAC is an HMAC-SHA256 over
// session_id|digest|signer_id|signed_at using the org's signing key — the
// same primitive spec.md's webhook delivery uses for payload signing,
// applied here to notarize a reviewed artifact instead of an outbound
// request.
type Signature struct {
	SignerID string
	SignedAt time.Time
	Digest   string
	MAC      string
}

func macFor(sessionID, digest, signerID string, signedAt time.Time, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(sessionID))
	mac.Write([]byte("|"))
	mac.Write([]byte(digest))
	mac.Write([]byte("|"))
	mac.Write([]byte(signerID))
	mac.Write([]byte("|"))
	mac.Write([]byte(signedAt.Format(time.RFC3339Nano)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Sign computes a Signature over doc's rendered digest. key is the workpaper
// signing secret the caller supplies; cmd/ventro passes one process-wide key
// read from WORKPAPER_SIGN_KEY, falling back to JWT_SIGNING_KEY.
func Sign(doc Document, digest string, signerID string, key []byte) Signature {
	signedAt := time.Now().UTC()
	return Signature{
		SignerID: signerID,
		SignedAt: signedAt,
		Digest:   digest,
		MAC:      macFor(doc.SessionID, digest, signerID, signedAt, key),
	}
}

// VerifySignature recomputes the MAC from sig's own fields and reports
// whether it matches, guarding against timing side channels via hmac.Equal.
func VerifySignature(doc Document, sig Signature, key []byte) bool {
	expected := macFor(doc.SessionID, sig.Digest, sig.SignerID, sig.SignedAt, key)
	return hmac.Equal([]byte(expected), []byte(sig.MAC))
}
