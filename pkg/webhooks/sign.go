package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign computes the `X-Ventro-Signature` header value: "sha256=<hex>" over
// body using the endpoint's secret, per spec.md §6 — the same
// HMAC-SHA256-over-raw-bytes primitive pkg/workpaper/sign.go uses to
// notarize a reviewed workpaper, applied here to an outbound request body
// instead of a rendered document digest.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature recomputes the signature from body and reports whether
// it matches sig, guarding against timing side channels via hmac.Equal.
func VerifySignature(secret string, body []byte, sig string) bool {
	expected := Sign(secret, body)
	return hmac.Equal([]byte(expected), []byte(sig))
}
