package api

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/NeoOne601/ventro/pkg/config"
	"github.com/NeoOne601/ventro/pkg/security"
)

// decodeJSON unmarshals a recorded response body into v, for tests that
// assert on response fields rather than raw JSON.
func decodeJSON(rec *httptest.ResponseRecorder, v any) error {
	return json.Unmarshal(rec.Body.Bytes(), v)
}

// newTestServer builds a Server wired only with the dependencies the
// middleware and validation-path tests in this package exercise: a real
// TokenIssuer (so authMiddleware/refresh/logout can verify real tokens) and
// an in-memory denylist. The repo, job store, and connection manager stay
// nil — every handler path these tests drive returns before touching them.
func newTestServer() (*Server, *fakeDenylist) {
	denylist := newFakeDenylist()
	issuer := security.NewTokenIssuer([]byte("test-signing-key-not-for-production"), time.Minute)
	s := NewServer(&config.Config{}, nil, nil, issuer, denylist, nil, nil, nil)
	return s, denylist
}

// fakeDenylist is an in-memory security.TokenDenylist for tests that never
// need a real Redis connection.
type fakeDenylist struct {
	mu            sync.Mutex
	revoked       map[string]bool
	revokedBefore map[string]time.Time
}

func newFakeDenylist() *fakeDenylist {
	return &fakeDenylist{
		revoked:       map[string]bool{},
		revokedBefore: map[string]time.Time{},
	}
}

func (f *fakeDenylist) Revoke(_ context.Context, jti string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[jti] = true
	return nil
}

func (f *fakeDenylist) IsRevoked(_ context.Context, jti string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revoked[jti]
}

func (f *fakeDenylist) RevokeAllForUser(_ context.Context, userID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revokedBefore[userID] = at
	return nil
}

func (f *fakeDenylist) RevokedBefore(_ context.Context, userID string) time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revokedBefore[userID]
}
