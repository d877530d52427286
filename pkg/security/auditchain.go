package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/NeoOne601/ventro/pkg/apperrors"
	"github.com/NeoOne601/ventro/pkg/domain"
)

// AuditEntryInput carries the fields a caller supplies when appending; the
// chain computes PrevHash/RowHash/CreatedAt/ID itself.
type AuditEntryInput struct {
	OrgID        string
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	Details      string
	IP           string
}

// AuditStore persists the chain. Appends must see a consistent "last row
// for this org" view; DB unreachability is a hard failure for the
// originating operation, per spec.md §4.1's failure model (audit append
// failure ≠ fail-open, unlike the denylist).
type AuditStore interface {
	LastEntry(ctx context.Context, orgID string) (*domain.AuditLogEntry, error)
	Append(ctx context.Context, entry domain.AuditLogEntry) error
	AllEntries(ctx context.Context, orgID string) ([]domain.AuditLogEntry, error)
}

// Chain appends to and verifies the tamper-evident audit log.
type Chain struct {
	store AuditStore
}

func NewChain(store AuditStore) *Chain {
	return &Chain{store: store}
}

// RowHash computes SHA256(action|user|org|resource_type|resource_id|details|prev_hash)
// exactly per spec.md §3's AuditLogEntry invariant.
func RowHash(action, userID, orgID, resourceType, resourceID, details, prevHash string) string {
	h := sha256.New()
	h.Write([]byte(action))
	h.Write([]byte("|"))
	h.Write([]byte(userID))
	h.Write([]byte("|"))
	h.Write([]byte(orgID))
	h.Write([]byte("|"))
	h.Write([]byte(resourceType))
	h.Write([]byte("|"))
	h.Write([]byte(resourceID))
	h.Write([]byte("|"))
	h.Write([]byte(details))
	h.Write([]byte("|"))
	h.Write([]byte(prevHash))
	return hex.EncodeToString(h.Sum(nil))
}

// Append records a state-changing action, binding it to the preceding
// entry's row_hash. DB failure here must propagate — the caller's
// operation fails rather than silently skipping the audit record.
func (c *Chain) Append(ctx context.Context, in AuditEntryInput) (*domain.AuditLogEntry, error) {
	last, err := c.store.LastEntry(ctx, in.OrgID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindIntegrity, "failed to read audit chain tail", err)
	}
	prevHash := ""
	if last != nil {
		prevHash = last.RowHash
	}
	entry := domain.AuditLogEntry{
		ID:           uuid.NewString(),
		OrgID:        in.OrgID,
		UserID:       in.UserID,
		Action:       in.Action,
		ResourceType: in.ResourceType,
		ResourceID:   in.ResourceID,
		Details:      in.Details,
		IP:           in.IP,
		PrevHash:     prevHash,
		CreatedAt:    time.Now().UTC(),
	}
	entry.RowHash = RowHash(entry.Action, entry.UserID, entry.OrgID, entry.ResourceType, entry.ResourceID, entry.Details, entry.PrevHash)

	if err := c.store.Append(ctx, entry); err != nil {
		return nil, apperrors.Wrap(apperrors.KindIntegrity, "failed to append audit entry", err)
	}
	return &entry, nil
}

// VerifyResult reports the outcome of walking a chain.
type VerifyResult struct {
	OK          bool
	BrokenAtID  string
	BrokenIndex int
}

// Verify recomputes every row_hash in insertion order and confirms each
// prev_hash matches its predecessor's row_hash, per spec.md §8 property 1.
func (c *Chain) Verify(ctx context.Context, orgID string) (VerifyResult, error) {
	entries, err := c.store.AllEntries(ctx, orgID)
	if err != nil {
		return VerifyResult{}, apperrors.Wrap(apperrors.KindIntegrity, "failed to load audit chain", err)
	}
	prevHash := ""
	for i, e := range entries {
		expected := RowHash(e.Action, e.UserID, e.OrgID, e.ResourceType, e.ResourceID, e.Details, prevHash)
		if e.PrevHash != prevHash || e.RowHash != expected {
			return VerifyResult{OK: false, BrokenAtID: e.ID, BrokenIndex: i}, nil
		}
		prevHash = e.RowHash
	}
	return VerifyResult{OK: true}, nil
}
