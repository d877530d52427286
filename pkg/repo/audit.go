package repo

import (
	"context"
	"fmt"

	"github.com/NeoOne601/ventro/ent"
	"github.com/NeoOne601/ventro/ent/auditlogentry"
	"github.com/NeoOne601/ventro/pkg/database"
	"github.com/NeoOne601/ventro/pkg/domain"
)

// AuditRepo implements security.AuditStore over the AuditLogEntry entity.
// Rows are never updated or deleted once written: the chain's integrity
// depends on every row staying exactly as appended.
type AuditRepo struct {
	client *database.Client
}

func fromEntAudit(e *ent.AuditLogEntry) domain.AuditLogEntry {
	return domain.AuditLogEntry{
		ID:           e.ID,
		OrgID:        e.OrgID,
		UserID:       e.UserID,
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		Details:      e.Details,
		IP:           e.IP,
		PrevHash:     e.PrevHash,
		RowHash:      e.RowHash,
		CreatedAt:    e.CreatedAt,
	}
}

// LastEntry returns the newest audit row for orgID, or nil if the org's
// chain hasn't been started yet (the genesis case, prev_hash == "").
func (r *AuditRepo) LastEntry(ctx context.Context, orgID string) (*domain.AuditLogEntry, error) {
	row, err := r.client.AuditLogEntry.Query().
		Where(auditlogentry.OrgIDEQ(orgID)).
		Order(ent.Desc(auditlogentry.FieldCreatedAt)).
		First(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying last audit entry for org %s: %w", orgID, err)
	}
	entry := fromEntAudit(row)
	return &entry, nil
}

// Append inserts one immutable audit row. Chain.Append has already
// computed PrevHash/RowHash; this is a plain durable write.
func (r *AuditRepo) Append(ctx context.Context, entry domain.AuditLogEntry) error {
	_, err := r.client.AuditLogEntry.Create().
		SetID(entry.ID).
		SetOrgID(entry.OrgID).
		SetUserID(entry.UserID).
		SetAction(entry.Action).
		SetResourceType(entry.ResourceType).
		SetResourceID(entry.ResourceID).
		SetDetails(entry.Details).
		SetIP(entry.IP).
		SetPrevHash(entry.PrevHash).
		SetRowHash(entry.RowHash).
		SetCreatedAt(entry.CreatedAt).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("appending audit entry for org %s: %w", entry.OrgID, err)
	}
	return nil
}

// AllEntries returns an org's entire chain in insertion order, for
// Chain.Verify and the /admin/compliance/evidence-pack export.
func (r *AuditRepo) AllEntries(ctx context.Context, orgID string) ([]domain.AuditLogEntry, error) {
	rows, err := r.client.AuditLogEntry.Query().
		Where(auditlogentry.OrgIDEQ(orgID)).
		Order(ent.Asc(auditlogentry.FieldCreatedAt)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying audit chain for org %s: %w", orgID, err)
	}
	out := make([]domain.AuditLogEntry, len(rows))
	for i, row := range rows {
		out[i] = fromEntAudit(row)
	}
	return out, nil
}
