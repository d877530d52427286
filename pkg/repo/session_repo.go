package repo

import (
	"context"
	"fmt"

	"github.com/NeoOne601/ventro/ent"
	"github.com/NeoOne601/ventro/ent/reconciliationsession"
	"github.com/NeoOne601/ventro/pkg/database"
	"github.com/NeoOne601/ventro/pkg/domain"
)

// SessionRepo persists domain.Session rows, org-scoped throughout, per
// spec.md §4.16's access invariant: every query filters by org_id.
type SessionRepo struct {
	client *database.Client
}

// Create inserts a new pending session.
func (r *SessionRepo) Create(ctx context.Context, s domain.Session) (domain.Session, error) {
	row, err := r.client.ReconciliationSession.Create().
		SetID(s.ID).
		SetOrgID(s.OrgID).
		SetPoID(s.POID).
		SetGrnID(s.GRNID).
		SetInvoiceID(s.InvoiceID).
		SetStatus(reconciliationsession.Status(s.Status)).
		SetNillableCreatedBy(nonEmptyPtr(s.CreatedBy)).
		Save(ctx)
	if err != nil {
		return domain.Session{}, fmt.Errorf("creating session %s: %w", s.ID, err)
	}
	return sessionFromEnt(row), nil
}

// Get loads one session, scoped to orgID so one org can never read another's.
func (r *SessionRepo) Get(ctx context.Context, orgID, sessionID string) (domain.Session, error) {
	row, err := r.client.ReconciliationSession.Query().
		Where(
			reconciliationsession.IDEQ(sessionID),
			reconciliationsession.OrgIDEQ(orgID),
		).
		Only(ctx)
	if err != nil {
		return domain.Session{}, fmt.Errorf("loading session %s for org %s: %w", sessionID, orgID, err)
	}
	return sessionFromEnt(row), nil
}

// List returns an org's sessions newest-first, optionally filtered by status.
func (r *SessionRepo) List(ctx context.Context, orgID string, status *domain.SessionStatus, limit int) ([]domain.Session, error) {
	q := r.client.ReconciliationSession.Query().Where(reconciliationsession.OrgIDEQ(orgID))
	if status != nil {
		q = q.Where(reconciliationsession.StatusEQ(reconciliationsession.Status(*status)))
	}
	rows, err := q.Order(ent.Desc(reconciliationsession.FieldCreatedAt)).Limit(limit).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sessions for org %s: %w", orgID, err)
	}
	out := make([]domain.Session, len(rows))
	for i, row := range rows {
		out[i] = sessionFromEnt(row)
	}
	return out, nil
}

// UpdateStatus transitions a session and records its terminal verdict/trace
// when the pipeline has settled. startedAt/completedAt are applied only
// when non-nil, mirroring the orchestrator's partial updates per stage.
func (r *SessionRepo) UpdateStatus(ctx context.Context, s domain.Session) error {
	upd := r.client.ReconciliationSession.UpdateOneID(s.ID).
		SetStatus(reconciliationsession.Status(s.Status)).
		SetNillableErrorMessage(nonEmptyPtr(s.Error))
	if s.StartedAt != nil {
		upd = upd.SetStartedAt(*s.StartedAt)
	}
	if s.CompletedAt != nil {
		upd = upd.SetCompletedAt(*s.CompletedAt)
	}
	if s.Verdict != nil {
		upd = upd.SetVerdict(s.Verdict)
	}
	if s.AgentTrace != nil {
		upd = upd.SetAgentTrace(s.AgentTrace)
	}
	if err := upd.Exec(ctx); err != nil {
		return fmt.Errorf("updating session %s: %w", s.ID, err)
	}
	return nil
}

func sessionFromEnt(row *ent.ReconciliationSession) domain.Session {
	s := domain.Session{
		ID:        row.ID,
		POID:      row.PoID,
		GRNID:     row.GrnID,
		InvoiceID: row.InvoiceID,
		OrgID:     row.OrgID,
		Status:    domain.SessionStatus(row.Status),
		CreatedAt: row.CreatedAt,
		Verdict:   row.Verdict,
		CreatedBy: row.CreatedBy,
		Error:     row.ErrorMessage,
	}
	if row.AgentTrace != nil {
		s.AgentTrace = row.AgentTrace
	}
	if row.StartedAt != nil {
		s.StartedAt = row.StartedAt
	}
	if row.CompletedAt != nil {
		s.CompletedAt = row.CompletedAt
	}
	return s
}
