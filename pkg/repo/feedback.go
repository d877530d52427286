package repo

import (
	"context"
	"fmt"

	"github.com/NeoOne601/ventro/ent"
	"github.com/NeoOne601/ventro/ent/samrfeedback"
	"github.com/NeoOne601/ventro/pkg/database"
	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/google/uuid"
)

// FeedbackRepo implements samr.FeedbackStore over the SAMRFeedback entity.
type FeedbackRepo struct {
	client *database.Client
}

// RecentFeedback returns an org's most recent SAMR feedback rows, newest
// first, for AdaptiveThresholdService's F-beta threshold search.
func (r *FeedbackRepo) RecentFeedback(ctx context.Context, orgID string, limit int) ([]domain.SAMRFeedback, error) {
	rows, err := r.client.SAMRFeedback.Query().
		Where(samrfeedback.OrgIDEQ(orgID)).
		Order(ent.Desc(samrfeedback.FieldSubmittedAt)).
		Limit(limit).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying recent feedback for org %s: %w", orgID, err)
	}

	out := make([]domain.SAMRFeedback, len(rows))
	for i, row := range rows {
		out[i] = domain.SAMRFeedback{
			SessionID:     row.SessionID,
			OrgID:         row.OrgID,
			SAMRTriggered: row.SamrTriggered,
			CosineScore:   row.CosineScore,
			ThresholdUsed: row.ThresholdUsed,
			Feedback:      domain.SAMRFeedbackLabel(row.Feedback),
			SubmittedBy:   row.SubmittedBy,
			SubmittedAt:   row.SubmittedAt,
		}
	}
	return out, nil
}

// Record persists one analyst-submitted feedback row, called from the
// /samr/feedback handler.
func (r *FeedbackRepo) Record(ctx context.Context, f domain.SAMRFeedback) error {
	_, err := r.client.SAMRFeedback.Create().
		SetID(uuid.NewString()).
		SetSessionID(f.SessionID).
		SetOrgID(f.OrgID).
		SetSamrTriggered(f.SAMRTriggered).
		SetCosineScore(f.CosineScore).
		SetThresholdUsed(f.ThresholdUsed).
		SetFeedback(samrfeedback.Feedback(f.Feedback)).
		SetSubmittedBy(f.SubmittedBy).
		SetSubmittedAt(f.SubmittedAt).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("recording SAMR feedback for session %s: %w", f.SessionID, err)
	}
	return nil
}
