package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/NeoOne601/ventro/pkg/extraction"
	"github.com/NeoOne601/ventro/pkg/jobs"
)

// SessionStore is the narrow slice of C16's SessionRepo a ReconcileExecutor
// needs: loading the session the job payload names and persisting the
// Supervisor's final status.
type SessionStore interface {
	Get(ctx context.Context, orgID, sessionID string) (domain.Session, error)
	UpdateStatus(ctx context.Context, s domain.Session) error
}

// WebhookNotifier is the narrow capability C16's webhooks.Dispatcher
// provides; a nil WebhookNotifier is a valid no-op.
type WebhookNotifier interface {
	Dispatch(ctx context.Context, orgID string, event domain.WebhookEvent, payload any) error
}

// ReconcileExecutor implements jobs.Executor for jobs.TypeReconcileSession:
// it loads the session a batch matcher or a manual run request enqueued,
// drives it through the Supervisor, and persists the terminal status,
// per spec.md §4.12's async run semantics.
type ReconcileExecutor struct {
	Sessions   SessionStore
	Supervisor *Supervisor
	Webhooks   WebhookNotifier
	// DefaultMatchThreshold applies when a task's payload leaves
	// MatchThreshold at its zero value (e.g. triplets enqueued by the batch
	// matcher, which doesn't know about a caller's per-run override).
	DefaultMatchThreshold int
}

// Execute satisfies jobs.Executor.
func (e *ReconcileExecutor) Execute(ctx context.Context, task jobs.Task) jobs.Result {
	var payload jobs.ReconcileSessionPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return jobs.Result{Status: jobs.StatusFailed, Error: fmt.Errorf("unmarshaling reconcile_session payload: %w", err)}
	}

	session, err := e.Sessions.Get(ctx, payload.OrgID, payload.SessionID)
	if err != nil {
		return jobs.Result{Status: jobs.StatusFailed, Error: fmt.Errorf("loading session %s: %w", payload.SessionID, err)}
	}

	now := time.Now()
	session.StartedAt = &now
	if err := session.Transition(domain.SessionProcessing); err != nil {
		return jobs.Result{Status: jobs.StatusFailed, Error: err}
	}
	if err := e.Sessions.UpdateStatus(ctx, session); err != nil {
		return jobs.Result{Status: jobs.StatusFailed, Error: fmt.Errorf("marking session %s running: %w", session.ID, err)}
	}

	threshold := payload.MatchThreshold
	if threshold == 0 {
		threshold = e.DefaultMatchThreshold
	}
	collection := "org_" + payload.OrgID
	req := RunRequest{
		OrgID:          payload.OrgID,
		PO:             DocumentInput{ID: payload.POID, Type: domain.DocumentTypePO, Collection: collection},
		GRN:            DocumentInput{ID: payload.GRNID, Type: domain.DocumentTypeGRN, Collection: collection},
		Invoice:        DocumentInput{ID: payload.InvoiceID, Type: domain.DocumentTypeInvoice, Collection: collection},
		SAMREnabled:    payload.SAMREnabled,
		MatchThreshold: threshold,
	}

	// Run drives session through every remaining stage itself, setting
	// CompletedAt, Verdict, and the final Status transition in place; the
	// executor only needs to persist what Run already mutated.
	state := e.Supervisor.Run(ctx, &session, req)
	if state.Stage == domain.StageFailed {
		session.Error = joinErrors(state.Errors)
	}

	if err := e.Sessions.UpdateStatus(ctx, session); err != nil {
		return jobs.Result{Status: jobs.StatusFailed, Error: fmt.Errorf("persisting final status for session %s: %w", session.ID, err)}
	}

	if e.Webhooks != nil {
		event, payloadBody := webhookFor(session)
		_ = e.Webhooks.Dispatch(ctx, session.OrgID, event, payloadBody)
	}

	if state.Stage != domain.StageCompleted {
		return jobs.Result{Status: jobs.StatusFailed, Error: fmt.Errorf("session %s ended at stage %s", session.ID, state.Stage)}
	}
	return jobs.Result{Status: jobs.StatusCompleted}
}

func webhookFor(s domain.Session) (domain.WebhookEvent, map[string]any) {
	if s.Status == domain.SessionFailed {
		return domain.WebhookSessionFailed, map[string]any{"session_id": s.ID, "error": s.Error}
	}
	return domain.WebhookReconciliationCompleted, map[string]any{"session_id": s.ID, "verdict": s.Verdict}
}

func joinErrors(errs []string) string {
	if len(errs) == 0 {
		return ""
	}
	out := errs[0]
	for _, e := range errs[1:] {
		out += "; " + e
	}
	return out
}

// DocumentStore is the narrow slice of C16's DocumentRepo a DocumentExecutor
// needs to persist one extracted document version.
type DocumentStore interface {
	SaveVersion(ctx context.Context, orgID, docID string, docType domain.DocumentType, confidence float64, parsed *domain.ParsedDocument, createdBy string) (int, error)
}

// DocumentExtractor is the narrow slice of extraction.Engine a
// DocumentExecutor needs; *extraction.Engine satisfies it.
type DocumentExtractor interface {
	ExtractDocument(ctx context.Context, req extraction.DocumentRequest) (domain.ParsedDocument, []domain.Citation)
}

// DocumentExecutor implements jobs.Executor for jobs.TypeProcessDocument: it
// runs C7's single-document extraction path for one uploaded file within a
// batch and persists the resulting version, per spec.md §4.13's chord
// design (each document settles independently before the batch callback
// runs the matcher).
type DocumentExecutor struct {
	Engine    DocumentExtractor
	Documents DocumentStore
}

// Execute satisfies jobs.Executor.
func (e *DocumentExecutor) Execute(ctx context.Context, task jobs.Task) jobs.Result {
	var payload jobs.ProcessDocumentPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return jobs.Result{Status: jobs.StatusFailed, Error: fmt.Errorf("unmarshaling process_document payload: %w", err)}
	}

	docType := domain.DocumentType(payload.DocumentType)
	req := extraction.DocumentRequest{
		DocumentID:   payload.DocumentID,
		DocumentType: docType,
		Collection:   payload.Collection,
	}

	parsed, _ := e.Engine.ExtractDocument(ctx, req)
	if parsed.Error != "" {
		return jobs.Result{Status: jobs.StatusFailed, Error: fmt.Errorf("extracting document %s: %s", payload.DocumentID, parsed.Error)}
	}

	if _, err := e.Documents.SaveVersion(ctx, payload.OrgID, payload.DocumentID, docType, parsed.Metadata.ClassificationConfidence, &parsed, "system:extraction"); err != nil {
		return jobs.Result{Status: jobs.StatusFailed, Error: fmt.Errorf("saving extracted version for %s: %w", payload.DocumentID, err)}
	}

	return jobs.Result{Status: jobs.StatusCompleted}
}
