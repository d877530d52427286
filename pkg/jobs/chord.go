package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ProcessDocumentPayload is TypeProcessDocument's task body: extract one
// document as part of a batch upload.
type ProcessDocumentPayload struct {
	OrgID        string `json:"org_id"`
	BatchID      string `json:"batch_id"`
	DocumentID   string `json:"document_id"`
	Collection   string `json:"collection"`
	DocumentType string `json:"document_type"`
}

// ReconcileSessionPayload is TypeReconcileSession's task body: run one
// resolved PO/GRN/Invoice triple through the pipeline orchestrator.
type ReconcileSessionPayload struct {
	OrgID          string `json:"org_id"`
	SessionID      string `json:"session_id"`
	POID           string `json:"po_id"`
	GRNID          string `json:"grn_id"`
	InvoiceID      string `json:"invoice_id"`
	SAMREnabled    bool   `json:"samr_enabled"`
	MatchThreshold int    `json:"match_threshold"`
}

// BatchCallbackPayload is TypeBatchCallback's task body: run the batch
// matcher once every ProcessDocument task in the batch has settled, then
// enqueue one ReconcileSession task per matched triplet.
type BatchCallbackPayload struct {
	BatchID      string `json:"batch_id"`
	ExpectedSize int    `json:"expected_size"`
}

// EnqueueBatch fans a batch of document ids out into one ProcessDocument
// task per document plus a trailing BatchCallback task, per spec.md
// §4.13's chord design (ExecutorSynthesis-equivalent): enqueue N tasks
// tagged with a shared batch_id, then a callback task whose precondition
// is evaluated by CountCompletedInBatch.
func EnqueueBatch(ctx context.Context, store Store, orgID, collection string, documentIDs []string, documentType string) (batchID string, err error) {
	batchID = uuid.NewString()

	for _, docID := range documentIDs {
		payload, marshalErr := json.Marshal(ProcessDocumentPayload{
			OrgID:        orgID,
			BatchID:      batchID,
			DocumentID:   docID,
			Collection:   collection,
			DocumentType: documentType,
		})
		if marshalErr != nil {
			return "", fmt.Errorf("marshaling process_document payload: %w", marshalErr)
		}
		if _, enqueueErr := store.Enqueue(ctx, Task{
			Type:        TypeProcessDocument,
			Payload:     payload,
			BatchID:     batchID,
			Status:      StatusPending,
			MaxAttempts: 5,
		}); enqueueErr != nil {
			return "", fmt.Errorf("enqueuing process_document task for %s: %w", docID, enqueueErr)
		}
	}

	callbackPayload, err := json.Marshal(BatchCallbackPayload{BatchID: batchID, ExpectedSize: len(documentIDs)})
	if err != nil {
		return "", fmt.Errorf("marshaling batch_callback payload: %w", err)
	}
	if _, err := store.Enqueue(ctx, Task{
		Type:        TypeBatchCallback,
		Payload:     callbackPayload,
		BatchID:     batchID,
		Status:      StatusPending,
		MaxAttempts: 3,
	}); err != nil {
		return "", fmt.Errorf("enqueuing batch_callback task: %w", err)
	}

	return batchID, nil
}

// BatchReady reports whether every ProcessDocument task tagged with
// batchID has settled (completed, failed, or timed out) so the callback
// task's precondition — "COUNT(completed) = N OR timeout" from spec.md
// §4.13 — can be evaluated before a BatchCallback executor actually runs
// the matcher.
func BatchReady(ctx context.Context, store Store, batchID string, expectedSize int) (bool, error) {
	completed, err := store.CountCompletedInBatch(ctx, batchID)
	if err != nil {
		return false, fmt.Errorf("counting completed tasks in batch %s: %w", batchID, err)
	}
	return completed >= expectedSize, nil
}

// EnqueueReconcileTriplet enqueues the ReconcileSession task a BatchMatcher
// produces for one resolved PO/GRN/Invoice triplet.
func EnqueueReconcileTriplet(ctx context.Context, store Store, orgID, poID, grnID, invoiceID string) (Task, error) {
	payload, err := json.Marshal(ReconcileSessionPayload{
		OrgID:       orgID,
		SessionID:   uuid.NewString(),
		POID:        poID,
		GRNID:       grnID,
		InvoiceID:   invoiceID,
		SAMREnabled: true,
	})
	if err != nil {
		return Task{}, fmt.Errorf("marshaling reconcile_session payload: %w", err)
	}
	return store.Enqueue(ctx, Task{
		Type:        TypeReconcileSession,
		Payload:     payload,
		Status:      StatusPending,
		MaxAttempts: 3,
	})
}
