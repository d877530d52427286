package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/NeoOne601/ventro/pkg/jobs"
)

// errBatchNotReady causes the jobs worker to retry the callback task with
// its normal exponential backoff — the durable-runtime equivalent of the
// "COUNT(completed) = N OR timeout" precondition poll spec.md §4.13
// describes, since jobs.Worker has no separate precondition-wait primitive.
var errBatchNotReady = errors.New("batch: not all process_document tasks have settled yet")

// DocumentSource supplies the classified, embedded documents belonging to
// one batch upload; C16 supplies the concrete repository-backed
// implementation.
type DocumentSource interface {
	DocumentsForBatch(ctx context.Context, batchID string) ([]Document, error)
}

// BatchOrg resolves the owning org id for a batch, so CallbackExecutor can
// hand it to EnqueueReconcileTriplet's ReconcileSessionPayload.
type BatchOrg interface {
	OrgForBatch(ctx context.Context, batchID string) (string, error)
}

// CallbackExecutor implements jobs.Executor for jobs.TypeBatchCallback: once
// every ProcessDocument task tagged with a batch has settled, it runs
// Match and enqueues one ReconcileSession task per resolved triplet,
// per spec.md §4.13's chord design and §4.15's matcher.
type CallbackExecutor struct {
	Store  jobs.Store
	Source DocumentSource
	Orgs   BatchOrg
}

// Execute satisfies jobs.Executor.
func (e *CallbackExecutor) Execute(ctx context.Context, task jobs.Task) jobs.Result {
	var payload jobs.BatchCallbackPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return jobs.Result{Status: jobs.StatusFailed, Error: fmt.Errorf("unmarshaling batch_callback payload: %w", err)}
	}

	ready, err := jobs.BatchReady(ctx, e.Store, payload.BatchID, payload.ExpectedSize)
	if err != nil {
		return jobs.Result{Status: jobs.StatusFailed, Error: err}
	}
	if !ready {
		return jobs.Result{Status: jobs.StatusFailed, Error: errBatchNotReady}
	}

	docs, err := e.Source.DocumentsForBatch(ctx, payload.BatchID)
	if err != nil {
		return jobs.Result{Status: jobs.StatusFailed, Error: fmt.Errorf("loading documents for batch %s: %w", payload.BatchID, err)}
	}

	orgID, err := e.Orgs.OrgForBatch(ctx, payload.BatchID)
	if err != nil {
		return jobs.Result{Status: jobs.StatusFailed, Error: fmt.Errorf("resolving org for batch %s: %w", payload.BatchID, err)}
	}

	result := Match(docs)
	slog.Info("batch matching complete", "batch_id", payload.BatchID,
		"triplets", len(result.Triplets), "unmatched", len(result.UnmatchedIDs))

	for _, t := range result.Triplets {
		if _, err := jobs.EnqueueReconcileTriplet(ctx, e.Store, orgID, t.POID, t.GRNID, t.InvoiceID); err != nil {
			return jobs.Result{Status: jobs.StatusFailed, Error: fmt.Errorf("enqueuing reconcile task for triplet %s/%s/%s: %w", t.POID, t.GRNID, t.InvoiceID, err)}
		}
	}

	return jobs.Result{Status: jobs.StatusCompleted}
}
