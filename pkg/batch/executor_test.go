package batch

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/NeoOne601/ventro/pkg/jobs"
)

// fakeStore is a minimal jobs.Store sufficient to exercise CallbackExecutor:
// it tracks completed-in-batch counts and records every enqueued task.
type fakeStore struct {
	mu        sync.Mutex
	completed int
	enqueued  []jobs.Task
}

func (f *fakeStore) Enqueue(_ context.Context, task jobs.Task) (jobs.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task.ID = "task-n"
	f.enqueued = append(f.enqueued, task)
	return task, nil
}
func (f *fakeStore) ClaimNext(context.Context, string) (jobs.Task, error) { return jobs.Task{}, jobs.ErrNoTasksAvailable }
func (f *fakeStore) Heartbeat(context.Context, string) error             { return nil }
func (f *fakeStore) Complete(context.Context, string) error              { return nil }
func (f *fakeStore) Retry(context.Context, string, string, time.Time) error { return nil }
func (f *fakeStore) Fail(context.Context, string, string) error          { return nil }
func (f *fakeStore) CountInProgress(context.Context) (int, error)        { return 0, nil }
func (f *fakeStore) FindStaleInProgress(context.Context, time.Time) ([]jobs.Task, error) {
	return nil, nil
}
func (f *fakeStore) MarkTimedOut(context.Context, string, string) error { return nil }
func (f *fakeStore) CountCompletedInBatch(context.Context, string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed, nil
}

type fakeSource struct{ docs []Document }

func (f fakeSource) DocumentsForBatch(context.Context, string) ([]Document, error) { return f.docs, nil }

type fakeOrgs struct{ orgID string }

func (f fakeOrgs) OrgForBatch(context.Context, string) (string, error) { return f.orgID, nil }

func TestCallbackExecutorRetriesWhileBatchNotReady(t *testing.T) {
	store := &fakeStore{completed: 1}
	exec := &CallbackExecutor{Store: store, Source: fakeSource{}, Orgs: fakeOrgs{orgID: "org-1"}}

	task := jobs.Task{Payload: mustJSON(t, jobs.BatchCallbackPayload{BatchID: "batch-1", ExpectedSize: 3})}
	result := exec.Execute(context.Background(), task)

	assert.NotEqual(t, jobs.StatusCompleted, result.Status)
	require.Error(t, result.Error)
	assert.Empty(t, store.enqueued)
}

func TestCallbackExecutorMatchesAndEnqueuesOnceBatchReady(t *testing.T) {
	docs := []Document{
		{ID: "po-1", Type: domain.DocumentTypePO, Vendor: "Acme", DocNumber: "PO-1"},
		{ID: "grn-1", Type: domain.DocumentTypeGRN, Vendor: "Acme", DocNumber: "PO-1"},
		{ID: "inv-1", Type: domain.DocumentTypeInvoice, Vendor: "Acme", DocNumber: "PO-1"},
	}
	store := &fakeStore{completed: 3}
	exec := &CallbackExecutor{Store: store, Source: fakeSource{docs: docs}, Orgs: fakeOrgs{orgID: "org-1"}}

	task := jobs.Task{Payload: mustJSON(t, jobs.BatchCallbackPayload{BatchID: "batch-1", ExpectedSize: 3})}
	result := exec.Execute(context.Background(), task)

	require.Equal(t, jobs.StatusCompleted, result.Status)
	require.NoError(t, result.Error)
	if assert.Len(t, store.enqueued, 1) {
		assert.Equal(t, jobs.TypeReconcileSession, store.enqueued[0].Type)
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
