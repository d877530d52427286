package repo

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"
	"github.com/NeoOne601/ventro/ent"
	"github.com/NeoOne601/ventro/pkg/database"
	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/NeoOne601/ventro/pkg/jobs"
	"github.com/NeoOne601/ventro/pkg/webhooks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newTestRepo spins up a throwaway Postgres container, auto-migrates via
// ent's schema, and returns every C16 repository wired over it, mirroring
// pkg/database's own testcontainers-based client test harness.
func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	drv, err := sql.Open(dialect.Postgres, connStr)
	require.NoError(t, err)

	entClient := ent.NewClient(ent.Driver(drv))
	require.NoError(t, entClient.Schema.Create(ctx))

	client := database.NewClientFromEnt(entClient, drv.DB())
	t.Cleanup(func() { client.Close() })

	return New(client)
}

func seedOrg(t *testing.T, repo *Repo, id string) {
	t.Helper()
	_, err := repo.FeedbackRepo.client.Org.Create().SetID(id).SetName(id).Save(context.Background())
	require.NoError(t, err)
}

func TestJobStoreEnqueueClaimCompleteRoundtrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	task, err := repo.JobStore.Enqueue(ctx, jobs.Task{
		Type:    jobs.TypeProcessDocument,
		Payload: json.RawMessage(`{"document_id":"doc-1"}`),
	})
	require.NoError(t, err)
	require.Equal(t, jobs.StatusPending, task.Status)

	claimed, err := repo.JobStore.ClaimNext(ctx, "worker-1")
	require.NoError(t, err)
	require.Equal(t, task.ID, claimed.ID)
	require.Equal(t, jobs.StatusInProgress, claimed.Status)
	require.Equal(t, 1, claimed.Attempts)

	_, err = repo.JobStore.ClaimNext(ctx, "worker-2")
	require.ErrorIs(t, err, jobs.ErrNoTasksAvailable)

	require.NoError(t, repo.JobStore.Complete(ctx, claimed.ID))

	n, err := repo.JobStore.CountInProgress(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestJobStoreRetryDelaysNextClaim(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	task, err := repo.JobStore.Enqueue(ctx, jobs.Task{Type: jobs.TypeReconcileSession, Payload: json.RawMessage(`{}`)})
	require.NoError(t, err)

	claimed, err := repo.JobStore.ClaimNext(ctx, "worker-1")
	require.NoError(t, err)
	require.Equal(t, task.ID, claimed.ID)

	future := time.Now().Add(time.Hour)
	require.NoError(t, repo.JobStore.Retry(ctx, claimed.ID, "transient failure", future))

	_, err = repo.JobStore.ClaimNext(ctx, "worker-2")
	require.ErrorIs(t, err, jobs.ErrNoTasksAvailable)
}

func TestJobStoreBatchCompletionCounting(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	batchID := uuid.NewString()

	t1, err := repo.JobStore.Enqueue(ctx, jobs.Task{Type: jobs.TypeProcessDocument, Payload: json.RawMessage(`{}`), BatchID: batchID})
	require.NoError(t, err)
	t2, err := repo.JobStore.Enqueue(ctx, jobs.Task{Type: jobs.TypeProcessDocument, Payload: json.RawMessage(`{}`), BatchID: batchID})
	require.NoError(t, err)

	ready, err := jobs.BatchReady(ctx, repo.JobStore, batchID, 2)
	require.NoError(t, err)
	require.False(t, ready)

	c1, err := repo.JobStore.ClaimNext(ctx, "w1")
	require.NoError(t, err)
	require.NoError(t, repo.JobStore.Complete(ctx, c1.ID))

	c2, err := repo.JobStore.ClaimNext(ctx, "w1")
	require.NoError(t, err)
	require.NoError(t, repo.JobStore.Fail(ctx, c2.ID, "extraction failed"))

	ready, err = jobs.BatchReady(ctx, repo.JobStore, batchID, 2)
	require.NoError(t, err)
	require.True(t, ready)
	require.ElementsMatch(t, []string{t1.ID, t2.ID}, []string{c1.ID, c2.ID})
}

func TestFeedbackRepoRecordAndRecentFeedback(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedOrg(t, repo, "org-1")

	err := repo.FeedbackRepo.Record(ctx, domain.SAMRFeedback{
		SessionID:     "sess-1",
		OrgID:         "org-1",
		SAMRTriggered: true,
		CosineScore:   0.62,
		ThresholdUsed: 0.7,
		Feedback:      domain.FeedbackFalsePositive,
		SubmittedBy:   "analyst-1",
		SubmittedAt:   time.Now(),
	})
	require.NoError(t, err)

	recent, err := repo.FeedbackRepo.RecentFeedback(ctx, "org-1", 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, domain.FeedbackFalsePositive, recent[0].Feedback)
}

func TestAuditRepoAppendChainsPrevHash(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedOrg(t, repo, "org-1")

	last, err := repo.AuditRepo.LastEntry(ctx, "org-1")
	require.NoError(t, err)
	require.Nil(t, last)

	first := domain.AuditLogEntry{ID: uuid.NewString(), OrgID: "org-1", Action: "session.created", UserID: "u1", ResourceType: "session", ResourceID: "s1", PrevHash: "", RowHash: "hash-1", CreatedAt: time.Now()}
	require.NoError(t, repo.AuditRepo.Append(ctx, first))

	second := domain.AuditLogEntry{ID: uuid.NewString(), OrgID: "org-1", Action: "session.completed", UserID: "u1", ResourceType: "session", ResourceID: "s1", PrevHash: "hash-1", RowHash: "hash-2", CreatedAt: time.Now()}
	require.NoError(t, repo.AuditRepo.Append(ctx, second))

	last, err = repo.AuditRepo.LastEntry(ctx, "org-1")
	require.NoError(t, err)
	require.NotNil(t, last)
	require.Equal(t, "hash-2", last.RowHash)

	all, err := repo.AuditRepo.AllEntries(ctx, "org-1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "hash-1", all[0].RowHash)
	require.Equal(t, "hash-2", all[1].RowHash)
}

func TestEventStoreRecordAndReplaySince(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id1, err := repo.EventStore.RecordEvent(ctx, "session:s1", []byte(`{"type":"pipeline.checkpoint","stage":"EXTRACTED"}`))
	require.NoError(t, err)
	id2, err := repo.EventStore.RecordEvent(ctx, "session:s1", []byte(`{"type":"pipeline.checkpoint","stage":"QUANTIFIED"}`))
	require.NoError(t, err)
	require.Greater(t, id2, id1)

	replay, err := repo.EventStore.EventsSince(ctx, "session:s1", id1, 10)
	require.NoError(t, err)
	require.Len(t, replay, 1)
	require.Equal(t, id2, replay[0].ID)
}

func TestBatchRepoDocumentsForBatchAndOrgForBatch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedOrg(t, repo, "org-1")

	batchID := uuid.NewString()
	_, err := repo.BatchRepo.client.BatchUpload.Create().
		SetID(batchID).
		SetOrgID("org-1").
		SetExpectedSize(1).
		Save(ctx)
	require.NoError(t, err)

	_, err = repo.BatchRepo.client.Document.Create().
		SetID("doc-1").
		SetOrgID("org-1").
		SetFilename("po.pdf").
		SetBatchID(batchID).
		Save(ctx)
	require.NoError(t, err)

	org, err := repo.BatchRepo.OrgForBatch(ctx, batchID)
	require.NoError(t, err)
	require.Equal(t, "org-1", org)

	docs, err := repo.BatchRepo.DocumentsForBatch(ctx, batchID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "doc-1", docs[0].ID)
}

func TestSessionRepoCreateGetListUpdate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedOrg(t, repo, "org-1")

	s, err := repo.SessionRepo.Create(ctx, domain.Session{
		ID: uuid.NewString(), OrgID: "org-1", POID: "po-1", GRNID: "grn-1", InvoiceID: "inv-1", Status: domain.SessionPending,
	})
	require.NoError(t, err)

	got, err := repo.SessionRepo.Get(ctx, "org-1", s.ID)
	require.NoError(t, err)
	require.Equal(t, domain.SessionPending, got.Status)

	now := time.Now()
	require.NoError(t, repo.SessionRepo.UpdateStatus(ctx, domain.Session{
		ID: s.ID, Status: domain.SessionCompleted, CompletedAt: &now,
		Verdict: &domain.Verdict{OverallStatus: domain.MatchFullMatch, Confidence: 0.95},
	}))

	got, err = repo.SessionRepo.Get(ctx, "org-1", s.ID)
	require.NoError(t, err)
	require.Equal(t, domain.SessionCompleted, got.Status)
	require.NotNil(t, got.Verdict)
	require.Equal(t, domain.MatchFullMatch, got.Verdict.OverallStatus)

	list, err := repo.SessionRepo.List(ctx, "org-1", nil, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestDocumentRepoDualWriteVersioning(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedOrg(t, repo, "org-1")

	_, err := repo.DocumentRepo.Create(ctx, "org-1", "doc-1", "invoice.pdf", "")
	require.NoError(t, err)

	v1, err := repo.DocumentRepo.SaveVersion(ctx, "org-1", "doc-1", domain.DocumentTypeInvoice, 0.9,
		&domain.ParsedDocument{Metadata: domain.DocumentMetadata{VendorName: "Acme", DocNumber: "INV-1"}}, "analyst-1")
	require.NoError(t, err)
	require.Equal(t, 1, v1)

	v2, err := repo.DocumentRepo.SaveVersion(ctx, "org-1", "doc-1", domain.DocumentTypeInvoice, 0.95,
		&domain.ParsedDocument{Metadata: domain.DocumentMetadata{VendorName: "Acme Corp", DocNumber: "INV-1"}}, "analyst-1")
	require.NoError(t, err)
	require.Equal(t, 2, v2)

	meta, parsed, err := repo.DocumentRepo.Get(ctx, "org-1", "doc-1")
	require.NoError(t, err)
	require.Equal(t, domain.DocumentTypeInvoice, meta.Type)
	require.NotNil(t, parsed)
	require.Equal(t, "Acme Corp", parsed.Metadata.VendorName)

	versions, err := repo.DocumentRepo.Versions(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	require.Equal(t, 1, versions[0].Version)
	require.Equal(t, "Acme", versions[0].Content.Metadata.VendorName)
	require.Equal(t, 2, versions[1].Version)
}

func TestWebhookStoreCreateEndpointAndRecordDelivery(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedOrg(t, repo, "org-1")

	ep, err := repo.WebhookStore.CreateEndpoint(ctx, webhooks.Endpoint{
		OrgID:  "org-1",
		URL:    "https://example.com/hook",
		Secret: "s3cr3t",
		Events: []domain.WebhookEvent{domain.WebhookSessionFailed},
	})
	require.NoError(t, err)
	require.NotEmpty(t, ep.ID)

	endpoints, err := repo.WebhookStore.EndpointsForEvent(ctx, "org-1", domain.WebhookSessionFailed)
	require.NoError(t, err)
	require.Len(t, endpoints, 1)
	require.True(t, endpoints[0].Subscribes(domain.WebhookSessionFailed))

	require.NoError(t, repo.WebhookStore.RecordDelivery(ctx, webhooks.Delivery{
		ID: uuid.NewString(), EndpointID: ep.ID, Event: string(domain.WebhookSessionFailed),
		Payload: []byte(`{}`), Status: webhooks.DeliveryFailed, Attempts: 1, ResponseStatus: 503,
	}))
	require.NoError(t, repo.WebhookStore.RecordDelivery(ctx, webhooks.Delivery{
		ID: uuid.NewString(), EndpointID: ep.ID, Event: string(domain.WebhookSessionFailed),
		Payload: []byte(`{}`), Status: webhooks.DeliveryDelivered, Attempts: 2, ResponseStatus: 200,
	}))

	require.NoError(t, repo.WebhookStore.DeactivateEndpoint(ctx, ep.ID))
	endpoints, err = repo.WebhookStore.EndpointsForEvent(ctx, "org-1", domain.WebhookSessionFailed)
	require.NoError(t, err)
	require.Empty(t, endpoints)
}
