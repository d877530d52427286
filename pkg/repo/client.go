// Package repo supplies C16's concrete ent-backed implementations of the
// narrow persistence interfaces the rest of the engine declares:
// samr.FeedbackStore, security.AuditStore, jobs.Store, events.CatchupStore,
// events.EventRecorder, batch.DocumentSource, batch.BatchOrg, and
// webhooks.Store. A single
// *database.Client (an embedded *ent.Client plus the raw *sql.DB) backs
// all of them, per spec.md §4.16.
package repo

import (
	"github.com/NeoOne601/ventro/pkg/database"
)

// Repo groups every C16 capability behind one constructor so
// cmd/ventro/main.go only needs a single *database.Client to wire the
// whole persistence layer.
type Repo struct {
	*FeedbackRepo
	*AuditRepo
	*JobStore
	*EventStore
	*BatchRepo
	*SessionRepo
	*DocumentRepo
	*WebhookStore
	*UserRepo
	*OrgRepo
	*RefreshTokenRepo
}

// New constructs every repository over the same underlying client.
func New(client *database.Client) *Repo {
	return &Repo{
		FeedbackRepo:     &FeedbackRepo{client: client},
		AuditRepo:        &AuditRepo{client: client},
		JobStore:         &JobStore{client: client},
		EventStore:       &EventStore{client: client},
		BatchRepo:        &BatchRepo{client: client},
		SessionRepo:      &SessionRepo{client: client},
		DocumentRepo:     &DocumentRepo{client: client},
		WebhookStore:     &WebhookStore{client: client},
		UserRepo:         &UserRepo{client: client},
		OrgRepo:          &OrgRepo{client: client},
		RefreshTokenRepo: &RefreshTokenRepo{client: client},
	}
}
