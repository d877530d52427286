package repo

import (
	"context"
	"fmt"

	"github.com/NeoOne601/ventro/ent"
	"github.com/NeoOne601/ventro/ent/document"
	"github.com/NeoOne601/ventro/pkg/batch"
	"github.com/NeoOne601/ventro/pkg/database"
	"github.com/NeoOne601/ventro/pkg/domain"
)

// BatchRepo implements batch.DocumentSource and batch.BatchOrg over the
// Document and BatchUpload entities, per spec.md §4.15/§4.16.
type BatchRepo struct {
	client *database.Client
}

var (
	_ batch.DocumentSource = (*BatchRepo)(nil)
	_ batch.BatchOrg       = (*BatchRepo)(nil)
)

// DocumentsForBatch loads every document classified as part of batchID,
// with whatever embedding C12's extraction stage already computed for it.
func (r *BatchRepo) DocumentsForBatch(ctx context.Context, batchID string) ([]batch.Document, error) {
	rows, err := r.client.Document.Query().
		Where(document.BatchIDEQ(batchID)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading documents for batch %s: %w", batchID, err)
	}

	out := make([]batch.Document, len(rows))
	for i, row := range rows {
		out[i] = documentToBatch(row)
	}
	return out, nil
}

// OrgForBatch resolves the owning org for a batch upload, for
// CallbackExecutor's ReconcileSessionPayload.
func (r *BatchRepo) OrgForBatch(ctx context.Context, batchID string) (string, error) {
	upload, err := r.client.BatchUpload.Get(ctx, batchID)
	if err != nil {
		return "", fmt.Errorf("resolving org for batch %s: %w", batchID, err)
	}
	return upload.OrgID, nil
}

func documentToBatch(row *ent.Document) batch.Document {
	doc := batch.Document{
		ID:   row.ID,
		Type: domain.DocumentType(row.DocType),
	}
	if row.Parsed != nil {
		doc.Vendor = row.Parsed.Metadata.VendorName
		doc.DocNumber = row.Parsed.Metadata.DocNumber
	}
	return doc
}
