package repo

import (
	"context"
	"fmt"

	"github.com/NeoOne601/ventro/ent"
	"github.com/NeoOne601/ventro/ent/document"
	"github.com/NeoOne601/ventro/ent/documentversion"
	"github.com/NeoOne601/ventro/pkg/database"
	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/google/uuid"
)

// DocumentRepo persists domain documents with dual-write versioning: every
// save replaces the "latest" Document row and appends an immutable
// DocumentVersion row, with a version number monotone per document id,
// per spec.md §4.16's invariant.
type DocumentRepo struct {
	client *database.Client
}

// Create inserts a brand-new document with latest_version 0 and no version
// rows; the first SaveVersion creates version 1.
func (r *DocumentRepo) Create(ctx context.Context, orgID, id, filename string, batchID string) (domain.DocumentMetadata, error) {
	row, err := r.client.Document.Create().
		SetID(id).
		SetOrgID(orgID).
		SetFilename(filename).
		SetDocType(document.DocTypeUnknown).
		SetLatestVersion(0).
		SetNillableBatchID(nonEmptyPtr(batchID)).
		Save(ctx)
	if err != nil {
		return domain.DocumentMetadata{}, fmt.Errorf("creating document %s: %w", id, err)
	}
	return documentMetaFromEnt(row), nil
}

// SaveVersion dual-writes one parse result: the Document row is updated
// in place to the new classification/parsed snapshot and latest_version is
// bumped, while an immutable DocumentVersion row preserves the prior
// history — atomically, in one transaction, so a reader never observes
// latest_version ahead of the version row it points to.
func (r *DocumentRepo) SaveVersion(ctx context.Context, orgID, docID string, docType domain.DocumentType, confidence float64, parsed *domain.ParsedDocument, createdBy string) (int, error) {
	tx, err := r.client.Tx(ctx)
	if err != nil {
		return 0, fmt.Errorf("starting document save transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := tx.Document.Query().
		Where(document.IDEQ(docID), document.OrgIDEQ(orgID)).
		Only(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading document %s for org %s: %w", docID, orgID, err)
	}

	nextVersion := current.LatestVersion + 1

	if _, err := tx.DocumentVersion.Create().
		SetID(uuid.NewString()).
		SetDocumentID(docID).
		SetVersion(nextVersion).
		SetParsed(derefParsed(parsed)).
		SetNillableCreatedBy(nonEmptyPtr(createdBy)).
		Save(ctx); err != nil {
		return 0, fmt.Errorf("appending version %d for document %s: %w", nextVersion, docID, err)
	}

	if err := current.Update().
		SetDocType(document.DocType(docType)).
		SetClassificationConfidence(confidence).
		SetLatestVersion(nextVersion).
		SetParsed(parsed).
		Exec(ctx); err != nil {
		return 0, fmt.Errorf("updating latest document row %s: %w", docID, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing document save for %s: %w", docID, err)
	}

	return nextVersion, nil
}

// Get loads the latest snapshot of one org-scoped document.
func (r *DocumentRepo) Get(ctx context.Context, orgID, docID string) (domain.DocumentMetadata, *domain.ParsedDocument, error) {
	row, err := r.client.Document.Query().
		Where(document.IDEQ(docID), document.OrgIDEQ(orgID)).
		Only(ctx)
	if err != nil {
		return domain.DocumentMetadata{}, nil, fmt.Errorf("loading document %s for org %s: %w", docID, orgID, err)
	}
	return documentMetaFromEnt(row), row.Parsed, nil
}

// Versions returns one document's full append-only history, oldest first,
// for the workpaper/evidence-pack export's audit trail.
func (r *DocumentRepo) Versions(ctx context.Context, docID string) ([]domain.DocumentVersion, error) {
	rows, err := r.client.Document.Query().
		Where(document.IDEQ(docID)).
		QueryVersions().
		Order(ent.Asc(documentversion.FieldVersion)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading version history for document %s: %w", docID, err)
	}
	out := make([]domain.DocumentVersion, len(rows))
	for i, v := range rows {
		out[i] = domain.DocumentVersion{
			DocumentID: v.DocumentID,
			Version:    v.Version,
			Content:    v.Parsed,
			CreatedAt:  v.CreatedAt,
			CreatedBy:  v.CreatedBy,
		}
	}
	return out, nil
}

func documentMetaFromEnt(row *ent.Document) domain.DocumentMetadata {
	return domain.DocumentMetadata{
		ID:                       row.ID,
		Filename:                 row.Filename,
		Type:                     domain.DocumentType(row.DocType),
		ClassificationConfidence: row.ClassificationConfidence,
	}
}

func derefParsed(p *domain.ParsedDocument) domain.ParsedDocument {
	if p == nil {
		return domain.ParsedDocument{}
	}
	return *p
}
