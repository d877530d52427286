package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/NeoOne601/ventro/pkg/apperrors"
	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/NeoOne601/ventro/pkg/jobs"
	"github.com/NeoOne601/ventro/pkg/retrieval"
)

// chunkSize bounds the naive fixed-width text chunking the upload path
// performs before indexing a document into the vector store; extraction
// itself (C7) only ever reads chunks back out by document id.
const chunkSize = 1200

// collectionFor names the per-org qdrant collection every document of that
// org is indexed into.
func collectionFor(orgID string) string { return "org_" + orgID }

// uploadDocumentHandler handles POST /documents/upload: a single-file
// multipart upload that is chunked, embedded, and indexed synchronously,
// then handed to a ProcessDocument job for extraction.
func (s *Server) uploadDocumentHandler(c *gin.Context) {
	_, orgID, _ := principal(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindValidation, "missing file field", err))
		return
	}
	defer file.Close()

	docType := c.DefaultPostForm("document_type", string(domain.DocumentTypeUnknown))

	doc, err := s.ingestOne(c, orgID, "", file, header, docType)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, DocumentResponse{ID: doc.ID, Filename: doc.Filename, Type: string(doc.Type)})
}

// bulkUploadHandler handles POST /documents/bulk: many files in one batch,
// chorded through jobs.EnqueueBatch per spec.md §4.13.
func (s *Server) bulkUploadHandler(c *gin.Context) {
	_, orgID, _ := principal(c)

	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindValidation, "invalid multipart form", err))
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		respondError(c, apperrors.New(apperrors.KindValidation, "no files provided"))
		return
	}

	batchID := uuid.NewString()
	docIDs := make([]string, 0, len(files))
	for _, header := range files {
		f, err := header.Open()
		if err != nil {
			respondError(c, apperrors.Wrap(apperrors.KindValidation, "failed to read uploaded file", err))
			return
		}
		doc, err := s.ingestOne(c, orgID, batchID, f, header, string(domain.DocumentTypeUnknown))
		f.Close()
		if err != nil {
			respondError(c, err)
			return
		}
		docIDs = append(docIDs, doc.ID)
	}

	if _, err := jobs.EnqueueBatch(c.Request.Context(), s.jobStore, orgID, collectionFor(orgID), docIDs, string(domain.DocumentTypeUnknown)); err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindTransient, "failed to enqueue batch processing", err))
		return
	}

	c.JSON(http.StatusAccepted, BulkUploadResponse{BatchID: batchID, DocumentIDs: docIDs})
}

// ingestOne persists a document's identity, chunks and indexes its raw text
// into the vector store, and enqueues its ProcessDocument extraction task.
// A bulk upload's trailing BatchCallback task is enqueued by the caller
// once every document in the batch has been ingested.
func (s *Server) ingestOne(c *gin.Context, orgID, batchID string, file multipart.File, header *multipart.FileHeader, docType string) (domain.DocumentMetadata, error) {
	ctx := c.Request.Context()
	docID := uuid.NewString()

	doc, err := s.repo.DocumentRepo.Create(ctx, orgID, docID, header.Filename, batchID)
	if err != nil {
		return domain.DocumentMetadata{}, apperrors.Wrap(apperrors.KindFatal, "failed to create document record", err)
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		return domain.DocumentMetadata{}, apperrors.Wrap(apperrors.KindValidation, "failed to read upload body", err)
	}

	collection := collectionFor(orgID)
	chunks := chunkText(string(raw), docID)
	for i := range chunks {
		vector, err := s.embedder.Embed(ctx, chunks[i].Text)
		if err != nil {
			return domain.DocumentMetadata{}, apperrors.Wrap(apperrors.KindTransient, "failed to embed document chunk", err)
		}
		chunks[i].Vector = vector
	}
	if len(chunks) > 0 {
		if err := s.vectorStore.Upsert(ctx, chunks, collection); err != nil {
			return domain.DocumentMetadata{}, apperrors.Wrap(apperrors.KindTransient, "failed to index document", err)
		}
	}

	if batchID == "" {
		payload := jobs.ProcessDocumentPayload{OrgID: orgID, DocumentID: docID, Collection: collection, DocumentType: docType}
		body, err := json.Marshal(payload)
		if err != nil {
			return domain.DocumentMetadata{}, apperrors.Wrap(apperrors.KindFatal, "failed to marshal extraction task", err)
		}
		if _, err := s.jobStore.Enqueue(ctx, jobs.Task{
			Type:        jobs.TypeProcessDocument,
			Payload:     body,
			Status:      jobs.StatusPending,
			MaxAttempts: 5,
		}); err != nil {
			return domain.DocumentMetadata{}, apperrors.Wrap(apperrors.KindTransient, "failed to enqueue extraction", err)
		}
	}

	return doc, nil
}

func chunkText(text, docID string) []retrieval.Chunk {
	var chunks []retrieval.Chunk
	for i := 0; i < len(text); i += chunkSize {
		end := i + chunkSize
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, retrieval.Chunk{
			ID:   fmt.Sprintf("%s-%d", docID, i/chunkSize),
			Text: text[i:end],
			Payload: map[string]any{
				"text":        text[i:end],
				"document_id": docID,
			},
		})
	}
	return chunks
}

// getDocumentHandler handles GET /documents/{id}.
func (s *Server) getDocumentHandler(c *gin.Context) {
	_, orgID, _ := principal(c)
	meta, _, err := s.repo.DocumentRepo.Get(c.Request.Context(), orgID, c.Param("id"))
	if err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindNotFound, "document not found", err))
		return
	}
	c.JSON(http.StatusOK, DocumentResponse{
		ID: meta.ID, Filename: meta.Filename, Type: string(meta.Type),
		Confidence: meta.ClassificationConfidence, PageCount: meta.PageCount,
	})
}

// getParsedDocumentHandler handles GET /documents/{id}/parsed.
func (s *Server) getParsedDocumentHandler(c *gin.Context) {
	_, orgID, _ := principal(c)
	_, parsed, err := s.repo.DocumentRepo.Get(c.Request.Context(), orgID, c.Param("id"))
	if err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindNotFound, "document not found", err))
		return
	}
	c.JSON(http.StatusOK, parsed)
}

// documentHistoryHandler handles GET /documents/{id}/history.
func (s *Server) documentHistoryHandler(c *gin.Context) {
	versions, err := s.repo.DocumentRepo.Versions(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindNotFound, "no version history", err))
		return
	}
	c.JSON(http.StatusOK, versions)
}

// documentDiffHandler handles GET /documents/{id}/diff/{v1}/{v2}, returning
// both named versions so the client can render the diff; spec.md §6 does
// not mandate a server-computed diff format.
func (s *Server) documentDiffHandler(c *gin.Context) {
	versions, err := s.repo.DocumentRepo.Versions(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindNotFound, "no version history", err))
		return
	}
	v1, ok1 := findVersion(versions, c.Param("v1"))
	v2, ok2 := findVersion(versions, c.Param("v2"))
	if !ok1 || !ok2 {
		respondError(c, apperrors.New(apperrors.KindNotFound, "requested version not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"v1": v1, "v2": v2})
}

func findVersion(versions []domain.DocumentVersion, label string) (domain.DocumentVersion, bool) {
	for _, v := range versions {
		if fmt.Sprintf("%d", v.Version) == label {
			return v, true
		}
	}
	return domain.DocumentVersion{}, false
}
