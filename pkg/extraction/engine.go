// Package extraction implements the extraction engine (C7): concurrent
// per-document retrieval-augmented extraction with citation attachment.
package extraction

import (
	"context"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/NeoOne601/ventro/pkg/apperrors"
	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/NeoOne601/ventro/pkg/jsonschema"
	"github.com/NeoOne601/ventro/pkg/llmrouter"
	"github.com/NeoOne601/ventro/pkg/retrieval"
	"github.com/NeoOne601/ventro/pkg/sanitize"
)

// HardTimeout bounds a single document's extraction, per spec.md §4.7.
const HardTimeout = 90 * time.Second

// RetrievalTopK is the chunk count requested before rerank, per spec.md §4.7.
const RetrievalTopK = 20

// ProgressEmitter is the narrow seam into C14; a no-op implementation is
// used wherever the caller has not wired the progress relay.
type ProgressEmitter interface {
	EmitWarning(sessionID, documentID, message string)
}

type noopEmitter struct{}

func (noopEmitter) EmitWarning(string, string, string) {}

// DocumentRequest identifies one document to extract within a session.
type DocumentRequest struct {
	SessionID    string
	DocumentID   string
	DocumentType domain.DocumentType
	Collection   string
}

// Output is C7's result shape from spec.md §4.7.
type Output struct {
	POParsed        domain.ParsedDocument
	GRNParsed       domain.ParsedDocument
	InvoiceParsed   domain.ParsedDocument
	ExtractedCitations []domain.Citation
}

// Engine wires C5 (retrieval), C3 (sanitizer), and C6 (LLM router) together
// to run the extraction pipeline described in spec.md §4.7.
type Engine struct {
	Store    retrieval.IVectorStore
	Embedder retrieval.IEmbedder
	Reranker *retrieval.Reranker
	Sanitizer *sanitize.Sanitizer
	Router   *llmrouter.Router
	Progress ProgressEmitter
}

// NewEngine constructs an Engine; progress may be nil for a no-op emitter.
func NewEngine(store retrieval.IVectorStore, embedder retrieval.IEmbedder, reranker *retrieval.Reranker, sanitizer *sanitize.Sanitizer, router *llmrouter.Router, progress ProgressEmitter) *Engine {
	if progress == nil {
		progress = noopEmitter{}
	}
	return &Engine{Store: store, Embedder: embedder, Reranker: reranker, Sanitizer: sanitizer, Router: router, Progress: progress}
}

// ExtractSession launches the PO/GRN/Invoice extractions concurrently, each
// under its own HardTimeout, per spec.md §4.7. A failed or timed-out
// document never aborts the others (the partial-failure policy).
func (e *Engine) ExtractSession(ctx context.Context, sessionID string, po, grn, invoice DocumentRequest) Output {
	requests := []DocumentRequest{po, grn, invoice}
	for i := range requests {
		requests[i].SessionID = sessionID
	}
	results := make([]docResult, len(requests))

	p := pool.New().WithMaxGoroutines(len(requests)).WithErrors().WithContext(ctx)
	for i, req := range requests {
		i, req := i, req
		p.Go(func(ctx context.Context) error {
			results[i] = e.extractOne(ctx, req)
			return nil
		})
	}
	_ = p.Wait() // errors are recorded per-document in docResult, never propagated

	var citations []domain.Citation
	for i, res := range results {
		if res.doc.Error != "" {
			e.Progress.EmitWarning(sessionID, requests[i].DocumentID, res.doc.Error)
		}
		citations = append(citations, res.citations...)
	}

	return Output{
		POParsed:           results[0].doc,
		GRNParsed:          results[1].doc,
		InvoiceParsed:      results[2].doc,
		ExtractedCitations: citations,
	}
}

type docResult struct {
	doc       domain.ParsedDocument
	citations []domain.Citation
}

// ExtractDocument runs the same five-step pipeline as ExtractSession for a
// single document, standing in for the session-triple path when a document
// is processed on its own (a batch upload, before its triplet is resolved).
func (e *Engine) ExtractDocument(ctx context.Context, req DocumentRequest) (domain.ParsedDocument, []domain.Citation) {
	res := e.extractOne(ctx, req)
	if res.doc.Error != "" {
		e.Progress.EmitWarning(req.SessionID, req.DocumentID, res.doc.Error)
	}
	return res.doc, res.citations
}

// extractOne runs the five-step pipeline from spec.md §4.7 for one document.
func (e *Engine) extractOne(ctx context.Context, req DocumentRequest) docResult {
	ctx, cancel := context.WithTimeout(ctx, HardTimeout)
	defer cancel()

	metadata := domain.DocumentMetadata{ID: req.DocumentID, Type: req.DocumentType}
	failed := func(err error) docResult {
		return docResult{doc: domain.ParsedDocument{Metadata: metadata, Error: err.Error()}}
	}

	query := queryFor(req.DocumentType)

	vector, err := e.Embedder.Embed(ctx, query)
	if err != nil {
		return failed(apperrors.Wrap(apperrors.KindTransient, "failed to embed extraction query", err))
	}

	filters := retrieval.Filters{DocumentID: req.DocumentID, DocumentType: string(req.DocumentType), SessionID: req.SessionID}
	hits, err := e.Store.HybridSearch(ctx, vector, query, req.Collection, filters, RetrievalTopK)
	if err != nil {
		return failed(apperrors.Wrap(apperrors.KindTransient, "failed to retrieve document chunks", err))
	}

	if e.Reranker != nil {
		reranked, err := e.Reranker.Rerank(ctx, query, hits)
		if err == nil {
			hits = reranked
		} else {
			slog.Warn("rerank failed, using unranked hits", "document_id", req.DocumentID, "error", err)
		}
	}

	concatenated := concatenateChunkText(hits)
	sanitized := e.Sanitizer.Clean(concatenated, req.DocumentID)
	if len(sanitized.ThreatsFound) > 0 {
		slog.Warn("sanitizer redacted content before extraction", "document_id", req.DocumentID, "threats", sanitized.ThreatsFound)
	}

	prompt := buildPrompt(req.DocumentType, sanitized.CleanedText)
	result, err := e.Router.Complete(ctx, llmrouter.CompletionRequest{Prompt: prompt, JSONMode: true, Temperature: 0})
	if err != nil {
		return failed(apperrors.Wrap(apperrors.KindTransient, "llm extraction call failed", err))
	}

	var dto extractionDTO
	if err := jsonschema.Unmarshal([]byte(result.Text), &dto); err != nil {
		return failed(apperrors.Wrap(apperrors.KindValidation, "llm returned malformed extraction JSON", err))
	}

	items := toLineItems(req.DocumentID, dto.LineItems)
	totals := toTotalsBlock(dto.Totals)
	citations := attachCitations(req.DocumentID, req.DocumentType, items, hits)

	doc := domain.ParsedDocument{
		Metadata:  metadata,
		LineItems: items,
		Totals:    totals,
	}
	return docResult{doc: doc, citations: citations}
}

func concatenateChunkText(hits []retrieval.ScoredChunk) string {
	var out []byte
	for i, h := range hits {
		text, _ := h.Payload["text"].(string)
		if text == "" {
			continue
		}
		if i > 0 {
			out = append(out, '\n')
		}
		out = append(out, text...)
	}
	return string(out)
}
