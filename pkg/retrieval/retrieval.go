// Package retrieval implements the vector retriever (C5): the narrow
// IVectorStore/IEmbedder capability interfaces, a qdrant-backed adapter, and
// the hybrid-search/cross-encoder-rerank behaviors C7 depends on.
package retrieval

import (
	"context"
	"sort"
	"strings"

	"github.com/NeoOne601/ventro/pkg/apperrors"
)

// ScoredChunk is one hit returned by a vector search.
type ScoredChunk struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// Filters is an exact-match keyword predicate set applied server-side,
// per spec.md §4.5: document_id, document_type, session_id, page.
type Filters struct {
	DocumentID   string
	DocumentType string
	SessionID    string
	Page         int
	HasPage      bool
}

// IVectorStore is the capability interface from spec.md §9: no reflection,
// exactly the operations listed in §4.5.
type IVectorStore interface {
	Search(ctx context.Context, vector []float32, collection string, filters Filters, topK int) ([]ScoredChunk, error)
	Upsert(ctx context.Context, chunks []Chunk, collection string) error
	DeleteByDocumentID(ctx context.Context, docID string, collection string) error
	HybridSearch(ctx context.Context, vector []float32, text string, collection string, filters Filters, topK int) ([]ScoredChunk, error)
}

// Chunk is a unit of text plus its embedding and payload, ready to upsert.
type Chunk struct {
	ID        string
	Vector    []float32
	Text      string
	Payload   map[string]any
}

// IEmbedder converts text into the shared embedding space. The same
// embedder is used for retrieval and for SAMR's reasoning vectors so both
// live in dimension D.
type IEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// ScoreThreshold suppresses low-relevance noise server-side, per spec.md §4.5.
const ScoreThreshold = 0.35

// keywordBoost approximates sparse retrieval by boosting dense hits whose
// payload text shares terms with the query, per spec.md §4.5's explicit
// "sparse approximation, may be replaced by true sparse indexing without
// changing callers" note. The boost function is the only place that
// contract lives, so a future sparse-index swap only touches this file.
func keywordBoost(query string, hit ScoredChunk) float64 {
	text, _ := hit.Payload["text"].(string)
	if text == "" {
		return hit.Score
	}
	queryTerms := strings.Fields(strings.ToLower(query))
	if len(queryTerms) == 0 {
		return hit.Score
	}
	lowered := strings.ToLower(text)
	matches := 0
	for _, term := range queryTerms {
		if strings.Contains(lowered, term) {
			matches++
		}
	}
	boost := float64(matches) / float64(len(queryTerms)) * 0.15
	return hit.Score + boost
}

// applyHybridBoost re-scores and re-sorts hits by keyword overlap, then
// truncates to topK. Shared by every IVectorStore implementation's
// HybridSearch so the boost formula is defined exactly once.
func applyHybridBoost(query string, hits []ScoredChunk, topK int) []ScoredChunk {
	boosted := make([]ScoredChunk, len(hits))
	copy(boosted, hits)
	for i := range boosted {
		boosted[i].Score = keywordBoost(query, boosted[i])
	}
	sort.Slice(boosted, func(i, j int) bool { return boosted[i].Score > boosted[j].Score })
	if len(boosted) > topK {
		boosted = boosted[:topK]
	}
	return boosted
}

var errEmptyCollection = apperrors.New(apperrors.KindValidation, "collection name cannot be empty")
