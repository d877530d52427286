package retrieval

import (
	"context"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/NeoOne601/ventro/pkg/apperrors"
)

// RerankTriggerThreshold/RerankCandidatePool/RerankKeep are the constants from spec.md §4.5:
// when a retriever returns more than 5 chunks, the top ~20 are re-scored
// and the top 10 are kept. This adapter is used only by C7.
const (
	RerankTriggerThreshold = 5
	RerankCandidatePool    = 20
	RerankKeep             = 10
)

// CrossEncoder scores a (query, passage) pair. A real implementation calls
// out to a cross-encoder model; RuleBasedCrossEncoder below is the
// always-available fallback.
type CrossEncoder interface {
	Score(ctx context.Context, query, passage string) (float64, error)
}

// Reranker re-scores retrieval hits with a cross-encoder, running scoring
// calls through a bounded goroutine pool so a burst of extraction queries
// cannot spawn unbounded concurrent model calls.
type Reranker struct {
	encoder CrossEncoder
	pool    *ants.Pool
}

func NewReranker(encoder CrossEncoder, poolSize int) (*Reranker, error) {
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindFatal, "failed to construct rerank worker pool", err)
	}
	return &Reranker{encoder: encoder, pool: pool}, nil
}

func (r *Reranker) Close() {
	r.pool.Release()
}

// Rerank applies the cross-encoder when hits exceed RerankTriggerThreshold,
// narrowing the candidate pool to RerankCandidatePool before scoring and
// keeping the top RerankKeep by cross-encoder score. Below the threshold,
// hits pass through unchanged.
func (r *Reranker) Rerank(ctx context.Context, query string, hits []ScoredChunk) ([]ScoredChunk, error) {
	if len(hits) <= RerankTriggerThreshold {
		return hits, nil
	}
	candidates := hits
	if len(candidates) > RerankCandidatePool {
		candidates = candidates[:RerankCandidatePool]
	}

	type scored struct {
		chunk ScoredChunk
		score float64
		err   error
	}
	results := make([]scored, len(candidates))

	var wg sync.WaitGroup
	for i, c := range candidates {
		i, c := i, c
		wg.Add(1)
		err := r.pool.Submit(func() {
			defer wg.Done()
			text, _ := c.Payload["text"].(string)
			score, err := r.encoder.Score(ctx, query, text)
			results[i] = scored{chunk: c, score: score, err: err}
		})
		if err != nil {
			wg.Done()
			results[i] = scored{chunk: c, err: err}
		}
	}
	wg.Wait()

	reranked := make([]ScoredChunk, 0, len(results))
	for _, res := range results {
		if res.err != nil {
			continue
		}
		chunk := res.chunk
		chunk.Score = res.score
		reranked = append(reranked, chunk)
	}
	sort.Slice(reranked, func(i, j int) bool { return reranked[i].Score > reranked[j].Score })
	if len(reranked) > RerankKeep {
		reranked = reranked[:RerankKeep]
	}
	return reranked, nil
}

// RuleBasedCrossEncoder scores by term-overlap fraction. It never fails and
// acts as the terminal fallback when no real cross-encoder is configured,
// mirroring the LLM router's "terminal rule-based provider never fails"
// contract from spec.md §4.6.
type RuleBasedCrossEncoder struct{}

func (RuleBasedCrossEncoder) Score(_ context.Context, query, passage string) (float64, error) {
	return keywordBoost(query, ScoredChunk{Payload: map[string]any{"text": passage}}), nil
}
