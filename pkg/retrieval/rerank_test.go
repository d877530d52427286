package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hitsWithText(texts ...string) []ScoredChunk {
	hits := make([]ScoredChunk, len(texts))
	for i, t := range texts {
		hits[i] = ScoredChunk{ID: t, Score: 0.5, Payload: map[string]any{"text": t}}
	}
	return hits
}

func TestRerankPassesThroughBelowThreshold(t *testing.T) {
	r, err := NewReranker(RuleBasedCrossEncoder{}, 4)
	require.NoError(t, err)
	defer r.Close()

	hits := hitsWithText("a", "b", "c")
	out, err := r.Rerank(context.Background(), "invoice total", hits)
	require.NoError(t, err)
	assert.Equal(t, hits, out)
}

func TestRerankNarrowsToKeepLimit(t *testing.T) {
	r, err := NewReranker(RuleBasedCrossEncoder{}, 4)
	require.NoError(t, err)
	defer r.Close()

	texts := make([]string, 15)
	for i := range texts {
		texts[i] = "invoice total line item purchase order"
	}
	hits := hitsWithText(texts...)
	out, err := r.Rerank(context.Background(), "invoice total", hits)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), RerankKeep)
}

func TestApplyHybridBoostBoostsKeywordOverlap(t *testing.T) {
	hits := []ScoredChunk{
		{ID: "1", Score: 0.5, Payload: map[string]any{"text": "vendor invoice total 1499.85"}},
		{ID: "2", Score: 0.5, Payload: map[string]any{"text": "unrelated shipping manifest"}},
	}
	out := applyHybridBoost("invoice total", hits, 2)
	require.Len(t, out, 2)
	assert.Equal(t, "1", out[0].ID, "hit sharing query terms should rank first after boost")
}
