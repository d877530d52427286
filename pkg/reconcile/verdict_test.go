package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/NeoOne601/ventro/pkg/llmrouter"
	"github.com/NeoOne601/ventro/pkg/quant"
)

type fixedProvider struct{ text string }

func (p fixedProvider) Name() string { return "fixed" }
func (p fixedProvider) Complete(context.Context, llmrouter.CompletionRequest) (llmrouter.CompletionResult, error) {
	return llmrouter.CompletionResult{Text: p.text, Provider: p.Name()}, nil
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(context.Context, string) ([]float32, error) { return []float32{0, 0}, nil }
func (stubEmbedder) Dimensions() int                                  { return 2 }

func TestSynthesizeVerdictParsesWellFormedResponse(t *testing.T) {
	completion := `{"overall_status":"full_match","confidence":0.92,"line_item_matches":[{"discrepancy":"none"}],"discrepancy_summary":[],"recommendation":"approve","audit_narrative":"All three documents agree."}`
	router := llmrouter.NewRouter(
		[]llmrouter.Provider{fixedProvider{text: completion}},
		stubEmbedder{},
		llmrouter.DefaultBreakerConfig(),
	)

	matches := []domain.LineItemMatch{{ID: "m1"}}
	verdict, err := SynthesizeVerdict(context.Background(), router, matches, quant.Report{})

	require.NoError(t, err)
	assert.Equal(t, domain.MatchFullMatch, verdict.OverallStatus)
	assert.Equal(t, domain.RecommendApprove, verdict.Recommendation)
	assert.Equal(t, 0.92, verdict.Confidence)
	assert.Len(t, verdict.LineItemMatches, 1)
}

func TestSynthesizeVerdictFillsMissingMatchIDs(t *testing.T) {
	completion := `{"overall_status":"partial_match","confidence":0.5,"recommendation":"investigate","audit_narrative":"some discrepancies found"}`
	router := llmrouter.NewRouter(
		[]llmrouter.Provider{fixedProvider{text: completion}},
		stubEmbedder{},
		llmrouter.DefaultBreakerConfig(),
	)

	matches := []domain.LineItemMatch{{ID: ""}}
	verdict, err := SynthesizeVerdict(context.Background(), router, matches, quant.Report{})

	require.NoError(t, err)
	require.Len(t, verdict.LineItemMatches, 1)
	assert.NotEmpty(t, verdict.LineItemMatches[0].ID)
}

func TestSynthesizeVerdictUnknownEnumsFallBackToSafeDefaults(t *testing.T) {
	completion := `{"overall_status":"bogus","confidence":0.1,"recommendation":"bogus","audit_narrative":"n/a"}`
	router := llmrouter.NewRouter(
		[]llmrouter.Provider{fixedProvider{text: completion}},
		stubEmbedder{},
		llmrouter.DefaultBreakerConfig(),
	)

	verdict, err := SynthesizeVerdict(context.Background(), router, nil, quant.Report{})

	require.NoError(t, err)
	assert.Equal(t, domain.MatchException, verdict.OverallStatus)
	assert.Equal(t, domain.RecommendInvestigate, verdict.Recommendation)
}

func TestSynthesizeVerdictMalformedJSONReturnsError(t *testing.T) {
	router := llmrouter.NewRouter(
		[]llmrouter.Provider{fixedProvider{text: "not json at all"}},
		stubEmbedder{},
		llmrouter.DefaultBreakerConfig(),
	)

	_, err := SynthesizeVerdict(context.Background(), router, nil, quant.Report{})
	assert.Error(t, err)
}
