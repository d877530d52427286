package samr

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/NeoOne601/ventro/pkg/llmrouter"
	"github.com/NeoOne601/ventro/pkg/money"
)

type fakeEmbedder struct{ dim int }

func (f fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	return llmrouter.DeterministicHashVector("fixed", f.dim), nil
}
func (f fakeEmbedder) Dimensions() int { return f.dim }

type fixedProvider struct{ text string }

func (p fixedProvider) Name() string { return "fixed" }
func (p fixedProvider) Complete(context.Context, llmrouter.CompletionRequest) (llmrouter.CompletionResult, error) {
	return llmrouter.CompletionResult{Text: p.text, Provider: p.Name()}, nil
}

func sampleDoc(id string) domain.ParsedDocument {
	return domain.ParsedDocument{
		Metadata: domain.DocumentMetadata{ID: id},
		LineItems: []domain.LineItem{
			{
				Description: "Widget",
				Quantity:    decimal.NewFromInt(2),
				UnitPrice:   money.Money{Amount: decimal.NewFromFloat(10.00), Currency: "USD"},
				TotalAmount: money.Money{Amount: decimal.NewFromFloat(20.00), Currency: "USD"},
			},
		},
	}
}

func newTestDetector(t *testing.T, completionJSON string) *Detector {
	t.Helper()
	router := llmrouter.NewRouter(
		[]llmrouter.Provider{fixedProvider{text: completionJSON}},
		fakeEmbedder{dim: 8},
		llmrouter.DefaultBreakerConfig(),
	)
	return NewDetector(router, 1.0)
}

func TestDetectorRunReturnsMetricsOnIdenticalStreams(t *testing.T) {
	completion := `{"verdict":"match","confidence":0.95,"rationale":"all totals agree","key_values_checked":["total"],"anomalies":[]}`
	detector := newTestDetector(t, completion)

	metrics, err := detector.Run(context.Background(), "sess-1",
		sampleDoc("po-1"), sampleDoc("grn-1"), sampleDoc("inv-1"),
		0.85, domain.ThresholdStatic)

	require.NoError(t, err)
	assert.Equal(t, "sess-1", metrics.SessionID)
	assert.Equal(t, "match", metrics.PrimaryVerdict)
	assert.Equal(t, "match", metrics.ShadowVerdict)
	assert.Equal(t, domain.ThresholdStatic, metrics.ThresholdSource)
	assert.GreaterOrEqual(t, metrics.CosineSimilarity, -1.0)
	assert.LessOrEqual(t, metrics.CosineSimilarity, 1.0)
}

func TestDetectorRunNeverAlertsWithoutAnyPerturbation(t *testing.T) {
	completion := `{"verdict":"match","confidence":0.9,"rationale":"ok","key_values_checked":[],"anomalies":[]}`
	router := llmrouter.NewRouter(
		[]llmrouter.Provider{fixedProvider{text: completion}},
		fakeEmbedder{dim: 8},
		llmrouter.DefaultBreakerConfig(),
	)
	detector := NewDetector(router, 0.0) // 0 becomes DefaultPerturbationStrength; the sample docs hold no amounts or ids to perturb

	metrics, err := detector.Run(context.Background(), "sess-2",
		sampleDoc("po-2"), sampleDoc("grn-2"), sampleDoc("inv-2"),
		-1.0, domain.ThresholdAdaptive) // threshold impossibly low so similarity alone would trigger

	require.NoError(t, err)
	assert.False(t, metrics.AlertTriggered)
}

func TestDetectorRunFallsBackToRuleBasedProviderWithNoProviders(t *testing.T) {
	router := llmrouter.NewRouter(
		[]llmrouter.Provider{},
		fakeEmbedder{dim: 8},
		llmrouter.DefaultBreakerConfig(),
	)
	detector := NewDetector(router, 1.0)
	_, err := detector.Run(context.Background(), "sess-3",
		sampleDoc("po-3"), sampleDoc("grn-3"), sampleDoc("inv-3"),
		0.9, domain.ThresholdStatic)
	// router always terminates via RuleBasedProvider, so this should not error;
	// the rule-based provider returns a deterministic text completion instead.
	require.NoError(t, err)
}
