package workpaper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/NeoOne601/ventro/pkg/quant"
)

func sampleVerdict() domain.Verdict {
	return domain.Verdict{
		OverallStatus:      domain.MatchFullMatch,
		Confidence:         0.92,
		Recommendation:     domain.RecommendApprove,
		AuditNarrative:     "All three documents agree on quantities and totals.",
		DiscrepancySummary: []string{"minor rounding on line 3"},
	}
}

func sampleReport() quant.Report {
	return quant.Report{TotalDiscrepancies: 1, IsMathematicallyConsistent: true}
}

func sampleSAMR() domain.SAMRMetrics {
	return domain.SAMRMetrics{CosineSimilarity: 0.2, Threshold: 0.85, AlertTriggered: false}
}

func TestComposeProducesNonEmptyNarrative(t *testing.T) {
	doc := Compose("sess-1", sampleVerdict(), sampleReport(), sampleSAMR(), nil)
	assert.Equal(t, "sess-1", doc.SessionID)
	assert.NotEmpty(t, doc.Narrative)
	assert.Contains(t, doc.Narrative, "full_match")
}

func TestComposeCarriesCitationsThrough(t *testing.T) {
	citations := []domain.Citation{{ID: "c1", DocumentID: "doc-1", DocumentType: domain.DocumentTypePO, Page: 1, Text: "Widget"}}
	doc := Compose("sess-2", sampleVerdict(), sampleReport(), sampleSAMR(), citations)
	require.Len(t, doc.Citations, 1)
	assert.Equal(t, "doc-1", doc.Citations[0].DocumentID)
}
