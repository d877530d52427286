package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeoOne601/ventro/pkg/domain"
)

func li(desc, partNumber string) domain.LineItem {
	return domain.LineItem{Description: desc, PartNumber: partNumber}
}

func TestMatchLinesExactPartNumberShortCircuits(t *testing.T) {
	po := []domain.LineItem{li("Wholly unrelated text", "PN-100")}
	grn := []domain.LineItem{li("Completely different wording", "PN-100")}
	matches := MatchLines(po, grn, nil, DefaultThreshold)

	require.Len(t, matches, 1)
	require.NotNil(t, matches[0].GRNItem)
	assert.Equal(t, float64(100), matches[0].SimGRN)
}

func TestMatchLinesGreedyAssignmentClaimsBestCandidateOnce(t *testing.T) {
	po := []domain.LineItem{
		li("Steel Widget Assembly", ""),
		li("Aluminum Bracket Mount", ""),
	}
	grn := []domain.LineItem{
		li("Steel Widget Assembly", ""),
		li("Aluminum Bracket Mount", ""),
	}
	matches := MatchLines(po, grn, nil, DefaultThreshold)

	require.Len(t, matches, 2)
	require.NotNil(t, matches[0].GRNItem)
	require.NotNil(t, matches[1].GRNItem)
	assert.NotSame(t, matches[0].GRNItem, matches[1].GRNItem)
}

func TestMatchLinesBelowThresholdLeavesUnmatched(t *testing.T) {
	po := []domain.LineItem{li("Steel Widget Assembly", "")}
	grn := []domain.LineItem{li("Totally Unconnected Aerospace Part", "")}
	matches := MatchLines(po, grn, nil, DefaultThreshold)

	require.Len(t, matches, 1)
	assert.Nil(t, matches[0].GRNItem)
}

func TestMatchLinesEmptyCandidateListsYieldNoMatches(t *testing.T) {
	po := []domain.LineItem{li("Steel Widget Assembly", "")}
	matches := MatchLines(po, nil, nil, DefaultThreshold)

	require.Len(t, matches, 1)
	assert.Nil(t, matches[0].GRNItem)
	assert.Nil(t, matches[0].InvoiceItem)
	assert.Equal(t, float64(0), matches[0].SimGRN)
}
