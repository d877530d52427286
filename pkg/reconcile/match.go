package reconcile

import (
	"github.com/google/uuid"

	"github.com/NeoOne601/ventro/pkg/domain"
)

type scoredCandidate struct {
	index int
	score float64
}

// MatchLines resolves each PO line against its best-scoring unmatched GRN
// and Invoice counterpart, greedily, above threshold (0-100), per spec.md
// §4.10. An exact part-number match short-circuits to a full score of 100.
func MatchLines(poItems, grnItems, invoiceItems []domain.LineItem, threshold int) []domain.LineItemMatch {
	grnClaimed := make([]bool, len(grnItems))
	invClaimed := make([]bool, len(invoiceItems))

	matches := make([]domain.LineItemMatch, 0, len(poItems))
	for i := range poItems {
		po := poItems[i]
		grnIdx, grnScore := bestCandidate(po, grnItems, grnClaimed, threshold)
		invIdx, invScore := bestCandidate(po, invoiceItems, invClaimed, threshold)

		match := domain.LineItemMatch{
			ID:         uuid.NewString(),
			POItem:     &poItems[i],
			SimGRN:     grnScore,
			SimInvoice: invScore,
		}
		if grnIdx >= 0 {
			grnClaimed[grnIdx] = true
			match.GRNItem = &grnItems[grnIdx]
		}
		if invIdx >= 0 {
			invClaimed[invIdx] = true
			match.InvoiceItem = &invoiceItems[invIdx]
		}
		matches = append(matches, match)
	}
	return matches
}

func bestCandidate(po domain.LineItem, candidates []domain.LineItem, claimed []bool, threshold int) (int, float64) {
	bestIdx := -1
	bestScore := -1
	for i, candidate := range candidates {
		if claimed[i] {
			continue
		}
		score := 0
		if po.PartNumber != "" && po.PartNumber == candidate.PartNumber {
			score = 100
		} else {
			score = TokenSetRatio(po.Description, candidate.Description)
		}
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestIdx < 0 || bestScore < threshold {
		if bestIdx >= 0 {
			return -1, float64(bestScore)
		}
		return -1, 0
	}
	return bestIdx, float64(bestScore)
}
