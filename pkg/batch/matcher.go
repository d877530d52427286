package batch

import (
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/NeoOne601/ventro/pkg/samr"
)

// EmbeddingMatchThreshold is the minimum averaged cosine score phase 2
// accepts before forming a triplet, per spec.md §4.15.
const EmbeddingMatchThreshold = 0.75

// vendorPrefixLen bounds the normalized (trimmed, lower-cased) vendor name's
// contribution to the exact-grouping key, so two vendor names that agree in
// their first 30 characters collapse to one group.
const vendorPrefixLen = 30

// Match groups documents into PO+GRN+Invoice triplets. Phase 1 groups by an
// exact vendor+doc-number key; phase 2 greedily pairs whatever phase 1 left
// unresolved by embedding cosine similarity; phase 3 returns everything
// still unmatched for manual resolution, per spec.md §4.15.
func Match(documents []Document) Result {
	batchID := uuid.NewString()

	byType := map[domain.DocumentType][]Document{
		domain.DocumentTypePO:      nil,
		domain.DocumentTypeGRN:     nil,
		domain.DocumentTypeInvoice: nil,
	}
	var misc []string
	for _, d := range documents {
		if _, ok := byType[d.Type]; ok {
			byType[d.Type] = append(byType[d.Type], d)
		} else {
			misc = append(misc, d.ID)
		}
	}

	triplets, used := matchExact(byType)
	triplets = append(triplets, matchEmbedding(byType, used)...)

	matchedIDs := make(map[string]bool, len(triplets)*3)
	for _, t := range triplets {
		matchedIDs[t.POID] = true
		matchedIDs[t.GRNID] = true
		matchedIDs[t.InvoiceID] = true
	}

	var unmatched []string
	for _, docs := range byType {
		for _, d := range docs {
			if !matchedIDs[d.ID] {
				unmatched = append(unmatched, d.ID)
			}
		}
	}
	unmatched = lo.Uniq(append(unmatched, misc...))

	exactCount := lo.CountBy(triplets, func(t Triplet) bool { return t.Method == domain.BatchMethodExact })
	embeddingCount := lo.CountBy(triplets, func(t Triplet) bool { return t.Method == domain.BatchMethodEmbedding })

	return Result{
		BatchID:      batchID,
		Triplets:     triplets,
		UnmatchedIDs: unmatched,
		Stats: Stats{
			TotalDocuments:   len(documents),
			ExactMatches:     exactCount,
			EmbeddingMatches: embeddingCount,
			UnmatchedCount:   len(unmatched),
		},
	}
}

// vendorKey builds the normalized "vendor|doc-number-prefix" grouping key,
// e.g. "(acme corp|INV-2025)" — per spec.md §4.15's worked example
// "ACME-2025", trailing sequence numbers (the "-001" in "INV-2025-001")
// are stripped so every invoice/PO/GRN in the same run collapses together.
func vendorKey(d Document) string {
	vendor := strings.ToLower(strings.TrimSpace(d.Vendor))
	if len(vendor) > vendorPrefixLen {
		vendor = vendor[:vendorPrefixLen]
	}

	number := strings.ToUpper(strings.TrimSpace(d.DocNumber))
	var prefix string
	if parts := strings.Split(number, "-"); len(parts) > 1 {
		if len(parts) > 2 {
			parts = parts[:2]
		}
		prefix = strings.Join(parts, "-")
	} else if len(number) > 8 {
		prefix = number[:8]
	} else {
		prefix = number
	}

	if vendor == "" && prefix == "" {
		return ""
	}
	return vendor + "|" + prefix
}

// matchExact implements phase 1: any grouping key with all three document
// types present yields an exact triplet. used tracks every document id
// consumed so phase 2 only sees what's left.
func matchExact(byType map[domain.DocumentType][]Document) ([]Triplet, map[string]bool) {
	type slotMap map[domain.DocumentType]Document
	groups := make(map[string]slotMap)

	for _, dt := range []domain.DocumentType{domain.DocumentTypePO, domain.DocumentTypeGRN, domain.DocumentTypeInvoice} {
		for _, d := range byType[dt] {
			key := vendorKey(d)
			if key == "" {
				continue
			}
			if groups[key] == nil {
				groups[key] = slotMap{}
			}
			if _, exists := groups[key][dt]; !exists {
				groups[key][dt] = d
			}
		}
	}

	used := map[string]bool{}
	var triplets []Triplet
	for _, slots := range groups {
		po, hasPO := slots[domain.DocumentTypePO]
		grn, hasGRN := slots[domain.DocumentTypeGRN]
		inv, hasInv := slots[domain.DocumentTypeInvoice]
		if !hasPO || !hasGRN || !hasInv {
			continue
		}
		triplets = append(triplets, Triplet{
			POID: po.ID, GRNID: grn.ID, InvoiceID: inv.ID,
			Method: domain.BatchMethodExact, Score: 1.0,
		})
		used[po.ID], used[grn.ID], used[inv.ID] = true, true, true
	}
	return triplets, used
}

// matchEmbedding implements phase 2: for each remaining PO, greedily pick
// the best-cosine GRN and the best-cosine Invoice and accept the pairing if
// the average of the two scores clears EmbeddingMatchThreshold, consuming
// the matched GRN/Invoice so no document is reused across triplets.
func matchEmbedding(byType map[domain.DocumentType][]Document, used map[string]bool) []Triplet {
	remainingWithEmbedding := func(dt domain.DocumentType) []Document {
		var out []Document
		for _, d := range byType[dt] {
			if !used[d.ID] && len(d.Embedding) > 0 {
				out = append(out, d)
			}
		}
		return out
	}

	pos := remainingWithEmbedding(domain.DocumentTypePO)
	grns := remainingWithEmbedding(domain.DocumentTypeGRN)
	invs := remainingWithEmbedding(domain.DocumentTypeInvoice)

	var triplets []Triplet
	for _, po := range pos {
		if len(grns) == 0 || len(invs) == 0 {
			break
		}

		bestGRNIdx, bestGRNScore := bestMatch(po.Embedding, grns)
		bestInvIdx, bestInvScore := bestMatch(po.Embedding, invs)
		score := (bestGRNScore + bestInvScore) / 2

		if score < EmbeddingMatchThreshold {
			continue
		}

		bestGRN := grns[bestGRNIdx]
		bestInv := invs[bestInvIdx]
		triplets = append(triplets, Triplet{
			POID: po.ID, GRNID: bestGRN.ID, InvoiceID: bestInv.ID,
			Method: domain.BatchMethodEmbedding, Score: score,
		})

		grns = append(grns[:bestGRNIdx], grns[bestGRNIdx+1:]...)
		invs = append(invs[:bestInvIdx], invs[bestInvIdx+1:]...)
	}
	return triplets
}

// bestMatch returns the index and cosine score of candidates' closest
// vector to target.
func bestMatch(target []float32, candidates []Document) (int, float64) {
	bestIdx := 0
	bestScore := samr.CosineSimilarity(target, candidates[0].Embedding)
	for i := 1; i < len(candidates); i++ {
		score := samr.CosineSimilarity(target, candidates[i].Embedding)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	return bestIdx, bestScore
}
