package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NeoOne601/ventro/pkg/domain"
)

func TestMatchExactGroupsByVendorAndDocNumberPrefix(t *testing.T) {
	docs := []Document{
		{ID: "po-1", Type: domain.DocumentTypePO, Vendor: "Acme Corp", DocNumber: "PO-2025-001"},
		{ID: "grn-1", Type: domain.DocumentTypeGRN, Vendor: "Acme Corp", DocNumber: "PO-2025-001"},
		{ID: "inv-1", Type: domain.DocumentTypeInvoice, Vendor: "acme corp", DocNumber: "PO-2025-777"},
	}

	result := Match(docs)

	if assert.Len(t, result.Triplets, 1) {
		tr := result.Triplets[0]
		assert.Equal(t, domain.BatchMethodExact, tr.Method)
		assert.Equal(t, 1.0, tr.Score)
		assert.Equal(t, "po-1", tr.POID)
		assert.Equal(t, "grn-1", tr.GRNID)
		assert.Equal(t, "inv-1", tr.InvoiceID)
	}
	assert.Empty(t, result.UnmatchedIDs)
	assert.Equal(t, 1, result.Stats.ExactMatches)
	assert.Equal(t, 0, result.Stats.EmbeddingMatches)
}

func TestMatchExactDoesNotFormATripletWithAMissingType(t *testing.T) {
	docs := []Document{
		{ID: "po-1", Type: domain.DocumentTypePO, Vendor: "Acme", DocNumber: "PO-2025-001"},
		{ID: "grn-1", Type: domain.DocumentTypeGRN, Vendor: "Acme", DocNumber: "PO-2025-001"},
	}

	result := Match(docs)

	assert.Empty(t, result.Triplets)
	assert.ElementsMatch(t, []string{"po-1", "grn-1"}, result.UnmatchedIDs)
}

func TestMatchEmbeddingPairsByBestCosineAboveThreshold(t *testing.T) {
	docs := []Document{
		{ID: "po-1", Type: domain.DocumentTypePO, Embedding: []float32{1, 0, 0}},
		{ID: "grn-1", Type: domain.DocumentTypeGRN, Embedding: []float32{1, 0, 0}},
		{ID: "inv-1", Type: domain.DocumentTypeInvoice, Embedding: []float32{0.9, 0.1, 0}},
		// Decoys with weak similarity that should lose the greedy pick.
		{ID: "grn-2", Type: domain.DocumentTypeGRN, Embedding: []float32{0, 1, 0}},
		{ID: "inv-2", Type: domain.DocumentTypeInvoice, Embedding: []float32{0, 0, 1}},
	}

	result := Match(docs)

	if assert.Len(t, result.Triplets, 1) {
		tr := result.Triplets[0]
		assert.Equal(t, domain.BatchMethodEmbedding, tr.Method)
		assert.Equal(t, "po-1", tr.POID)
		assert.Equal(t, "grn-1", tr.GRNID)
		assert.Equal(t, "inv-1", tr.InvoiceID)
		assert.GreaterOrEqual(t, tr.Score, EmbeddingMatchThreshold)
	}
	assert.ElementsMatch(t, []string{"grn-2", "inv-2"}, result.UnmatchedIDs)
	assert.Equal(t, 1, result.Stats.EmbeddingMatches)
}

func TestMatchEmbeddingRejectsPairingsBelowThreshold(t *testing.T) {
	docs := []Document{
		{ID: "po-1", Type: domain.DocumentTypePO, Embedding: []float32{1, 0, 0}},
		{ID: "grn-1", Type: domain.DocumentTypeGRN, Embedding: []float32{0, 1, 0}},
		{ID: "inv-1", Type: domain.DocumentTypeInvoice, Embedding: []float32{0, 0, 1}},
	}

	result := Match(docs)

	assert.Empty(t, result.Triplets)
	assert.ElementsMatch(t, []string{"po-1", "grn-1", "inv-1"}, result.UnmatchedIDs)
	assert.Equal(t, 3, result.Stats.UnmatchedCount)
}

func TestMatchSendsUnclassifiedDocumentsStraightToUnmatched(t *testing.T) {
	docs := []Document{
		{ID: "mystery-1", Type: domain.DocumentTypeUnknown},
	}

	result := Match(docs)

	assert.Empty(t, result.Triplets)
	assert.Equal(t, []string{"mystery-1"}, result.UnmatchedIDs)
}

func TestMatchPrefersExactOverEmbeddingForTheSameDocuments(t *testing.T) {
	docs := []Document{
		{ID: "po-1", Type: domain.DocumentTypePO, Vendor: "Acme", DocNumber: "PO-1", Embedding: []float32{1, 0, 0}},
		{ID: "grn-1", Type: domain.DocumentTypeGRN, Vendor: "Acme", DocNumber: "PO-1", Embedding: []float32{1, 0, 0}},
		{ID: "inv-1", Type: domain.DocumentTypeInvoice, Vendor: "Acme", DocNumber: "PO-1", Embedding: []float32{1, 0, 0}},
	}

	result := Match(docs)

	if assert.Len(t, result.Triplets, 1) {
		assert.Equal(t, domain.BatchMethodExact, result.Triplets[0].Method)
	}
	assert.Equal(t, 1, result.Stats.ExactMatches)
	assert.Equal(t, 0, result.Stats.EmbeddingMatches)
}

func TestVendorKeyStripsTrailingSequenceNumberForGrouping(t *testing.T) {
	a := vendorKey(Document{Vendor: "Acme Corp", DocNumber: "INV-2025-001"})
	b := vendorKey(Document{Vendor: "acme corp", DocNumber: "INV-2025-999"})
	assert.Equal(t, a, b)
}

func TestVendorKeyEmptyWhenNoVendorOrNumber(t *testing.T) {
	assert.Equal(t, "", vendorKey(Document{}))
}
