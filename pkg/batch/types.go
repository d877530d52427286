// Package batch implements the batch matcher (C15): grouping the N
// documents of a bulk upload into PO+GRN+Invoice triplets first by an
// exact vendor/document-number key, then by embedding cosine similarity,
// leaving whatever neither phase resolves for manual linking.
package batch

import "github.com/NeoOne601/ventro/pkg/domain"

// Document is one uploaded-and-classified document as the matcher sees it:
// just enough identity, grouping key material, and embedding to run both
// match phases, independent of how extraction or storage represent it.
type Document struct {
	ID         string
	Type       domain.DocumentType
	Vendor     string
	DocNumber  string
	Embedding  []float32
}

// Triplet is one resolved PO+GRN+Invoice grouping.
type Triplet struct {
	POID        string
	GRNID       string
	InvoiceID   string
	Method      domain.BatchMatchMethod
	Score       float64
}

// Stats summarizes one Match call for the batch upload progress page.
type Stats struct {
	TotalDocuments   int
	ExactMatches     int
	EmbeddingMatches int
	UnmatchedCount   int
}

// Result is C15's output shape, per spec.md §4.15.
type Result struct {
	BatchID      string
	Triplets     []Triplet
	UnmatchedIDs []string
	Stats        Stats
}
