package domain

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/NeoOne601/ventro/pkg/money"
)

// LineItem is a single extracted row from a financial document.
type LineItem struct {
	ID             string
	Description    string
	Quantity       decimal.Decimal
	UnitPrice      money.Money
	TotalAmount    money.Money
	UnitOfMeasure  string
	PartNumber     string
	Bbox           *BoundingBox
	RowIndex       int
	Confidence     float64 // [0,1]
	RawText        string
	DocumentID     string
}

// ArithmeticOK reports whether |quantity*unit_price - total_amount| <= ε
// after rounding, per spec.md §3's LineItem invariant. Violations are
// recorded by the caller (C8), never silently repaired.
func (li LineItem) ArithmeticOK(eps decimal.Decimal) (bool, decimal.Decimal, error) {
	computed := money.ComputeLineTotal(li.Quantity, li.UnitPrice)
	diff, err := computed.AbsDiff(li.TotalAmount)
	if err != nil {
		return false, decimal.Zero, err
	}
	return diff.LessThanOrEqual(eps), diff, nil
}

// DocumentMetadata describes a parsed document's identity and classification.
type DocumentMetadata struct {
	ID                     string
	Filename               string
	Type                   DocumentType
	PageCount              int
	ClassificationConfidence float64
	VendorName             string // extracted vendor/supplier name, used by C15's exact-match grouping
	DocNumber              string // PO/GRN/invoice number as printed on the document, used by C15
}

// TextFragment is one OCR/VLM-extracted span of raw text with its location.
type TextFragment struct {
	Text       string
	Bbox       *BoundingBox
	Confidence float64
}

// TotalsBlock carries a document's declared subtotal/tax/grand-total figures.
type TotalsBlock struct {
	Subtotal    *money.Money
	TaxRate     *decimal.Decimal
	TaxAmount   *money.Money
	GrandTotal  *money.Money
}

// ParsedDocument is the full extracted representation of one uploaded file.
type ParsedDocument struct {
	Metadata     DocumentMetadata
	LineItems    []LineItem
	Fragments    []TextFragment
	PageText     []string // raw text per page, 0-indexed
	Totals       TotalsBlock
	Error        string // set when extraction failed/timed-out for this document (C7 partial-failure policy)
}

// Citation links a claim to its exact source coordinates, per spec.md §3.
type Citation struct {
	ID           string
	DocumentID   string
	DocumentType DocumentType
	Page         int
	Bbox         *BoundingBox
	Text         string
	Value        string
}

// Chunk is an immutable retrieval unit upserted into the vector store.
type Chunk struct {
	ID      string
	Vector  []float32
	Payload ChunkPayload
}

// ChunkPayload is the metadata attached to a Chunk for filtering and rerank.
type ChunkPayload struct {
	Text         string
	DocumentID   string
	DocumentType DocumentType
	Page         int
	Bbox         *BoundingBox
	Fragments    []TextFragment
	ChunkType    ChunkType
	LineItem     *LineItem
}

// Validate runs the document-level structural invariants spec.md names.
func (p ParsedDocument) Validate() error {
	for _, li := range p.LineItems {
		if li.Bbox != nil {
			if err := li.Bbox.Validate(); err != nil {
				return fmt.Errorf("domain: line item %s: %w", li.ID, err)
			}
		}
	}
	return nil
}
