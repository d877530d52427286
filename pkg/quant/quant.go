// Package quant implements the quantitative validator (C8): purely
// deterministic exact-decimal checks across line items and document totals.
package quant

import (
	"github.com/shopspring/decimal"

	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/NeoOne601/ventro/pkg/money"
)

// Epsilon is the absolute tolerance for same-currency comparisons, per
// spec.md §4.8.
var Epsilon = decimal.NewFromFloat(0.01)

// DiscrepancyKind names the emitted finding categories from spec.md §4.8.
type DiscrepancyKind string

const (
	LineItemTotalMismatch DiscrepancyKind = "line_item_total_mismatch"
	DocumentTotalMismatch DiscrepancyKind = "document_total_mismatch"
	CrossDocQuantityDrift DiscrepancyKind = "cross_document_quantity_drift"
	PriceDiscrepancy      DiscrepancyKind = "price_discrepancy"
)

// Discrepancy carries enough context to render a citation, per spec.md §4.8.
type Discrepancy struct {
	Kind        DiscrepancyKind
	DocumentID  string
	LineIndex   int
	Description string
	Claimed     decimal.Decimal
	Computed    decimal.Decimal
	Variance    decimal.Decimal
	Bbox        *domain.BoundingBox
}

// ValidityBand summarizes one document's line-item and total checks.
type ValidityBand struct {
	DocumentID   string
	LineItemsOK  bool
	SubtotalOK   bool
	TaxOK        bool
	GrandTotalOK bool
}

// Report is the quantitative_report output from spec.md §4.8.
type Report struct {
	Bands                      []ValidityBand
	TotalDiscrepancies         int
	IsMathematicallyConsistent bool
	Discrepancies              []Discrepancy
}

// Validator runs the deterministic checks. It holds only a rate table since
// every other operation is pure arithmetic.
type Validator struct {
	rates *money.RateTable
}

func NewValidator(rates *money.RateTable) *Validator {
	return &Validator{rates: rates}
}

// CheckLineItemArithmetic implements spec.md §4.8 rule 1: recompute
// quantity × unit_price and compare to the claimed line total.
func (v *Validator) CheckLineItemArithmetic(docID string, items []domain.LineItem) []Discrepancy {
	var out []Discrepancy
	for i, item := range items {
		ok, variance, err := item.ArithmeticOK(Epsilon)
		if err != nil || ok {
			continue
		}
		out = append(out, Discrepancy{
			Kind:        LineItemTotalMismatch,
			DocumentID:  docID,
			LineIndex:   i,
			Description: item.Description,
			Claimed:     item.TotalAmount.Amount,
			Computed:    money.ComputeLineTotal(item.Quantity, item.UnitPrice).Amount,
			Variance:    variance,
			Bbox:        item.Bbox,
		})
	}
	return out
}

// CheckDocumentTotal implements spec.md §4.8 rule 2: sum line totals, apply
// tax_rate if present (else trust the stated tax_amount), and compare
// subtotal/tax/grand-total to the claimed totals block. Any totals the
// document never stated are treated as already consistent (nothing to
// compare against).
func (v *Validator) CheckDocumentTotal(docID string, items []domain.LineItem, totals domain.TotalsBlock) (ValidityBand, []Discrepancy) {
	band := ValidityBand{DocumentID: docID, LineItemsOK: true, SubtotalOK: true, TaxOK: true, GrandTotalOK: true}
	var discrepancies []Discrepancy

	currency := money.Currency("USD")
	if totals.GrandTotal != nil {
		currency = totals.GrandTotal.Currency
	} else if len(items) > 0 {
		currency = items[0].TotalAmount.Currency
	}
	computedSubtotal := money.Zero(currency)
	for _, item := range items {
		if sum, err := computedSubtotal.Add(item.TotalAmount); err == nil {
			computedSubtotal = sum
		}
	}

	if totals.Subtotal != nil {
		if ok, _ := computedSubtotal.WithinTolerance(*totals.Subtotal, Epsilon); !ok {
			band.SubtotalOK = false
			diff := computedSubtotal.Amount.Sub(totals.Subtotal.Amount).Abs()
			discrepancies = append(discrepancies, Discrepancy{
				Kind: DocumentTotalMismatch, DocumentID: docID, Description: "subtotal",
				Claimed: totals.Subtotal.Amount, Computed: computedSubtotal.Amount, Variance: diff,
			})
		}
	}

	computedTax := money.Zero(currency)
	if totals.TaxRate != nil {
		computedTax = money.New(computedSubtotal.Amount.Mul(*totals.TaxRate), currency)
	} else if totals.TaxAmount != nil {
		computedTax = *totals.TaxAmount
	}
	if totals.TaxAmount != nil {
		if ok, _ := computedTax.WithinTolerance(*totals.TaxAmount, Epsilon); !ok {
			band.TaxOK = false
			diff := computedTax.Amount.Sub(totals.TaxAmount.Amount).Abs()
			discrepancies = append(discrepancies, Discrepancy{
				Kind: DocumentTotalMismatch, DocumentID: docID, Description: "tax",
				Claimed: totals.TaxAmount.Amount, Computed: computedTax.Amount, Variance: diff,
			})
		}
	}

	if totals.GrandTotal != nil {
		computedGrandTotal, err := computedSubtotal.Add(computedTax)
		if err == nil {
			if ok, _ := computedGrandTotal.WithinTolerance(*totals.GrandTotal, Epsilon); !ok {
				band.GrandTotalOK = false
				diff := computedGrandTotal.Amount.Sub(totals.GrandTotal.Amount).Abs()
				discrepancies = append(discrepancies, Discrepancy{
					Kind: DocumentTotalMismatch, DocumentID: docID, Description: "grand_total",
					Claimed: totals.GrandTotal.Amount, Computed: computedGrandTotal.Amount, Variance: diff,
				})
			}
		}
	}

	return band, discrepancies
}

// CrossDocumentQuantity implements spec.md §4.8 rule 3, comparing PO↔GRN and
// GRN↔Invoice line quantities by position. This runs before reconciliation
// in the pipeline's stage order, so it never has a resolved line pairing
// from pkg/reconcile to prefer over positional alignment — see DESIGN.md's
// Open Question entry for why.
func (v *Validator) CrossDocumentQuantity(poItems, grnItems, invoiceItems []domain.LineItem) []Discrepancy {
	var out []Discrepancy
	out = append(out, compareQuantities("po_grn", poItems, grnItems)...)
	out = append(out, compareQuantities("grn_invoice", grnItems, invoiceItems)...)
	return out
}

func compareQuantities(label string, a, b []domain.LineItem) []Discrepancy {
	var out []Discrepancy
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		variance := a[i].Quantity.Sub(b[i].Quantity).Abs()
		if variance.GreaterThan(Epsilon) {
			out = append(out, Discrepancy{
				Kind:        CrossDocQuantityDrift,
				LineIndex:   i,
				Description: label + ": " + a[i].Description,
				Claimed:     a[i].Quantity,
				Computed:    b[i].Quantity,
				Variance:    variance,
				Bbox:        a[i].Bbox,
			})
		}
	}
	return out
}

// PriceDiscrepancy implements spec.md §4.8 rule 4 (and rule 5's multi-currency
// normalization): PO vs Invoice unit-price variance by row.
func (v *Validator) PriceDiscrepancy(poItems, invoiceItems []domain.LineItem) []Discrepancy {
	var out []Discrepancy
	n := min(len(poItems), len(invoiceItems))
	for i := 0; i < n; i++ {
		po, inv := poItems[i], invoiceItems[i]
		if po.UnitPrice.Currency != inv.UnitPrice.Currency {
			ok, variance, err := v.rates.CompareNormalized(po.UnitPrice, inv.UnitPrice, money.DefaultRelativeTolerance)
			if err == nil && !ok {
				out = append(out, Discrepancy{
					Kind: PriceDiscrepancy, LineIndex: i, Description: po.Description,
					Claimed: po.UnitPrice.Amount, Computed: inv.UnitPrice.Amount, Variance: variance, Bbox: po.Bbox,
				})
			}
			continue
		}
		variance := po.UnitPrice.Amount.Sub(inv.UnitPrice.Amount).Abs()
		if variance.GreaterThan(Epsilon) {
			out = append(out, Discrepancy{
				Kind: PriceDiscrepancy, LineIndex: i, Description: po.Description,
				Claimed: po.UnitPrice.Amount, Computed: inv.UnitPrice.Amount, Variance: variance, Bbox: po.Bbox,
			})
		}
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Run executes the full rule set for a three-document session and assembles
// the quantitative_report, per spec.md §4.8.
func (v *Validator) Run(po, grn, invoice domain.ParsedDocument) Report {
	var discrepancies []Discrepancy
	var bands []ValidityBand

	for _, doc := range []domain.ParsedDocument{po, grn, invoice} {
		lineDiscrepancies := v.CheckLineItemArithmetic(doc.Metadata.ID, doc.LineItems)
		band, totalDiscrepancies := v.CheckDocumentTotal(doc.Metadata.ID, doc.LineItems, doc.Totals)
		band.LineItemsOK = len(lineDiscrepancies) == 0
		bands = append(bands, band)
		discrepancies = append(discrepancies, lineDiscrepancies...)
		discrepancies = append(discrepancies, totalDiscrepancies...)
	}

	discrepancies = append(discrepancies, v.CrossDocumentQuantity(po.LineItems, grn.LineItems, invoice.LineItems)...)
	discrepancies = append(discrepancies, v.PriceDiscrepancy(po.LineItems, invoice.LineItems)...)

	return Report{
		Bands:                      bands,
		TotalDiscrepancies:         len(discrepancies),
		IsMathematicallyConsistent: len(discrepancies) == 0,
		Discrepancies:              discrepancies,
	}
}
