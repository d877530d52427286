package samr

import (
	"fmt"
	"strings"

	"github.com/NeoOne601/ventro/pkg/domain"
)

// maxItemsPerDoc caps how many line items enter the SAMR context, matching
// the original agent's per-document cap.
const maxItemsPerDoc = 10

// BuildContext renders a compact textual summary of the three documents'
// line items and totals, the input both SAMR streams reason over, per
// spec.md §4.9.
func BuildContext(po, grn, invoice domain.ParsedDocument) string {
	var b strings.Builder
	for _, doc := range []struct {
		label string
		doc   domain.ParsedDocument
	}{
		{"PO", po}, {"GRN", grn}, {"INVOICE", invoice},
	} {
		fmt.Fprintf(&b, "=== %s ===\n", doc.label)
		items := doc.doc.LineItems
		if len(items) > maxItemsPerDoc {
			items = items[:maxItemsPerDoc]
		}
		for _, item := range items {
			fmt.Fprintf(&b, "  Item: %s | Qty: %s | Price: %s | Total: %s\n",
				item.Description, item.Quantity.String(), item.UnitPrice.Amount.String(), item.TotalAmount.Amount.String())
		}
		grandTotal := "N/A"
		taxAmount := "N/A"
		if doc.doc.Totals.GrandTotal != nil {
			grandTotal = doc.doc.Totals.GrandTotal.Amount.String()
		}
		if doc.doc.Totals.TaxAmount != nil {
			taxAmount = doc.doc.Totals.TaxAmount.Amount.String()
		}
		fmt.Fprintf(&b, "  Total: %s | Tax: %s\n", grandTotal, taxAmount)
	}
	return b.String()
}
