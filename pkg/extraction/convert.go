package extraction

import (
	"github.com/shopspring/decimal"

	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/NeoOne601/ventro/pkg/money"
)

// toLineItems converts the LLM's strict-JSON line items into domain values.
// A row whose numeric fields fail to parse is dropped rather than surfaced
// as a half-populated LineItem — the line_item_total_mismatch check in C8
// would otherwise flag a zero-valued row as a false discrepancy.
func toLineItems(docID string, rows []lineItemDTO) []domain.LineItem {
	items := make([]domain.LineItem, 0, len(rows))
	for i, row := range rows {
		qty, err := decimal.NewFromString(row.Quantity)
		if err != nil {
			continue
		}
		unitPrice, err := decimal.NewFromString(row.UnitPrice)
		if err != nil {
			continue
		}
		total, err := decimal.NewFromString(row.TotalAmount)
		if err != nil {
			continue
		}
		currency := money.Currency(row.Currency)
		items = append(items, domain.LineItem{
			Description:   row.Description,
			Quantity:      qty,
			UnitPrice:     money.New(unitPrice, currency),
			TotalAmount:   money.New(total, currency),
			UnitOfMeasure: row.UnitOfMeasure,
			PartNumber:    row.PartNumber,
			RowIndex:      i,
			Confidence:    row.Confidence,
			DocumentID:    docID,
		})
	}
	return items
}

func toTotalsBlock(dto totalsDTO) domain.TotalsBlock {
	currency := money.Currency(dto.Currency)
	block := domain.TotalsBlock{}
	if dto.Subtotal != nil {
		if d, err := decimal.NewFromString(*dto.Subtotal); err == nil {
			m := money.New(d, currency)
			block.Subtotal = &m
		}
	}
	if dto.TaxRate != nil {
		rate := decimal.NewFromFloat(*dto.TaxRate)
		block.TaxRate = &rate
	}
	if dto.TaxAmount != nil {
		if d, err := decimal.NewFromString(*dto.TaxAmount); err == nil {
			m := money.New(d, currency)
			block.TaxAmount = &m
		}
	}
	if dto.GrandTotal != nil {
		if d, err := decimal.NewFromString(*dto.GrandTotal); err == nil {
			m := money.New(d, currency)
			block.GrandTotal = &m
		}
	}
	return block
}
