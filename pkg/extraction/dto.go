package extraction

// lineItemDTO is one row of the strict-JSON extraction schema sent to the
// LLM router, per spec.md §4.7 step 4.
type lineItemDTO struct {
	Description   string  `json:"description" jsonschema:"required,description=line item description exactly as printed"`
	Quantity      string  `json:"quantity" jsonschema:"required,description=decimal string, e.g. '10' or '3.5'"`
	UnitPrice     string  `json:"unit_price" jsonschema:"required,description=decimal string"`
	TotalAmount   string  `json:"total_amount" jsonschema:"required,description=decimal string"`
	Currency      string  `json:"currency" jsonschema:"required,description=ISO-4217 code, e.g. USD"`
	UnitOfMeasure string  `json:"unit_of_measure,omitempty"`
	PartNumber    string  `json:"part_number,omitempty"`
	Confidence    float64 `json:"confidence" jsonschema:"minimum=0,maximum=1"`
}

// totalsDTO mirrors domain.TotalsBlock; any field the source document never
// states is omitted rather than guessed.
type totalsDTO struct {
	Subtotal   *string  `json:"subtotal,omitempty"`
	TaxRate    *float64 `json:"tax_rate,omitempty"`
	TaxAmount  *string  `json:"tax_amount,omitempty"`
	GrandTotal *string  `json:"grand_total,omitempty"`
	Currency   string   `json:"currency" jsonschema:"required"`
}

// extractionDTO is the full strict-JSON response schema for one document.
type extractionDTO struct {
	LineItems []lineItemDTO `json:"line_items" jsonschema:"required"`
	Totals    totalsDTO     `json:"totals" jsonschema:"required"`
}
