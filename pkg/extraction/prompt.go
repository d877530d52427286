package extraction

import (
	"fmt"
	"strings"

	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/NeoOne601/ventro/pkg/jsonschema"
)

// extractionSchema is generated once at package init and embedded verbatim
// into every extraction prompt, per spec.md §4.7 step 4's "strict JSON
// schema prompt".
var extractionSchema = jsonschema.MustStringSchemaOf(extractionDTO{})

// queryFor returns the fixed retrieval query tailored to a document type,
// per spec.md §4.7 step 1.
func queryFor(docType domain.DocumentType) string {
	switch docType {
	case domain.DocumentTypePO:
		return "purchase order line items, quantities, unit prices, and totals"
	case domain.DocumentTypeGRN:
		return "goods received note line items, received quantities, and totals"
	case domain.DocumentTypeInvoice:
		return "invoice line items, unit prices, tax, and grand total"
	default:
		return "line items, quantities, unit prices, and totals"
	}
}

// buildPrompt assembles the extraction prompt from sanitized chunk text and
// the embedded JSON schema.
func buildPrompt(docType domain.DocumentType, sanitizedText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Extract structured line items and totals from the following %s text.\n", docType)
	b.WriteString("Respond with ONLY a JSON object matching this schema, no prose:\n")
	b.WriteString(extractionSchema)
	b.WriteString("\n\nDocument text:\n")
	b.WriteString(sanitizedText)
	return b.String()
}
