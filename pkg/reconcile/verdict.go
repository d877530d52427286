package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/NeoOne601/ventro/pkg/apperrors"
	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/NeoOne601/ventro/pkg/jsonschema"
	"github.com/NeoOne601/ventro/pkg/llmrouter"
	"github.com/NeoOne601/ventro/pkg/quant"
)

// verdictTemperature is the near-deterministic temperature spec.md §4.10
// requires for verdict synthesis.
const verdictTemperature = 0.1

type lineItemMatchDTO struct {
	ID          string  `json:"id,omitempty"`
	Discrepancy string  `json:"discrepancy,omitempty" jsonschema:"required"`
	Confidence  float64 `json:"confidence" jsonschema:"minimum=0,maximum=1"`
}

type verdictResponseDTO struct {
	OverallStatus      string             `json:"overall_status" jsonschema:"required,enum=full_match,enum=partial_match,enum=mismatch,enum=exception"`
	Confidence         float64            `json:"confidence" jsonschema:"required,minimum=0,maximum=1"`
	LineItemMatches    []lineItemMatchDTO `json:"line_item_matches"`
	DiscrepancySummary []string           `json:"discrepancy_summary"`
	Recommendation     string             `json:"recommendation" jsonschema:"required,enum=approve,enum=reject,enum=investigate,enum=partial_approve"`
	AuditNarrative     string             `json:"audit_narrative" jsonschema:"required"`
}

var verdictSchema = jsonschema.MustStringSchemaOf(verdictResponseDTO{})

func buildPreMatchSummary(matches []domain.LineItemMatch, report quant.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Matched line items (%d):\n", len(matches))
	for _, m := range matches {
		po := "?"
		if m.POItem != nil {
			po = m.POItem.Description
		}
		grn, inv := "unmatched", "unmatched"
		if m.GRNItem != nil {
			grn = m.GRNItem.Description
		}
		if m.InvoiceItem != nil {
			inv = m.InvoiceItem.Description
		}
		fmt.Fprintf(&b, "- PO[%s] <-> GRN[%s] (sim=%.0f) <-> INV[%s] (sim=%.0f)\n", po, grn, m.SimGRN, inv, m.SimInvoice)
	}
	fmt.Fprintf(&b, "\nQuantitative discrepancies (%d), mathematically consistent: %v\n", report.TotalDiscrepancies, report.IsMathematicallyConsistent)
	for _, d := range report.Discrepancies {
		fmt.Fprintf(&b, "- [%s] %s: claimed=%s computed=%s variance=%s\n", d.Kind, d.Description, d.Claimed.String(), d.Computed.String(), d.Variance.String())
	}
	return b.String()
}

func buildVerdictPrompt(preMatch string) string {
	return fmt.Sprintf(`You are an auditor reconciling a Purchase Order, Goods Receipt Note, and Invoice.
Given the following pre-computed line item matches and quantitative discrepancies, synthesize a reconciliation verdict.

%s

Respond with only JSON matching this schema:
%s`, preMatch, verdictSchema)
}

func parseMatchStatus(s string) domain.MatchStatus {
	switch domain.MatchStatus(s) {
	case domain.MatchFullMatch, domain.MatchPartialMatch, domain.MatchMismatch, domain.MatchException:
		return domain.MatchStatus(s)
	default:
		return domain.MatchException
	}
}

func parseRecommendation(s string) domain.Recommendation {
	switch domain.Recommendation(s) {
	case domain.RecommendApprove, domain.RecommendReject, domain.RecommendInvestigate, domain.RecommendPartialApprove:
		return domain.Recommendation(s)
	default:
		return domain.RecommendInvestigate
	}
}

// SynthesizeVerdict calls the LLM router with the pre-computed matches and
// quantitative report, and assembles the domain.Verdict, filling in a stable
// id for any line item match the model didn't echo one for, per spec.md
// §4.10.
func SynthesizeVerdict(ctx context.Context, router *llmrouter.Router, matches []domain.LineItemMatch, report quant.Report) (domain.Verdict, error) {
	preMatch := buildPreMatchSummary(matches, report)
	prompt := buildVerdictPrompt(preMatch)

	result, err := router.Complete(ctx, llmrouter.CompletionRequest{
		Prompt:      prompt,
		Temperature: verdictTemperature,
		JSONMode:    true,
	})
	if err != nil {
		return domain.Verdict{}, apperrors.Wrap(apperrors.KindTransient, "verdict synthesis failed", err)
	}

	var dto verdictResponseDTO
	if err := json.Unmarshal([]byte(result.Text), &dto); err != nil {
		return domain.Verdict{}, apperrors.Wrap(apperrors.KindTransient, "verdict response was not valid JSON", err)
	}

	discrepancies := dto.DiscrepancySummary
	for i, lm := range dto.LineItemMatches {
		if i < len(matches) && lm.Discrepancy != "" {
			discrepancies = append(discrepancies, lm.Discrepancy)
		}
	}

	for i := range matches {
		if matches[i].ID == "" {
			matches[i].ID = uuid.NewString()
		}
	}

	return domain.Verdict{
		OverallStatus:      parseMatchStatus(dto.OverallStatus),
		Confidence:         dto.Confidence,
		LineItemMatches:    matches,
		DiscrepancySummary: discrepancies,
		Recommendation:     parseRecommendation(dto.Recommendation),
		AuditNarrative:     dto.AuditNarrative,
	}, nil
}
