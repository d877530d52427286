package workpaper

import (
	"fmt"
	"strings"

	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/NeoOne601/ventro/pkg/quant"
)

// BuildNarrative renders a plain-text audit narrative from the verdict's own
// LLM-authored prose plus the deterministic findings underneath it, so the
// narrative stands on its own even if the model's audit_narrative field is
// terse. Per spec.md §4.11, every claim here is meant to be backed by a
// citation the caller attaches separately.
func BuildNarrative(verdict domain.Verdict, report quant.Report, samr domain.SAMRMetrics) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Reconciliation verdict: %s (confidence %.0f%%)\n", verdict.OverallStatus, verdict.Confidence*100)
	if verdict.AuditNarrative != "" {
		fmt.Fprintf(&b, "%s\n", verdict.AuditNarrative)
	}
	fmt.Fprintf(&b, "Recommendation: %s\n\n", verdict.Recommendation)

	fmt.Fprintf(&b, "Quantitative check: %d discrepancies found; mathematically consistent: %v.\n", report.TotalDiscrepancies, report.IsMathematicallyConsistent)
	for _, d := range report.Discrepancies {
		fmt.Fprintf(&b, "  - [%s] %s (claimed %s vs computed %s, variance %s)\n", d.Kind, d.Description, d.Claimed.String(), d.Computed.String(), d.Variance.String())
	}
	if len(verdict.DiscrepancySummary) > 0 {
		b.WriteString("\nAdditional findings:\n")
		for _, s := range verdict.DiscrepancySummary {
			fmt.Fprintf(&b, "  - %s\n", s)
		}
	}

	b.WriteString("\nHallucination check (SAMR): ")
	if samr.AlertTriggered {
		fmt.Fprintf(&b, "ALERT — primary/shadow reasoning diverged (cosine similarity %.3f >= threshold %.3f, %s).\n", samr.CosineSimilarity, samr.Threshold, samr.PerturbationDescription)
	} else {
		fmt.Fprintf(&b, "no divergence detected (cosine similarity %.3f, threshold %.3f).\n", samr.CosineSimilarity, samr.Threshold)
	}

	return b.String()
}
