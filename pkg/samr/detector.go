// Package samr implements the SAMR detector (C9): dual-stream adversarial
// perturbation and reasoning-vector divergence, the hallucination check spec.md
// §4.9 calls "Shadow Agent Memory Reconciliation".
package samr

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/NeoOne601/ventro/pkg/apperrors"
	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/NeoOne601/ventro/pkg/llmrouter"
)

// DefaultPerturbationStrength is the per-line perturbation probability: the
// first decimal amount on a line is shifted with this probability, and
// document identifiers with half of it.
const DefaultPerturbationStrength = 0.1

const analysisPromptTemplate = `You are performing a financial reconciliation analysis.
Based on the following document data, determine if the three documents match.

Data:
%s

Provide your analysis in JSON:
{
  "verdict": "match|mismatch|partial_match",
  "confidence": 0.0-1.0,
  "rationale": "brief explanation",
  "key_values_checked": ["list of key values you checked"],
  "anomalies": ["list of any anomalies found"]
}`

// verdictDTO is the LLM's strict-JSON verdict shape.
type verdictDTO struct {
	Verdict          string   `json:"verdict"`
	Confidence       float64  `json:"confidence"`
	Rationale        string   `json:"rationale"`
	KeyValuesChecked []string `json:"key_values_checked"`
	Anomalies        []string `json:"anomalies"`
}

func parseVerdict(text string) verdictDTO {
	var v verdictDTO
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return verdictDTO{Verdict: "unknown"}
	}
	return v
}

// Detector runs the primary/shadow dual-stream check through a shared LLM
// router.
type Detector struct {
	Router               *llmrouter.Router
	PerturbationStrength float64
	rng                  *rand.Rand
}

func NewDetector(router *llmrouter.Router, perturbationStrength float64) *Detector {
	if perturbationStrength <= 0 {
		perturbationStrength = DefaultPerturbationStrength
	}
	return &Detector{Router: router, PerturbationStrength: perturbationStrength, rng: rand.New(rand.NewSource(1))}
}

// Run executes the primary stream, the perturbed shadow stream, and the
// divergence reconciliation, per spec.md §4.9 steps 1-4. threshold and
// thresholdSource are resolved by the caller (typically from
// AdaptiveThresholdService, falling back to a static config value).
func (d *Detector) Run(ctx context.Context, sessionID string, po, grn, invoice domain.ParsedDocument, threshold float64, thresholdSource domain.ThresholdSource) (domain.SAMRMetrics, error) {
	docContext := BuildContext(po, grn, invoice)

	primaryPrompt := analysisPrompt(docContext)
	primaryCompletion, err := d.Router.Complete(ctx, llmrouter.CompletionRequest{Prompt: primaryPrompt, Temperature: 0, JSONMode: true})
	if err != nil {
		return domain.SAMRMetrics{}, apperrors.Wrap(apperrors.KindTransient, "samr primary stream failed", err)
	}
	primaryVector, err := d.Router.GetReasoningVector(ctx, primaryPrompt)
	if err != nil {
		return domain.SAMRMetrics{}, apperrors.Wrap(apperrors.KindTransient, "samr primary reasoning vector failed", err)
	}
	primaryVerdict := parseVerdict(primaryCompletion.Text)

	perturbedContext, perturbationDesc := Perturb(d.rng, docContext, d.PerturbationStrength)
	shadowPrompt := analysisPrompt(perturbedContext)
	shadowCompletion, err := d.Router.Complete(ctx, llmrouter.CompletionRequest{Prompt: shadowPrompt, Temperature: 0, JSONMode: true})
	if err != nil {
		return domain.SAMRMetrics{}, apperrors.Wrap(apperrors.KindTransient, "samr shadow stream failed", err)
	}
	shadowVector, err := d.Router.GetReasoningVector(ctx, shadowPrompt)
	if err != nil {
		return domain.SAMRMetrics{}, apperrors.Wrap(apperrors.KindTransient, "samr shadow reasoning vector failed", err)
	}
	shadowVerdict := parseVerdict(shadowCompletion.Text)

	similarity := CosineSimilarity(primaryVector, shadowVector)
	alertTriggered := similarity >= threshold && perturbationDesc != NoPerturbation

	return domain.SAMRMetrics{
		SessionID:               sessionID,
		PrimaryVerdict:          primaryVerdict.Verdict,
		ShadowVerdict:           shadowVerdict.Verdict,
		CosineSimilarity:        similarity,
		Threshold:               threshold,
		AlertTriggered:          alertTriggered,
		PerturbationDescription: perturbationDesc,
		ThresholdSource:         thresholdSource,
		Timestamp:               time.Now(),
	}, nil
}

func analysisPrompt(docContext string) string {
	return fmt.Sprintf(analysisPromptTemplate, docContext)
}
