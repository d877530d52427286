// Package orchestrator implements the pipeline orchestrator (C12): a
// supervised finite-state machine that walks one reconciliation session
// through extraction, quantitative validation, compliance banding, the
// optional SAMR hallucination check, reconciliation matching, and
// completion — bounded by a visit ceiling and an error-count threshold so a
// stuck or error-prone session always reaches a terminal status.
package orchestrator

import (
	"context"

	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/NeoOne601/ventro/pkg/extraction"
	"github.com/NeoOne601/ventro/pkg/quant"
)

// VisitCeiling bounds total supervisor visits per session, per spec.md
// §4.12's runaway-loop guard.
const VisitCeiling = 20

// ErrorThreshold is the aggregated-error count above which a run is forced
// to `failed`, per spec.md §4.12.
const ErrorThreshold = 3

// ExtractionRunner is the narrow capability C12 needs from C7.
type ExtractionRunner interface {
	ExtractSession(ctx context.Context, sessionID string, po, grn, invoice extraction.DocumentRequest) extraction.Output
}

// QuantRunner is the narrow capability C12 needs from C8.
type QuantRunner interface {
	Run(po, grn, invoice domain.ParsedDocument) quant.Report
}

// SAMRRunner is the narrow capability C12 needs from C9's Detector.
type SAMRRunner interface {
	Run(ctx context.Context, sessionID string, po, grn, invoice domain.ParsedDocument, threshold float64, source domain.ThresholdSource) (domain.SAMRMetrics, error)
}

// ThresholdResolver is the narrow capability C12 needs from C9's adaptive
// threshold service.
type ThresholdResolver interface {
	GetThreshold(ctx context.Context, orgID string) float64
}

// VerdictSynthesizer is the narrow capability C12 needs from C10; the
// composition root closes over the LLM router so this package never has to
// depend on llmrouter directly.
type VerdictSynthesizer func(ctx context.Context, matches []domain.LineItemMatch, report quant.Report) (domain.Verdict, error)

// MatchLinesFunc is C10's pure entity-resolution step.
type MatchLinesFunc func(poItems, grnItems, invoiceItems []domain.LineItem, threshold int) []domain.LineItemMatch

// CheckpointPublisher is the narrow capability C12 needs from C14 (the
// progress relay); a nil CheckpointPublisher is a valid no-op.
type CheckpointPublisher interface {
	PublishCheckpoint(sessionID string, stage domain.PipelineStage, err string)
}

// DocumentInput names the three documents feeding one reconciliation run.
type DocumentInput struct {
	ID         string
	Type       domain.DocumentType
	Collection string
}

// RunRequest is everything the orchestrator needs to drive one session.
type RunRequest struct {
	OrgID       string
	PO, GRN, Invoice DocumentInput
	SAMREnabled bool
	MatchThreshold int
}

// RunState accumulates every stage's output across the FSM walk; it is
// mutated in place as the supervisor advances.
type RunState struct {
	Stage      domain.PipelineStage
	Visits     int
	Errors     []string
	Extraction extraction.Output
	Report     quant.Report
	Matches    []domain.LineItemMatch
	Verdict    domain.Verdict
	SAMR       domain.SAMRMetrics
}
