package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/NeoOne601/ventro/pkg/extraction"
)

// Supervisor walks a session through the FSM described in spec.md §4.12:
//
//	INITIALIZED -> EXTRACTED -> QUANTIFIED -> COMPLIANCE_CHECKED
//	            -> [SAMR_COMPLETE if enabled else skip]
//	            -> RECONCILED -> COMPLETED
//
// Each stage handler is looked up in a (current_stage) -> handler table and
// iterated until a terminal stage or the visit ceiling, per the Design
// Notes' "cyclic orchestrator graph -> message-driven loop" guidance: no
// recursive stage dispatch, just a table and a loop.
type Supervisor struct {
	Extractor         ExtractionRunner
	Quantifier        QuantRunner
	SAMR              SAMRRunner
	ThresholdResolver ThresholdResolver
	MatchLines        MatchLinesFunc
	SynthesizeVerdict VerdictSynthesizer
	Publisher         CheckpointPublisher
}

type stageHandler func(ctx context.Context, sessionID string, req RunRequest, state *RunState) (domain.PipelineStage, error)

func (s *Supervisor) table() map[domain.PipelineStage]stageHandler {
	return map[domain.PipelineStage]stageHandler{
		domain.StageInitialized:       s.runExtraction,
		domain.StageExtracted:         s.runQuantify,
		domain.StageQuantified:        s.runComplianceCheck,
		domain.StageComplianceChecked: s.runSAMR,
		domain.StageSAMRComplete:      s.runReconcile,
		domain.StageReconciled:        s.runFinalize,
	}
}

// Run drives a session from StageInitialized to a terminal stage
// (StageCompleted or StageFailed), appending one domain.AgentTraceEntry per
// visit to session.AgentTrace and mutating session.Status accordingly. It
// never returns an error itself — a stage failure is recorded in state and
// the loop advances to that stage's normal next stage, per spec.md §4.12's
// partial-failure design. The run is forced to StageFailed when the error
// threshold or the visit ceiling is hit, or when verdict synthesis fails
// (runReconcile then returns StageFailed).
func (s *Supervisor) Run(ctx context.Context, session *domain.Session, req RunRequest) RunState {
	state := &RunState{Stage: domain.StageInitialized}
	handlers := s.table()

	for state.Visits < VisitCeiling {
		state.Visits++
		if state.Stage == domain.StageCompleted || state.Stage == domain.StageFailed {
			break
		}
		if len(state.Errors) > ErrorThreshold {
			state.Stage = domain.StageFailed
			break
		}

		handler, ok := handlers[state.Stage]
		if !ok {
			// Every non-terminal PipelineStage has a table entry; reaching here
			// means state.Stage holds a value this FSM doesn't know, which the
			// error-threshold / visit-ceiling guards above cannot have produced.
			state.Errors = append(state.Errors, fmt.Sprintf("orchestrator: no handler for stage %q", state.Stage))
			state.Stage = domain.StageFailed
			break
		}

		s.publish(session.ID, state.Stage, "")
		next, err := handler(ctx, session.ID, req, state)
		if err != nil {
			state.Errors = append(state.Errors, err.Error())
			slog.Warn("orchestrator stage failed, advancing anyway", "session_id", session.ID, "stage", state.Stage, "error", err)
			s.publish(session.ID, state.Stage, err.Error())
		}
		trace := domain.AgentTraceEntry{Stage: state.Stage}
		if err != nil {
			trace.Error = err.Error()
		}
		session.AgentTrace = append(session.AgentTrace, trace)
		state.Stage = next
	}

	if state.Stage != domain.StageCompleted && state.Stage != domain.StageFailed {
		// Ceiling reached without converging.
		state.Stage = domain.StageFailed
	}

	s.publish(session.ID, state.Stage, "")
	if state.Verdict.OverallStatus != "" {
		verdict := state.Verdict
		session.Verdict = &verdict
	}
	if len(state.Errors) > 0 {
		session.Error = state.Errors[len(state.Errors)-1]
	}
	now := time.Now().UTC()
	session.CompletedAt = &now
	_ = session.Transition(finalSessionStatus(state))
	return *state
}

func finalSessionStatus(state *RunState) domain.SessionStatus {
	if state.Stage == domain.StageFailed {
		return domain.SessionFailed
	}
	if state.SAMR.AlertTriggered {
		return domain.SessionSAMRAlert
	}
	switch state.Verdict.OverallStatus {
	case domain.MatchFullMatch:
		return domain.SessionMatched
	case domain.MatchMismatch, domain.MatchPartialMatch:
		return domain.SessionDiscrepancyFound
	default:
		return domain.SessionException
	}
}

func (s *Supervisor) publish(sessionID string, stage domain.PipelineStage, errMsg string) {
	if s.Publisher != nil {
		s.Publisher.PublishCheckpoint(sessionID, stage, errMsg)
	}
}

func (s *Supervisor) runExtraction(ctx context.Context, sessionID string, req RunRequest, state *RunState) (domain.PipelineStage, error) {
	out := s.Extractor.ExtractSession(ctx, sessionID,
		extraction.DocumentRequest{DocumentID: req.PO.ID, DocumentType: req.PO.Type, Collection: req.PO.Collection},
		extraction.DocumentRequest{DocumentID: req.GRN.ID, DocumentType: req.GRN.Type, Collection: req.GRN.Collection},
		extraction.DocumentRequest{DocumentID: req.Invoice.ID, DocumentType: req.Invoice.Type, Collection: req.Invoice.Collection},
	)
	state.Extraction = out

	var stageErr error
	for _, doc := range []domain.ParsedDocument{out.POParsed, out.GRNParsed, out.InvoiceParsed} {
		if doc.Error != "" {
			stageErr = fmt.Errorf("extraction failed for %s: %s", doc.Metadata.ID, doc.Error)
		}
	}
	return domain.StageExtracted, stageErr
}

func (s *Supervisor) runQuantify(_ context.Context, _ string, _ RunRequest, state *RunState) (domain.PipelineStage, error) {
	state.Report = s.Quantifier.Run(state.Extraction.POParsed, state.Extraction.GRNParsed, state.Extraction.InvoiceParsed)
	return domain.StageQuantified, nil
}

// runComplianceCheck evaluates the validity bands the quantifier already
// computed; spec.md names this a distinct FSM stage, but the bands
// (subtotal/tax/grand-total conformance) are exactly the compliance rules
// C8 already checks as part of Report, so this stage interprets that same
// Report rather than recomputing anything.
func (s *Supervisor) runComplianceCheck(_ context.Context, _ string, _ RunRequest, state *RunState) (domain.PipelineStage, error) {
	var failing int
	for _, band := range state.Report.Bands {
		if !(band.LineItemsOK && band.SubtotalOK && band.TaxOK && band.GrandTotalOK) {
			failing++
		}
	}
	var err error
	if failing > 0 {
		err = fmt.Errorf("%d document(s) failed compliance banding", failing)
	}
	return domain.StageComplianceChecked, err
}

func (s *Supervisor) runSAMR(ctx context.Context, sessionID string, req RunRequest, state *RunState) (domain.PipelineStage, error) {
	if !req.SAMREnabled || s.SAMR == nil {
		return domain.StageSAMRComplete, nil
	}
	threshold := 0.85
	source := domain.ThresholdStatic
	if s.ThresholdResolver != nil {
		threshold = s.ThresholdResolver.GetThreshold(ctx, req.OrgID)
		source = domain.ThresholdAdaptive
	}
	metrics, err := s.SAMR.Run(ctx, sessionID, state.Extraction.POParsed, state.Extraction.GRNParsed, state.Extraction.InvoiceParsed, threshold, source)
	state.SAMR = metrics
	return domain.StageSAMRComplete, err
}

func (s *Supervisor) runReconcile(ctx context.Context, _ string, req RunRequest, state *RunState) (domain.PipelineStage, error) {
	threshold := req.MatchThreshold
	if threshold <= 0 {
		threshold = 60
	}
	matches := s.MatchLines(
		state.Extraction.POParsed.LineItems,
		state.Extraction.GRNParsed.LineItems,
		state.Extraction.InvoiceParsed.LineItems,
		threshold,
	)
	state.Matches = matches

	verdict, err := s.SynthesizeVerdict(ctx, matches, state.Report)
	if err != nil {
		return domain.StageFailed, err
	}
	state.Verdict = verdict
	return domain.StageReconciled, nil
}

func (s *Supervisor) runFinalize(_ context.Context, _ string, _ RunRequest, state *RunState) (domain.PipelineStage, error) {
	return domain.StageCompleted, nil
}
