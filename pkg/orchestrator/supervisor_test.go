package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/NeoOne601/ventro/pkg/extraction"
	"github.com/NeoOne601/ventro/pkg/quant"
)

type fakeExtractor struct {
	out extraction.Output
}

func (f fakeExtractor) ExtractSession(_ context.Context, _ string, _, _, _ extraction.DocumentRequest) extraction.Output {
	return f.out
}

type fakeQuant struct {
	report quant.Report
}

func (f fakeQuant) Run(_, _, _ domain.ParsedDocument) quant.Report {
	return f.report
}

type fakeSAMR struct {
	metrics domain.SAMRMetrics
	err     error
	calls   int
}

func (f *fakeSAMR) Run(_ context.Context, _ string, _, _, _ domain.ParsedDocument, _ float64, _ domain.ThresholdSource) (domain.SAMRMetrics, error) {
	f.calls++
	return f.metrics, f.err
}

type fakeThreshold struct{ value float64 }

func (f fakeThreshold) GetThreshold(_ context.Context, _ string) float64 { return f.value }

type recordingPublisher struct {
	events []string
}

func (r *recordingPublisher) PublishCheckpoint(sessionID string, stage domain.PipelineStage, errMsg string) {
	r.events = append(r.events, sessionID+":"+string(stage))
}

func cleanOutput() extraction.Output {
	return extraction.Output{
		POParsed:      domain.ParsedDocument{Metadata: domain.DocumentMetadata{ID: "po-1"}},
		GRNParsed:     domain.ParsedDocument{Metadata: domain.DocumentMetadata{ID: "grn-1"}},
		InvoiceParsed: domain.ParsedDocument{Metadata: domain.DocumentMetadata{ID: "inv-1"}},
	}
}

func passingReport() quant.Report {
	return quant.Report{
		Bands: []quant.ValidityBand{
			{DocumentID: "po-1", LineItemsOK: true, SubtotalOK: true, TaxOK: true, GrandTotalOK: true},
		},
	}
}

func noopMatcher(_, _, _ []domain.LineItem, _ int) []domain.LineItemMatch {
	return nil
}

func baseRequest() RunRequest {
	return RunRequest{
		OrgID:          "org-1",
		PO:             DocumentInput{ID: "po-1", Type: domain.DocumentTypePO},
		GRN:            DocumentInput{ID: "grn-1", Type: domain.DocumentTypeGRN},
		Invoice:        DocumentInput{ID: "inv-1", Type: domain.DocumentTypeInvoice},
		MatchThreshold: 60,
	}
}

func TestSupervisorRunHappyPathReachesMatched(t *testing.T) {
	pub := &recordingPublisher{}
	sup := &Supervisor{
		Extractor:  fakeExtractor{out: cleanOutput()},
		Quantifier: fakeQuant{report: passingReport()},
		MatchLines: noopMatcher,
		SynthesizeVerdict: func(_ context.Context, _ []domain.LineItemMatch, _ quant.Report) (domain.Verdict, error) {
			return domain.Verdict{OverallStatus: domain.MatchFullMatch, Recommendation: domain.RecommendApprove}, nil
		},
		Publisher: pub,
	}
	session := &domain.Session{ID: "sess-1", Status: domain.SessionPending}

	state := sup.Run(context.Background(), session, baseRequest())

	assert.Equal(t, domain.StageCompleted, state.Stage)
	assert.Empty(t, state.Errors)
	assert.Equal(t, domain.SessionMatched, session.Status)
	require.NotNil(t, session.Verdict)
	assert.Equal(t, domain.MatchFullMatch, session.Verdict.OverallStatus)
	assert.NotEmpty(t, pub.events)
	assert.NotEmpty(t, session.AgentTrace)
}

func TestSupervisorSkipsSAMRWhenDisabled(t *testing.T) {
	samrRunner := &fakeSAMR{}
	sup := &Supervisor{
		Extractor:  fakeExtractor{out: cleanOutput()},
		Quantifier: fakeQuant{report: passingReport()},
		SAMR:       samrRunner,
		MatchLines: noopMatcher,
		SynthesizeVerdict: func(_ context.Context, _ []domain.LineItemMatch, _ quant.Report) (domain.Verdict, error) {
			return domain.Verdict{OverallStatus: domain.MatchFullMatch}, nil
		},
	}
	req := baseRequest()
	req.SAMREnabled = false
	session := &domain.Session{ID: "sess-2", Status: domain.SessionPending}

	sup.Run(context.Background(), session, req)

	assert.Equal(t, 0, samrRunner.calls)
}

func TestSupervisorRunsSAMRWhenEnabledAndUsesAdaptiveThreshold(t *testing.T) {
	samrRunner := &fakeSAMR{metrics: domain.SAMRMetrics{AlertTriggered: true}}
	sup := &Supervisor{
		Extractor:         fakeExtractor{out: cleanOutput()},
		Quantifier:        fakeQuant{report: passingReport()},
		SAMR:              samrRunner,
		ThresholdResolver: fakeThreshold{value: 0.92},
		MatchLines:        noopMatcher,
		SynthesizeVerdict: func(_ context.Context, _ []domain.LineItemMatch, _ quant.Report) (domain.Verdict, error) {
			return domain.Verdict{OverallStatus: domain.MatchFullMatch}, nil
		},
	}
	req := baseRequest()
	req.SAMREnabled = true
	session := &domain.Session{ID: "sess-3", Status: domain.SessionPending}

	state := sup.Run(context.Background(), session, req)

	assert.Equal(t, 1, samrRunner.calls)
	assert.True(t, state.SAMR.AlertTriggered)
	assert.Equal(t, domain.SessionSAMRAlert, session.Status)
}

func TestSupervisorAdvancesPastStageErrorsUntilVerdictFails(t *testing.T) {
	sup := &Supervisor{
		Extractor: fakeExtractor{out: extraction.Output{
			POParsed:      domain.ParsedDocument{Metadata: domain.DocumentMetadata{ID: "po-1"}, Error: "ocr failure"},
			GRNParsed:     domain.ParsedDocument{Metadata: domain.DocumentMetadata{ID: "grn-1"}},
			InvoiceParsed: domain.ParsedDocument{Metadata: domain.DocumentMetadata{ID: "inv-1"}},
		}},
		Quantifier: fakeQuant{report: quant.Report{
			Bands: []quant.ValidityBand{{DocumentID: "po-1", LineItemsOK: false, SubtotalOK: true, TaxOK: true, GrandTotalOK: true}},
		}},
		MatchLines: noopMatcher,
		SynthesizeVerdict: func(_ context.Context, _ []domain.LineItemMatch, _ quant.Report) (domain.Verdict, error) {
			return domain.Verdict{}, errors.New("verdict synthesis unavailable")
		},
	}
	session := &domain.Session{ID: "sess-4", Status: domain.SessionPending}

	state := sup.Run(context.Background(), session, baseRequest())

	assert.Equal(t, domain.StageFailed, state.Stage)
	assert.Equal(t, domain.SessionFailed, session.Status)
	assert.NotEmpty(t, state.Errors)
}

func TestSupervisorTerminalSessionCannotBeReTransitioned(t *testing.T) {
	sup := &Supervisor{
		Extractor:  fakeExtractor{out: cleanOutput()},
		Quantifier: fakeQuant{report: passingReport()},
		MatchLines: noopMatcher,
		SynthesizeVerdict: func(_ context.Context, _ []domain.LineItemMatch, _ quant.Report) (domain.Verdict, error) {
			return domain.Verdict{OverallStatus: domain.MatchFullMatch}, nil
		},
	}
	session := &domain.Session{ID: "sess-5", Status: domain.SessionFailed}

	sup.Run(context.Background(), session, baseRequest())

	assert.Equal(t, domain.SessionFailed, session.Status)
}
