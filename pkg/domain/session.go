package domain

import "time"

// Session is one three-way reconciliation run, per spec.md §3.
type Session struct {
	ID          string
	POID        string
	GRNID       string
	InvoiceID   string
	OrgID       string
	Status      SessionStatus
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	Verdict     *Verdict
	AgentTrace  []AgentTraceEntry
	Error       string
	CreatedBy   string
}

// AgentTraceEntry records one stage's execution for audit/debugging, surfaced
// via GET /reconciliation/sessions/{id}/result.
type AgentTraceEntry struct {
	Stage     PipelineStage
	StartedAt time.Time
	EndedAt   time.Time
	Error     string
}

// Transition validates and applies a status change, enforcing monotonicity
// once terminal (spec.md §3 Session invariant).
func (s *Session) Transition(next SessionStatus) error {
	if s.Status.IsTerminal() {
		return &IllegalTransitionError{From: s.Status, To: next}
	}
	s.Status = next
	return nil
}

// IllegalTransitionError reports an attempt to move a terminal session.
type IllegalTransitionError struct {
	From, To SessionStatus
}

func (e *IllegalTransitionError) Error() string {
	return "domain: session already terminal at " + string(e.From) + ", cannot transition to " + string(e.To)
}

// LineItemMatch is one resolved (PO, GRN?, Invoice?) triple from C10.
type LineItemMatch struct {
	ID          string
	POItem      *LineItem
	GRNItem     *LineItem
	InvoiceItem *LineItem
	SimGRN      float64
	SimInvoice  float64
}

// Verdict is the synthesized reconciliation outcome, per spec.md §4.10.
type Verdict struct {
	OverallStatus      MatchStatus
	Confidence         float64
	LineItemMatches    []LineItemMatch
	DiscrepancySummary []string
	Recommendation     Recommendation
	AuditNarrative     string
}
