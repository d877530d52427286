package events

import "github.com/NeoOne601/ventro/pkg/domain"

// CheckpointPayload is published once per orchestrator stage visit, per
// spec.md §4.12/§4.14: clients watching a session's progress bar render
// one of these per FSM transition.
type CheckpointPayload struct {
	Type      string              `json:"type"` // always EventTypeCheckpoint
	SessionID string              `json:"session_id"`
	Stage     domain.PipelineStage `json:"stage"`
	Error     string              `json:"error,omitempty"`
	Timestamp string              `json:"timestamp"` // RFC3339Nano
}

// BatchProgressPayload is published as a batch upload's documents settle,
// for the batch upload progress page.
type BatchProgressPayload struct {
	Type      string `json:"type"` // always EventTypeBatchProgress
	BatchID   string `json:"batch_id"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Timestamp string `json:"timestamp"`
}

// WarningPayload is published when extraction degrades for one document
// within a session (an OCR or classification failure) without aborting the
// other two documents in the triplet.
type WarningPayload struct {
	Type       string `json:"type"` // always EventTypeWarning
	SessionID  string `json:"session_id"`
	DocumentID string `json:"document_id"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
}
