package domain

import "time"

// SAMRMetrics is the dual-stream hallucination-check result for one run.
type SAMRMetrics struct {
	SessionID                string
	PrimaryVerdict           string
	ShadowVerdict            string
	CosineSimilarity         float64 // [-1,1]
	Threshold                float64 // (0,1)
	AlertTriggered           bool
	PerturbationDescription  string
	ThresholdSource          ThresholdSource
	Timestamp                time.Time
}

// SAMRFeedback is append-only analyst ground truth used to adapt the
// per-org threshold.
type SAMRFeedback struct {
	SessionID     string
	OrgID         string
	SAMRTriggered bool
	CosineScore   float64
	ThresholdUsed float64
	Feedback      SAMRFeedbackLabel
	SubmittedBy   string
	SubmittedAt   time.Time
}
