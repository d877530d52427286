package api

import "time"

// ErrorResponse is the JSON body for every non-2xx response, keyed on the
// closed apperrors.Kind taxonomy so clients can branch on Kind rather than
// parsing Message.
type ErrorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

// AuthResponse is returned by POST /auth/login, /auth/refresh, and
// /auth/register.
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in_seconds"`
}

// MeResponse is returned by GET /auth/me.
type MeResponse struct {
	UserID string `json:"user_id"`
	OrgID  string `json:"org_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// DocumentResponse describes one uploaded document's current classification.
type DocumentResponse struct {
	ID         string  `json:"id"`
	Filename   string  `json:"filename"`
	Type       string  `json:"type"`
	Confidence float64 `json:"classification_confidence"`
	PageCount  int     `json:"page_count"`
}

// BulkUploadResponse is returned by POST /documents/bulk.
type BulkUploadResponse struct {
	BatchID     string   `json:"batch_id"`
	DocumentIDs []string `json:"document_ids"`
}

// SessionResponse summarizes one reconciliation session for list/status views.
type SessionResponse struct {
	ID          string     `json:"id"`
	OrgID       string     `json:"org_id"`
	POID        string     `json:"po_id"`
	GRNID       string     `json:"grn_id"`
	InvoiceID   string     `json:"invoice_id"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// RunAcceptedResponse is returned by POST /reconciliation/sessions/{id}/run,
// the async 202 ack.
type RunAcceptedResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	TaskID    string `json:"task_id"`
}

// ThresholdResponse is returned by GET /samr/threshold.
type ThresholdResponse struct {
	OrgID     string  `json:"org_id"`
	Threshold float64 `json:"threshold"`
}

// HealthResponse is returned by GET /health and /health/ready.
type HealthResponse struct {
	Status   string         `json:"status"`
	Database string         `json:"database"`
	Checks   map[string]any `json:"checks,omitempty"`
}
