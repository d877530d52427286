package api

// RegisterRequest is the JSON body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	OrgID    string `json:"org_id" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest is the JSON body for POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// CreateSessionRequest is the JSON body for POST /reconciliation/sessions.
type CreateSessionRequest struct {
	POID      string `json:"po_id" binding:"required"`
	GRNID     string `json:"grn_id" binding:"required"`
	InvoiceID string `json:"invoice_id" binding:"required"`
}

// RunSessionRequest is the JSON body for POST /reconciliation/sessions/{id}/run.
type RunSessionRequest struct {
	SAMREnabled    bool `json:"samr_enabled"`
	MatchThreshold int  `json:"match_threshold"`
}

// SubmitFeedbackRequest is the JSON body for POST /samr/feedback.
type SubmitFeedbackRequest struct {
	SessionID     string  `json:"session_id" binding:"required"`
	SAMRTriggered bool    `json:"samr_triggered"`
	CosineScore   float64 `json:"cosine_score"`
	ThresholdUsed float64 `json:"threshold_used"`
	Feedback      string  `json:"feedback" binding:"required"`
}

// UpdateRoleRequest is the JSON body for PATCH /admin/users/{id}/role.
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// CreateWebhookRequest is the JSON body for POST /admin/webhooks.
type CreateWebhookRequest struct {
	URL    string   `json:"url" binding:"required"`
	Secret string   `json:"secret" binding:"required"`
	Events []string `json:"events"`
}

// CreateOrgRequest is the JSON body for POST /admin/orgs.
type CreateOrgRequest struct {
	Name string `json:"name" binding:"required"`
}
