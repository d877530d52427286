package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NeoOne601/ventro/pkg/apperrors"
	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/NeoOne601/ventro/pkg/samr"
)

// feedbackWindow bounds how much history GET /samr/analytics summarizes.
const feedbackWindow = 200

// submitFeedbackHandler handles POST /samr/feedback.
func (s *Server) submitFeedbackHandler(c *gin.Context) {
	userID, orgID, _ := principal(c)
	var req SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindValidation, "invalid feedback request", err))
		return
	}

	label := domain.SAMRFeedbackLabel(req.Feedback)
	feedback := domain.SAMRFeedback{
		SessionID:     req.SessionID,
		OrgID:         orgID,
		SAMRTriggered: req.SAMRTriggered,
		CosineScore:   req.CosineScore,
		ThresholdUsed: req.ThresholdUsed,
		Feedback:      label,
		SubmittedBy:   userID,
		SubmittedAt:   time.Now(),
	}
	if err := s.repo.FeedbackRepo.Record(c.Request.Context(), feedback); err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindFatal, "failed to record feedback", err))
		return
	}

	if s.thresholds != nil {
		s.thresholds.InvalidateCache(orgID)
	}
	c.Status(http.StatusNoContent)
}

// samrThresholdHandler handles GET /samr/threshold.
func (s *Server) samrThresholdHandler(c *gin.Context) {
	_, orgID, _ := principal(c)
	threshold := s.thresholds.GetThreshold(c.Request.Context(), orgID)
	c.JSON(http.StatusOK, ThresholdResponse{OrgID: orgID, Threshold: threshold})
}

// samrAnalyticsHandler handles GET /samr/analytics.
func (s *Server) samrAnalyticsHandler(c *gin.Context) {
	_, orgID, _ := principal(c)
	rows, err := s.repo.FeedbackRepo.RecentFeedback(c.Request.Context(), orgID, feedbackWindow)
	if err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindFatal, "failed to load feedback", err))
		return
	}
	threshold := s.thresholds.GetThreshold(c.Request.Context(), orgID)
	analytics := samr.Summarize(orgID, rows, threshold, domain.ThresholdAdaptive)
	c.JSON(http.StatusOK, analytics)
}
