package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/NeoOne601/ventro/pkg/apperrors"
	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/NeoOne601/ventro/pkg/security"
	"github.com/NeoOne601/ventro/pkg/webhooks"
)

// listUsersHandler handles GET /admin/users.
func (s *Server) listUsersHandler(c *gin.Context) {
	_, orgID, _ := principal(c)
	users, err := s.repo.UserRepo.List(c.Request.Context(), orgID)
	if err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindFatal, "failed to list users", err))
		return
	}
	out := make([]MeResponse, len(users))
	for i, u := range users {
		out[i] = MeResponse{UserID: u.ID, OrgID: u.OrgID, Email: u.Email, Role: u.Role}
	}
	c.JSON(http.StatusOK, out)
}

// updateUserRoleHandler handles PATCH /admin/users/{id}/role.
func (s *Server) updateUserRoleHandler(c *gin.Context) {
	adminID, orgID, _ := principal(c)
	targetID := c.Param("id")

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindValidation, "invalid role request", err))
		return
	}
	if !security.Role(req.Role).Valid() {
		respondError(c, apperrors.WithReason(apperrors.KindValidation, "unknown role", "invalid_role"))
		return
	}

	if err := s.repo.UserRepo.UpdateRole(c.Request.Context(), orgID, targetID, req.Role); err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindNotFound, "failed to update role", err))
		return
	}

	if s.auditChain != nil {
		_, _ = s.auditChain.Append(c.Request.Context(), security.AuditEntryInput{
			OrgID: orgID, UserID: adminID, Action: "user.role_changed",
			ResourceType: "user", ResourceID: targetID, Details: req.Role, IP: c.ClientIP(),
		})
	}
	if s.webhookDispatch != nil {
		_ = s.webhookDispatch.Dispatch(c.Request.Context(), orgID, domain.WebhookUserRoleChanged,
			map[string]any{"user_id": targetID, "role": req.Role})
	}
	c.Status(http.StatusNoContent)
}

// deactivateUserHandler handles DELETE /admin/users/{id}.
func (s *Server) deactivateUserHandler(c *gin.Context) {
	adminID, orgID, _ := principal(c)
	targetID := c.Param("id")

	if err := s.repo.UserRepo.Deactivate(c.Request.Context(), orgID, targetID); err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindNotFound, "failed to deactivate user", err))
		return
	}

	// Deactivation is a logout-all: every outstanding access token and
	// refresh token the user holds stops working immediately, not just at
	// its natural expiry, per spec.md §3's ownership rule.
	now := time.Now()
	_ = s.denylist.RevokeAllForUser(c.Request.Context(), targetID, now)
	_ = s.repo.RefreshTokenRepo.RevokeAllForUser(c.Request.Context(), targetID, now)

	if s.auditChain != nil {
		_, _ = s.auditChain.Append(c.Request.Context(), security.AuditEntryInput{
			OrgID: orgID, UserID: adminID, Action: "user.deactivated",
			ResourceType: "user", ResourceID: targetID, IP: c.ClientIP(),
		})
	}
	c.Status(http.StatusNoContent)
}

// listWebhooksHandler handles GET /admin/webhooks.
func (s *Server) listWebhooksHandler(c *gin.Context) {
	_, orgID, _ := principal(c)
	endpoints, err := s.repo.WebhookStore.EndpointsForEvent(c.Request.Context(), orgID, domain.WebhookTestPing)
	if err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindFatal, "failed to list webhooks", err))
		return
	}
	c.JSON(http.StatusOK, endpoints)
}

// createWebhookHandler handles POST /admin/webhooks.
func (s *Server) createWebhookHandler(c *gin.Context) {
	_, orgID, _ := principal(c)
	var req CreateWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindValidation, "invalid webhook request", err))
		return
	}

	events := make([]domain.WebhookEvent, len(req.Events))
	for i, e := range req.Events {
		events[i] = domain.WebhookEvent(e)
	}

	endpoint, err := s.repo.WebhookStore.CreateEndpoint(c.Request.Context(), webhooks.Endpoint{
		ID: uuid.NewString(), OrgID: orgID, URL: req.URL, Secret: req.Secret, Events: events, Active: true,
	})
	if err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindFatal, "failed to create webhook", err))
		return
	}
	c.JSON(http.StatusCreated, endpoint)
}

// deleteWebhookHandler handles DELETE /admin/webhooks/{id}.
func (s *Server) deleteWebhookHandler(c *gin.Context) {
	if err := s.repo.WebhookStore.DeactivateEndpoint(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindNotFound, "failed to deactivate webhook", err))
		return
	}
	c.Status(http.StatusNoContent)
}

// evidencePackHandler handles GET /admin/compliance/evidence-pack: the full
// verified audit chain for an org, per spec.md §4.1's compliance export.
func (s *Server) evidencePackHandler(c *gin.Context) {
	_, orgID, _ := principal(c)
	entries, err := s.repo.AuditRepo.AllEntries(c.Request.Context(), orgID)
	if err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindFatal, "failed to load audit trail", err))
		return
	}
	var verify security.VerifyResult
	if s.auditChain != nil {
		verify, err = s.auditChain.Verify(c.Request.Context(), orgID)
		if err != nil {
			respondError(c, apperrors.Wrap(apperrors.KindIntegrity, "audit chain verification failed", err))
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "verification": verify})
}

// listOrgsHandler handles GET /admin/orgs (master-only).
func (s *Server) listOrgsHandler(c *gin.Context) {
	orgs, err := s.repo.OrgRepo.List(c.Request.Context())
	if err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindFatal, "failed to list orgs", err))
		return
	}
	c.JSON(http.StatusOK, orgs)
}

// createOrgHandler handles POST /admin/orgs (master-only).
func (s *Server) createOrgHandler(c *gin.Context) {
	var req CreateOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindValidation, "invalid org request", err))
		return
	}
	org, err := s.repo.OrgRepo.Create(c.Request.Context(), domain.Org{ID: uuid.NewString(), Name: req.Name})
	if err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindConflict, "failed to create org", err))
		return
	}
	c.JSON(http.StatusCreated, org)
}
