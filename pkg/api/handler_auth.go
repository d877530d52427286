package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/NeoOne601/ventro/pkg/apperrors"
	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/NeoOne601/ventro/pkg/security"
)

// registerHandler handles POST /auth/register.
func (s *Server) registerHandler(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindValidation, "invalid register request", err))
		return
	}
	if !security.Role(req.Role).Valid() {
		respondError(c, apperrors.WithReason(apperrors.KindValidation, "unknown role", "invalid_role"))
		return
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := s.repo.UserRepo.Create(c.Request.Context(), domain.User{
		ID:           uuid.NewString(),
		OrgID:        req.OrgID,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
	})
	if err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindConflict, "registration failed", err))
		return
	}

	if s.webhookDispatch != nil {
		_ = s.webhookDispatch.Dispatch(c.Request.Context(), user.OrgID, domain.WebhookUserCreated,
			map[string]any{"user_id": user.ID, "email": user.Email})
	}

	s.issueAuthResponse(c, user)
}

// loginHandler handles POST /auth/login.
func (s *Server) loginHandler(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindValidation, "invalid login request", err))
		return
	}

	user, err := s.repo.UserRepo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil || !user.Active || !security.VerifyPassword(user.PasswordHash, req.Password) {
		respondError(c, apperrors.New(apperrors.KindAuth, "invalid email or password"))
		return
	}

	_ = s.repo.UserRepo.RecordLogin(c.Request.Context(), user.ID, time.Now())
	s.issueAuthResponse(c, user)
}

// refreshHandler handles POST /auth/refresh: looks the presented raw token
// up by its SHA-256 digest (security.HashRefreshToken), requires the row be
// neither revoked nor expired, and rotates it — revoking the old row and
// persisting its replacement in one transaction (RefreshTokenRepo.Rotate) —
// before minting a fresh access token, per spec.md §4.1/§3.
func (s *Server) refreshHandler(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindValidation, "invalid refresh request", err))
		return
	}

	hash := security.HashRefreshToken(req.RefreshToken)
	record, err := s.repo.RefreshTokenRepo.GetActiveByHash(c.Request.Context(), hash)
	if err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindAuth, "invalid or expired refresh token", err))
		return
	}

	user, err := s.repo.UserRepo.Get(c.Request.Context(), record.OrgID, record.UserID)
	if err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindAuth, "user no longer exists", err))
		return
	}

	next, err := security.NewRefreshToken()
	if err != nil {
		respondError(c, err)
		return
	}
	nextRecord := security.RefreshTokenRecord{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		OrgID:     user.OrgID,
		TokenHash: next.Hash,
		UserAgent: c.GetHeader("User-Agent"),
		IP:        c.ClientIP(),
		ExpiresAt: time.Now().Add(security.MaxRefreshTokenTTL),
	}
	if err := s.repo.RefreshTokenRepo.Rotate(c.Request.Context(), record.ID, nextRecord); err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindAuth, "refresh token rotation failed", err))
		return
	}

	access, _, err := s.issuer.Issue(user.ID, security.Role(user.Role), user.OrgID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, AuthResponse{
		AccessToken:  access,
		RefreshToken: next.Raw,
		ExpiresIn:    int(security.MaxAccessTokenTTL.Seconds()),
	})
}

// logoutHandler handles POST /auth/logout: revokes the bearer's own jti.
func (s *Server) logoutHandler(c *gin.Context) {
	header := c.GetHeader("Authorization")
	claims, err := s.issuer.Verify(header[len("Bearer "):])
	if err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindAuth, "invalid token", err))
		return
	}
	if err := s.denylist.Revoke(c.Request.Context(), claims.ID, time.Now().Add(security.MaxAccessTokenTTL)); err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindFatal, "logout failed", err))
		return
	}
	c.Status(http.StatusNoContent)
}

// meHandler handles GET /auth/me.
func (s *Server) meHandler(c *gin.Context) {
	userID, orgID, role := principal(c)
	user, err := s.repo.UserRepo.Get(c.Request.Context(), orgID, userID)
	if err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindNotFound, "user not found", err))
		return
	}
	c.JSON(http.StatusOK, MeResponse{UserID: user.ID, OrgID: user.OrgID, Email: user.Email, Role: string(role)})
}

// issueAuthResponse mints a fresh access/refresh pair for user: the access
// token is a signed JWT (security.TokenIssuer), the refresh token is a
// 64-byte random opaque credential whose raw form is returned to the
// caller once and never again — only its digest is persisted, per
// spec.md §4.1/§3.
func (s *Server) issueAuthResponse(c *gin.Context, user domain.User) {
	access, _, err := s.issuer.Issue(user.ID, security.Role(user.Role), user.OrgID)
	if err != nil {
		respondError(c, err)
		return
	}

	refresh, err := security.NewRefreshToken()
	if err != nil {
		respondError(c, err)
		return
	}
	record := security.RefreshTokenRecord{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		OrgID:     user.OrgID,
		TokenHash: refresh.Hash,
		UserAgent: c.GetHeader("User-Agent"),
		IP:        c.ClientIP(),
		ExpiresAt: time.Now().Add(security.MaxRefreshTokenTTL),
	}
	if err := s.repo.RefreshTokenRepo.Create(c.Request.Context(), record); err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindFatal, "failed to persist refresh token", err))
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh.Raw,
		ExpiresIn:    int(security.MaxAccessTokenTTL.Seconds()),
	})
}
