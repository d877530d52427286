// Package api implements Ventro's HTTP surface (spec.md §6): authentication,
// document upload, reconciliation session control, SAMR feedback, admin
// management, analytics, health, and the WebSocket progress relay — all
// routed through gin, per the module's routing choice over the teacher's echo.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NeoOne601/ventro/pkg/config"
	"github.com/NeoOne601/ventro/pkg/database"
	"github.com/NeoOne601/ventro/pkg/events"
	"github.com/NeoOne601/ventro/pkg/jobs"
	"github.com/NeoOne601/ventro/pkg/metrics"
	"github.com/NeoOne601/ventro/pkg/ratelimit"
	"github.com/NeoOne601/ventro/pkg/repo"
	"github.com/NeoOne601/ventro/pkg/retrieval"
	"github.com/NeoOne601/ventro/pkg/samr"
	"github.com/NeoOne601/ventro/pkg/security"
	"github.com/NeoOne601/ventro/pkg/webhooks"
)

// Server is Ventro's HTTP API server.
type Server struct {
	engine      *gin.Engine
	httpServer  *http.Server
	cfg         *config.Config
	db          *database.Client
	repo        *repo.Repo
	issuer      *security.TokenIssuer
	denylist    security.TokenDenylist
	limiter     *ratelimit.SlidingWindowLimiter
	jobStore    jobs.Store
	connManager *events.ConnectionManager

	auditChain       *security.Chain           // nil until SetAuditChain
	webhookDispatch  *webhooks.Dispatcher      // nil until SetWebhookDispatcher
	thresholds       *samr.AdaptiveThresholdService // nil until SetThresholdService
	workpaperSignKey []byte                    // nil until SetWorkpaperSignKey
	vectorStore      retrieval.IVectorStore    // nil until SetRetrieval
	embedder         retrieval.IEmbedder       // nil until SetRetrieval
}

// NewServer constructs the API server and registers every route. Services
// that are only available once the rest of the composition root has
// finished wiring (the audit chain, the webhook dispatcher, the SAMR
// threshold service, the workpaper signing key) are attached afterward via
// the Set* methods and checked by ValidateWiring.
func NewServer(
	cfg *config.Config,
	db *database.Client,
	repository *repo.Repo,
	issuer *security.TokenIssuer,
	denylist security.TokenDenylist,
	limiter *ratelimit.SlidingWindowLimiter,
	jobStore jobs.Store,
	connManager *events.ConnectionManager,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:      engine,
		cfg:         cfg,
		db:          db,
		repo:        repository,
		issuer:      issuer,
		denylist:    denylist,
		limiter:     limiter,
		jobStore:    jobStore,
		connManager: connManager,
	}

	s.setupRoutes()
	return s
}

// SetAuditChain wires the tamper-evident audit chain used by admin endpoints
// that must record who changed what.
func (s *Server) SetAuditChain(chain *security.Chain) { s.auditChain = chain }

// SetWebhookDispatcher wires outbound webhook delivery, fired on session
// completion/failure and admin user-management events.
func (s *Server) SetWebhookDispatcher(d *webhooks.Dispatcher) { s.webhookDispatch = d }

// SetThresholdService wires C9's per-org adaptive SAMR threshold.
func (s *Server) SetThresholdService(svc *samr.AdaptiveThresholdService) { s.thresholds = svc }

// SetWorkpaperSignKey wires the HMAC key workpaper signing uses.
func (s *Server) SetWorkpaperSignKey(key []byte) { s.workpaperSignKey = key }

// SetRetrieval wires the vector store and embedder the document-upload
// handlers use to index a file's text before its extraction job runs.
func (s *Server) SetRetrieval(store retrieval.IVectorStore, embedder retrieval.IEmbedder) {
	s.vectorStore = store
	s.embedder = embedder
}

// ValidateWiring reports every Set* call still missing, so a wiring gap is
// caught at startup rather than surfacing as a nil-pointer panic mid-request.
func (s *Server) ValidateWiring() error {
	var errs []error
	if s.auditChain == nil {
		errs = append(errs, fmt.Errorf("auditChain not set (call SetAuditChain)"))
	}
	if s.webhookDispatch == nil {
		errs = append(errs, fmt.Errorf("webhookDispatch not set (call SetWebhookDispatcher)"))
	}
	if s.thresholds == nil {
		errs = append(errs, fmt.Errorf("thresholds not set (call SetThresholdService)"))
	}
	if len(s.workpaperSignKey) == 0 {
		errs = append(errs, fmt.Errorf("workpaperSignKey not set (call SetWorkpaperSignKey)"))
	}
	if s.vectorStore == nil || s.embedder == nil {
		errs = append(errs, fmt.Errorf("retrieval not set (call SetRetrieval)"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("api server wiring incomplete: %w", errors.Join(errs...))
	}
	return nil
}

// setupRoutes registers every route in spec.md §6's endpoint table.
func (s *Server) setupRoutes() {
	s.engine.Use(securityHeaders())
	s.engine.MaxMultipartMemory = int64(s.uploadMaxBytes())

	s.engine.GET("/health", s.healthHandler)
	s.engine.GET("/health/live", s.livenessHandler)
	s.engine.GET("/health/ready", s.readinessHandler)
	s.engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	auth := s.engine.Group("/auth")
	auth.Use(s.rateLimitMiddleware(ratelimit.TierAuth))
	{
		auth.POST("/register", s.registerHandler)
		auth.POST("/login", s.loginHandler)
		auth.POST("/refresh", s.refreshHandler)
		auth.POST("/logout", s.authMiddleware(), s.logoutHandler)
		auth.GET("/me", s.authMiddleware(), s.meHandler)
	}

	api := s.engine.Group("/")
	api.Use(s.authMiddleware(), s.rateLimitMiddleware(ratelimit.TierAPI))
	{
		docs := api.Group("/documents")
		docs.Use(s.rateLimitMiddleware(ratelimit.TierUpload))
		docs.POST("/upload", requirePermission(security.PermDocumentUpload), s.uploadDocumentHandler)
		docs.POST("/bulk", requirePermission(security.PermDocumentUpload), s.bulkUploadHandler)
		docs.GET("/:id", requirePermission(security.PermDocumentRead), s.getDocumentHandler)
		docs.GET("/:id/parsed", requirePermission(security.PermDocumentRead), s.getParsedDocumentHandler)
		docs.GET("/:id/history", requirePermission(security.PermDocumentRead), s.documentHistoryHandler)
		docs.GET("/:id/diff/:v1/:v2", requirePermission(security.PermDocumentRead), s.documentDiffHandler)

		recon := api.Group("/reconciliation/sessions")
		recon.POST("", requirePermission(security.PermSessionCreate), s.createSessionHandler)
		recon.GET("", requirePermission(security.PermSessionRead), s.listSessionsHandler)
		recon.POST("/:id/run", requirePermission(security.PermSessionCreate), s.runSessionHandler)
		recon.GET("/:id/status", requirePermission(security.PermSessionRead), s.sessionStatusHandler)
		recon.GET("/:id/result", requirePermission(security.PermSessionRead), s.sessionResultHandler)
		recon.GET("/:id/workpaper", requirePermission(security.PermWorkpaperRead), s.workpaperHandler)
		recon.GET("/:id/workpaper/pdf", requirePermission(security.PermWorkpaperExport), s.workpaperPDFHandler)

		samrGroup := api.Group("/samr")
		samrGroup.POST("/feedback", requirePermission(security.PermFindingOverride), s.submitFeedbackHandler)
		samrGroup.GET("/threshold", requirePermission(security.PermAnalyticsRead), s.samrThresholdHandler)
		samrGroup.GET("/analytics", requirePermission(security.PermAnalyticsRead), s.samrAnalyticsHandler)

		analytics := api.Group("/analytics")
		analytics.GET("/metrics", requirePermission(security.PermAnalyticsRead), s.analyticsMetricsHandler)
		analytics.GET("/health", requirePermission(security.PermAnalyticsRead), s.analyticsHealthHandler)

		admin := api.Group("/admin")
		admin.GET("/users", requirePermission(security.PermUserManage), s.listUsersHandler)
		admin.PATCH("/users/:id/role", requirePermission(security.PermUserManage), s.updateUserRoleHandler)
		admin.DELETE("/users/:id", requirePermission(security.PermUserManage), s.deactivateUserHandler)
		admin.GET("/webhooks", requirePermission(security.PermUserManage), s.listWebhooksHandler)
		admin.POST("/webhooks", requirePermission(security.PermUserManage), s.createWebhookHandler)
		admin.DELETE("/webhooks/:id", requirePermission(security.PermUserManage), s.deleteWebhookHandler)
		admin.GET("/compliance/evidence-pack", requirePermission(security.PermAuditLogRead), s.evidencePackHandler)
		admin.GET("/orgs", requirePermission(security.PermCrossOrgAccess), s.listOrgsHandler)
		admin.POST("/orgs", requirePermission(security.PermCrossOrgAccess), s.createOrgHandler)

		ws := api.Group("/ws")
		ws.GET("/reconciliation/:session_id", s.wsReconciliationHandler)
		ws.GET("/batch/:batch_id", s.wsBatchHandler)
	}
}

func (s *Server) uploadMaxBytes() int {
	if s.cfg.Upload == nil || s.cfg.Upload.MaxSizeMB <= 0 {
		return 32 << 20
	}
	return s.cfg.Upload.MaxSizeMB << 20
}

// Start starts the HTTP server on addr (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.engine}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener, used
// by test infrastructure to serve on a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.engine}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// healthHandler handles GET /health.
func (s *Server) healthHandler(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	dbStatus := "ok"
	if err := s.db.DB().PingContext(reqCtx); err != nil {
		status = "unhealthy"
		dbStatus = err.Error()
		c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: status, Database: dbStatus})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{Status: status, Database: dbStatus})
}

// livenessHandler handles GET /health/live: always 200 once the process is
// up, independent of downstream dependencies.
func (s *Server) livenessHandler(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "alive"})
}

// readinessHandler handles GET /health/ready: 200 only once the database is
// reachable, for a load balancer or k8s readiness probe.
func (s *Server) readinessHandler(c *gin.Context) {
	s.healthHandler(c)
}
