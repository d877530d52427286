package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// analyticsMetricsHandler handles GET /analytics/metrics: a lightweight
// operational snapshot distinct from the Prometheus scrape endpoint (if
// one is wired at the process level) — just what an org admin's dashboard
// needs without a metrics backend in front of it.
func (s *Server) analyticsMetricsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"active_websocket_connections": s.connManager.ActiveConnections(),
	})
}

// analyticsHealthHandler handles GET /analytics/health: the same liveness
// signal as /health/ready, scoped under /analytics so an authenticated org
// client can poll it without hitting the unauthenticated /health group.
func (s *Server) analyticsHealthHandler(c *gin.Context) {
	s.healthHandler(c)
}
