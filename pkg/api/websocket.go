package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/NeoOne601/ventro/pkg/events"
)

// upgrader adapts one HTTP connection to a WebSocket, checking the request
// Origin against the configured allow-list, per spec.md §6's
// allowed_ws_origins; an empty allow-list permits any origin (local dev).
func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if len(s.cfg.Server.AllowedWSOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range s.cfg.Server.AllowedWSOrigins {
				if allowed == origin {
					return true
				}
			}
			return false
		},
	}
}

// wsReconciliationHandler serves GET /ws/reconciliation/{session_id},
// streaming pipeline checkpoint events for one session, per spec.md §4.14.
func (s *Server) wsReconciliationHandler(c *gin.Context) {
	s.serveChannel(c, events.PipelineChannel(c.Param("session_id")))
}

// wsBatchHandler serves GET /ws/batch/{batch_id}, streaming batch-upload
// progress events.
func (s *Server) wsBatchHandler(c *gin.Context) {
	s.serveChannel(c, events.BatchChannel(c.Param("batch_id")))
}

func (s *Server) serveChannel(c *gin.Context, channel string) {
	up := s.upgrader()
	conn, err := up.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err, "channel", channel)
		return
	}
	slog.Info("websocket connected", "channel", channel)
	s.connManager.HandleConnection(c.Request.Context(), conn)
}
