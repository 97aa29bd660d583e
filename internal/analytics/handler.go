package analytics

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"portal-web/internal/backend"
	"portal-web/internal/shared/server/middleware"
	"portal-web/internal/shared/server/respond"
	"portal-web/internal/shared/telemetry"
)

// Recorder forwards page views to the backend.
type Recorder interface {
	PageView(ctx context.Context, view backend.PageView) error
}

// Handler accepts page-view beacons from the browser shell.
type Handler struct {
	Recorder Recorder
}

func NewHandler(recorder Recorder) *Handler {
	return &Handler{Recorder: recorder}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analytics/page-view", h.pageView)
}

type pageViewRequest struct {
	Path     string `json:"path"`
	Referrer string `json:"referrer"`
}

// pageView answers 202 even when forwarding fails; the failure is logged.
func (h *Handler) pageView(c *gin.Context) {
	var req pageViewRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Path) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "path is required", nil)
		return
	}
	view := backend.PageView{
		Path:      req.Path,
		Referrer:  req.Referrer,
		SessionID: middleware.SessionIDFromContext(c),
		UserAgent: c.Request.UserAgent(),
	}
	if err := h.Recorder.PageView(c.Request.Context(), view); err != nil {
		telemetry.Warn("analytics.page_view_failed", map[string]any{"path": req.Path, "error": err.Error()})
	}
	respond.Accepted(c, gin.H{"accepted": true})
}
