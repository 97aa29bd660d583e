package ordering

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"portal-web/internal/content"
	"portal-web/internal/shared/server/middleware"
	"portal-web/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the reorder service.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the reorder endpoints. The group must require an admin role.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	o := rg.Group("/ordering/:collection")
	o.POST("", h.begin)
	o.GET("", h.pending)
	o.PATCH("", h.move)
	o.POST("/commit", h.commit)
	o.DELETE("", h.discard)
}

func adminFrom(c *gin.Context) Admin {
	return Admin{UserID: middleware.UserIDFromContext(c), Token: middleware.TokenFromContext(c)}
}

func (h *Handler) begin(c *gin.Context) {
	p, err := h.Svc.Begin(c.Request.Context(), adminFrom(c), c.Param("collection"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, p)
}

func (h *Handler) pending(c *gin.Context) {
	p, err := h.Svc.Pending(adminFrom(c), c.Param("collection"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, p)
}

type moveRequest struct {
	From *int `json:"from"`
	To   *int `json:"to"`
}

func (h *Handler) move(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.From == nil || req.To == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "from and to are required", nil)
		return
	}
	p, err := h.Svc.Move(adminFrom(c), c.Param("collection"), *req.From, *req.To)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, p)
}

func (h *Handler) commit(c *gin.Context) {
	p, err := h.Svc.Commit(c.Request.Context(), adminFrom(c), c.Param("collection"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"saved": true, "order": p.Order})
}

func (h *Handler) discard(c *gin.Context) {
	h.Svc.Discard(adminFrom(c), c.Param("collection"))
	c.Status(http.StatusNoContent)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotReorderable):
		respond.Error(c, http.StatusNotFound, "not_reorderable", err.Error(), nil)
	case errors.Is(err, ErrNoPending):
		respond.Error(c, http.StatusConflict, "no_pending_order", "begin a reorder first", nil)
	case errors.Is(err, ErrInvalidMove):
		respond.Error(c, http.StatusBadRequest, "invalid_move", err.Error(), nil)
	default:
		content.WriteError(c, err)
	}
}
