package membership

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"portal-web/internal/backend"
	"portal-web/internal/content"
	"portal-web/internal/shared/server/middleware"
	"portal-web/internal/shared/server/respond"
)

// Gateway is the membership slice of the backend API.
type Gateway interface {
	MyMembership(ctx context.Context) (json.RawMessage, error)
	CheckMembership(ctx context.Context, req json.RawMessage) (json.RawMessage, error)
}

type GatewayFactory func(token string) Gateway

// Handler passes membership reads and eligibility checks through to the backend.
type Handler struct {
	Gateways GatewayFactory
}

func NewHandler(gateways GatewayFactory) *Handler {
	return &Handler{Gateways: gateways}
}

// RegisterRoutes attaches membership routes. The group must be behind session auth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/memberships/me", h.me)
	rg.POST("/memberships/check", h.check)
}

func (h *Handler) me(c *gin.Context) {
	out, err := h.Gateways(middleware.TokenFromContext(c)).MyMembership(c.Request.Context())
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "no membership on file", nil)
			return
		}
		content.WriteError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", out)
}

func (h *Handler) check(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil || !json.Valid(raw) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "request body must be JSON", nil)
		return
	}
	out, err := h.Gateways(middleware.TokenFromContext(c)).CheckMembership(c.Request.Context(), raw)
	if err != nil {
		content.WriteError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", out)
}
