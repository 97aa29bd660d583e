package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"portal-web/internal/backend"
	"portal-web/internal/shared/server/middleware"
	"portal-web/internal/shared/server/respond"
)

// DefaultCookieName is the cookie that carries the portal session id.
const DefaultCookieName = "portal_session"

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// Handler wires HTTP handlers to the session service.
type Handler struct {
	Svc    *Service
	Cookie CookieConfig
}

func NewHandler(svc *Service, cookie CookieConfig) *Handler {
	if cookie.Name == "" {
		cookie.Name = DefaultCookieName
	}
	return &Handler{Svc: svc, Cookie: cookie}
}

// RegisterRoutes attaches the public credential endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/login", h.login)
	rg.POST("/auth/register", h.register)
	rg.POST("/auth/forgot-password", h.forgotPassword)
	rg.POST("/auth/reset-password", h.resetPassword)
}

// RegisterAuthedRoutes attaches endpoints that need a resolved session.
func (h *Handler) RegisterAuthedRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/logout", h.logout)
	rg.GET("/me", h.me)
}

type sessionResponse struct {
	SessionID string       `json:"sessionId"`
	User      backend.User `json:"user"`
	IsAdmin   bool         `json:"isAdmin"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

func toResponse(s Session) sessionResponse {
	return sessionResponse{
		SessionID: s.ID,
		User:      s.User,
		IsAdmin:   s.User.IsAdmin(),
		ExpiresAt: s.ExpiresAt,
	}
}

func (h *Handler) login(c *gin.Context) {
	var in LoginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	sess, err := h.Svc.Login(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	h.setCookie(c, sess)
	c.Set("userId", sess.User.ID.String())
	respond.OK(c, toResponse(sess))
}

func (h *Handler) register(c *gin.Context) {
	var in RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	sess, err := h.Svc.Register(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	if sess == nil {
		respond.JSON(c, http.StatusCreated, gin.H{"registered": true})
		return
	}
	h.setCookie(c, *sess)
	respond.JSON(c, http.StatusCreated, toResponse(*sess))
}

type forgotRequest struct {
	Email string `json:"email"`
}

func (h *Handler) forgotPassword(c *gin.Context) {
	var req forgotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if err := h.Svc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		writeError(c, err)
		return
	}
	respond.Accepted(c, gin.H{"sent": true})
}

func (h *Handler) resetPassword(c *gin.Context) {
	var in ResetInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if err := h.Svc.ResetPassword(c.Request.Context(), in); err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"reset": true})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.Svc.Logout(c.Request.Context(), middleware.SessionIDFromContext(c)); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "unable to end session", nil)
		return
	}
	h.clearCookie(c)
	c.Status(http.StatusNoContent)
}

func (h *Handler) me(c *gin.Context) {
	sess, err := h.Svc.Hydrate(c.Request.Context(), middleware.SessionIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toResponse(sess))
}

func (h *Handler) setCookie(c *gin.Context, s Session) {
	maxAge := int(time.Until(s.ExpiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.Cookie.Name, s.ID, maxAge, "/", "", h.Cookie.Secure, true)
}

func (h *Handler) clearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.Cookie.Name, "", -1, "/", "", h.Cookie.Secure, true)
}

func writeError(c *gin.Context, err error) {
	var inputErr *InputError
	var apiErr *backend.APIError
	switch {
	case errors.As(err, &inputErr):
		respond.Error(c, http.StatusBadRequest, "validation_error", inputErr.Error(), inputErr.Fields)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrExpired):
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "session expired or invalid", nil)
	case errors.Is(err, backend.ErrUnauthorized):
		respond.Error(c, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect", nil)
	case errors.Is(err, backend.ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "account is not allowed to sign in", nil)
	case errors.As(err, &apiErr) && errors.Is(err, backend.ErrRejected):
		respond.Error(c, http.StatusUnprocessableEntity, "backend_rejected", apiErr.Message, nil)
	default:
		respond.Error(c, http.StatusBadGateway, "backend_error", err.Error(), nil)
	}
}
