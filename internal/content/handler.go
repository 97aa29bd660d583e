package content

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"portal-web/cv/model"
	"portal-web/internal/backend"
	"portal-web/internal/shared/server/middleware"
	"portal-web/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the content service.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the public read endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/content/:collection", h.listPublic)
	rg.GET("/about-page", h.aboutPage)
}

// RegisterAdminRoutes attaches back-office endpoints. The group must require an admin role.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/content/:collection", h.listAll)
	rg.POST("/content/:collection", h.createRecord)
	rg.PUT("/content/:collection/:id", h.updateRecord)
	rg.DELETE("/content/:collection/:id", h.deleteRecord)
	rg.PUT("/content/:collection/:id/active", h.setActive)

	rg.GET("/about-page", h.adminAboutPage)
	rg.PUT("/about-page", h.updateAboutPage)

	rg.GET("/cv-templates", h.listTemplates)
	rg.POST("/cv-templates", h.createTemplate)
	rg.PUT("/cv-templates/:id", h.updateTemplate)
	rg.DELETE("/cv-templates/:id", h.deleteTemplate)
}

func (h *Handler) listPublic(c *gin.Context) {
	records, err := h.Svc.ListPublic(c.Request.Context(), c.Param("collection"))
	if err != nil {
		WriteError(c, err)
		return
	}
	respond.OK(c, gin.H{"items": records})
}

func (h *Handler) listAll(c *gin.Context) {
	records, err := h.Svc.ListAll(c.Request.Context(), middleware.TokenFromContext(c), c.Param("collection"))
	if err != nil {
		WriteError(c, err)
		return
	}
	respond.OK(c, gin.H{"items": records})
}

type setActiveRequest struct {
	IsActive *bool `json:"isActive"`
}

func (h *Handler) setActive(c *gin.Context) {
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "isActive is required", nil)
		return
	}
	collection, id := c.Param("collection"), c.Param("id")
	if err := h.Svc.SetActive(c.Request.Context(), middleware.TokenFromContext(c), collection, id, *req.IsActive); err != nil {
		WriteError(c, err)
		return
	}
	respond.OK(c, gin.H{"id": id, "isActive": *req.IsActive})
}

func bindAttributes(c *gin.Context) (map[string]json.RawMessage, bool) {
	var attrs map[string]json.RawMessage
	if err := c.ShouldBindJSON(&attrs); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "body must be a json object", nil)
		return nil, false
	}
	return attrs, true
}

func (h *Handler) createRecord(c *gin.Context) {
	attrs, ok := bindAttributes(c)
	if !ok {
		return
	}
	rec, err := h.Svc.CreateRecord(c.Request.Context(), middleware.TokenFromContext(c), c.Param("collection"), attrs)
	if err != nil {
		WriteError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, rec)
}

func (h *Handler) updateRecord(c *gin.Context) {
	attrs, ok := bindAttributes(c)
	if !ok {
		return
	}
	rec, err := h.Svc.UpdateRecord(c.Request.Context(), middleware.TokenFromContext(c), c.Param("collection"), c.Param("id"), attrs)
	if err != nil {
		WriteError(c, err)
		return
	}
	respond.OK(c, rec)
}

func (h *Handler) deleteRecord(c *gin.Context) {
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	if err := h.Svc.DeleteRecord(c.Request.Context(), middleware.TokenFromContext(c), c.Param("collection"), c.Param("id"), confirmed); err != nil {
		WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) aboutPage(c *gin.Context) {
	page, err := h.Svc.AboutPage(c.Request.Context())
	if err != nil {
		WriteError(c, err)
		return
	}
	respond.OK(c, page)
}

func (h *Handler) adminAboutPage(c *gin.Context) {
	page, err := h.Svc.AdminAboutPage(c.Request.Context(), middleware.TokenFromContext(c))
	if err != nil {
		WriteError(c, err)
		return
	}
	respond.OK(c, page)
}

func (h *Handler) updateAboutPage(c *gin.Context) {
	var page json.RawMessage
	if err := c.ShouldBindJSON(&page); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "body must be a json object", nil)
		return
	}
	saved, err := h.Svc.UpdateAboutPage(c.Request.Context(), middleware.TokenFromContext(c), page)
	if err != nil {
		WriteError(c, err)
		return
	}
	respond.OK(c, saved)
}

type templateRequest struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	PreviewImage *string `json:"previewImage"`
	IsActive     *bool   `json:"isActive"`
}

func (r templateRequest) input() backend.TemplateInput {
	return backend.TemplateInput{
		Name:         r.Name,
		Description:  r.Description,
		PreviewImage: r.PreviewImage,
		IsActive:     r.IsActive,
	}
}

func bindTemplate(c *gin.Context) (templateRequest, bool) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid template body", nil)
		return req, false
	}
	return req, true
}

func (h *Handler) listTemplates(c *gin.Context) {
	templates, err := h.Svc.Templates(c.Request.Context(), middleware.TokenFromContext(c))
	if err != nil {
		WriteError(c, err)
		return
	}
	if templates == nil {
		templates = []model.Template{}
	}
	respond.OK(c, gin.H{"items": templates})
}

func (h *Handler) createTemplate(c *gin.Context) {
	req, ok := bindTemplate(c)
	if !ok {
		return
	}
	tpl, err := h.Svc.CreateTemplate(c.Request.Context(), middleware.TokenFromContext(c), req.input())
	if err != nil {
		WriteError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, tpl)
}

func (h *Handler) updateTemplate(c *gin.Context) {
	req, ok := bindTemplate(c)
	if !ok {
		return
	}
	tpl, err := h.Svc.UpdateTemplate(c.Request.Context(), middleware.TokenFromContext(c), c.Param("id"), req.input())
	if err != nil {
		WriteError(c, err)
		return
	}
	respond.OK(c, tpl)
}

func (h *Handler) deleteTemplate(c *gin.Context) {
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	if err := h.Svc.DeleteTemplate(c.Request.Context(), middleware.TokenFromContext(c), c.Param("id"), confirmed); err != nil {
		WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// WriteError maps content and backend failures onto the error envelope.
func WriteError(c *gin.Context, err error) {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, ErrUnknownCollection):
		respond.Error(c, http.StatusNotFound, "unknown_collection", err.Error(), nil)
	case errors.Is(err, ErrEmptyRecord), errors.Is(err, ErrInvalidAboutPage), errors.Is(err, ErrInvalidTemplate):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrConfirmationRequired):
		respond.Error(c, http.StatusConflict, "confirmation_required", "repeat the request with confirm=true to delete", nil)
	case errors.Is(err, backend.ErrUnauthorized):
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "backend session expired", nil)
	case errors.Is(err, backend.ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "not allowed", nil)
	case errors.Is(err, backend.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "record not found", nil)
	case errors.As(err, &apiErr) && errors.Is(err, backend.ErrRejected):
		respond.Error(c, http.StatusUnprocessableEntity, "backend_rejected", apiErr.Message, nil)
	default:
		respond.Error(c, http.StatusBadGateway, "backend_error", err.Error(), nil)
	}
}
