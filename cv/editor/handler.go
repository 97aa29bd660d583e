package editor

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"portal-web/cv/model"
	"portal-web/cv/render"
	"portal-web/internal/backend"
	"portal-web/internal/shared/server/middleware"
	"portal-web/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the editor service.
type Handler struct {
	Svc      *Service
	upgrader websocket.Upgrader
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc, upgrader: newUpgrader()}
}

// RegisterRoutes attaches the CV builder routes. The group must be behind session auth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/cv-templates", h.templates)

	b := rg.Group("/cv-builder")
	b.POST("/drafts", h.start)
	b.GET("/drafts/:id", h.get)
	b.DELETE("/drafts/:id", h.discard)
	b.PUT("/drafts/:id/template", h.selectTemplate)
	b.PATCH("/drafts/:id/fields", h.updateField)
	b.POST("/drafts/:id/entries", h.addEntry)
	b.DELETE("/drafts/:id/entries", h.removeEntry)
	b.PUT("/drafts/:id/theme", h.setTheme)
	b.POST("/drafts/:id/photo", h.uploadPhoto)
	b.GET("/drafts/:id/preview", h.preview)
	b.POST("/drafts/:id/submit", h.submit)
	b.GET("/drafts/:id/live", h.live)
}

type draftResponse struct {
	ID           string           `json:"id"`
	Step         Step             `json:"step"`
	Editing      bool             `json:"editing"`
	Document     model.Document   `json:"document"`
	Templates    []model.Template `json:"templates"`
	PhotoPending bool             `json:"photoPending"`
	Submitting   bool             `json:"submitting"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

func toResponse(d *Draft) draftResponse {
	return draftResponse{
		ID:           d.ID,
		Step:         d.Step,
		Editing:      d.IsEditing(),
		Document:     d.Document,
		Templates:    d.Templates,
		PhotoPending: d.PendingPhoto != nil,
		Submitting:   d.Submitting,
		UpdatedAt:    d.UpdatedAt,
	}
}

func ownerFrom(c *gin.Context) Owner {
	return Owner{
		UserID: middleware.UserIDFromContext(c),
		Token:  middleware.TokenFromContext(c),
	}
}

func draftID(c *gin.Context) string {
	id := c.Param("id")
	c.Set("draftId", id)
	return id
}

func (h *Handler) templates(c *gin.Context) {
	templates, err := h.Svc.ActiveTemplates(c.Request.Context(), ownerFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, templates)
}

type startRequest struct {
	CVID string `json:"cvId"`
}

func (h *Handler) start(c *gin.Context) {
	var req startRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}
	if req.CVID != "" {
		c.Set("cvId", req.CVID)
	}
	d, err := h.Svc.Start(c.Request.Context(), ownerFrom(c), req.CVID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set("draftId", d.ID)
	respond.JSON(c, http.StatusCreated, toResponse(d))
}

func (h *Handler) get(c *gin.Context) {
	d, err := h.Svc.Get(c.Request.Context(), ownerFrom(c), draftID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toResponse(d))
}

func (h *Handler) discard(c *gin.Context) {
	if err := h.Svc.Discard(c.Request.Context(), ownerFrom(c), draftID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type selectTemplateRequest struct {
	TemplateID string `json:"templateId" binding:"required"`
}

func (h *Handler) selectTemplate(c *gin.Context) {
	var req selectTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "templateId is required", nil)
		return
	}
	d, err := h.Svc.SelectTemplate(c.Request.Context(), ownerFrom(c), draftID(c), req.TemplateID)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toResponse(d))
}

type updateFieldRequest struct {
	Path  string  `json:"path"`
	Value *string `json:"value"`
}

func (h *Handler) updateField(c *gin.Context) {
	var req updateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Path == "" || req.Value == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "path and value are required", nil)
		return
	}
	d, err := h.Svc.UpdateField(c.Request.Context(), ownerFrom(c), draftID(c), req.Path, *req.Value)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toResponse(d))
}

type addEntryRequest struct {
	Section string `json:"section" binding:"required"`
}

func (h *Handler) addEntry(c *gin.Context) {
	var req addEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "section is required", nil)
		return
	}
	d, index, err := h.Svc.AddEntry(c.Request.Context(), ownerFrom(c), draftID(c), req.Section)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, gin.H{"index": index, "draft": toResponse(d)})
}

func (h *Handler) removeEntry(c *gin.Context) {
	section := c.Query("section")
	index, err := strconv.Atoi(c.Query("index"))
	if section == "" || err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "section and numeric index are required", nil)
		return
	}
	d, err := h.Svc.RemoveEntry(c.Request.Context(), ownerFrom(c), draftID(c), section, index)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toResponse(d))
}

type themeRequest struct {
	Color string `json:"color" binding:"required"`
}

func (h *Handler) setTheme(c *gin.Context) {
	var req themeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "color is required", nil)
		return
	}
	d, err := h.Svc.SetThemeColor(c.Request.Context(), ownerFrom(c), draftID(c), req.Color)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toResponse(d))
}

func (h *Handler) uploadPhoto(c *gin.Context) {
	id := draftID(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxPhotoBytes+(1<<20))

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	if fileHeader.Size > MaxPhotoBytes {
		writeError(c, ErrPhotoTooLarge)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxPhotoBytes+1))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	d, err := h.Svc.UploadProfilePhoto(c.Request.Context(), ownerFrom(c), id, fileHeader.Filename, data)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toResponse(d))
}

func (h *Handler) preview(c *gin.Context) {
	id := draftID(c)
	c.Header(render.HeaderPreviewKind, render.PreviewKindApproximate)

	if c.Query("format") == "json" {
		p, err := h.Svc.Preview(c.Request.Context(), ownerFrom(c), id)
		if err != nil {
			writeError(c, err)
			return
		}
		respond.OK(c, p)
		return
	}

	html, err := h.Svc.PreviewHTML(c.Request.Context(), ownerFrom(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (h *Handler) submit(c *gin.Context) {
	res, err := h.Svc.Submit(c.Request.Context(), ownerFrom(c), draftID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set("cvId", res.CV.ID)
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	respond.JSON(c, status, res)
}

// writeError maps editor and backend failures onto the error envelope.
func writeError(c *gin.Context, err error) {
	var verr *model.ValidationError
	var apiErr *backend.APIError
	switch {
	case errors.As(err, &verr):
		respond.Error(c, http.StatusUnprocessableEntity, "validation_failed", verr.Error(), verr.Fields)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "draft not found", nil)
	case errors.Is(err, ErrInvalidPath):
		respond.Error(c, http.StatusBadRequest, "invalid_path", err.Error(), nil)
	case errors.Is(err, ErrTemplateNotActive):
		respond.Error(c, http.StatusUnprocessableEntity, "template_not_active", err.Error(), nil)
	case errors.Is(err, ErrInvalidColor):
		respond.Error(c, http.StatusBadRequest, "invalid_color", err.Error(), nil)
	case errors.Is(err, ErrInvalidPhoto):
		respond.Error(c, http.StatusUnsupportedMediaType, "invalid_photo", err.Error(), nil)
	case errors.Is(err, ErrPhotoTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, "photo_too_large", "profile photo must be 5 MB or smaller", nil)
	case errors.Is(err, ErrSubmitInFlight):
		respond.Error(c, http.StatusConflict, "submit_in_flight", err.Error(), nil)
	case errors.Is(err, backend.ErrUnauthorized):
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "backend session expired", nil)
	case errors.Is(err, backend.ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "not allowed", nil)
	case errors.Is(err, backend.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "cv not found", nil)
	case errors.As(err, &apiErr) && errors.Is(err, backend.ErrRejected):
		respond.Error(c, http.StatusUnprocessableEntity, "backend_rejected", apiErr.Message, nil)
	default:
		respond.Error(c, http.StatusBadGateway, "backend_error", err.Error(), nil)
	}
}
