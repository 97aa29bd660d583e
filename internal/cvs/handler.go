package cvs

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"portal-web/internal/backend"
	"portal-web/internal/shared/server/middleware"
	"portal-web/internal/shared/server/respond"
)

// HeaderPageCount reports the page count of a PDF export.
const HeaderPageCount = "X-Page-Count"

// Handler wires HTTP handlers to the saved CV service.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches saved CV routes. The group must be behind session auth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/cvs", h.list)
	rg.DELETE("/cvs/:id", h.delete)
	rg.GET("/cvs/:id/download/:format", h.download)
}

func ownerFrom(c *gin.Context) Owner {
	return Owner{UserID: middleware.UserIDFromContext(c), Token: middleware.TokenFromContext(c)}
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.Svc.List(c.Request.Context(), ownerFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	c.Set("cvId", id)
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	if err := h.Svc.Delete(c.Request.Context(), ownerFrom(c), id, confirmed); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) download(c *gin.Context) {
	id := c.Param("id")
	c.Set("cvId", id)
	export, err := h.Svc.Export(c.Request.Context(), ownerFrom(c), id, c.Param("format"))
	if err != nil {
		writeError(c, err)
		return
	}
	if export.Pages > 0 {
		c.Header(HeaderPageCount, strconv.Itoa(export.Pages))
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": export.FileName}))
	c.Data(http.StatusOK, export.ContentType, export.Data)
}

func writeError(c *gin.Context, err error) {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, ErrConfirmationRequired):
		respond.Error(c, http.StatusConflict, "confirmation_required", "repeat the request with confirm=true to delete this cv", nil)
	case errors.Is(err, ErrUnsupportedFormat):
		respond.Error(c, http.StatusBadRequest, "unsupported_format", "format must be pdf or html", nil)
	case errors.Is(err, ErrCorruptArtifact):
		respond.Error(c, http.StatusBadGateway, "export_corrupt", "the backend returned an unreadable pdf", nil)
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
