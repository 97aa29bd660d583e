package profile

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"portal-web/internal/backend"
	"portal-web/internal/content"
	"portal-web/internal/shared/server/middleware"
	"portal-web/internal/shared/server/respond"
)

const maxFormMemory = 8 << 20

// Handler exposes profile reads and edits.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches profile routes. The group must be behind session auth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/users/:id", h.get)
	rg.PUT("/users/:id", h.update)
}

func callerFrom(c *gin.Context) Caller {
	return Caller{
		UserID: middleware.UserIDFromContext(c),
		Role:   middleware.UserRoleFromContext(c),
		Token:  middleware.TokenFromContext(c),
	}
}

// userID resolves "me" to the caller.
func userID(c *gin.Context) string {
	id := c.Param("id")
	if id == "me" {
		return middleware.UserIDFromContext(c)
	}
	return id
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.Svc.Get(c.Request.Context(), callerFrom(c), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, p)
}

func (h *Handler) update(c *gin.Context) {
	var (
		fields backend.Profile
		images []Image
		err    error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		fields, images, err = readMultipart(c)
	} else {
		err = c.ShouldBindJSON(&fields)
	}
	if err != nil {
		if errors.Is(err, ErrImageTooLarge) || errors.Is(err, ErrNotImageField) {
			writeError(c, err)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid profile body", nil)
		return
	}

	p, err := h.Svc.Update(c.Request.Context(), callerFrom(c), userID(c), fields, images)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, p)
}

// readMultipart takes text parts as string fields and file parts as images.
func readMultipart(c *gin.Context) (backend.Profile, []Image, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, int64(len(ImageFields)*MaxImageBytes+(1<<20)))
	if err := c.Request.ParseMultipartForm(maxFormMemory); err != nil {
		return nil, nil, err
	}
	form := c.Request.MultipartForm

	fields := make(backend.Profile, len(form.Value))
	for key, values := range form.Value {
		if len(values) == 0 {
			continue
		}
		encoded, err := json.Marshal(values[0])
		if err != nil {
			return nil, nil, err
		}
		fields[key] = encoded
	}

	var images []Image
	for key, headers := range form.File {
		if len(headers) == 0 {
			continue
		}
		header := headers[0]
		if header.Size > MaxImageBytes {
			return nil, nil, ErrImageTooLarge
		}
		f, err := header.Open()
		if err != nil {
			return nil, nil, err
		}
		data, err := io.ReadAll(io.LimitReader(f, MaxImageBytes+1))
		f.Close()
		if err != nil {
			return nil, nil, err
		}
		images = append(images, Image{Field: key, FileName: header.Filename, Data: data})
	}
	return fields, images, nil
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrProtectedField):
		respond.Error(c, http.StatusForbidden, "forbidden", err.Error(), nil)
	case errors.Is(err, ErrImageTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, "image_too_large", "images must be at most 5 MB", nil)
	case errors.Is(err, ErrNotImageField), errors.Is(err, ErrInvalidImage), errors.Is(err, ErrNoChanges):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, backend.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
	default:
		content.WriteError(c, err)
	}
}
