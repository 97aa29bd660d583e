package editor

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"portal-web/cv/model"
	"portal-web/cv/render"
	"portal-web/internal/shared/telemetry"
)

// Live message operations.
const (
	OpUpdate   = "update"
	OpAdd      = "add"
	OpRemove   = "remove"
	OpTheme    = "theme"
	OpTemplate = "template"
	OpRefresh  = "refresh"
)

// LiveMessage is one editor mutation sent over the live preview socket.
type LiveMessage struct {
	Op      string `json:"op"`
	Path    string `json:"path,omitempty"`
	Value   string `json:"value,omitempty"`
	Section string `json:"section,omitempty"`
	Index   int    `json:"index,omitempty"`
	Color   string `json:"color,omitempty"`
	// TemplateID is used by OpTemplate.
	TemplateID string `json:"templateId,omitempty"`
}

// LiveReply answers every message with the freshly rendered preview.
type LiveReply struct {
	Kind     string          `json:"kind"`
	Document *model.Document `json:"document,omitempty"`
	Preview  *render.Preview `json:"preview,omitempty"`
	HTML     string          `json:"html,omitempty"`
	Error    *LiveError      `json:"error,omitempty"`
}

type LiveError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newUpgrader() websocket.Upgrader {
	return websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 16384}
}

// AllowOrigins lets the browser shell open live sockets from the given origins. Without
// it only same-origin sockets are accepted. Call before serving.
func (h *Handler) AllowOrigins(origins []string) {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	h.upgrader.CheckOrigin = func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

func (h *Handler) live(c *gin.Context) {
	owner := ownerFrom(c)
	id := draftID(c)
	ctx := c.Request.Context()

	if _, err := h.Svc.Get(ctx, owner, id); err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		telemetry.Warn("live.upgrade_failed", map[string]any{"draft_id": id, "error": err.Error()})
		return
	}
	defer conn.Close()
	conn.SetReadLimit(1 << 20)

	if err := conn.WriteJSON(h.liveState(c, owner, id)); err != nil {
		return
	}
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				telemetry.Warn("live.read_failed", map[string]any{"draft_id": id, "error": err.Error()})
			}
			return
		}
		var msg LiveMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			if conn.WriteJSON(LiveReply{Kind: "error", Error: &LiveError{Code: "invalid_message", Message: err.Error()}}) != nil {
				return
			}
			continue
		}
		reply := h.applyLive(c, owner, id, msg)
		if err := conn.WriteJSON(reply); err != nil {
			return
		}
		if reply.Error != nil && reply.Error.Code == "not_found" {
			return
		}
	}
}

func (h *Handler) applyLive(c *gin.Context, owner Owner, id string, msg LiveMessage) LiveReply {
	ctx := c.Request.Context()
	var err error
	switch msg.Op {
	case OpUpdate:
		_, err = h.Svc.UpdateField(ctx, owner, id, msg.Path, msg.Value)
	case OpAdd:
		_, _, err = h.Svc.AddEntry(ctx, owner, id, msg.Section)
	case OpRemove:
		_, err = h.Svc.RemoveEntry(ctx, owner, id, msg.Section, msg.Index)
	case OpTheme:
		_, err = h.Svc.SetThemeColor(ctx, owner, id, msg.Color)
	case OpTemplate:
		_, err = h.Svc.SelectTemplate(ctx, owner, id, msg.TemplateID)
	case OpRefresh:
	default:
		return LiveReply{Kind: "error", Error: &LiveError{Code: "unknown_op", Message: "unknown op " + msg.Op}}
	}
	if err != nil {
		return LiveReply{Kind: "error", Error: liveError(err)}
	}
	return h.liveState(c, owner, id)
}

func (h *Handler) liveState(c *gin.Context, owner Owner, id string) LiveReply {
	d, err := h.Svc.Get(c.Request.Context(), owner, id)
	if err != nil {
		return LiveReply{Kind: "error", Error: liveError(err)}
	}
	p := h.Svc.Renderer.Build(d.Document)
	html, err := h.Svc.Renderer.RenderPreview(p)
	if err != nil {
		return LiveReply{Kind: "error", Error: liveError(err)}
	}
	return LiveReply{Kind: render.PreviewKindApproximate, Document: &d.Document, Preview: &p, HTML: html}
}

func liveError(err error) *LiveError {
	switch {
	case errors.Is(err, ErrNotFound):
		return &LiveError{Code: "not_found", Message: err.Error()}
	case errors.Is(err, ErrInvalidPath):
		return &LiveError{Code: "invalid_path", Message: err.Error()}
	case errors.Is(err, ErrInvalidColor):
		return &LiveError{Code: "invalid_color", Message: err.Error()}
	case errors.Is(err, ErrTemplateNotActive):
		return &LiveError{Code: "template_not_active", Message: err.Error()}
	default:
		return &LiveError{Code: "internal", Message: err.Error()}
	}
}
