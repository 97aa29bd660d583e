package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"portal-web/cv/model"
	"portal-web/internal/shared/telemetry"
)

// cvPayload is the backend's storage schema for a CV.
type cvPayload struct {
	Title      string        `json:"title"`
	TemplateID string        `json:"template_id"`
	CVData     model.Content `json:"cv_data"`
}

type cvRecord struct {
	ID         ID              `json:"id"`
	UserID     ID              `json:"user_id"`
	TemplateID ID              `json:"template_id"`
	Title      string          `json:"title"`
	CVData     json.RawMessage `json:"cv_data"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func payloadFor(doc model.Document) cvPayload {
	return cvPayload{Title: doc.Title, TemplateID: doc.TemplateID, CVData: doc.Content}
}

// toStored decodes cv_data through the document schema so shape drift is reported.
func (r cvRecord) toStored() (model.StoredCV, error) {
	doc := model.New()
	if len(r.CVData) > 0 && string(r.CVData) != "null" {
		raw := r.CVData
		// Some records store cv_data as a JSON string.
		var text string
		if json.Unmarshal(raw, &text) == nil {
			raw = json.RawMessage(text)
		}
		decoded, err := model.DecodeJSON(raw)
		if err != nil {
			return model.StoredCV{}, fmt.Errorf("cv %s: %w", r.ID, err)
		}
		doc = decoded
	}
	doc.ID = r.ID.String()
	doc.Title = r.Title
	doc.TemplateID = r.TemplateID.String()
	return model.StoredCV{
		ID:         r.ID.String(),
		UserID:     r.UserID.String(),
		TemplateID: r.TemplateID.String(),
		Title:      r.Title,
		Document:   doc,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}, nil
}

// CreateCV persists a new CV.
func (c *Client) CreateCV(ctx context.Context, doc model.Document) (model.StoredCV, error) {
	var rec cvRecord
	if err := c.doJSON(ctx, http.MethodPost, "/user-cvs", payloadFor(doc), &rec); err != nil {
		return model.StoredCV{}, err
	}
	return rec.toStored()
}

// UpdateCV replaces an existing CV.
func (c *Client) UpdateCV(ctx context.Context, id string, doc model.Document) (model.StoredCV, error) {
	var rec cvRecord
	if err := c.doJSON(ctx, http.MethodPut, "/user-cvs/"+url.PathEscape(id), payloadFor(doc), &rec); err != nil {
		return model.StoredCV{}, err
	}
	return rec.toStored()
}

// GetCV loads one CV for editing.
func (c *Client) GetCV(ctx context.Context, id string) (model.StoredCV, error) {
	var rec cvRecord
	if err := c.doJSON(ctx, http.MethodGet, "/user-cvs/"+url.PathEscape(id), nil, &rec); err != nil {
		return model.StoredCV{}, err
	}
	return rec.toStored()
}

// ListCVs lists the caller's CVs. A record whose cv_data cannot be decoded is logged and
// left out rather than hiding the rest of the list.
func (c *Client) ListCVs(ctx context.Context) ([]model.StoredCV, error) {
	var recs []cvRecord
	if err := c.doJSON(ctx, http.MethodGet, "/user-cvs", nil, &recs); err != nil {
		return nil, err
	}
	out := make([]model.StoredCV, 0, len(recs))
	for _, rec := range recs {
		stored, err := rec.toStored()
		if err != nil {
			telemetry.Warn("backend.cv_undecodable", map[string]any{"cv_id": rec.ID.String(), "error": err.Error()})
			continue
		}
		out = append(out, stored)
	}
	return out, nil
}

// DeleteCV removes a CV.
func (c *Client) DeleteCV(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/user-cvs/"+url.PathEscape(id), nil, nil)
}
