package backend

import (
	"context"
	"net/http"
	"net/url"

	"portal-web/cv/model"
)

const adminTemplatesPath = "/cms/cv-templates"

type templateRecord struct {
	ID           ID     `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	PreviewImage string `json:"preview_image"`
	IsActive     bool   `json:"is_active"`
}

func (r templateRecord) toTemplate() model.Template {
	return model.Template{
		ID:           r.ID.String(),
		Name:         r.Name,
		Description:  r.Description,
		PreviewImage: r.PreviewImage,
		IsActive:     r.IsActive,
	}
}

// TemplateInput is a template write. Nil fields are not sent, so an update only touches
// what was set.
type TemplateInput struct {
	Name         *string `json:"name,omitempty"`
	Description  *string `json:"description,omitempty"`
	PreviewImage *string `json:"preview_image,omitempty"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

// ListTemplates returns every template, active or not.
func (c *Client) ListTemplates(ctx context.Context) ([]model.Template, error) {
	return c.listTemplates(ctx, "/cv-templates")
}

// ListAdminTemplates reads the back-office view of the template catalogue.
func (c *Client) ListAdminTemplates(ctx context.Context) ([]model.Template, error) {
	return c.listTemplates(ctx, adminTemplatesPath)
}

func (c *Client) listTemplates(ctx context.Context, path string) ([]model.Template, error) {
	var recs []templateRecord
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &recs); err != nil {
		return nil, err
	}
	out := make([]model.Template, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toTemplate())
	}
	return out, nil
}

func (c *Client) CreateTemplate(ctx context.Context, in TemplateInput) (model.Template, error) {
	var rec templateRecord
	if err := c.doJSON(ctx, http.MethodPost, adminTemplatesPath, in, &rec); err != nil {
		return model.Template{}, err
	}
	return rec.toTemplate(), nil
}

func (c *Client) UpdateTemplate(ctx context.Context, id string, in TemplateInput) (model.Template, error) {
	var rec templateRecord
	if err := c.doJSON(ctx, http.MethodPut, adminTemplatesPath+"/"+url.PathEscape(id), in, &rec); err != nil {
		return model.Template{}, err
	}
	return rec.toTemplate(), nil
}

func (c *Client) DeleteTemplate(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, adminTemplatesPath+"/"+url.PathEscape(id), nil, nil)
}
