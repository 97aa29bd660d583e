package content

import (
	"context"
	"fmt"
	"strings"

	"portal-web/cv/model"
	"portal-web/internal/backend"
	"portal-web/internal/shared/telemetry"
)

// Templates returns the whole CV template catalogue, inactive entries included.
func (s *Service) Templates(ctx context.Context, token string) ([]model.Template, error) {
	templates, err := s.Gateways(token).ListAdminTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

// CreateTemplate adds a template. A name is required; new templates are inactive unless
// the input says otherwise.
func (s *Service) CreateTemplate(ctx context.Context, token string, in backend.TemplateInput) (model.Template, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return model.Template{}, fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	}
	in = trimTemplate(in)
	if in.IsActive == nil {
		inactive := false
		in.IsActive = &inactive
	}
	tpl, err := s.Gateways(token).CreateTemplate(ctx, in)
	if err != nil {
		telemetry.Error("content.template_create_failed", map[string]any{"error": err.Error()})
		return model.Template{}, fmt.Errorf("create template: %w", err)
	}
	telemetry.Info("content.template_created", map[string]any{"template_id": tpl.ID, "active": tpl.IsActive})
	return tpl, nil
}

// UpdateTemplate changes the fields set in the input. Toggling IsActive alone is how a
// template is offered to or withdrawn from members.
func (s *Service) UpdateTemplate(ctx context.Context, token, id string, in backend.TemplateInput) (model.Template, error) {
	if in.Name == nil && in.Description == nil && in.PreviewImage == nil && in.IsActive == nil {
		return model.Template{}, fmt.Errorf("%w: nothing to update", ErrInvalidTemplate)
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return model.Template{}, fmt.Errorf("%w: name cannot be blank", ErrInvalidTemplate)
	}
	tpl, err := s.Gateways(token).UpdateTemplate(ctx, id, trimTemplate(in))
	if err != nil {
		telemetry.Error("content.template_update_failed", map[string]any{"template_id": id, "error": err.Error()})
		return model.Template{}, fmt.Errorf("update template: %w", err)
	}
	telemetry.Info("content.template_updated", map[string]any{"template_id": id, "active": tpl.IsActive})
	return tpl, nil
}

func (s *Service) DeleteTemplate(ctx context.Context, token, id string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	if err := s.Gateways(token).DeleteTemplate(ctx, id); err != nil {
		telemetry.Error("content.template_delete_failed", map[string]any{"template_id": id, "error": err.Error()})
		return fmt.Errorf("delete template: %w", err)
	}
	telemetry.Info("content.template_deleted", map[string]any{"template_id": id})
	return nil
}

func trimTemplate(in backend.TemplateInput) backend.TemplateInput {
	for _, field := range []**string{&in.Name, &in.Description, &in.PreviewImage} {
		if *field != nil {
			v := strings.TrimSpace(**field)
			*field = &v
		}
	}
	return in
}
