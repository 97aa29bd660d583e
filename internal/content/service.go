package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"portal-web/cv/model"
	"portal-web/internal/backend"
	"portal-web/internal/shared/telemetry"
)

var (
	ErrUnknownCollection    = errors.New("unknown collection")
	ErrEmptyRecord          = errors.New("record has no attributes")
	ErrInvalidAboutPage     = errors.New("about page must be a json object")
	ErrInvalidTemplate      = errors.New("invalid template")
	ErrConfirmationRequired = errors.New("deletion must be confirmed")
)

// Gateway is the slice of the backend CMS API used here.
type Gateway interface {
	ListCollection(ctx context.Context, collection string) ([]backend.Record, error)
	SetActive(ctx context.Context, collection, id string, active bool) error
	CreateRecord(ctx context.Context, collection string, attrs map[string]json.RawMessage) (backend.Record, error)
	UpdateRecord(ctx context.Context, collection, id string, attrs map[string]json.RawMessage) (backend.Record, error)
	DeleteRecord(ctx context.Context, collection, id string) error

	GetAboutPage(ctx context.Context) (json.RawMessage, error)
	UpdateAboutPage(ctx context.Context, page json.RawMessage) (json.RawMessage, error)

	ListAdminTemplates(ctx context.Context) ([]model.Template, error)
	CreateTemplate(ctx context.Context, in backend.TemplateInput) (model.Template, error)
	UpdateTemplate(ctx context.Context, id string, in backend.TemplateInput) (model.Template, error)
	DeleteTemplate(ctx context.Context, id string) error
}

// GatewayFactory binds a Gateway to a backend token. Public reads use an empty token.
type GatewayFactory func(token string) Gateway

// Service serves CMS lists. Nothing is cached: every call reads the backend.
type Service struct {
	Gateways GatewayFactory
}

func NewService(gateways GatewayFactory) *Service {
	return &Service{Gateways: gateways}
}

// ListPublic returns the active records of a collection in backend order.
func (s *Service) ListPublic(ctx context.Context, collection string) ([]backend.Record, error) {
	records, err := s.list(ctx, "", collection)
	if err != nil {
		return nil, err
	}
	active := make([]backend.Record, 0, len(records))
	for _, rec := range records {
		if rec.IsActive {
			active = append(active, rec)
		}
	}
	return active, nil
}

// ListAll returns every record, active or not, for the back-office.
func (s *Service) ListAll(ctx context.Context, token, collection string) ([]backend.Record, error) {
	return s.list(ctx, token, collection)
}

// SetActive toggles whether a record is shown publicly.
func (s *Service) SetActive(ctx context.Context, token, collection, id string, active bool) error {
	if !Known(collection) {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	if err := s.Gateways(token).SetActive(ctx, collection, id, active); err != nil {
		telemetry.Error("content.set_active_failed", map[string]any{
			"collection": collection,
			"record_id":  id,
			"active":     active,
			"error":      err.Error(),
		})
		return fmt.Errorf("set active: %w", err)
	}
	telemetry.Info("content.set_active", map[string]any{"collection": collection, "record_id": id, "active": active})
	return nil
}

// CreateRecord adds a record to a collection. The backend assigns the id.
func (s *Service) CreateRecord(ctx context.Context, token, collection string, attrs map[string]json.RawMessage) (backend.Record, error) {
	attrs, err := recordAttributes(collection, attrs)
	if err != nil {
		return backend.Record{}, err
	}
	rec, err := s.Gateways(token).CreateRecord(ctx, collection, attrs)
	if err != nil {
		telemetry.Error("content.create_failed", map[string]any{"collection": collection, "error": err.Error()})
		return backend.Record{}, fmt.Errorf("create %s: %w", collection, err)
	}
	telemetry.Info("content.record_created", map[string]any{"collection": collection, "record_id": rec.ID})
	return rec, nil
}

// UpdateRecord changes the given attributes of one record.
func (s *Service) UpdateRecord(ctx context.Context, token, collection, id string, attrs map[string]json.RawMessage) (backend.Record, error) {
	attrs, err := recordAttributes(collection, attrs)
	if err != nil {
		return backend.Record{}, err
	}
	rec, err := s.Gateways(token).UpdateRecord(ctx, collection, id, attrs)
	if err != nil {
		telemetry.Error("content.update_failed", map[string]any{"collection": collection, "record_id": id, "error": err.Error()})
		return backend.Record{}, fmt.Errorf("update %s: %w", collection, err)
	}
	telemetry.Info("content.record_updated", map[string]any{"collection": collection, "record_id": id})
	return rec, nil
}

// DeleteRecord removes a record once the caller has confirmed.
func (s *Service) DeleteRecord(ctx context.Context, token, collection, id string, confirmed bool) error {
	if !Known(collection) {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	if !confirmed {
		return ErrConfirmationRequired
	}
	if err := s.Gateways(token).DeleteRecord(ctx, collection, id); err != nil {
		telemetry.Error("content.delete_failed", map[string]any{"collection": collection, "record_id": id, "error": err.Error()})
		return fmt.Errorf("delete %s: %w", collection, err)
	}
	telemetry.Info("content.record_deleted", map[string]any{"collection": collection, "record_id": id})
	return nil
}

// recordAttributes drops the id, which is addressed by the path and never written.
func recordAttributes(collection string, attrs map[string]json.RawMessage) (map[string]json.RawMessage, error) {
	if !Known(collection) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	out := make(map[string]json.RawMessage, len(attrs))
	for k, v := range attrs {
		if k == "id" {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil, ErrEmptyRecord
	}
	return out, nil
}

// AboutPage returns the public about page.
func (s *Service) AboutPage(ctx context.Context) (json.RawMessage, error) {
	page, err := s.Gateways("").GetAboutPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("about page: %w", err)
	}
	return page, nil
}

// AdminAboutPage reads the about page with the admin's token.
func (s *Service) AdminAboutPage(ctx context.Context, token string) (json.RawMessage, error) {
	page, err := s.Gateways(token).GetAboutPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("about page: %w", err)
	}
	return page, nil
}

func (s *Service) UpdateAboutPage(ctx context.Context, token string, page json.RawMessage) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(page, &fields); err != nil || fields == nil {
		return nil, ErrInvalidAboutPage
	}
	saved, err := s.Gateways(token).UpdateAboutPage(ctx, page)
	if err != nil {
		telemetry.Error("content.about_page_failed", map[string]any{"error": err.Error()})
		return nil, fmt.Errorf("update about page: %w", err)
	}
	telemetry.Info("content.about_page_updated", nil)
	return saved, nil
}

func (s *Service) list(ctx context.Context, token, collection string) ([]backend.Record, error) {
	if !Known(collection) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	records, err := s.Gateways(token).ListCollection(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return records, nil
}
