package editor

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"portal-web/cv/model"
	"portal-web/cv/render"
	"portal-web/internal/shared/metrics"
	"portal-web/internal/shared/telemetry"
)

const (
	// MaxPhotoBytes caps profile photo uploads.
	MaxPhotoBytes = 5 << 20
	// CVListPath is where the shell navigates after a successful submit.
	CVListPath = "/dashboard/cvs"
)

// Gateway is the slice of the backend API the editor needs.
type Gateway interface {
	ListTemplates(ctx context.Context) ([]model.Template, error)
	GetCV(ctx context.Context, id string) (model.StoredCV, error)
	CreateCV(ctx context.Context, doc model.Document) (model.StoredCV, error)
	UpdateCV(ctx context.Context, id string, doc model.Document) (model.StoredCV, error)
	UploadFile(ctx context.Context, fileName string, r io.Reader) (string, error)
}

// GatewayFactory returns a gateway that acts with the caller's backend token.
type GatewayFactory func(token string) Gateway

// SubmitResult is returned after the backend accepted a CV.
type SubmitResult struct {
	CV       model.StoredCV `json:"cv"`
	Created  bool           `json:"created"`
	Redirect string         `json:"redirect"`
}

// Service implements the CV editor workflow over drafts.
type Service struct {
	Store    DraftStore
	Gateways GatewayFactory
	Renderer *render.Renderer
	TTL      time.Duration
	Now      func() time.Time
}

func NewService(store DraftStore, gateways GatewayFactory, renderer *render.Renderer, ttl time.Duration) *Service {
	return &Service{Store: store, Gateways: gateways, Renderer: renderer, TTL: ttl, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// Start opens a draft. With cvID the stored CV is loaded and the template step is skipped;
// otherwise the template step is skipped only when exactly one template is active.
func (s *Service) Start(ctx context.Context, owner Owner, cvID string) (*Draft, error) {
	gw := s.Gateways(owner.Token)
	all, err := gw.ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	active := model.ActiveTemplates(all)

	now := s.now()
	d := &Draft{
		ID:        uuid.NewString(),
		OwnerID:   owner.UserID,
		Step:      StepSelectTemplate,
		Document:  model.New(),
		Templates: active,
		CreatedAt: now,
		UpdatedAt: now,
	}

	switch {
	case cvID != "":
		stored, err := gw.GetCV(ctx, cvID)
		if err != nil {
			return nil, fmt.Errorf("load cv %s: %w", cvID, err)
		}
		d.Document = stored.Document.Clone()
		d.Document.ID = stored.ID
		d.StoredPhoto = stored.Document.PersonalInfo.Photo
		d.Step = StepEdit
	case len(active) == 1:
		d.Document.TemplateID = active[0].ID
		d.Step = StepEdit
	}

	if err := s.Store.Create(ctx, d); err != nil {
		return nil, err
	}
	telemetry.Info("draft.started", map[string]any{
		"draft_id": d.ID,
		"user_id":  owner.UserID,
		"cv_id":    cvID,
		"step":     string(d.Step),
	})
	return d, nil
}

// Get returns a draft owned by owner.
func (s *Service) Get(ctx context.Context, owner Owner, draftID string) (*Draft, error) {
	d, err := s.Store.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if d.OwnerID != owner.UserID {
		return nil, ErrNotFound
	}
	if s.expired(d) {
		_ = s.Store.Delete(ctx, draftID)
		return nil, ErrNotFound
	}
	return d, nil
}

func (s *Service) expired(d *Draft) bool {
	return s.TTL > 0 && !d.Submitting && s.now().Sub(d.UpdatedAt) > s.TTL
}

// mutate applies fn to an owned, live draft and bumps its idle clock.
func (s *Service) mutate(ctx context.Context, owner Owner, draftID string, fn func(*Draft) error) (*Draft, error) {
	return s.Store.Update(ctx, draftID, func(d *Draft) error {
		if d.OwnerID != owner.UserID || s.expired(d) {
			return ErrNotFound
		}
		if err := fn(d); err != nil {
			return err
		}
		d.UpdatedAt = s.now()
		return nil
	})
}

// SelectTemplate picks a template from the active set fetched at start. Nothing is persisted.
func (s *Service) SelectTemplate(ctx context.Context, owner Owner, draftID, templateID string) (*Draft, error) {
	return s.mutate(ctx, owner, draftID, func(d *Draft) error {
		if !d.hasActiveTemplate(templateID) {
			return ErrTemplateNotActive
		}
		d.Document.TemplateID = templateID
		d.Step = StepEdit
		return nil
	})
}

// photoPath is the document field UploadProfilePhoto fills.
const photoPath = "personalInfo.photo"

// UpdateField sets any text field of the document. Values are not validated. Writing the
// photo field directly forgets a file chosen earlier in the session.
func (s *Service) UpdateField(ctx context.Context, owner Owner, draftID, path, value string) (*Draft, error) {
	return s.mutate(ctx, owner, draftID, func(d *Draft) error {
		if err := setField(&d.Document, path, value); err != nil {
			return err
		}
		if strings.TrimSpace(path) == photoPath {
			d.PendingPhoto = nil
		}
		return nil
	})
}

// AddEntry appends a blank entry to the list at section and returns its index.
func (s *Service) AddEntry(ctx context.Context, owner Owner, draftID, section string) (*Draft, int, error) {
	index := 0
	d, err := s.mutate(ctx, owner, draftID, func(d *Draft) error {
		i, err := appendEntry(&d.Document, section)
		index = i
		return err
	})
	return d, index, err
}

// RemoveEntry drops the entry at index from the list at section.
func (s *Service) RemoveEntry(ctx context.Context, owner Owner, draftID, section string, index int) (*Draft, error) {
	return s.mutate(ctx, owner, draftID, func(d *Draft) error {
		return removeEntry(&d.Document, section, index)
	})
}

// SetThemeColor accepts a preset swatch name or a hex color.
func (s *Service) SetThemeColor(ctx context.Context, owner Owner, draftID, color string) (*Draft, error) {
	resolved, err := model.ResolveThemeColor(color)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, owner, draftID, func(d *Draft) error {
		d.Document.ThemeColor = resolved
		return nil
	})
}

// UploadProfilePhoto keeps the image in the draft and shows it inline until submit.
func (s *Service) UploadProfilePhoto(ctx context.Context, owner Owner, draftID, fileName string, data []byte) (*Draft, error) {
	if len(data) > MaxPhotoBytes {
		return nil, ErrPhotoTooLarge
	}
	if len(data) == 0 {
		return nil, ErrInvalidPhoto
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrInvalidPhoto
	}
	dataURL := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)

	return s.mutate(ctx, owner, draftID, func(d *Draft) error {
		d.PendingPhoto = &PendingPhoto{FileName: fileName, ContentType: contentType, Data: data}
		d.Document.PersonalInfo.Photo = dataURL
		return nil
	})
}

// Preview renders the current draft as it stands, before normalization.
func (s *Service) Preview(ctx context.Context, owner Owner, draftID string) (render.Preview, error) {
	d, err := s.Get(ctx, owner, draftID)
	if err != nil {
		return render.Preview{}, err
	}
	start := time.Now()
	p := s.Renderer.Build(d.Document)
	metrics.ObservePreviewRenderMs(metrics.SinceMillis(start))
	return p, nil
}

// PreviewHTML renders the current draft as an HTML fragment.
func (s *Service) PreviewHTML(ctx context.Context, owner Owner, draftID string) (string, error) {
	d, err := s.Get(ctx, owner, draftID)
	if err != nil {
		return "", err
	}
	start := time.Now()
	html, err := s.Renderer.RenderHTML(d.Document)
	metrics.ObservePreviewRenderMs(metrics.SinceMillis(start))
	return html, err
}

// Discard drops a draft without saving.
func (s *Service) Discard(ctx context.Context, owner Owner, draftID string) error {
	if _, err := s.Get(ctx, owner, draftID); err != nil {
		return err
	}
	return s.Store.Delete(ctx, draftID)
}

// Submit validates, normalizes and persists the draft. On failure the draft is kept as it
// was so the user can correct and resubmit; on success it is discarded.
func (s *Service) Submit(ctx context.Context, owner Owner, draftID string) (SubmitResult, error) {
	var snapshot *Draft
	_, err := s.mutate(ctx, owner, draftID, func(d *Draft) error {
		if d.Submitting {
			return ErrSubmitInFlight
		}
		if err := model.ValidateForSave(d.Document); err != nil {
			return err
		}
		d.Submitting = true
		snapshot = d.Clone()
		return nil
	})
	if err != nil {
		return SubmitResult{}, err
	}

	stored, uploaded, err := s.persist(ctx, owner, snapshot)
	cleanupCtx := context.WithoutCancel(ctx)
	if err != nil {
		metrics.IncCVSaveFailed()
		telemetry.Error("cv.submit_failed", map[string]any{
			"draft_id": draftID,
			"user_id":  owner.UserID,
			"cv_id":    snapshot.Document.ID,
			"error":    err.Error(),
		})
		_, _ = s.Store.Update(cleanupCtx, draftID, func(d *Draft) error {
			d.Submitting = false
			if uploaded != "" {
				d.StoredPhoto = uploaded
				d.PendingPhoto = nil
			}
			return nil
		})
		return SubmitResult{}, err
	}

	if err := s.Store.Delete(cleanupCtx, draftID); err != nil && !errors.Is(err, ErrNotFound) {
		telemetry.Warn("draft.discard_failed", map[string]any{"draft_id": draftID, "error": err.Error()})
	}
	metrics.IncCVSaved()
	telemetry.Info("cv.saved", map[string]any{
		"draft_id": draftID,
		"user_id":  owner.UserID,
		"cv_id":    stored.ID,
		"created":  !snapshot.IsEditing(),
	})
	return SubmitResult{CV: stored, Created: !snapshot.IsEditing(), Redirect: CVListPath}, nil
}

// persist returns the uploaded photo path even when the save itself fails, so a retry
// does not upload the same file twice.
func (s *Service) persist(ctx context.Context, owner Owner, d *Draft) (model.StoredCV, string, error) {
	gw := s.Gateways(owner.Token)
	doc := model.Normalize(d.Document)

	uploaded := ""
	switch {
	case d.PendingPhoto != nil && isInlinePhoto(doc.PersonalInfo.Photo):
		rel, err := gw.UploadFile(ctx, d.PendingPhoto.FileName, bytes.NewReader(d.PendingPhoto.Data))
		if err != nil {
			return model.StoredCV{}, "", fmt.Errorf("upload profile photo: %w", err)
		}
		uploaded = rel
		doc.PersonalInfo.Photo = rel
	case isInlinePhoto(doc.PersonalInfo.Photo):
		doc.PersonalInfo.Photo = d.StoredPhoto
	}

	var (
		stored model.StoredCV
		err    error
	)
	if doc.ID == "" {
		stored, err = gw.CreateCV(ctx, doc)
	} else {
		stored, err = gw.UpdateCV(ctx, doc.ID, doc)
	}
	if err != nil {
		return model.StoredCV{}, uploaded, fmt.Errorf("save cv: %w", err)
	}
	return stored, uploaded, nil
}

func isInlinePhoto(photo string) bool {
	lower := strings.ToLower(photo)
	return strings.HasPrefix(lower, "data:") || strings.HasPrefix(lower, "blob:")
}

// PurgeIdle discards drafts idle longer than the TTL.
func (s *Service) PurgeIdle(ctx context.Context) (int, error) {
	if s.TTL <= 0 {
		return 0, nil
	}
	return s.Store.DeleteIdle(ctx, s.now().Add(-s.TTL))
}

// RunJanitor purges idle drafts every interval until ctx is done.
func (s *Service) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 || s.TTL <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeIdle(ctx)
			if err != nil && ctx.Err() == nil {
				telemetry.Error("draft.purge_failed", map[string]any{"error": err.Error()})
				continue
			}
			if n > 0 {
				telemetry.Info("draft.purged", map[string]any{"count": n})
			}
		}
	}
}

// ActiveTemplates lists the templates offered to end users.
func (s *Service) ActiveTemplates(ctx context.Context, owner Owner) ([]model.Template, error) {
	all, err := s.Gateways(owner.Token).ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return model.ActiveTemplates(all), nil
}
