package cvs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"portal-web/cv/model"
	"portal-web/internal/backend"
	"portal-web/internal/shared/metrics"
	"portal-web/internal/shared/storage/object"
	"portal-web/internal/shared/telemetry"
)

var (
	ErrConfirmationRequired = errors.New("deletion must be confirmed")
	ErrUnsupportedFormat    = errors.New("unsupported export format")
	ErrCorruptArtifact      = errors.New("export is not a readable pdf")
)

// Gateway is the slice of the backend API used for saved CVs.
type Gateway interface {
	ListCVs(ctx context.Context) ([]model.StoredCV, error)
	DeleteCV(ctx context.Context, id string) error
	DownloadCV(ctx context.Context, id, format string) (backend.Artifact, error)
}

// GatewayFactory binds a Gateway to the caller's backend token.
type GatewayFactory func(token string) Gateway

// Owner identifies the caller.
type Owner struct {
	UserID string
	Token  string
}

// Summary is one row of the saved CV list.
type Summary struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	TemplateID string    `json:"templateId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Export is a downloaded artifact plus what the portal learned about it.
type Export struct {
	backend.Artifact
	Pages      int
	ArchiveKey string
}

// Service lists, deletes and exports saved CVs.
type Service struct {
	Gateways GatewayFactory
	// Archive is optional; when set every export is copied into it.
	Archive object.ObjectStore
	Now     func() time.Time
}

func NewService(gateways GatewayFactory, archive object.ObjectStore) *Service {
	return &Service{Gateways: gateways, Archive: archive, Now: time.Now}
}

// List returns the caller's CVs, most recently updated first.
func (s *Service) List(ctx context.Context, owner Owner) ([]Summary, error) {
	stored, err := s.Gateways(owner.Token).ListCVs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cvs: %w", err)
	}
	out := make([]Summary, 0, len(stored))
	for _, cv := range stored {
		title := cv.Title
		if title == "" {
			title = cv.Document.Title
		}
		out = append(out, Summary{
			ID:         cv.ID,
			Title:      title,
			TemplateID: cv.TemplateID,
			CreatedAt:  cv.CreatedAt,
			UpdatedAt:  cv.UpdatedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// Delete removes a saved CV. The caller must have confirmed the deletion.
func (s *Service) Delete(ctx context.Context, owner Owner, id string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	if err := s.Gateways(owner.Token).DeleteCV(ctx, id); err != nil {
		telemetry.Error("cv.delete_failed", map[string]any{"cv_id": id, "user_id": owner.UserID, "error": err.Error()})
		return fmt.Errorf("delete cv: %w", err)
	}
	telemetry.Info("cv.deleted", map[string]any{"cv_id": id, "user_id": owner.UserID})
	return nil
}

// Export downloads the server-rendered artifact for a saved CV.
func (s *Service) Export(ctx context.Context, owner Owner, id, format string) (Export, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != backend.FormatPDF && format != backend.FormatHTML {
		return Export{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	artifact, err := s.Gateways(owner.Token).DownloadCV(ctx, id, format)
	if err != nil {
		telemetry.Error("cv.export_failed", map[string]any{"cv_id": id, "format": format, "error": err.Error()})
		return Export{}, fmt.Errorf("download cv: %w", err)
	}

	out := Export{Artifact: artifact}
	if format == backend.FormatPDF {
		pages, err := CountPages(artifact.Data)
		if err != nil {
			telemetry.Error("cv.export_corrupt", map[string]any{"cv_id": id, "bytes": len(artifact.Data), "error": err.Error()})
			return Export{}, err
		}
		out.Pages = pages
	}

	if s.Archive != nil {
		key, err := s.archive(ctx, owner, id, artifact)
		if err != nil {
			telemetry.Warn("cv.export_archive_failed", map[string]any{"cv_id": id, "error": err.Error()})
		} else {
			out.ArchiveKey = key
		}
	}

	metrics.IncCVExport(format)
	telemetry.Info("cv.exported", map[string]any{
		"cv_id":       id,
		"format":      format,
		"bytes":       len(artifact.Data),
		"pages":       out.Pages,
		"archive_key": out.ArchiveKey,
	})
	return out, nil
}

func (s *Service) archive(ctx context.Context, owner Owner, id string, artifact backend.Artifact) (string, error) {
	key, err := object.ExportKey(owner.UserID, id, artifact.FileName, s.Now())
	if err != nil {
		return "", err
	}
	if _, err := s.Archive.Put(ctx, key, artifact.ContentType, bytes.NewReader(artifact.Data)); err != nil {
		return "", err
	}
	return key, nil
}

// CountPages parses a PDF and returns its page count.
func CountPages(data []byte) (n int, err error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: empty body", ErrCorruptArtifact)
	}
	// the pdf reader panics on some malformed input
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("%w: %v", ErrCorruptArtifact, r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	pages := reader.NumPage()
	if pages < 1 {
		return 0, fmt.Errorf("%w: no pages", ErrCorruptArtifact)
	}
	return pages, nil
}
