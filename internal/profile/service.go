package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"slices"
	"strings"

	"portal-web/internal/backend"
	"portal-web/internal/shared/telemetry"
	"portal-web/internal/shared/util"
)

// MaxImageBytes caps each uploaded profile image.
const MaxImageBytes = 5 << 20

// ImageFields hold the server-relative path of an uploaded image.
var ImageFields = []string{"avatar", "cover_image"}

var (
	ErrForbidden      = errors.New("not allowed to access this profile")
	ErrProtectedField = errors.New("field can only be changed by an admin")
	ErrNotImageField  = errors.New("not an image field")
	ErrInvalidImage   = errors.New("file is not an image")
	ErrImageTooLarge  = errors.New("image is too large")
	ErrNoChanges      = errors.New("nothing to update")
)

// Fields the backend owns. They are dropped from writes.
var readOnlyFields = []string{"id", "created_at", "updated_at"}

// Fields only an admin may write.
var adminFields = []string{"role", "is_active"}

// Caller is the signed-in user making the request.
type Caller struct {
	UserID string
	Role   string
	Token  string
}

func (c Caller) IsAdmin() bool {
	return c.Role == "admin" || c.Role == "super_admin"
}

// Image is an uploaded file destined for one of ImageFields.
type Image struct {
	Field    string
	FileName string
	Data     []byte
}

// Gateway is the slice of the backend API used for profiles.
type Gateway interface {
	GetProfile(ctx context.Context, id string) (backend.Profile, error)
	UpdateProfile(ctx context.Context, id string, fields backend.Profile) (backend.Profile, error)
	UploadFile(ctx context.Context, fileName string, r io.Reader) (string, error)
}

type GatewayFactory func(token string) Gateway

// Service reads and edits user profiles. A member sees and edits only their own; admins
// may reach any.
type Service struct {
	Gateways GatewayFactory
}

func NewService(gateways GatewayFactory) *Service {
	return &Service{Gateways: gateways}
}

func (s *Service) Get(ctx context.Context, caller Caller, id string) (backend.Profile, error) {
	if err := authorize(caller, id); err != nil {
		return nil, err
	}
	p, err := s.Gateways(caller.Token).GetProfile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// Update uploads any images first, writes their paths into the matching fields, then sends
// the changed fields in one request. A failed upload leaves the profile untouched.
func (s *Service) Update(ctx context.Context, caller Caller, id string, fields backend.Profile, images []Image) (backend.Profile, error) {
	if err := authorize(caller, id); err != nil {
		return nil, err
	}
	changes, err := writableFields(caller, fields)
	if err != nil {
		return nil, err
	}
	for _, img := range images {
		if err := checkImage(img); err != nil {
			return nil, err
		}
	}
	if len(changes) == 0 && len(images) == 0 {
		return nil, ErrNoChanges
	}

	gw := s.Gateways(caller.Token)
	for _, img := range images {
		rel, err := gw.UploadFile(ctx, uploadName(img), bytes.NewReader(img.Data))
		if err != nil {
			telemetry.Error("profile.upload_failed", map[string]any{"user_id": id, "field": img.Field, "error": err.Error()})
			return nil, fmt.Errorf("upload %s: %w", img.Field, err)
		}
		encoded, err := json.Marshal(rel)
		if err != nil {
			return nil, err
		}
		changes[img.Field] = encoded
	}

	saved, err := gw.UpdateProfile(ctx, id, changes)
	if err != nil {
		telemetry.Error("profile.update_failed", map[string]any{"user_id": id, "error": err.Error()})
		return nil, fmt.Errorf("update profile: %w", err)
	}
	telemetry.Info("profile.updated", map[string]any{
		"user_id":   id,
		"by":        caller.UserID,
		"fields":    len(changes),
		"images":    len(images),
		"admin_set": caller.UserID != id,
	})
	return saved, nil
}

func authorize(caller Caller, id string) error {
	if strings.TrimSpace(id) == "" || (caller.UserID != id && !caller.IsAdmin()) {
		return ErrForbidden
	}
	return nil
}

func writableFields(caller Caller, fields backend.Profile) (backend.Profile, error) {
	out := make(backend.Profile, len(fields))
	for k, v := range fields {
		switch {
		case slices.Contains(readOnlyFields, k):
			continue
		case slices.Contains(adminFields, k) && !caller.IsAdmin():
			return nil, fmt.Errorf("%w: %s", ErrProtectedField, k)
		case slices.Contains(ImageFields, k):
			// Images arrive as files. A text value may only clear the field or keep a path.
			var s string
			if err := json.Unmarshal(v, &s); err != nil || strings.HasPrefix(strings.ToLower(s), "data:") {
				return nil, fmt.Errorf("%w: %s must be uploaded as a file", ErrInvalidImage, k)
			}
		}
		out[k] = v
	}
	return out, nil
}

func checkImage(img Image) error {
	if !slices.Contains(ImageFields, img.Field) {
		return fmt.Errorf("%w: %s", ErrNotImageField, img.Field)
	}
	if len(img.Data) > MaxImageBytes {
		return ErrImageTooLarge
	}
	if len(img.Data) == 0 || !strings.HasPrefix(http.DetectContentType(img.Data), "image/") {
		return ErrInvalidImage
	}
	return nil
}

func uploadName(img Image) string {
	name, err := util.SanitizeFileName(path.Base(img.FileName))
	if err != nil || name == "." {
		return img.Field
	}
	return name
}
