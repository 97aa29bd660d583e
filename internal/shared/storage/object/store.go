package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"portal-web/internal/shared/util"
)

// ErrNotFound is returned by Open when no object exists under the key.
var ErrNotFound = errors.New("object not found")

// ObjectStore saves and reads archived export artifacts by key.
type ObjectStore interface {
	Put(ctx context.Context, storageKey string, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}

// ExportKey builds the key for an archived export: exports/<user hash>/<cv id>/<stamp>_<file>.
func ExportKey(userID, cvID, fileName string, at time.Time) (string, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	id, err := util.SanitizeFileName(cvID)
	if err != nil {
		return "", fmt.Errorf("sanitize cv id: %w", err)
	}
	stamp := at.UTC().Format("20060102T150405Z")
	return path.Join("exports", util.HashUserKey(userID), id, stamp+"_"+name), nil
}
