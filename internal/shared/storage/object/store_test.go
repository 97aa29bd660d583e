package object

import (
	"strings"
	"testing"
	"time"

	"portal-web/internal/shared/util"
)

func TestExportKey(t *testing.T) {
	at := time.Date(2026, 5, 4, 10, 30, 0, 0, time.FixedZone("BDT", 6*3600))
	key, err := ExportKey("u1", "12", "cv 12.pdf", at)
	if err != nil {
		t.Fatalf("ExportKey: %v", err)
	}
	want := "exports/" + util.HashUserKey("u1") + "/12/20260504T043000Z_cv 12.pdf"
	if key != want {
		t.Fatalf("ExportKey = %q, want %q", key, want)
	}
}

func TestExportKeyRejectsTraversal(t *testing.T) {
	if _, err := ExportKey("u1", "12", "../../etc/passwd", time.Now()); err == nil {
		t.Fatalf("expected traversal to be rejected")
	}
	key, err := ExportKey("u1", "a/b", "cv.html", time.Now())
	if err != nil {
		t.Fatalf("ExportKey: %v", err)
	}
	if strings.Count(key, "/") != 3 {
		t.Fatalf("cv id separators must be flattened, got %q", key)
	}
}
