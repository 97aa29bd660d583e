package cvs

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"portal-web/cv/model"
	"portal-web/internal/backend"
)

type fakeGateway struct {
	mu        sync.Mutex
	cvs       []model.StoredCV
	artifacts map[string]backend.Artifact
	deleted   []string
	err       error
}

func (f *fakeGateway) factory() GatewayFactory {
	return func(string) Gateway { return f }
}

func (f *fakeGateway) ListCVs(context.Context) ([]model.StoredCV, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cvs, f.err
}

func (f *fakeGateway) DeleteCV(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeGateway) DownloadCV(_ context.Context, id, format string) (backend.Artifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return backend.Artifact{}, f.err
	}
	a, ok := f.artifacts[id+"."+format]
	if !ok {
		return backend.Artifact{}, &backend.APIError{Status: 404, Message: "not found"}
	}
	return a, nil
}

// minimalPDF builds a structurally valid PDF with the given number of blank pages.
func minimalPDF(pages int) []byte {
	var objects []string
	kids := ""
	for i := 0; i < pages; i++ {
		kids += fmt.Sprintf("%d 0 R ", i+3)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, pages),
	)
	for i := 0; i < pages; i++ {
		objects = append(objects, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] >>")
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}
