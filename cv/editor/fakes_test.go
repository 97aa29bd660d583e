package editor

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"portal-web/cv/model"
	"portal-web/cv/render"
)

type fakeGateway struct {
	mu        sync.Mutex
	templates []model.Template
	stored    map[string]model.StoredCV
	uploads   []string
	calls     int
	nextID    int

	createErr error
	uploadErr error
	// createGate, when set, blocks CreateCV until it is closed.
	createGate chan struct{}
	createSeen chan struct{}
}

func newFakeGateway(templates ...model.Template) *fakeGateway {
	return &fakeGateway{templates: templates, stored: map[string]model.StoredCV{}}
}

func (f *fakeGateway) factory() GatewayFactory {
	return func(string) Gateway { return f }
}

func (f *fakeGateway) ListTemplates(context.Context) ([]model.Template, error) {
	return f.templates, nil
}

func (f *fakeGateway) GetCV(_ context.Context, id string) (model.StoredCV, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cv, ok := f.stored[id]
	if !ok {
		return model.StoredCV{}, fmt.Errorf("cv %s missing", id)
	}
	cv.Document = cv.Document.Clone()
	return cv, nil
}

func (f *fakeGateway) CreateCV(_ context.Context, doc model.Document) (model.StoredCV, error) {
	if f.createSeen != nil {
		close(f.createSeen)
	}
	if f.createGate != nil {
		<-f.createGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.createErr != nil {
		return model.StoredCV{}, f.createErr
	}
	f.nextID++
	id := fmt.Sprintf("cv-%d", f.nextID)
	return f.save(id, doc), nil
}

func (f *fakeGateway) UpdateCV(_ context.Context, id string, doc model.Document) (model.StoredCV, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.save(id, doc), nil
}

func (f *fakeGateway) save(id string, doc model.Document) model.StoredCV {
	doc = doc.Clone()
	doc.ID = id
	cv := model.StoredCV{ID: id, UserID: "u1", TemplateID: doc.TemplateID, Title: doc.Title, Document: doc, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	f.stored[id] = cv
	return cv
}

func (f *fakeGateway) UploadFile(_ context.Context, fileName string, r io.Reader) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	path := fmt.Sprintf("uploads/%d-%s", len(f.uploads)+1, fileName)
	f.uploads = append(f.uploads, path)
	return path, nil
}

func (f *fakeGateway) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var (
	activeTemplate   = model.Template{ID: "t1", Name: "Classic", IsActive: true}
	secondTemplate   = model.Template{ID: "t2", Name: "Modern", IsActive: true}
	inactiveTemplate = model.Template{ID: "t3", Name: "Legacy", IsActive: false}

	alice = Owner{UserID: "u1", Token: "tok-1"}
	bob   = Owner{UserID: "u2", Token: "tok-2"}

	pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
)

func newTestService(gw *fakeGateway) *Service {
	return NewService(NewMemoryStore(), gw.factory(), render.NewRenderer("https://api.example.org"), time.Hour)
}

func fillRequired(t interface{ Fatalf(string, ...any) }, svc *Service, owner Owner, id string) {
	for path, value := range map[string]string{
		"personalInfo.name":  "Farhana",
		"personalInfo.title": "Data Analyst",
		"personalInfo.email": "farhana@example.org",
	} {
		if _, err := svc.UpdateField(context.Background(), owner, id, path, value); err != nil {
			t.Fatalf("update %s: %v", path, err)
		}
	}
}
