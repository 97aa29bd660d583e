package session

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"portal-web/internal/backend"
)

type fakeBackend struct {
	mu        sync.Mutex
	result    backend.AuthResult
	err       error
	calls     int
	lastReg   backend.Registration
	lastReset string
}

func (f *fakeBackend) Login(_ context.Context, creds backend.Credentials) (backend.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return backend.AuthResult{}, f.err
	}
	return f.result, nil
}

func (f *fakeBackend) Register(_ context.Context, reg backend.Registration) (backend.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastReg = reg
	if f.err != nil {
		return backend.AuthResult{}, f.err
	}
	return f.result, nil
}

func (f *fakeBackend) ForgotPassword(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeBackend) ResetPassword(_ context.Context, token, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastReset = token
	return f.err
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func jwtWithExp(sub string, exp time.Time) string {
	enc := base64.RawURLEncoding
	payload := fmt.Sprintf(`{"sub":%q,"role":"member","exp":%d}`, sub, exp.Unix())
	return enc.EncodeToString([]byte(`{"alg":"HS256"}`)) + "." + enc.EncodeToString([]byte(payload)) + ".sig"
}

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestService(b *fakeBackend) (*Service, *MemoryRepo, *time.Time) {
	repo := NewMemoryRepo()
	svc := NewService(repo, b, time.Hour)
	now := baseTime
	svc.Now = func() time.Time { return now }
	n := 0
	svc.NewID = func() string {
		n++
		return fmt.Sprintf("sess-%d", n)
	}
	return svc, repo, &now
}
