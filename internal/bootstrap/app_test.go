package bootstrap

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portal-web/internal/shared/config"
)

// fakeBackend serves the handful of backend endpoints the smoke test touches.
func fakeBackend(t *testing.T, role string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":"opaque-token","user":{"id":5,"name":"Mim","email":"mim@example.org","role":"` + role + `"}}`))
	})
	mux.HandleFunc("/api/cv-templates", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer opaque-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[{"id":1,"name":"Classic","is_active":true},{"id":2,"name":"Legacy","is_active":false}]`))
	})
	mux.HandleFunc("/api/users/5", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":5,"name":"Mim","phone":"01800000000"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(apiBase string) config.Config {
	return config.Config{
		Env:            "dev",
		APIBaseURL:     apiBase,
		AssetBaseURL:   apiBase,
		BackendTimeout: 5 * time.Second,
		SessionCookie:  "portal_session",
		SessionTTL:     time.Hour,
		DraftTTL:       time.Hour,
		LoginRate:      1,
		LoginBurst:     5,
	}
}

func login(t *testing.T, app *App) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"mim@example.org","password":"pw"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	cookies := resp.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestBuildServesHealthAndMetrics(t *testing.T) {
	app, err := Build(testConfig("http://127.0.0.1:1/api"))
	require.NoError(t, err)
	require.NotNil(t, app.Router)
	assert.Nil(t, app.DB)
	assert.Nil(t, app.Archive)

	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"ok":true,"checks":{"sessions":"memory"}}`, resp.Body.String())

	resp = httptest.NewRecorder()
	app.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "cv_saved_total")

	resp = httptest.NewRecorder()
	app.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cvs", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1/api")
	cfg.Env = "production"
	_, err := Build(cfg)
	assert.Error(t, err)
}

func TestSignedInMemberCanStartDraft(t *testing.T) {
	srv := fakeBackend(t, "member")
	app, err := Build(testConfig(srv.URL + "/api"))
	require.NoError(t, err)
	cookie := login(t, app)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cv-builder/drafts", bytes.NewReader(nil))
	req.AddCookie(cookie)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var draft struct {
		Step     string `json:"step"`
		Document struct {
			TemplateID string `json:"templateId"`
		} `json:"document"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &draft))
	assert.Equal(t, "edit", draft.Step)
	assert.Equal(t, "1", draft.Document.TemplateID)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/content/focus-areas", nil)
	req.AddCookie(cookie)
	resp = httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestMemberReachesOnlyOwnProfile(t *testing.T) {
	srv := fakeBackend(t, "member")
	app, err := Build(testConfig(srv.URL + "/api"))
	require.NoError(t, err)
	cookie := login(t, app)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.AddCookie(cookie)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), "01800000000")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/6", nil)
	req.AddCookie(cookie)
	resp = httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestLoginIsRateLimited(t *testing.T) {
	srv := fakeBackend(t, "member")
	cfg := testConfig(srv.URL + "/api")
	cfg.LoginRate = 0.001
	cfg.LoginBurst = 2
	app, err := Build(cfg)
	require.NoError(t, err)

	login(t, app)
	login(t, app)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"mim@example.org","password":"pw"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.NotEmpty(t, resp.Header().Get("Retry-After"))
}
