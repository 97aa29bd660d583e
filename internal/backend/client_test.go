package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portal-web/cv/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second)
}

func TestWithTokenSendsBearer(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := client.WithToken("tok-123").ListCVs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)

	_, err = client.ListCVs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth, "base client must stay anonymous")
}

func TestCreateCVSendsStoragePayload(t *testing.T) {
	var body map[string]json.RawMessage
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/user-cvs", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"id": 42, "user_id": 7, "template_id": 3, "title": "Main",
			"cv_data": {"personalInfo": {"name": "Ayesha"}, "skills": ["Go"]},
			"created_at": "2026-01-02T03:04:05Z", "updated_at": "2026-01-02T03:04:05Z"}`))
	})

	doc := model.New()
	doc.Title = "Main"
	doc.TemplateID = "3"
	doc.PersonalInfo.Name = "Ayesha"
	doc.Skills = []string{"Go"}

	stored, err := client.CreateCV(context.Background(), doc)
	require.NoError(t, err)

	assert.JSONEq(t, `"Main"`, string(body["title"]))
	assert.JSONEq(t, `"3"`, string(body["template_id"]))
	assert.Contains(t, string(body["cv_data"]), `"skills":["Go"]`)
	assert.NotContains(t, string(body["cv_data"]), `"templateId"`)

	assert.Equal(t, "42", stored.ID)
	assert.Equal(t, "42", stored.Document.ID)
	assert.Equal(t, "3", stored.Document.TemplateID)
	assert.Equal(t, "Ayesha", stored.Document.PersonalInfo.Name)
	assert.NotNil(t, stored.Document.Experience)
}

func TestGetCVRejectsShapeDrift(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "a1", "title": "x", "cv_data": {"skills": "Go, SQL"}}`))
	})

	_, err := client.GetCV(context.Background(), "a1")
	assert.Error(t, err)
}

func TestGetCVAcceptsStringEncodedData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"id": "a1", "title": "x", "cv_data": "{\"themeColor\": \"#059669\"}"}}`))
	})

	stored, err := client.GetCV(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "#059669", stored.Document.ThemeColor)
}

func TestListCVsSkipsUndecodableRecord(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id": 1, "title": "Broken", "cv_data": {"skills": "Go, SQL"}},
			{"id": 2, "title": "Numeric gpa", "cv_data": {"education": [{"degree": "BSc", "gpa": 3.9}]}}
		]`))
	})

	list, err := client.ListCVs(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2", list[0].ID)
	assert.Equal(t, "3.9", list[0].Document.Education[0].GPA)
}

// wireBackend stores cv_data exactly as received and serves it back, like the real API.
func wireBackend(t *testing.T) *Client {
	t.Helper()
	var stored []byte
	return newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/user-cvs":
			var body struct {
				Title      string          `json:"title"`
				TemplateID string          `json:"template_id"`
				CVData     json.RawMessage `json:"cv_data"`
			}
			if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			rec, _ := json.Marshal(map[string]any{
				"id": 9, "user_id": 7, "template_id": body.TemplateID, "title": body.Title, "cv_data": body.CVData,
			})
			stored = rec
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write(rec)
		case r.Method == http.MethodGet && r.URL.Path == "/user-cvs/9":
			_, _ = w.Write(stored)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func TestCVRoundTripOverTheWire(t *testing.T) {
	client := wireBackend(t)
	ctx := context.Background()

	doc := model.New()
	doc.Title = "Main"
	doc.TemplateID = "3"
	doc.PersonalInfo = model.PersonalInfo{
		Name: "Ayesha Siddiqua", Title: "Backend Engineer", Email: "ayesha@example.org",
		Phone: "+8801700000000", Location: "Dhaka", Photo: "uploads/7-ayesha.png",
		Summary: "<p>Builds <b>APIs</b></p>",
	}
	doc.Experience = []model.Experience{{
		Position: "Engineer", Company: "Pathao", StartDate: "2021-01", Location: "Dhaka",
		Responsibilities: []string{"Payments", "On-call"},
	}}
	doc.Education = []model.Education{{Degree: "BSc CSE", Institution: "BUET", GPA: "3.80"}}
	doc.Skills = []string{"Go", "PostgreSQL", "Go"}
	doc.SectionTitles = map[model.SectionKey]string{model.SectionSkills: "TOOLS"}
	doc.ThemeColor = "#059669"

	created, err := client.CreateCV(ctx, doc)
	require.NoError(t, err)
	loaded, err := client.GetCV(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, "9", loaded.ID)
	assert.Equal(t, doc.PersonalInfo, loaded.Document.PersonalInfo)
	assert.Equal(t, doc.Experience, loaded.Document.Experience)
	assert.Equal(t, doc.Education, loaded.Document.Education)
	assert.Equal(t, doc.Skills, loaded.Document.Skills)
	assert.Equal(t, doc.SectionTitles, loaded.Document.SectionTitles)
	assert.Equal(t, doc.ThemeColor, loaded.Document.ThemeColor)
	assert.Equal(t, "TOOLS", loaded.Document.SectionTitle(model.SectionSkills))
}

func TestAPIErrorMapsSentinels(t *testing.T) {
	tests := []struct {
		status int
		target error
	}{
		{status: http.StatusUnauthorized, target: ErrUnauthorized},
		{status: http.StatusForbidden, target: ErrForbidden},
		{status: http.StatusNotFound, target: ErrNotFound},
		{status: http.StatusUnprocessableEntity, target: ErrRejected},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message": "nope"}`))
			})
			err := client.DeleteCV(context.Background(), "1")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target))
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, "nope", apiErr.Message)
		})
	}
}

func TestNoRetryOnFailure(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.UpdateCV(context.Background(), "9", model.New())
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestUploadFileReturnsRelativePath(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/uploads", r.URL.Path)
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "photo.png", header.Filename)
		assert.Equal(t, "png-bytes", string(data))
		_, _ = w.Write([]byte(`{"path": "uploads/photo-1.png"}`))
	})

	rel, err := client.UploadFile(context.Background(), "photo.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "uploads/photo-1.png", rel)
}

func TestUploadFileWithoutPath(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := client.UploadFile(context.Background(), "a.png", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrEmptyUploadPath)
}

func TestDownloadCV(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user-cvs/5/download/html", r.URL.Path)
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Disposition", `attachment; filename="my-cv.html"`)
		_, _ = w.Write([]byte("<html></html>"))
	})

	art, err := client.DownloadCV(context.Background(), "5", FormatHTML)
	require.NoError(t, err)
	assert.Equal(t, "my-cv.html", art.FileName)
	assert.Equal(t, "text/html", art.ContentType)
	assert.Equal(t, "<html></html>", string(art.Data))

	_, err = client.DownloadCV(context.Background(), "5", "docx")
	assert.Error(t, err)
}

func TestListCollectionKeepsAttributes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cms/focus-areas", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id": 1, "title": "Health", "is_active": true}, {"id": 2, "title": "Water", "is_active": 0}]`))
	})

	recs, err := client.ListCollection(context.Background(), "focus-areas")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "1", recs[0].ID)
	assert.True(t, recs[0].IsActive)
	assert.False(t, recs[1].IsActive)

	out, err := json.Marshal(recs[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": "1", "title": "Health", "is_active": true}`, string(out))
}

func TestSaveOrderSendsIDs(t *testing.T) {
	var body struct {
		IDs []string `json:"ids"`
	}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/cms/team-members/order", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.SaveOrder(context.Background(), "team-members", []string{"3", "1", "2"}))
	assert.Equal(t, []string{"3", "1", "2"}, body.IDs)
}

func TestRecordWritesHitCollectionPaths(t *testing.T) {
	type call struct{ method, path, body string }
	var calls []call
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		calls = append(calls, call{r.Method, r.URL.Path, string(raw)})
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			_, _ = w.Write([]byte(`{"data":{"id":12,"name":"Rafiq","is_active":1}}`))
		}
	})
	ctx := context.Background()

	rec, err := client.CreateRecord(ctx, "team-members", map[string]json.RawMessage{"name": json.RawMessage(`"Rafiq"`)})
	require.NoError(t, err)
	assert.Equal(t, "12", rec.ID)
	assert.True(t, rec.IsActive)

	_, err = client.UpdateRecord(ctx, "team-members", "12", map[string]json.RawMessage{"designation": json.RawMessage(`"Chair"`)})
	require.NoError(t, err)
	require.NoError(t, client.DeleteRecord(ctx, "team-members", "12"))

	require.Len(t, calls, 3)
	assert.Equal(t, http.MethodPost, calls[0].method)
	assert.Equal(t, "/cms/team-members", calls[0].path)
	assert.JSONEq(t, `{"name":"Rafiq"}`, calls[0].body)
	assert.Equal(t, http.MethodPut, calls[1].method)
	assert.Equal(t, "/cms/team-members/12", calls[1].path)
	assert.Equal(t, http.MethodDelete, calls[2].method)
	assert.Equal(t, "/cms/team-members/12", calls[2].path)
}

func TestAboutPagePassThrough(t *testing.T) {
	var put string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cms/about-page", r.URL.Path)
		if r.Method == http.MethodPut {
			raw, _ := io.ReadAll(r.Body)
			put = string(raw)
			_, _ = w.Write(raw)
			return
		}
		_, _ = w.Write([]byte(`{"title":"About","sections":[{"heading":"Mission"}]}`))
	})
	page, err := client.GetAboutPage(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"About","sections":[{"heading":"Mission"}]}`, string(page))

	saved, err := client.UpdateAboutPage(context.Background(), json.RawMessage(`{"title":"Who we are"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Who we are"}`, put)
	assert.JSONEq(t, `{"title":"Who we are"}`, string(saved))
}

func TestTemplateWritesSendOnlySetFields(t *testing.T) {
	var body map[string]any
	var path, method string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		body = nil
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"id":4,"name":"Modern","preview_image":"uploads/m.png","is_active":false}`))
	})
	inactive := false
	tpl, err := client.UpdateTemplate(context.Background(), "4", TemplateInput{IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/cms/cv-templates/4", path)
	assert.Equal(t, map[string]any{"is_active": false}, body)
	assert.Equal(t, "4", tpl.ID)
	assert.Equal(t, "uploads/m.png", tpl.PreviewImage)
	assert.False(t, tpl.IsActive)

	name := "Modern"
	_, err = client.CreateTemplate(context.Background(), TemplateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/cms/cv-templates", path)
	assert.Equal(t, map[string]any{"name": "Modern"}, body)
}

func TestProfileReadAndWrite(t *testing.T) {
	var sent map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/7", r.URL.Path)
		if r.Method == http.MethodPut {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
		}
		_, _ = w.Write([]byte(`{"id":7,"name":"Karim","avatar":"uploads/k.png"}`))
	})
	p, err := client.GetProfile(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "Karim", p.Text("name"))
	assert.Equal(t, "", p.Text("id"))

	_, err = client.UpdateProfile(context.Background(), "7", Profile{"avatar": json.RawMessage(`"uploads/k.png"`)})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"avatar": "uploads/k.png"}, sent)
}
