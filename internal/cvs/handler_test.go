package cvs

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portal-web/internal/backend"
)

func newTestRouter(gw *fakeGateway) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userId", alice.UserID)
		c.Set("backendToken", alice.Token)
		c.Next()
	})
	NewHandler(NewService(gw.factory(), nil)).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func serve(router http.Handler, method, path string) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(method, path, nil))
	return resp
}

func errorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	return env.Error.Code
}

func TestDeleteWithoutConfirmIsConflict(t *testing.T) {
	gw := &fakeGateway{}
	router := newTestRouter(gw)

	resp := serve(router, http.MethodDelete, "/api/v1/cvs/3")
	require.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "confirmation_required", errorCode(t, resp))

	resp = serve(router, http.MethodDelete, "/api/v1/cvs/3?confirm=true")
	require.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, []string{"3"}, gw.deleted)
}

func TestDownloadPDFSetsHeaders(t *testing.T) {
	gw := &fakeGateway{artifacts: map[string]backend.Artifact{
		"9.pdf": {FileName: "Farhana CV.pdf", ContentType: "application/pdf", Data: minimalPDF(1)},
	}}
	resp := serve(newTestRouter(gw), http.MethodGet, "/api/v1/cvs/9/download/pdf")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "1", resp.Header().Get(HeaderPageCount))
	assert.Equal(t, "application/pdf", resp.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Farhana CV.pdf"`, resp.Header().Get("Content-Disposition"))
}

func TestDownloadErrors(t *testing.T) {
	gw := &fakeGateway{artifacts: map[string]backend.Artifact{
		"9.pdf": {FileName: "cv.pdf", ContentType: "application/pdf", Data: []byte("%PDF-garbage")},
	}}
	router := newTestRouter(gw)

	resp := serve(router, http.MethodGet, "/api/v1/cvs/9/download/pdf")
	require.Equal(t, http.StatusBadGateway, resp.Code)
	assert.Equal(t, "export_corrupt", errorCode(t, resp))

	resp = serve(router, http.MethodGet, "/api/v1/cvs/404/download/pdf")
	require.Equal(t, http.StatusNotFound, resp.Code)

	resp = serve(router, http.MethodGet, "/api/v1/cvs/9/download/docx")
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "unsupported_format", errorCode(t, resp))
}

func TestListReturnsItems(t *testing.T) {
	gw := &fakeGateway{}
	resp := serve(newTestRouter(gw), http.MethodGet, "/api/v1/cvs")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"items":[]}`, resp.Body.String())
}
