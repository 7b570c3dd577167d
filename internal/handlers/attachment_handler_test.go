package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadRequest(t *testing.T, path, token, kind string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if content != nil {
		part, err := w.CreateFormFile("file", "timetable.pdf")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	if kind != "" {
		require.NoError(t, w.WriteField("kind", kind))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	return req
}

func (a *testApp) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func TestAttachmentLifecycle(t *testing.T) {
	app := newTestApp(t, true)
	author := getToken(t, faculty)
	n := app.createNotice(t, author, nil)
	path := "/api/v1/notices/" + n.ID + "/attachments"

	rec := app.serve(uploadRequest(t, path, getToken(t, student), "", []byte("pdf")))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.serve(uploadRequest(t, path, author, "", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.serve(uploadRequest(t, path, author, "", bytes.Repeat([]byte("x"), 2048)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.serve(uploadRequest(t, path, author, "", []byte("pdf")))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ref struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		URL  string `json:"url"`
		Key  string `json:"key"`
	}
	decode(t, rec, &ref)
	assert.Equal(t, "timetable.pdf", ref.Name)
	assert.Empty(t, ref.Key)
	assert.Len(t, app.objects.objects, 1)

	rec = app.do(t, http.MethodGet, path+"/"+ref.ID, "")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, ref.URL, rec.Header().Get(echo.HeaderLocation))

	stored, err := app.repo.GetByID(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Statistics.Downloads)

	app.run(t, []httpTest{
		{name: "download missing", method: http.MethodGet, path: path + "/missing", wantCode: http.StatusNotFound},
		{name: "remove by student", method: http.MethodDelete, path: path + "/" + ref.ID, token: getToken(t, student), wantCode: http.StatusForbidden},
		{name: "remove", method: http.MethodDelete, path: path + "/" + ref.ID, token: author, wantCode: http.StatusOK},
		{name: "remove again", method: http.MethodDelete, path: path + "/" + ref.ID, token: author, wantCode: http.StatusNotFound},
	})
	assert.Empty(t, app.objects.objects)
}

func TestUploadWithoutStorage(t *testing.T) {
	app := newTestApp(t, false)
	author := getToken(t, faculty)
	n := app.createNotice(t, author, nil)

	rec := app.serve(uploadRequest(t, "/api/v1/notices/"+n.ID+"/attachments", author, "image", []byte("png")))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	env := decode(t, rec, nil)
	assert.Equal(t, "file storage is not configured", env.Message)
}
