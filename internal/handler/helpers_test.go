package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/avasile/snapvault/internal/cache"
	"github.com/avasile/snapvault/internal/config"
	"github.com/avasile/snapvault/internal/database"
	"github.com/avasile/snapvault/internal/router"
	"github.com/avasile/snapvault/internal/storage"
)

// testServer creates a test HTTP server backed by in-memory SQLite, a
// temporary filesystem object store and an in-memory cache.
func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := database.NewSQLiteDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String()))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := storage.NewFileSystem(t.TempDir(), "http://localhost:8080", []byte("test-url-secret"))

	cfg := &config.Config{
		BaseURL:             "http://localhost:8080",
		JWTSecret:           "test-jwt-secret",
		CacheTTLSeconds:     3600,
		SignedURLTTLSeconds: 3600,
		TransformRateLimit:  5,
		TransformRateWindow: 60,
		MaxUploadBytes:      5 << 20,
	}

	srv := router.New(db, store, cache.NewMemory(), cfg)
	ts := httptest.NewServer(srv.Router)
	t.Cleanup(ts.Close)
	return ts
}

// registerAndLogin creates an account with a unique email and returns its
// bearer token.
func registerAndLogin(t *testing.T, ts *httptest.Server) string {
	t.Helper()

	email := uuid.New().String() + "@example.com"
	body := fmt.Sprintf(`{"name":"Test","email":%q,"password":"secret123"}`, email)
	resp, err := http.Post(ts.URL+"/api/users", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	login := fmt.Sprintf(`{"email":%q,"password":"secret123"}`, email)
	resp, err = http.Post(ts.URL+"/api/users/login", "application/json", bytes.NewBufferString(login))
	require.NoError(t, err)
	var out struct {
		Token string `json:"token"`
	}
	decodeResponse(t, resp, &out)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, out.Token)
	return out.Token
}

// authReq creates an *http.Request carrying the bearer token.
func authReq(t *testing.T, method, url, token string, body io.Reader) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// testJPEG renders a solid w x h JPEG.
func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: 200, G: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

// multipartUpload builds a multipart body with a title field and an image
// file field.
func multipartUpload(t *testing.T, title string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("title", title))
	fw, err := w.CreateFormFile("image", "photo.jpg")
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

// uploadImage uploads a 100x100 JPEG and returns the new image id.
func uploadImage(t *testing.T, ts *httptest.Server, token string) string {
	t.Helper()
	body, contentType := multipartUpload(t, "test image", testJPEG(t, 100, 100))
	req := authReq(t, http.MethodPost, ts.URL+"/api/images", token, body)
	req.Header.Set("Content-Type", contentType)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	var img struct {
		ID string `json:"id"`
	}
	decodeResponse(t, resp, &img)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, img.ID)
	return img.ID
}

// transformBody wraps a transformations JSON fragment into the request body.
func transformBody(spec string) *bytes.Buffer {
	return bytes.NewBufferString(`{"transformations":` + spec + `}`)
}

// decodeResponse decodes the JSON body into target and closes the body.
func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target), "body: %s", data)
}
