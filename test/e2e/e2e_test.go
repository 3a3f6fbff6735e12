package e2e_test

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
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avasile/snapvault/internal/cache"
	"github.com/avasile/snapvault/internal/config"
	"github.com/avasile/snapvault/internal/database"
	"github.com/avasile/snapvault/internal/router"
	"github.com/avasile/snapvault/internal/storage"
)

// TestFullFlow walks the whole API surface the way a client would:
// register, log in, upload an image, transform it, download the derived
// image through its signed URL, then delete the original.
func TestFullFlow(t *testing.T) {
	db, err := database.NewSQLiteDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String()))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := storage.NewFileSystem(t.TempDir(), "http://localhost:8080", []byte("e2e-url-secret"))

	cfg := &config.Config{
		BaseURL:             "http://localhost:8080",
		JWTSecret:           "e2e-jwt-secret",
		CacheTTLSeconds:     3600,
		SignedURLTTLSeconds: 3600,
		TransformRateLimit:  100,
		TransformRateWindow: 60,
		MaxUploadBytes:      5 << 20,
	}

	srv := router.New(db, store, cache.NewMemory(), cfg)
	ts := httptest.NewServer(srv.Router)
	t.Cleanup(ts.Close)

	// Health check.
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Register.
	register := `{"name":"E2E","email":"e2e@example.com","password":"secret123"}`
	resp, err = http.Post(ts.URL+"/api/users", "application/json", bytes.NewBufferString(register))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Login.
	login := `{"email":"e2e@example.com","password":"secret123"}`
	resp, err = http.Post(ts.URL+"/api/users/login", "application/json", bytes.NewBufferString(login))
	require.NoError(t, err)
	var loginOut struct {
		Token string `json:"token"`
	}
	decodeJSON(t, resp, &loginOut)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, loginOut.Token)
	token := loginOut.Token

	// Upload a 120x80 JPEG.
	body, contentType := multipartBody(t, "e2e shot", renderJPEG(t, 120, 80))
	req := newAuthRequest(t, http.MethodPost, ts.URL+"/api/images", token, body)
	req.Header.Set("Content-Type", contentType)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	var uploaded struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &uploaded)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, uploaded.ID)

	// Transform: resize to 60x40 and grayscale, default jpeg output.
	spec := `{"transformations":{"resize":{"width":60,"height":40},"filters":{"grayscale":true}}}`
	req = newAuthRequest(t, http.MethodPost, ts.URL+"/api/images/"+uploaded.ID+"/transform", token, bytes.NewBufferString(spec))
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	var transformed struct {
		ImageURL string `json:"imageUrl"`
		Metadata struct {
			Width  int    `json:"width"`
			Height int    `json:"height"`
			Format string `json:"format"`
		} `json:"metadata"`
	}
	decodeJSON(t, resp, &transformed)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 60, transformed.Metadata.Width)
	assert.Equal(t, 40, transformed.Metadata.Height)
	assert.Equal(t, "jpeg", transformed.Metadata.Format)

	// Download the derived image through its signed URL. The store was
	// configured with a static base URL, so point the path at the test
	// server instead.
	derived := fetchSigned(t, ts, transformed.ImageURL)
	img, format, err := image.Decode(bytes.NewReader(derived))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 60, img.Bounds().Dx())
	assert.Equal(t, 40, img.Bounds().Dy())

	// A repeat call is a cache hit and returns the identical URL.
	req = newAuthRequest(t, http.MethodPost, ts.URL+"/api/images/"+uploaded.ID+"/transform", token, bytes.NewBufferString(spec))
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	var repeat struct {
		ImageURL string `json:"imageUrl"`
	}
	decodeJSON(t, resp, &repeat)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, transformed.ImageURL, repeat.ImageURL)

	// Tampering with the signature is rejected.
	u, err := url.Parse(transformed.ImageURL)
	require.NoError(t, err)
	q := u.Query()
	q.Set("sig", "deadbeef")
	resp, err = http.Get(ts.URL + u.Path + "?" + q.Encode())
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Delete the original.
	req = newAuthRequest(t, http.MethodDelete, ts.URL+"/api/images/"+uploaded.ID, token, nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req = newAuthRequest(t, http.MethodGet, ts.URL+"/api/images/"+uploaded.ID, token, nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func renderJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: 90, G: 160, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func multipartBody(t *testing.T, title string, content []byte) (*bytes.Buffer, string) {
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

func newAuthRequest(t *testing.T, method, url, token string, body io.Reader) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// fetchSigned downloads a signed URL, rewriting its host to the test server.
func fetchSigned(t *testing.T, ts *httptest.Server, signed string) []byte {
	t.Helper()
	u, err := url.Parse(signed)
	require.NoError(t, err)

	resp, err := http.Get(ts.URL + u.Path + "?" + u.RawQuery)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return data
}

func decodeJSON(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target), "body: %s", data)
}
