package storage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Compile-time check that FileSystem implements ObjectStore.
var _ ObjectStore = (*FileSystem)(nil)

// FileSystem implements ObjectStore on the local filesystem. Signed URLs
// point at the server's own /files/ delivery route and carry an HMAC-SHA256
// signature over the path and expiry.
type FileSystem struct {
	basePath string
	baseURL  string
	secret   []byte
}

// NewFileSystem creates a FileSystem store rooted at basePath. baseURL is
// the externally reachable server address used when building signed URLs.
func NewFileSystem(basePath, baseURL string, secret []byte) *FileSystem {
	return &FileSystem{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
		secret:   secret,
	}
}

func (fs *FileSystem) objectPath(key string) string {
	return filepath.Join(fs.basePath, filepath.FromSlash(key))
}

// Put writes data using an atomic write (temp file + rename).
func (fs *FileSystem) Put(ctx context.Context, key string, data []byte, contentType string) error {
	path := fs.objectPath(key)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "put-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", path, err)
	}

	// Rename succeeded; prevent deferred cleanup from removing the final file.
	tmpPath = ""
	return nil
}

// Get reads the full object content.
func (fs *FileSystem) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(fs.objectPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("object not found: %s", key)
		}
		return nil, fmt.Errorf("reading object %s: %w", key, err)
	}
	return data, nil
}

// Delete removes the object. It is idempotent.
func (fs *FileSystem) Delete(ctx context.Context, key string) error {
	err := os.Remove(fs.objectPath(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing object %s: %w", key, err)
	}
	return nil
}

// SignURL builds a URL for the /files/ delivery route with sig and exp
// query parameters.
func (fs *FileSystem) SignURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	exp := time.Now().Add(ttl).Unix()
	expStr := strconv.FormatInt(exp, 10)
	sig := fs.sign(key, expStr)
	return fmt.Sprintf("%s/files/%s?sig=%s&exp=%s",
		fs.baseURL, urlEscapeKey(key), sig, expStr), nil
}

// VerifySignature checks the sig and exp values from a delivery request.
// It returns false for a bad signature or an expired URL.
func (fs *FileSystem) VerifySignature(key, sigHex, expStr string) bool {
	if sigHex == "" || expStr == "" {
		return false
	}
	expUnix, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return false
	}
	if time.Now().Unix() > expUnix {
		return false
	}
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return false
	}
	expected, err := hex.DecodeString(fs.sign(key, expStr))
	if err != nil {
		return false
	}
	return hmac.Equal(sig, expected)
}

func (fs *FileSystem) sign(key, expStr string) string {
	mac := hmac.New(sha256.New, fs.secret)
	mac.Write([]byte("/files/" + key + expStr))
	return hex.EncodeToString(mac.Sum(nil))
}

// urlEscapeKey escapes each path segment while keeping the slashes.
func urlEscapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
