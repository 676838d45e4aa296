package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrUnsupportedType is returned for uploads outside the image whitelist.
var ErrUnsupportedType = errors.New("unsupported file type")

// ErrTooLarge is returned for uploads above the size cap.
var ErrTooLarge = errors.New("file too large")

// allowedMIMETypes is the whitelist for uploaded ledger photos.
var allowedMIMETypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Object is a stored blob.
type Object struct {
	Key      string `json:"key"` // "<bucket>/<file>"
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// Store keeps uploaded images.
type Store interface {
	Put(ctx context.Context, data []byte) (*Object, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// LocalStore writes objects under <root>/<bucket>/<uuid><ext> and serves them
// below <baseURL>/uploads/.
type LocalStore struct {
	root    string
	bucket  string
	baseURL string
	maxSize int64
}

// NewLocalStore creates the bucket directory if needed.
func NewLocalStore(root, bucket, baseURL string, maxSize int64) (*LocalStore, error) {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == ".." {
		return nil, fmt.Errorf("invalid bucket name %q", bucket)
	}
	if err := os.MkdirAll(filepath.Join(root, bucket), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStore{
		root:    root,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		maxSize: maxSize,
	}, nil
}

// Root is the directory served under /uploads/.
func (s *LocalStore) Root() string { return s.root }

// DetectImageType sniffs data and returns its MIME type when it is an
// allowed image.
func DetectImageType(data []byte) (string, error) {
	mimeType := strings.ToLower(strings.TrimSpace(http.DetectContentType(data)))
	if _, ok := allowedMIMETypes[mimeType]; !ok {
		return "", fmt.Errorf("%w: %q; accepted: jpeg, png, webp", ErrUnsupportedType, mimeType)
	}
	return mimeType, nil
}

func (s *LocalStore) Put(ctx context.Context, data []byte) (*Object, error) {
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return nil, fmt.Errorf("%w: maximum is %d MB", ErrTooLarge, s.maxSize>>20)
	}
	mimeType, err := DetectImageType(data)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := uuid.NewString() + allowedMIMETypes[mimeType]
	dest := filepath.Join(s.root, s.bucket, name)
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to save uploaded file: %w", err)
	}

	key := path.Join(s.bucket, name)
	return &Object{Key: key, URL: s.PublicURL(key), MimeType: mimeType, Size: int64(len(data))}, nil
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	bucket, name, ok := strings.Cut(key, "/")
	if !ok || bucket != s.bucket || name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid object key %q", key)
	}
	if err := os.Remove(filepath.Join(s.root, bucket, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *LocalStore) PublicURL(key string) string {
	return s.baseURL + "/uploads/" + key
}
