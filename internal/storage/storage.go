package storage

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kireiworks/cleaning-backend/config"
	"github.com/pkg/errors"
)

// DefaultSignedURLExpiry is used when a caller passes a zero expiry
const DefaultSignedURLExpiry = 15 * time.Minute

// ErrInvalidPath is returned when a URL or path cannot be resolved to an object in this bucket
var ErrInvalidPath = errors.New("storage: invalid object path")

// ErrTooLarge is returned by InputFromFileHeader
var ErrTooLarge = errors.New("storage: file exceeds size limit")

// ObjectStore is the bucket abstraction used by the services.
// UploadLegacy and UploadSimple write the same object; they differ only in what they return.
type ObjectStore interface {
	UploadLegacy(ctx context.Context, in UploadInput) (*ObjectMetadata, error)
	UploadSimple(ctx context.Context, in UploadInput) (string, error)
	// Delete accepts a public URL or a bare object path. A missing object is not an error.
	Delete(ctx context.Context, urlOrPath string) error
	SignedUploadURL(ctx context.Context, objectPath, contentType string, expiry time.Duration) (string, error)
	SignedReadURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
	PublicURL(objectPath string) string
	// ObjectPath resolves a public URL (or bare path) to the object path
	ObjectPath(urlOrPath string) (string, error)
}

type UploadInput struct {
	Data         []byte
	OriginalName string
	Folder       string
	ContentType  string
	Metadata     map[string]string
}

type ObjectMetadata struct {
	Path         string            `json:"path"`
	URL          string            `json:"url"`
	Bucket       string            `json:"bucket"`
	ContentType  string            `json:"contentType"`
	Size         int64             `json:"size"`
	OriginalName string            `json:"originalName,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// InputFromFileHeader reads a multipart part into an UploadInput, refusing files over maxBytes
func InputFromFileHeader(fh *multipart.FileHeader, folder string, maxBytes int64) (UploadInput, error) {
	f, err := fh.Open()
	if err != nil {
		return UploadInput{}, errors.Wrap(err, "open multipart file")
	}
	defer f.Close()

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(f, maxBytes+1))
	if err != nil {
		return UploadInput{}, errors.Wrap(err, "read multipart file")
	}
	if n > maxBytes {
		return UploadInput{}, ErrTooLarge
	}

	return UploadInput{
		Data:         buf.Bytes(),
		OriginalName: fh.Filename,
		Folder:       folder,
		ContentType:  fh.Header.Get("Content-Type"),
	}, nil
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeName keeps ASCII letters, digits, dot, underscore and dash
func SanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" {
		return ""
	}
	return unsafeNameChars.ReplaceAllString(name, "_")
}

var extensions = map[string]string{
	"image/jpeg":      "jpg",
	"image/jpg":       "jpg",
	"image/png":       "png",
	"image/webp":      "webp",
	"image/gif":       "gif",
	"application/pdf": "pdf",
}

// ExtensionFor infers a file extension from a content type, "bin" when unknown
func ExtensionFor(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if ext, ok := extensions[ct]; ok {
		return ext
	}
	return "bin"
}

// BuildObjectPath names a new object:
// <folder>/<unix millis>_<8 hex>_<sanitized name>, or <folder>/<unix millis>_<8 hex>.<ext> when there is no usable name.
// The random part keeps same-named uploads in the same millisecond apart.
func BuildObjectPath(folder, originalName, contentType string, now time.Time) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		folder = "uploads"
	}
	millis := now.UnixMilli()
	suffix := randomHex(4)
	if name := SanitizeName(originalName); name != "" {
		return fmt.Sprintf("%s/%d_%s_%s", folder, millis, suffix, name)
	}
	return fmt.Sprintf("%s/%d_%s.%s", folder, millis, suffix, ExtensionFor(contentType))
}

// randomHex takes the leading bytes of a v4 UUID, which are fully random for n <= 6
func randomHex(n int) string {
	id := uuid.New()
	return hex.EncodeToString(id[:n])
}

// pathFromURL strips the known URL prefixes of a bucket. Bare paths pass through.
func pathFromURL(urlOrPath string, prefixes ...string) (string, error) {
	s := strings.TrimSpace(urlOrPath)
	if s == "" {
		return "", ErrInvalidPath
	}

	if !strings.Contains(s, "://") {
		p := strings.TrimPrefix(s, "/")
		if p == "" {
			return "", ErrInvalidPath
		}
		return p, nil
	}

	for _, prefix := range prefixes {
		if prefix == "" {
			continue
		}
		prefix = strings.TrimSuffix(prefix, "/") + "/"
		if strings.HasPrefix(s, prefix) {
			p := strings.TrimPrefix(s, prefix)
			if i := strings.IndexAny(p, "?#"); i >= 0 {
				p = p[:i]
			}
			if unescaped, err := url.PathUnescape(p); err == nil {
				p = unescaped
			}
			if p == "" {
				return "", ErrInvalidPath
			}
			return p, nil
		}
	}
	return "", errors.Wrapf(ErrInvalidPath, "url %q does not belong to this bucket", s)
}

// New builds the object store selected by STORAGE_BACKEND
func New(ctx context.Context, cfg *config.Config) (ObjectStore, error) {
	switch cfg.Storage.Backend {
	case "gcs":
		return NewGCSStorage(ctx, cfg.GCS.ProjectID, cfg.GCS.KeyFile, cfg.GCS.BucketName)
	case "s3":
		return NewS3Storage(cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, cfg.S3.BaseURL), nil
	case "memory":
		return NewMemoryStorage("memory-bucket"), nil
	}
	return nil, errors.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

func expiryOrDefault(expiry time.Duration) time.Duration {
	if expiry <= 0 {
		return DefaultSignedURLExpiry
	}
	return expiry
}
