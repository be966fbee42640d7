package storage

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"
)

// MemoryStorage keeps objects in process memory. Used with STORAGE_BACKEND=memory and in tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]memoryObject
	now     func() time.Time

	// Set by tests to simulate outages
	FailUploads bool
	FailDeletes bool
}

type memoryObject struct {
	data        []byte
	contentType string
	metadata    map[string]string
}

var errMemoryUnavailable = fmt.Errorf("storage: memory backend unavailable")

func NewMemoryStorage(bucket string) *MemoryStorage {
	return &MemoryStorage{
		bucket:  bucket,
		objects: make(map[string]memoryObject),
		now:     time.Now,
	}
}

func (m *MemoryStorage) UploadLegacy(ctx context.Context, in UploadInput) (*ObjectMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailUploads {
		return nil, errMemoryUnavailable
	}

	objectPath := BuildObjectPath(in.Folder, in.OriginalName, in.ContentType, m.now())

	data := make([]byte, len(in.Data))
	copy(data, in.Data)
	m.objects[objectPath] = memoryObject{data: data, contentType: in.ContentType, metadata: in.Metadata}

	return &ObjectMetadata{
		Path:         objectPath,
		URL:          m.PublicURL(objectPath),
		Bucket:       m.bucket,
		ContentType:  in.ContentType,
		Size:         int64(len(in.Data)),
		OriginalName: in.OriginalName,
		Metadata:     in.Metadata,
	}, nil
}

func (m *MemoryStorage) UploadSimple(ctx context.Context, in UploadInput) (string, error) {
	meta, err := m.UploadLegacy(ctx, in)
	if err != nil {
		return "", err
	}
	return meta.URL, nil
}

func (m *MemoryStorage) Delete(ctx context.Context, urlOrPath string) error {
	objectPath, err := m.ObjectPath(urlOrPath)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDeletes {
		return errMemoryUnavailable
	}
	delete(m.objects, objectPath)
	return nil
}

func (m *MemoryStorage) SignedUploadURL(ctx context.Context, objectPath, contentType string, expiry time.Duration) (string, error) {
	return m.signed("PUT", objectPath, expiry), nil
}

func (m *MemoryStorage) SignedReadURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	return m.signed("GET", objectPath, expiry), nil
}

func (m *MemoryStorage) signed(method, objectPath string, expiry time.Duration) string {
	q := url.Values{}
	q.Set("method", method)
	q.Set("expires", m.now().Add(expiryOrDefault(expiry)).UTC().Format(time.RFC3339))
	return fmt.Sprintf("%s?%s", m.PublicURL(objectPath), q.Encode())
}

func (m *MemoryStorage) PublicURL(objectPath string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", m.bucket, objectPath)
}

func (m *MemoryStorage) ObjectPath(urlOrPath string) (string, error) {
	return gcsObjectPath(m.bucket, urlOrPath)
}

// Exists reports whether an object is stored at objectPath
func (m *MemoryStorage) Exists(objectPath string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[objectPath]
	return ok
}

// Len returns the number of stored objects
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// SetFailDeletes toggles simulated delete failures
func (m *MemoryStorage) SetFailDeletes(fail bool) {
	m.mu.Lock()
	m.FailDeletes = fail
	m.mu.Unlock()
}
