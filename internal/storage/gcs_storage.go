package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"github.com/kireiworks/cleaning-backend/pkg/logger"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// GCSStorage stores objects in a Google Cloud Storage bucket
type GCSStorage struct {
	client *storage.Client
	bucket string
}

// NewGCSStorage connects with the service-account key file when given, otherwise
// with application default credentials.
func NewGCSStorage(ctx context.Context, projectID, keyFile, bucket string) (*GCSStorage, error) {
	var opts []option.ClientOption
	if keyFile != "" {
		opts = append(opts, option.WithCredentialsFile(keyFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create gcs client")
	}

	logger.Info("GCS storage initialized", map[string]interface{}{
		"project_id": projectID,
		"bucket":     bucket,
	})

	return &GCSStorage{client: client, bucket: bucket}, nil
}

func (s *GCSStorage) Close() error {
	return s.client.Close()
}

func (s *GCSStorage) UploadLegacy(ctx context.Context, in UploadInput) (*ObjectMetadata, error) {
	objectPath := BuildObjectPath(in.Folder, in.OriginalName, in.ContentType, time.Now())
	obj := s.client.Bucket(s.bucket).Object(objectPath)

	w := obj.NewWriter(ctx)
	w.ContentType = in.ContentType
	w.Metadata = in.Metadata
	if _, err := w.Write(in.Data); err != nil {
		w.Close()
		return nil, errors.Wrapf(err, "write object %s", objectPath)
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrapf(err, "finalize object %s", objectPath)
	}

	// Buckets with uniform bucket-level access reject object ACLs
	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		logger.Warn("Failed to make object public", map[string]interface{}{
			"path":  objectPath,
			"error": err.Error(),
		})
	}

	return &ObjectMetadata{
		Path:         objectPath,
		URL:          s.PublicURL(objectPath),
		Bucket:       s.bucket,
		ContentType:  in.ContentType,
		Size:         int64(len(in.Data)),
		OriginalName: in.OriginalName,
		Metadata:     in.Metadata,
	}, nil
}

func (s *GCSStorage) UploadSimple(ctx context.Context, in UploadInput) (string, error) {
	meta, err := s.UploadLegacy(ctx, in)
	if err != nil {
		return "", err
	}
	return meta.URL, nil
}

func (s *GCSStorage) Delete(ctx context.Context, urlOrPath string) error {
	objectPath, err := s.ObjectPath(urlOrPath)
	if err != nil {
		return err
	}
	err = s.client.Bucket(s.bucket).Object(objectPath).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		logger.Debug("Object already absent", map[string]interface{}{"path": objectPath})
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "delete object %s", objectPath)
	}
	return nil
}

func (s *GCSStorage) SignedUploadURL(ctx context.Context, objectPath, contentType string, expiry time.Duration) (string, error) {
	u, err := s.client.Bucket(s.bucket).SignedURL(objectPath, &storage.SignedURLOptions{
		Scheme:      storage.SigningSchemeV4,
		Method:      http.MethodPut,
		ContentType: contentType,
		Expires:     time.Now().Add(expiryOrDefault(expiry)),
	})
	if err != nil {
		return "", errors.Wrapf(err, "sign upload url for %s", objectPath)
	}
	return u, nil
}

func (s *GCSStorage) SignedReadURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	u, err := s.client.Bucket(s.bucket).SignedURL(objectPath, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(expiryOrDefault(expiry)),
	})
	if err != nil {
		return "", errors.Wrapf(err, "sign read url for %s", objectPath)
	}
	return u, nil
}

func (s *GCSStorage) PublicURL(objectPath string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, objectPath)
}

func (s *GCSStorage) ObjectPath(urlOrPath string) (string, error) {
	return gcsObjectPath(s.bucket, urlOrPath)
}

func gcsObjectPath(bucket, urlOrPath string) (string, error) {
	return pathFromURL(urlOrPath,
		fmt.Sprintf("https://storage.googleapis.com/%s", bucket),
		fmt.Sprintf("https://storage.cloud.google.com/%s", bucket),
		fmt.Sprintf("https://%s.storage.googleapis.com", bucket),
		fmt.Sprintf("gs://%s", bucket),
	)
}
