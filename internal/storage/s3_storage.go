package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/kireiworks/cleaning-backend/pkg/logger"
	"github.com/pkg/errors"
)

// S3Storage is the S3-compatible backend (AWS, MinIO, R2)
type S3Storage struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

func NewS3Storage(region, bucket, accessKeyID, secretAccessKey, baseURL string) *S3Storage {
	var cfg aws.Config
	var err error

	// Static credentials when provided, otherwise the default credential chain
	if accessKeyID != "" && secretAccessKey != "" {
		cfg = aws.Config{
			Region: region,
			Credentials: credentials.NewStaticCredentialsProvider(
				accessKeyID,
				secretAccessKey,
				"",
			),
		}
	} else {
		cfg, err = config.LoadDefaultConfig(context.TODO(),
			config.WithRegion(region),
		)
		if err != nil {
			logger.Warn("Failed to load default AWS config, using region only", map[string]interface{}{
				"error": err.Error(),
			})
			cfg = aws.Config{
				Region: region,
			}
		}
	}

	return &S3Storage{
		client:  s3.NewFromConfig(cfg),
		bucket:  bucket,
		baseURL: baseURL,
	}
}

func (s *S3Storage) UploadLegacy(ctx context.Context, in UploadInput) (*ObjectMetadata, error) {
	key := BuildObjectPath(in.Folder, in.OriginalName, in.ContentType, time.Now())

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(in.Data),
		ContentType: aws.String(in.ContentType),
		Metadata:    in.Metadata,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "s3: put object %s", key)
	}

	return &ObjectMetadata{
		Path:         key,
		URL:          s.PublicURL(key),
		Bucket:       s.bucket,
		ContentType:  in.ContentType,
		Size:         int64(len(in.Data)),
		OriginalName: in.OriginalName,
		Metadata:     in.Metadata,
	}, nil
}

func (s *S3Storage) UploadSimple(ctx context.Context, in UploadInput) (string, error) {
	meta, err := s.UploadLegacy(ctx, in)
	if err != nil {
		return "", err
	}
	return meta.URL, nil
}

func (s *S3Storage) Delete(ctx context.Context, urlOrPath string) error {
	key, err := s.ObjectPath(urlOrPath)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "s3: delete object %s", key)
	}
	return nil
}

func (s *S3Storage) SignedUploadURL(ctx context.Context, objectPath, contentType string, expiry time.Duration) (string, error) {
	presignClient := s3.NewPresignClient(s.client)
	req, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectPath),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(expiryOrDefault(expiry)))
	if err != nil {
		return "", errors.Wrap(err, "s3: presign put")
	}
	return req.URL, nil
}

func (s *S3Storage) SignedReadURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	presignClient := s3.NewPresignClient(s.client)
	req, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectPath),
	}, s3.WithPresignExpires(expiryOrDefault(expiry)))
	if err != nil {
		return "", errors.Wrap(err, "s3: presign get")
	}
	return req.URL, nil
}

func (s *S3Storage) PublicURL(key string) string {
	if s.baseURL != "" {
		// CloudFront or custom domain
		return fmt.Sprintf("%s/%s", s.baseURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.client.Options().Region, key)
}

func (s *S3Storage) ObjectPath(urlOrPath string) (string, error) {
	return pathFromURL(urlOrPath,
		s.baseURL,
		fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s.bucket, s.client.Options().Region),
		fmt.Sprintf("https://%s.s3.amazonaws.com", s.bucket),
		fmt.Sprintf("s3://%s", s.bucket),
	)
}
