package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/huddleplan/huddle-pipeline/pkg/config"
)

// ClipStore persists finished turn clips in object storage so the original
// audio survives the extraction round trip and can be replayed later.
type ClipStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewClipStore creates a MinIO-backed clip store
func NewClipStore(cfg *config.StorageConfig) (*ClipStore, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	store := &ClipStore{
		client:    minioClient,
		bucket:    cfg.BucketName,
		publicURL: cfg.PublicURL,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}

	return store, nil
}

func (s *ClipStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// StoreClip uploads a clip and returns its object URL. The upload is
// idempotent per object name, so transient failures are retried with
// exponential backoff.
func (s *ClipStore) StoreClip(ctx context.Context, objectName string, clip []byte, contentType string) (string, error) {
	op := func() error {
		_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(clip), int64(len(clip)), minio.PutObjectOptions{
			ContentType: contentType,
		})
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return "", fmt.Errorf("failed to upload clip: %w", err)
	}

	return s.objectURL(objectName), nil
}

// FetchClip downloads a stored clip
func (s *ClipStore) FetchClip(ctx context.Context, objectName string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get clip: %w", err)
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(obj); err != nil {
		return nil, fmt.Errorf("failed to read clip: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *ClipStore) objectURL(objectName string) string {
	if s.publicURL != "" {
		return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, objectName)
	}
	return fmt.Sprintf("%s/%s/%s", s.client.EndpointURL(), s.bucket, objectName)
}
