package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/cppla/rsvblog/config"
)

// MinioStore keeps files as objects in one bucket.
type MinioStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinioStore connects and creates the bucket when it does not exist yet.
func NewMinioStore(ctx context.Context, c config.StorageSection) (*MinioStore, error) {
	client, err := minio.New(c.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.MinioAccessKey, c.MinioSecretKey, ""),
		Secure: c.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, c.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", c.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, c.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", c.MinioBucket, err)
		}
	}

	baseURL := strings.TrimRight(c.BaseURL, "/")
	return &MinioStore{client: client, bucket: c.MinioBucket, baseURL: baseURL}, nil
}

func (s *MinioStore) Put(ctx context.Context, stagedPath, key string) error {
	opts := minio.PutObjectOptions{ContentType: mime.TypeByExtension(path.Ext(key))}
	if _, err := s.client.FPutObject(ctx, s.bucket, key, stagedPath, opts); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return os.Remove(stagedPath)
}

func (s *MinioStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; Stat surfaces a missing key now
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, err
	}
	return obj, nil
}

func (s *MinioStore) URL(key string) string {
	return s.baseURL + "/" + key
}
