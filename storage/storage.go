// Package storage keeps attachment bytes, either on local disk or in a MinIO bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/cppla/rsvblog/config"
)

// Store moves staged uploads into permanent storage under a slash separated key.
type Store interface {
	// Put moves the staged file at stagedPath to key and removes the staging copy.
	Put(ctx context.Context, stagedPath, key string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	URL(key string) string
}

// New builds the Store selected by configuration.
func New(ctx context.Context, c config.StorageSection) (Store, error) {
	switch c.Driver {
	case "", "local":
		return NewLocalStore(c.Root, c.BaseURL), nil
	case "minio":
		return NewMinioStore(ctx, c)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", c.Driver)
	}
}

// Stage copies an uploaded file into dir under a random name and returns its path.
// The original name is not part of the staged path.
func Stage(fh *multipart.FileHeader, dir string, maxBytes int64) (string, error) {
	if maxBytes > 0 && fh.Size > maxBytes {
		return "", ErrTooLarge
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst := filepath.Join(dir, uuid.NewString()+".tmp")
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}

	var r io.Reader = src
	if maxBytes > 0 {
		r = io.LimitReader(src, maxBytes+1)
	}
	written, err := io.Copy(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil && maxBytes > 0 && written > maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	return dst, nil
}

// ErrTooLarge reports an upload above the configured limit.
var ErrTooLarge = errors.New("file exceeds upload limit")
