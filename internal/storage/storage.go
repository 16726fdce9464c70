// Package storage abstracts where uploaded images live. Handlers store and
// retrieve blobs by filename and never touch the backend directly.
package storage

import (
	"context"
	"errors"
	"io"

	"github.com/pluto-chenxin/game-master-support/internal/config"
)

// ErrNotFound is returned when the named blob does not exist.
var ErrNotFound = errors.New("file not found")

// Store is a blob store keyed by filename.
type Store interface {
	Save(ctx context.Context, filename string, r io.Reader) error
	Open(ctx context.Context, filename string) (io.ReadCloser, error)
	Delete(ctx context.Context, filename string) error
}

// New selects the store implementation from configuration: "s3" or "local"
// (the default).
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	if cfg.StorageBackend == "s3" {
		return NewS3Store(ctx, cfg.S3Bucket, cfg.S3Region)
	}
	return NewLocalStore(cfg.UploadDir)
}
