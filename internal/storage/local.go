package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// LocalStore keeps blobs as files under a single directory.
type LocalStore struct {
	dir string
}

// NewLocalStore creates the upload directory if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) path(filename string) string {
	// Strip any path components so a crafted filename cannot escape the
	// upload directory.
	return filepath.Join(s.dir, filepath.Base(filename))
}

func (s *LocalStore) Save(_ context.Context, filename string, r io.Reader) error {
	f, err := os.Create(s.path(filename))
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(f, r)
	return err
}

func (s *LocalStore) Open(_ context.Context, filename string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(filename))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return f, err
}

func (s *LocalStore) Delete(_ context.Context, filename string) error {
	err := os.Remove(s.path(filename))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	return err
}
