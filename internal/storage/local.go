package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"loadtrack/internal/apperrors"
)

// LocalBackend stores blobs under a media directory on disk.
type LocalBackend struct {
	root    string
	baseURL string
}

func NewLocalBackend(root, baseURL string) *LocalBackend {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &LocalBackend{root: root, baseURL: baseURL}
}

func (b *LocalBackend) Read(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(b.root, filepath.FromSlash(key)))
	if os.IsNotExist(err) {
		return nil, apperrors.NotFoundf("file %s", key)
	}
	return data, err
}

func (b *LocalBackend) Write(_ context.Context, key string, data []byte) error {
	path := filepath.Join(b.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (b *LocalBackend) Delete(_ context.Context, key string) error {
	err := os.Remove(filepath.Join(b.root, filepath.FromSlash(key)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (b *LocalBackend) URLFor(key string) string {
	return b.baseURL + key
}
