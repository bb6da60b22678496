package ccachestore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/credential"
)

// FileStore persists one ccache file per principal under a directory,
// named after the principal's "name@realm" display form (URL-escaped so it
// is safe as a filename), matching the single-flat-file layout
// pkg/config.Save uses for its own config file (0600 permissions: a ccache
// carries a session key).
type FileStore struct {
	dir string
}

// NewFileStore returns a Store rooted at dir, creating it if necessary.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create ccache directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(p credential.Principal) string {
	return filepath.Join(s.dir, url.PathEscape(key(p))+".ccache")
}

func (s *FileStore) Save(ctx context.Context, principal credential.Principal, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.WriteFile(s.path(principal), data, 0o600); err != nil {
		return fmt.Errorf("write ccache file: %w", err)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context, principal credential.Principal) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(principal))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read ccache file: %w", err)
	}
	return data, nil
}

func (s *FileStore) Delete(ctx context.Context, principal credential.Principal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(s.path(principal))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove ccache file: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
