package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mamadbah2/warehouse/internal/repository"
)

// Repository stores the ledger document as one JSON file.
type Repository struct {
	path string
}

// NewRepository returns a file repository rooted at path. The parent
// directory is created when missing.
func NewRepository(path string) (*Repository, error) {
	if path == "" {
		return nil, fmt.Errorf("store path must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &Repository{path: path}, nil
}

// Path returns the backing file path.
func (r *Repository) Path() string {
	return r.path
}

// Load reads the document, or returns repository.ErrNotFound.
func (r *Repository) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read store file %s: %w", r.path, err)
	}
	return raw, nil
}

// Save overwrites the document through a temp file and rename, so a reader
// never sees a half-written file.
func (r *Repository) Save(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp store file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replace store file %s: %w", r.path, err)
	}
	return nil
}

// Clear removes the document. A missing file is not an error.
func (r *Repository) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove store file %s: %w", r.path, err)
	}
	return nil
}
