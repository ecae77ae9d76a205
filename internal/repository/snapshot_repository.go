package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrSnapshotNotFound is returned by snapshot backends when nothing has been stored yet.
var ErrSnapshotNotFound = errors.New("overlay snapshot not found")

// SnapshotRepository stores the serialized overlay state as a single document.
type SnapshotRepository interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, payload []byte) error
}

// FileSnapshotRepository keeps the snapshot in one file on local disk.
type FileSnapshotRepository struct {
	path string
}

// NewFileSnapshotRepository constructs a file backed snapshot repository.
func NewFileSnapshotRepository(path string) *FileSnapshotRepository {
	return &FileSnapshotRepository{path: path}
}

// Load reads the whole snapshot file.
func (r *FileSnapshotRepository) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	payload, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("read overlay snapshot: %w", err)
	}
	return payload, nil
}

// Save overwrites the snapshot. The payload goes to a temp file in the same
// directory which is then renamed over the target, so readers never see a partial file.
func (r *FileSnapshotRepository) Save(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("prepare overlay directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".overlay-*.tmp")
	if err != nil {
		return fmt.Errorf("create overlay temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write overlay temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close overlay temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace overlay snapshot: %w", err)
	}
	return nil
}
