package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	domrepo "StockCast/internal/domain/repository"
)

// FileModelStore persists model artifacts as files under a base directory.
// Saves go through a temp file and rename so a crash mid-write never leaves
// a truncated artifact behind.
type FileModelStore struct {
	dir string
}

// NewFileModelStore creates a file-backed model store rooted at dir.
func NewFileModelStore(dir string) (domrepo.ModelStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model dir: %w", err)
	}
	return &FileModelStore{dir: dir}, nil
}

func (s *FileModelStore) Save(ctx context.Context, name string, artifact []byte) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, artifact, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit artifact: %w", err)
	}
	return nil
}

func (s *FileModelStore) Load(ctx context.Context, name string) ([]byte, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return blob, nil
}

func (s *FileModelStore) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, "/\\") {
		return "", fmt.Errorf("invalid model name %q", name)
	}
	return filepath.Join(s.dir, name+".json"), nil
}
