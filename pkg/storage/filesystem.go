package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LocalStorage writes rendered timetable grids under one export directory.
type LocalStorage struct {
	dir string
}

// NewLocalStorage creates the export directory if needed.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if dir == "" {
		dir = "./exports"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	return &LocalStorage{dir: dir}, nil
}

// Save writes one rendered export and returns its relative name.
func (s *LocalStorage) Save(name string, data []byte) (string, error) {
	path := s.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare export directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export %s: %w", name, err)
	}
	return name, nil
}

// CleanupOlderThan prunes exports whose modification time is past the
// retention window and returns the pruned names. Every regeneration makes
// the previous grids stale, so the CLI runs this before exporting.
func (s *LocalStorage) CleanupOlderThan(retention time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-retention)
	var pruned []string
	err := filepath.WalkDir(s.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		rel, relErr := filepath.Rel(s.dir, path)
		if relErr != nil {
			rel = path
		}
		pruned = append(pruned, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("prune exports: %w", err)
	}
	return pruned, nil
}

// Path resolves a name inside the export directory.
func (s *LocalStorage) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}
