package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Storage keeps user-visible files, such as downloaded reports, under one
// directory.
type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./downloads"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

// Save writes data under key and returns the final path. The write goes
// through a temporary file so a failed copy never leaves a partial report.
func (s *Storage) Save(_ context.Context, key string, data io.Reader) (string, error) {
	name := filepath.Base(strings.TrimSpace(key))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	path := filepath.Join(s.basePath, name)

	tmp, err := os.CreateTemp(s.basePath, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("move file into place: %w", err)
	}
	return path, nil
}

func (s *Storage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	path := filepath.Join(s.basePath, filepath.Base(key))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

func (s *Storage) BasePath() string {
	return s.basePath
}
