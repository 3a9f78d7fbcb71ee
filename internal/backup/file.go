package backup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileSink keeps backups as files in one directory.
type FileSink struct {
	dir string
}

var _ Sink = (*FileSink)(nil)

// NewFileSink creates dir if needed.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	return &FileSink{dir: dir}, nil
}

func (s *FileSink) path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

func (s *FileSink) Put(_ context.Context, name string, data []byte) error {
	return os.WriteFile(s.path(name), data, 0o600)
}

func (s *FileSink) Get(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrNoSuchBackup)
	}
	return data, err
}
