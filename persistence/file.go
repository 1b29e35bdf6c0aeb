package persistence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"gicowa/logger"
)

// FileBackend keeps the record as a YAML mapping in a single file.
type FileBackend struct {
	path string
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Path returns the state file location.
func (f *FileBackend) Path() string {
	return f.path
}

// Load reads the file. A missing or empty file is an empty record.
func (f *FileBackend) Load(_ context.Context) (Record, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("No state file yet", zap.String("path", f.path))
			return Record{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Record{}, nil
	}

	rec := Record{}
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptState, f.path, err)
	}
	return rec, nil
}

// Save replaces the file through a rename so readers never see a partial write.
func (f *FileBackend) Save(_ context.Context, rec Record) error {
	if f.path == "" {
		return fmt.Errorf("%w: state file path cannot be empty", ErrInvalidInput)
	}
	if rec == nil {
		rec = Record{}
	}

	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}

	logger.Info("State file written", zap.String("path", f.path), zap.Int("entries", len(rec)))
	return nil
}

func (f *FileBackend) Close() error {
	return nil
}
