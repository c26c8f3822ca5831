package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// File keeps all keys in one JSON object on disk, rewritten atomically on every change
type File struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

func NewFile(path string, logger *zap.Logger) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &File{path: path, logger: logger}, nil
}

func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values := f.read()
	v, ok := values[key]
	if !ok {
		return nil, ErrNotExist
	}
	return []byte(v), nil
}

func (f *File) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values := f.read()
	values[key] = string(value)
	return f.write(values)
}

func (f *File) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values := f.read()
	for _, k := range keys {
		delete(values, k)
	}
	return f.write(values)
}

// read returns an empty map when the file is missing or unreadable
func (f *File) read() map[string]string {
	values := make(map[string]string)
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			f.logger.Warn("Failed to read local store file", zap.String("path", f.path), zap.Error(err))
		}
		return values
	}
	if err := json.Unmarshal(data, &values); err != nil {
		f.logger.Warn("Discarding malformed local store file", zap.String("path", f.path), zap.Error(err))
		return make(map[string]string)
	}
	return values
}

func (f *File) write(values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal local store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".local-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace local store file: %w", err)
	}
	return nil
}
