package preset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileStore keeps every record in one YAML document of flat string keys.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by path. The file is created on the
// first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Load implements Store.
func (s *FileStore) Load(_ context.Context, name string) (Record, error) {
	if name == "" {
		return nil, ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return nil, err
	}

	r := all.Select(name)
	if len(r) == 0 {
		return nil, ErrNotFound
	}

	return r, nil
}

// Save implements Store. The document is rewritten through a temporary
// file in the same directory and renamed into place.
func (s *FileStore) Save(_ context.Context, name string, r Record) error {
	if name == "" {
		return ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return err
	}

	for k, v := range r.Select(name) {
		all[k] = v
	}

	data, err := yaml.Marshal(map[string]string(all))
	if err != nil {
		return fmt.Errorf("failed to marshal presets: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create preset directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".presets-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temporary preset file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write presets: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write presets: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace preset file: %w", err)
	}

	return nil
}

func (s *FileStore) read() (Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Record{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read presets: %w", err)
	}

	all := map[string]string{}
	if err := yaml.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidPreset, s.path, err)
	}

	return Record(all), nil
}
