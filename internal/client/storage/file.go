package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileStore keeps names in a YAML map of key to name. Several keys can share
// one file.
type FileStore struct {
	path string
	key  string
	mu   sync.Mutex
}

func NewFileStore(path, key string) *FileStore {
	return &FileStore{path: path, key: key}
}

func (s *FileStore) Load(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.read()
	if err != nil {
		return "", err
	}
	return names[s.key], nil
}

func (s *FileStore) Save(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.read()
	if err != nil {
		return err
	}
	names[s.key] = username
	return s.write(names)
}

func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := names[s.key]; !ok {
		return nil
	}
	delete(names, s.key)
	return s.write(names)
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) read() (map[string]string, error) {
	names := make(map[string]string)

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return names, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read identity file: %w", err)
	}
	if err := yaml.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("decode identity file: %w", err)
	}
	if names == nil {
		names = make(map[string]string)
	}
	return names, nil
}

func (s *FileStore) write(names map[string]string) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create identity dir: %w", err)
		}
	}
	data, err := yaml.Marshal(names)
	if err != nil {
		return fmt.Errorf("encode identity file: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write identity file: %w", err)
	}
	return nil
}
