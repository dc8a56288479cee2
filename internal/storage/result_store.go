package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResultStore keeps downloaded dubbing results in a single output directory.
type ResultStore struct {
	dir string
}

// NewResultStore creates a ResultStore rooted at dir. The directory is created
// on first write.
func NewResultStore(dir string) *ResultStore {
	return &ResultStore{dir: dir}
}

// Dir returns the output directory.
func (s *ResultStore) Dir() string {
	return s.dir
}

// Path returns the full path of name inside the output directory.
// Names that would escape the directory are rejected.
func (s *ResultStore) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid result name: %q", name)
	}
	return filepath.Join(s.dir, name), nil
}

// Create truncates or creates name for writing.
func (s *ResultStore) Create(name string) (*os.File, error) {
	path, err := s.prepare(name)
	if err != nil {
		return nil, err
	}
	return os.Create(path)
}

// Append opens name for appending, creating it when missing.
func (s *ResultStore) Append(name string) (*os.File, error) {
	path, err := s.prepare(name)
	if err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
}

// Size returns the size of name in bytes, or 0 when it does not exist.
func (s *ResultStore) Size(name string) (int64, error) {
	path, err := s.Path(name)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Exists reports whether name is present in the output directory.
func (s *ResultStore) Exists(name string) bool {
	path, err := s.Path(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

func (s *ResultStore) prepare(name string) (string, error) {
	path, err := s.Path(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	return path, nil
}
