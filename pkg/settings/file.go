package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileVersion is the current version of the settings file format.
const FileVersion = 1

// File is the on-disk form of the settings.
type File struct {
	Version int               `json:"version"`
	SavedAt time.Time         `json:"saved_at"`
	Values  map[string]string `json:"values"`
}

// FileStore reads and writes the settings file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store for path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file path.
func (s *FileStore) Path() string {
	return s.path
}

// Save writes values, creating the parent directory if needed. The file
// is written to a temporary name and renamed into place.
func (s *FileStore) Save(values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("settings dir: %w", err)
	}

	data, err := json.MarshalIndent(File{
		Version: FileVersion,
		SavedAt: time.Now(),
		Values:  values,
	}, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// Load reads the settings file. A missing file yields nil, nil.
func (s *FileStore) Load() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return f.Values, nil
}

// Clear removes the settings file.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
