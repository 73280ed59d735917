package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// JSONStore keeps one JSON document on disk. The catalog service uses it for
// the last category list it fetched successfully.
type JSONStore struct {
	mu       sync.RWMutex
	filePath string
}

func NewJSONStore(dataDir, filename string) (*JSONStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("json store: create %s: %w", dataDir, err)
	}

	return &JSONStore{
		filePath: filepath.Join(dataDir, filename),
	}, nil
}

func (s *JSONStore) Path() string {
	return s.filePath
}

// Load decodes the document into data. A missing file leaves data untouched.
func (s *JSONStore) Load(data interface{}) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := os.Open(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(data); err != nil {
		return fmt.Errorf("json store: decode %s: %w", s.filePath, err)
	}
	return nil
}

// Save replaces the document. It writes a temp file and renames it so a
// reader never sees a half-written snapshot.
func (s *JSONStore) Save(data interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tempFile := s.filePath + ".tmp"
	file, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		file.Close()
		os.Remove(tempFile)
		return err
	}

	if err := file.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, s.filePath)
}

func (s *JSONStore) Exists() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.filePath)
	return err == nil
}

// ModTime is when the document was last saved. Zero if it does not exist.
func (s *JSONStore) ModTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, err := os.Stat(s.filePath)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
