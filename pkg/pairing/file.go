package pairing

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps the active pairing record in a single JSON file shared
// between the listener process context and the dashboard path. Writes go
// through a temp file plus rename so readers never see a partial record.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Put(record Record) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create pairing directory: %w", err)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal pairing record: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".pairing-*")
	if err != nil {
		return fmt.Errorf("create temp pairing file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write pairing record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp pairing file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace pairing file: %w", err)
	}
	return nil
}

// Get re-reads the file every call. A missing or corrupt file means "not
// paired", never a fatal error.
func (s *FileStore) Get() (Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Record{}, ErrNotPaired
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return Record{}, ErrNotPaired
	}
	if record.ChatID == 0 {
		return Record{}, ErrNotPaired
	}
	return record, nil
}
