package library

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// Store loads and saves the whole library state in one go.
type Store interface {
	// Load returns the persisted snapshot. A nil error or a Recovered error
	// both come with a usable snapshot.
	Load() (*Snapshot, error)
	// Save replaces the persisted state with snap.
	Save(snap *Snapshot) error
	Close() error
}

// FileStore keeps the library in the fixed-layout binary data file.
type FileStore struct {
	path   string
	limits Limits
}

// NewFileStore returns a store for the data file at path. The file does not
// have to exist yet.
func NewFileStore(path string, limits Limits) *FileStore {
	return &FileStore{path: path, limits: limits}
}

// Path is the data file location.
func (s *FileStore) Path() string { return s.path }

// Load reads the data file. A missing file is an empty library.
func (s *FileStore) Load() (*Snapshot, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Snapshot{}, nil
		}
		return &Snapshot{}, fmt.Errorf("%w: %v", ErrFileUnreadable, err)
	}
	defer f.Close()
	return Decode(f, s.limits)
}

// Save writes to a temporary file next to the target and renames it into
// place, so an interrupted write leaves the previous file intact.
func (s *FileStore) Save(snap *Snapshot) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := Encode(&buf, snap); err != nil {
		return err
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, buf.Bytes(), 0o644); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("write temp data file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("rename data file: %w", err)
	}
	return nil
}

// Close is a no-op; the file is only open during Load and Save.
func (s *FileStore) Close() error { return nil }
