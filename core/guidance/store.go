package guidance

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
)

// Store persists guidance state per flavor and content id. Load reports
// false when there is no usable state.
type Store interface {
	Load(flavor, contentID string) (State, bool)
	Save(flavor string, state State) error
}

// FileStore keeps every state in its own JSON file at
// <dir>/<flavor>/<content id>.json.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(flavor, contentID string) string {
	return filepath.Join(s.dir, flavor, url.PathEscape(contentID)+".json")
}

func (s *FileStore) Load(flavor, contentID string) (State, bool) {
	path := s.path(flavor, contentID)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("failed to read guidance state", "path", path, "error", err)
		}
		return State{}, false
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		logger.Warn("discarding corrupt guidance state", "path", path, "error", err)
		return State{}, false
	}
	if state.ContentID != contentID {
		logger.Warn("discarding guidance state for other content", "path", path, "content_id", state.ContentID)
		return State{}, false
	}
	return state, true
}

func (s *FileStore) Save(flavor string, state State) error {
	path := s.path(flavor, state.ContentID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode guidance state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create state file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}
