// Package prefs is the durable client-local store for layout preferences.
// The table controller only sees the Store interface; the default
// implementation is a JSON file in the user config dir.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Store is a process-wide persisted key/value capability with load-on-init,
// save-on-change semantics.
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
}

const prefsFile = "prefs.json"

// FileStore persists keys as a single JSON object, written atomically.
type FileStore struct {
	path string
	data map[string]json.RawMessage
}

// OpenFileStore loads (or initializes) the prefs file under the user config
// dir for the given app name.
func OpenFileStore(appName string) (*FileStore, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	dir = filepath.Join(dir, appName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	s := &FileStore{
		path: filepath.Join(dir, prefsFile),
		data: map[string]json.RawMessage{},
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		// A corrupt prefs file should not block startup; start fresh.
		s.data = map[string]json.RawMessage{}
	}
	return s, nil
}

func (s *FileStore) Get(key string) ([]byte, bool) {
	v, ok := s.data[key]
	return v, ok
}

func (s *FileStore) Set(key string, value []byte) error {
	s.data[key] = json.RawMessage(value)
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	data map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{data: map[string][]byte{}}
}

func (s *MemStore) Get(key string) ([]byte, bool) {
	v, ok := s.data[key]
	return v, ok
}

func (s *MemStore) Set(key string, value []byte) error {
	s.data[key] = append([]byte(nil), value...)
	return nil
}
