package statecache

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

// FileStore keeps the last view of one entity in a YAML file shared by every
// entity. Access is serialized across processes with a file lock. It has no
// history.
type FileStore struct {
	path   string
	entity string
	lock   *flock.Flock
}

type viewsFile struct {
	Views map[string]map[string]string `yaml:"views"`
}

// NewFileStore stores entity's view in the file at path
func NewFileStore(path, entity string) *FileStore {
	return &FileStore{
		path:   path,
		entity: entity,
		lock:   flock.New(path + ".lock"),
	}
}

func (s *FileStore) load() (viewsFile, error) {
	var f viewsFile
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return f, nil
	}
	if err != nil {
		return f, fmt.Errorf("failed to read view state: %w", err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return viewsFile{}, fmt.Errorf("failed to parse view state: %w", err)
	}
	return f, nil
}

// Values returns the stored view. An unreadable file reads as empty.
func (s *FileStore) Values() url.Values {
	values := url.Values{}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return values
	}
	if err := s.lock.RLock(); err != nil {
		return values
	}
	defer s.lock.Unlock()

	f, err := s.load()
	if err != nil {
		return values
	}
	for k, v := range f.Views[s.entity] {
		values.Set(k, v)
	}
	return values
}

// Apply replaces the stored view. The mode is ignored.
func (s *FileStore) Apply(values url.Values, _ NavigationMode) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock view state: %w", err)
	}
	defer s.lock.Unlock()

	// A corrupt file is overwritten rather than blocking every save
	f, _ := s.load()
	if f.Views == nil {
		f.Views = make(map[string]map[string]string)
	}
	if len(values) == 0 {
		delete(f.Views, s.entity)
	} else {
		view := make(map[string]string, len(values))
		for k := range values {
			view[k] = values.Get(k)
		}
		f.Views[s.entity] = view
	}

	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal view state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write view state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace view state: %w", err)
	}
	return nil
}

// Version is constant; files have no navigation
func (s *FileStore) Version() uint64 { return 0 }
