package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the service-wide settings document read at startup.
type Config struct {
	Languages []string `yaml:"supported_languages"`
	Settings  Settings `yaml:"settings"`

	CacheTTL time.Duration `yaml:"-"`
}

// LoadConfig reads the settings document at path. A missing file yields the
// built-in defaults.
func LoadConfig(path string) (Config, error) {
	d := Config{Languages: DefaultLanguages, Settings: Defaults()}
	if path == "" {
		return d, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return d, nil
	}
	if err != nil {
		return d, err
	}
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return d, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(d.Languages) == 0 {
		d.Languages = DefaultLanguages
	}
	if err := d.Settings.Validate(d.Languages); err != nil {
		return d, fmt.Errorf("defaults in %s: %w", path, err)
	}
	return d, nil
}

// FileStore keeps every key in a single YAML document.
type FileStore struct {
	path string
	mu   sync.RWMutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(_ context.Context, key string) (Settings, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all, err := s.read()
	if err != nil {
		return Settings{}, false, err
	}
	v, ok := all[key]
	return v, ok, nil
}

func (s *FileStore) Save(_ context.Context, key string, v Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return err
	}
	all[key] = v
	out, err := yaml.Marshal(all)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) read() (map[string]Settings, error) {
	all := map[string]Settings{}
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return all, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, &all); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return all, nil
}
