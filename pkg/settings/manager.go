package settings

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

const DefaultCacheTTL = 10 * time.Minute

// Store persists settings by key. Load reports found=false for keys that
// were never saved.
type Store interface {
	Load(ctx context.Context, key string) (s Settings, found bool, err error)
	Save(ctx context.Context, key string, s Settings) error
}

// Manager loads settings once per key and writes them back only when an
// update actually changes them. Cached copies idle out after the
// configured TTL.
type Manager struct {
	store     Store
	defaults  Settings
	languages []string

	mu    sync.Mutex
	cache *cache.Cache
}

func NewManager(store Store, cfg Config) *Manager {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Manager{
		store:     store,
		defaults:  cfg.Settings,
		languages: cfg.Languages,
		cache:     cache.New(ttl, 2*ttl),
	}
}

func (m *Manager) Languages() []string {
	out := make([]string, len(m.languages))
	copy(out, m.languages)
	return out
}

func (m *Manager) Load(ctx context.Context, key string) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked(ctx, key)
}

func (m *Manager) loadLocked(ctx context.Context, key string) (Settings, error) {
	if v, ok := m.cache.Get(key); ok {
		return v.(Settings), nil
	}
	s, found, err := m.store.Load(ctx, key)
	if err != nil {
		return Settings{}, fmt.Errorf("load settings %s: %w", key, err)
	}
	if !found {
		s = m.defaults
	}
	m.cache.SetDefault(key, s)
	return s, nil
}

// Update applies fn to the current settings of key. It returns the
// resulting settings and whether they were saved.
func (m *Manager) Update(ctx context.Context, key string, fn func(*Settings)) (Settings, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, err := m.loadLocked(ctx, key)
	if err != nil {
		return Settings{}, false, err
	}
	next := current
	fn(&next)
	if err := next.Validate(m.languages); err != nil {
		return current, false, err
	}
	if next == current {
		return current, false, nil
	}
	if err := m.store.Save(ctx, key, next); err != nil {
		return current, false, fmt.Errorf("save settings %s: %w", key, err)
	}
	m.cache.SetDefault(key, next)
	return next, true, nil
}

// Forget drops the cached copy of key.
func (m *Manager) Forget(key string) {
	m.cache.Delete(key)
}

// Cached reports how many keys are currently held in memory.
func (m *Manager) Cached() int {
	return m.cache.ItemCount()
}
