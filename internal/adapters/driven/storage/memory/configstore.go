package memory

import (
	"sort"
	"sync"

	"github.com/custodia-labs/airportai/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore is an in-memory driven.ConfigStore. On its own it is a
// throwaway store for tests; layered over a persistent store with NewOverlay
// it carries per-run overrides such as CLI flags without writing them back.
type ConfigStore struct {
	mu        sync.RWMutex
	base      driven.ConfigStore
	values    map[string]any
	overrides map[string]any
}

// NewConfigStore creates an empty store, optionally pre-filled from seed maps.
func NewConfigStore(seed ...map[string]any) *ConfigStore {
	s := &ConfigStore{
		values:    make(map[string]any),
		overrides: make(map[string]any),
	}
	for _, m := range seed {
		for k, v := range m {
			s.values[k] = v
		}
	}
	return s
}

// NewOverlay layers in-memory overrides over base. Reads fall through to base;
// Set, Save and Load are delegated to it.
func NewOverlay(base driven.ConfigStore) *ConfigStore {
	s := NewConfigStore()
	s.base = base
	return s
}

// Override sets a value for this process only. It shadows the stored value
// and is never persisted.
func (s *ConfigStore) Override(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[key] = value
}

// Get retrieves a configuration value: overrides first, then the stored value.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	if v, ok := s.overrides[key]; ok {
		s.mu.RUnlock()
		return v, true
	}
	v, ok := s.values[key]
	base := s.base
	s.mu.RUnlock()
	if ok || base == nil {
		return v, ok
	}
	return base.Get(key)
}

// GetString retrieves a string value; other types yield "".
func (s *ConfigStore) GetString(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

// GetInt retrieves an integer value, accepting any numeric representation.
func (s *ConfigStore) GetInt(key string) int {
	v, _ := s.Get(key)
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// GetBool retrieves a boolean value.
func (s *ConfigStore) GetBool(key string) bool {
	v, _ := s.Get(key)
	b, _ := v.(bool)
	return b
}

// GetStringSlice retrieves a string slice; non-string elements are skipped.
func (s *ConfigStore) GetStringSlice(key string) []string {
	v, _ := s.Get(key)
	switch items := v.(type) {
	case []string:
		return items
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

// Keys returns every key visible through the store, sorted.
func (s *ConfigStore) Keys() []string {
	seen := make(map[string]struct{})
	s.mu.RLock()
	for k := range s.values {
		seen[k] = struct{}{}
	}
	for k := range s.overrides {
		seen[k] = struct{}{}
	}
	base := s.base
	s.mu.RUnlock()
	if lister, ok := base.(interface{ Keys() []string }); ok {
		for _, k := range lister.Keys() {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set stores a value, clearing any override for the key. With a base store
// the value is written through to it.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	delete(s.overrides, key)
	base := s.base
	if base == nil {
		s.values[key] = value
	}
	s.mu.Unlock()
	if base != nil {
		return base.Set(key, value)
	}
	return nil
}

// Save persists the base store, if any.
func (s *ConfigStore) Save() error {
	if s.base != nil {
		return s.base.Save()
	}
	return nil
}

// Load reloads the base store, if any. Overrides survive a reload.
func (s *ConfigStore) Load() error {
	if s.base != nil {
		return s.base.Load()
	}
	return nil
}

// Path returns the base store's path, or ":memory:".
func (s *ConfigStore) Path() string {
	if s.base != nil {
		return s.base.Path()
	}
	return ":memory:"
}
