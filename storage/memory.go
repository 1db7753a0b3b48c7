package storage

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/CreativeUnicorns/addonprefs"
)

// MemoryStorage implements addonprefs.Storage with in-memory maps.
// Useful for tests and for hosts that do not need persistence.
type MemoryStorage struct {
	mu    sync.RWMutex
	prefs map[addonprefs.Layer]map[string]*addonprefs.StoredPref // layer -> key -> pref
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		prefs: make(map[addonprefs.Layer]map[string]*addonprefs.StoredPref),
	}
}

// Get returns a copy of the stored value, or addonprefs.ErrNotFound.
func (s *MemoryStorage) Get(_ context.Context, layer addonprefs.Layer, key string) (*addonprefs.StoredPref, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pref, ok := s.prefs[layer][key]
	if !ok {
		return nil, addonprefs.ErrNotFound
	}

	prefCopy := *pref
	return &prefCopy, nil
}

// Set stores a copy of pref and stamps UpdatedAt when it is zero.
func (s *MemoryStorage) Set(_ context.Context, pref *addonprefs.StoredPref) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.prefs[pref.Layer]; !ok {
		s.prefs[pref.Layer] = make(map[string]*addonprefs.StoredPref)
	}

	prefToStore := *pref
	if prefToStore.UpdatedAt.IsZero() {
		prefToStore.UpdatedAt = time.Now()
	}
	s.prefs[pref.Layer][pref.Key] = &prefToStore
	return nil
}

// Delete removes a value. It returns addonprefs.ErrNotFound when nothing was stored.
func (s *MemoryStorage) Delete(_ context.Context, layer addonprefs.Layer, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	layerPrefs, ok := s.prefs[layer]
	if !ok {
		return addonprefs.ErrNotFound
	}
	if _, ok := layerPrefs[key]; !ok {
		return addonprefs.ErrNotFound
	}

	delete(layerPrefs, key)
	if len(layerPrefs) == 0 {
		delete(s.prefs, layer)
	}
	return nil
}

// List returns copies of every value in layer whose key starts with prefix.
func (s *MemoryStorage) List(_ context.Context, layer addonprefs.Layer, prefix string) (map[string]*addonprefs.StoredPref, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*addonprefs.StoredPref)
	for key, pref := range s.prefs[layer] {
		if strings.HasPrefix(key, prefix) {
			prefCopy := *pref
			result[key] = &prefCopy
		}
	}
	return result, nil
}

// Close is a no-op.
func (s *MemoryStorage) Close() error {
	return nil
}
