package memory

import (
	"context"
	"sync"

	"github.com/opsdeck/opsdeck/pkg/domain"
	"github.com/opsdeck/opsdeck/pkg/ports"
)

// PreferenceStore implements ports.PreferenceStore in memory.
type PreferenceStore struct {
	mu    sync.RWMutex
	prefs map[string]domain.Preferences
}

var _ ports.PreferenceStore = (*PreferenceStore)(nil)

// NewPreferenceStore creates an empty preference store.
func NewPreferenceStore() *PreferenceStore {
	return &PreferenceStore{prefs: make(map[string]domain.Preferences)}
}

// Load returns the preferences under key, or ports.ErrPreferencesNotFound.
func (s *PreferenceStore) Load(ctx context.Context, key string) (*domain.Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.prefs[key]
	if !ok {
		return nil, ports.ErrPreferencesNotFound
	}
	out := p
	return &out, nil
}

// Save stores a copy of prefs under key.
func (s *PreferenceStore) Save(ctx context.Context, key string, prefs *domain.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[key] = *prefs
	return nil
}

// Delete removes the preferences under key. Deleting a missing key is a no-op.
func (s *PreferenceStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.prefs, key)
	return nil
}
