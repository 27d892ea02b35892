package ports

import (
	"context"
	"errors"

	"github.com/opsdeck/opsdeck/pkg/domain"
)

// ErrPreferencesNotFound is returned when no preferences exist under a key.
var ErrPreferencesNotFound = errors.New("preferences not found")

// PreferenceStore persists per-user dashboard preferences. The scheduler treats
// the loaded value as read-only input; writes only happen on explicit user
// action.
type PreferenceStore interface {
	Load(ctx context.Context, key string) (*domain.Preferences, error)
	Save(ctx context.Context, key string, prefs *domain.Preferences) error
	Delete(ctx context.Context, key string) error
}
