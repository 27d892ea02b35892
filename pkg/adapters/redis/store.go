// Package redis persists dashboard preferences in Redis, keyed per user.
// Preferences are small JSON documents; an optional TTL lets deployments
// expire stale profiles instead of migrating them.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/opsdeck/opsdeck/pkg/domain"
	"github.com/opsdeck/opsdeck/pkg/ports"
)

// Store implements ports.PreferenceStore using Redis.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

var _ ports.PreferenceStore = (*Store)(nil)

// Option adjusts the store at construction.
type Option func(*Store)

// WithTTL sets the expiration for stored preferences. Zero means no expiry.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// New creates a store connected to the given Redis address.
func New(address, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a store over an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "opsdeck:prefs:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(userKey string) string {
	return s.prefix + userKey
}

// Load retrieves the preferences under key, or ports.ErrPreferencesNotFound.
func (s *Store) Load(ctx context.Context, key string) (*domain.Preferences, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, ports.ErrPreferencesNotFound
		}
		return nil, fmt.Errorf("redis: loading preferences: %w", err)
	}

	var prefs domain.Preferences
	if err := json.Unmarshal([]byte(val), &prefs); err != nil {
		return nil, fmt.Errorf("redis: decoding preferences: %w", err)
	}
	return &prefs, nil
}

// Save persists the preferences under key.
func (s *Store) Save(ctx context.Context, key string, prefs *domain.Preferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("redis: encoding preferences: %w", err)
	}
	if err := s.client.Set(ctx, s.key(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis: saving preferences: %w", err)
	}
	return nil
}

// Delete removes the preferences under key. Deleting a missing key is a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis: deleting preferences: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
