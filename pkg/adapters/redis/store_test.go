package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/opsdeck/pkg/adapters/redis"
	"github.com/opsdeck/opsdeck/pkg/domain"
	"github.com/opsdeck/opsdeck/pkg/ports"
)

func newTestStore(t *testing.T, opts ...redis.Option) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	store := redis.NewFromClient(client, opts...)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestStoreRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Load(ctx, "ops")
	require.ErrorIs(t, err, ports.ErrPreferencesNotFound)

	prefs := &domain.Preferences{RefreshMode: "efficient", RefreshInterval: 45 * time.Second}
	require.NoError(t, store.Save(ctx, "ops", prefs))

	loaded, err := store.Load(ctx, "ops")
	require.NoError(t, err)
	require.Equal(t, *prefs, *loaded)

	require.NoError(t, store.Delete(ctx, "ops"))
	_, err = store.Load(ctx, "ops")
	require.ErrorIs(t, err, ports.ErrPreferencesNotFound)
}

func TestStoreKeysArePrefixed(t *testing.T) {
	store, mr := newTestStore(t, redis.WithPrefix("dash:prefs:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "ops", &domain.Preferences{RefreshMode: "live"}))
	require.True(t, mr.Exists("dash:prefs:ops"))
}

func TestStoreTTLExpiresPreferences(t *testing.T) {
	store, mr := newTestStore(t, redis.WithTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "ops", &domain.Preferences{RefreshMode: "live"}))

	_, err := store.Load(ctx, "ops")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, "ops")
	require.ErrorIs(t, err, ports.ErrPreferencesNotFound)
}

func TestStoreDeleteMissingKeyIsNoOp(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Delete(context.Background(), "nobody"))
}
