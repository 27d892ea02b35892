package opsdeck_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opsdeck/opsdeck"
	"github.com/opsdeck/opsdeck/internal/clock"
	"github.com/opsdeck/opsdeck/pkg/adapters/memory"
	"github.com/opsdeck/opsdeck/pkg/domain"
	"github.com/opsdeck/opsdeck/pkg/refresh"
)

var epoch = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func TestNewRequiresAllCollaborators(t *testing.T) {
	collabs := memory.NewFixtures().Collaborators()
	collabs.Queue = nil

	_, err := opsdeck.New(collabs)
	require.ErrorContains(t, err, "all collaborators must be set")
}

func TestRefreshAllPopulatesEveryView(t *testing.T) {
	fake := clock.Fake(epoch)
	fixtures := memory.NewFixtures(memory.WithClock(fake))
	deck, err := opsdeck.New(fixtures.Collaborators(), opsdeck.WithClock(fake))
	require.NoError(t, err)

	require.NoError(t, deck.RefreshAll(context.Background()))

	frame := deck.Frame()
	require.Equal(t, epoch, frame.GeneratedAt)
	require.Len(t, frame.Jobs.Data, 6)
	require.Len(t, frame.Agents.Data, 4)
	require.Len(t, frame.Deployments.Data, 3)
	require.Len(t, frame.Queue.Data, 5)
	require.EqualValues(t, 1, frame.Jobs.Version)
	require.Equal(t, epoch, frame.Jobs.UpdatedAt)

	require.NotNil(t, frame.Stats)
	require.Equal(t, 2, frame.Stats.TotalQueued)
	require.Equal(t, 1, frame.Stats.TotalRunning)
}

func TestDefaultsToEfficientMode(t *testing.T) {
	deck, err := opsdeck.New(memory.NewFixtures().Collaborators())
	require.NoError(t, err)

	require.Equal(t, refresh.ModeEfficient, deck.Mode())
	require.Equal(t, 30*time.Second, deck.Interval())
}

func TestSetRefreshModePersistsPreference(t *testing.T) {
	fixtures := memory.NewFixtures()
	deck, err := opsdeck.New(fixtures.Collaborators(),
		opsdeck.WithPreferences(fixtures.Preferences, "pat"),
	)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, deck.SetRefreshMode(ctx, refresh.ModeLive))
	require.Equal(t, refresh.ModeLive, deck.Mode())

	stored, err := fixtures.Preferences.Load(ctx, "pat")
	require.NoError(t, err)
	require.Equal(t, "live", stored.RefreshMode)
}

func TestSetRefreshIntervalOverridesPreset(t *testing.T) {
	fixtures := memory.NewFixtures()
	deck, err := opsdeck.New(fixtures.Collaborators(),
		opsdeck.WithPreferences(fixtures.Preferences, "pat"),
	)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, deck.SetRefreshInterval(ctx, 5*time.Second))
	require.Equal(t, 5*time.Second, deck.Interval())

	stored, err := fixtures.Preferences.Load(ctx, "pat")
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, stored.RefreshInterval)

	// Clearing the override falls back to the mode preset.
	require.NoError(t, deck.SetRefreshInterval(ctx, 0))
	require.Equal(t, 30*time.Second, deck.Interval())
}

func TestStartAppliesStoredPreferences(t *testing.T) {
	ctx := context.Background()
	fixtures := memory.NewFixtures()
	require.NoError(t, fixtures.Preferences.Save(ctx, "default", &domain.Preferences{
		RefreshMode: "live",
	}))

	deck, err := opsdeck.New(fixtures.Collaborators(),
		opsdeck.WithClock(clock.Fake(epoch)),
		opsdeck.WithPreferences(fixtures.Preferences, ""),
	)
	require.NoError(t, err)
	require.Equal(t, refresh.ModeEfficient, deck.Mode())

	deck.Start(ctx)
	defer deck.Stop()

	require.Equal(t, refresh.ModeLive, deck.Mode())
	require.Equal(t, 10*time.Second, deck.Interval())
}

func TestStartDegradesUnknownStoredMode(t *testing.T) {
	ctx := context.Background()
	fixtures := memory.NewFixtures()
	require.NoError(t, fixtures.Preferences.Save(ctx, "default", &domain.Preferences{
		RefreshMode: "hyper",
	}))

	deck, err := opsdeck.New(fixtures.Collaborators(),
		opsdeck.WithClock(clock.Fake(epoch)),
		opsdeck.WithPreferences(fixtures.Preferences, "default"),
	)
	require.NoError(t, err)

	deck.Start(ctx)
	defer deck.Stop()

	require.Equal(t, refresh.ModeOff, deck.Mode())
}

func TestStartWithoutStoreKeepsConfiguredMode(t *testing.T) {
	deck, err := opsdeck.New(memory.NewFixtures().Collaborators(),
		opsdeck.WithClock(clock.Fake(epoch)),
		opsdeck.WithRefreshMode(refresh.ModeOff),
	)
	require.NoError(t, err)

	deck.Start(context.Background())
	defer deck.Stop()

	require.Equal(t, refresh.ModeOff, deck.Mode())
}

func TestSchedulerTicksRefreshEveryView(t *testing.T) {
	fake := clock.Fake(epoch)
	fixtures := memory.NewFixtures(memory.WithClock(fake))
	deck, err := opsdeck.New(fixtures.Collaborators(),
		opsdeck.WithClock(fake),
		opsdeck.WithRefreshMode(refresh.ModeLive),
	)
	require.NoError(t, err)

	deck.Start(context.Background())
	defer deck.Stop()

	fake.WaitForTimers(4)
	fake.Advance(10 * time.Second)

	require.Eventually(t, func() bool {
		f := deck.Frame()
		return f.Jobs.Version >= 1 && f.Agents.Version >= 1 &&
			f.Deployments.Version >= 1 && f.Queue.Version >= 1 &&
			f.Stats != nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestModeOffArmsNoTimers(t *testing.T) {
	fake := clock.Fake(epoch)
	fixtures := memory.NewFixtures(memory.WithClock(fake))
	deck, err := opsdeck.New(fixtures.Collaborators(),
		opsdeck.WithClock(fake),
		opsdeck.WithRefreshMode(refresh.ModeOff),
	)
	require.NoError(t, err)

	deck.Start(context.Background())
	defer deck.Stop()

	require.Equal(t, 0, fake.PendingCount())
	require.Zero(t, deck.Frame().Jobs.Version)
}

func TestOnUpdateObservesMutatedViews(t *testing.T) {
	fixtures := memory.NewFixtures()
	deck, err := opsdeck.New(fixtures.Collaborators())
	require.NoError(t, err)

	updates := make(chan struct{}, 64)
	deck.OnUpdate(func() {
		select {
		case updates <- struct{}{}:
		default:
		}
	})

	require.NoError(t, deck.RefreshAll(context.Background()))

	select {
	case <-updates:
	default:
		t.Fatal("expected at least one update notification")
	}
}
