package view_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/opsdeck/internal/clock"
	"github.com/opsdeck/opsdeck/pkg/domain"
	"github.com/opsdeck/opsdeck/pkg/pipeline"
	"github.com/opsdeck/opsdeck/pkg/view"
)

var epoch = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func waitErr(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("refetch did not complete")
		return nil
	}
}

func waitSnapshot(t *testing.T, ch <-chan view.Snapshot[domain.Job], pred func(view.Snapshot[domain.Job]) bool, msg string) view.Snapshot[domain.Job] {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-ch:
			if pred(snap) {
				return snap
			}
		case <-deadline:
			t.Fatal(msg)
		}
	}
}

func TestBindingRefetchAppliesData(t *testing.T) {
	clk := clock.Fake(epoch)
	execute := func(ctx context.Context, filters *domain.FilterOptions, sort *domain.SortOptions) ([]domain.Job, error) {
		return []domain.Job{{ID: "job-1", Name: "payments deploy"}}, nil
	}

	b := view.NewBinding("jobs", execute, view.WithClock(clk))
	require.NoError(t, b.Refetch(context.Background()))

	snap := b.Snapshot()
	require.NoError(t, snap.Err)
	require.False(t, snap.Loading)
	require.Len(t, snap.Data, 1)
	assert.Equal(t, "payments deploy", snap.Data[0].Name)
	assert.Equal(t, uint64(1), snap.Version)
	assert.True(t, snap.UpdatedAt.Equal(epoch))

	// Mutating a snapshot must not leak into the binding.
	snap.Data[0].Name = "mutated"
	assert.Equal(t, "payments deploy", b.Snapshot().Data[0].Name)
}

func TestBindingReportsLoadingWhileInFlight(t *testing.T) {
	started := make(chan struct{})
	gate := make(chan struct{})
	execute := func(ctx context.Context, filters *domain.FilterOptions, sort *domain.SortOptions) ([]domain.Job, error) {
		close(started)
		<-gate
		return []domain.Job{{ID: "job-1", Name: "payments deploy"}}, nil
	}

	b := view.NewBinding("jobs", execute)
	updates := make(chan view.Snapshot[domain.Job], 16)
	b.OnUpdate(func(s view.Snapshot[domain.Job]) { updates <- s })

	b.TriggerRefetch(context.Background())

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("refetch never started")
	}
	require.True(t, b.InFlight())
	waitSnapshot(t, updates, func(s view.Snapshot[domain.Job]) bool {
		return s.Loading
	}, "no loading snapshot observed")

	close(gate)
	snap := waitSnapshot(t, updates, func(s view.Snapshot[domain.Job]) bool {
		return !s.Loading && s.Version == 1
	}, "no completed snapshot observed")
	require.Len(t, snap.Data, 1)
	require.False(t, b.InFlight())
}

func TestBindingStaleCompletionDiscarded(t *testing.T) {
	started := make(chan struct{})
	gate := make(chan struct{})
	var calls atomic.Int32
	execute := func(ctx context.Context, filters *domain.FilterOptions, sort *domain.SortOptions) ([]domain.Job, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-gate
			return []domain.Job{{ID: "job-a", Name: "A job"}}, nil
		}
		return []domain.Job{{ID: "job-b", Name: "B job"}}, nil
	}

	b := view.NewBinding("jobs", execute)

	// Refresh A starts first, then stalls at the collaborator.
	doneA := make(chan error, 1)
	go func() { doneA <- b.Refetch(context.Background()) }()
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("first refetch never started")
	}

	// Refresh B starts later but completes first.
	require.NoError(t, b.Refetch(context.Background()))
	snap := b.Snapshot()
	require.Equal(t, uint64(2), snap.Version)
	require.Equal(t, "B job", snap.Data[0].Name)

	// A finally completes; its result is older than the applied one and
	// must be dropped.
	close(gate)
	require.NoError(t, waitErr(t, doneA))

	snap = b.Snapshot()
	assert.Equal(t, uint64(2), snap.Version)
	require.Len(t, snap.Data, 1)
	assert.Equal(t, "B job", snap.Data[0].Name)
	assert.NoError(t, snap.Err)
}

func TestBindingStaleErrorDiscarded(t *testing.T) {
	started := make(chan struct{})
	gate := make(chan struct{})
	var calls atomic.Int32
	execute := func(ctx context.Context, filters *domain.FilterOptions, sort *domain.SortOptions) ([]domain.Job, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-gate
			return nil, &pipeline.ExternalCallError{Resource: "jobs", Status: 500}
		}
		return []domain.Job{{ID: "job-b", Name: "B job"}}, nil
	}

	b := view.NewBinding("jobs", execute)

	doneA := make(chan error, 1)
	go func() { doneA <- b.Refetch(context.Background()) }()
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("first refetch never started")
	}

	require.NoError(t, b.Refetch(context.Background()))

	close(gate)
	require.Error(t, waitErr(t, doneA), "the run itself still reports its failure")

	// The stale failure must not disturb the applied state.
	snap := b.Snapshot()
	assert.NoError(t, snap.Err)
	require.Len(t, snap.Data, 1)
	assert.Equal(t, "B job", snap.Data[0].Name)
}

func TestBindingErrorKeepsLastGoodData(t *testing.T) {
	var fail atomic.Bool
	execute := func(ctx context.Context, filters *domain.FilterOptions, sort *domain.SortOptions) ([]domain.Job, error) {
		if fail.Load() {
			return nil, &pipeline.ExternalCallError{Resource: "jobs", Status: 500}
		}
		return []domain.Job{{ID: "job-1", Name: "payments deploy"}}, nil
	}

	b := view.NewBinding("jobs", execute)
	require.NoError(t, b.Refetch(context.Background()))

	fail.Store(true)
	require.Error(t, b.Refetch(context.Background()))

	snap := b.Snapshot()
	var callErr *pipeline.ExternalCallError
	require.ErrorAs(t, snap.Err, &callErr)
	assert.Equal(t, 500, callErr.Status)
	require.Len(t, snap.Data, 1, "failed refresh must keep the last good rows")
	assert.Equal(t, "payments deploy", snap.Data[0].Name)
	assert.Equal(t, uint64(2), snap.Version, "a surfaced failure is still an update")

	// The next success clears the error.
	fail.Store(false)
	require.NoError(t, b.Refetch(context.Background()))
	snap = b.Snapshot()
	assert.NoError(t, snap.Err)
	assert.Equal(t, uint64(3), snap.Version)
}

func TestBindingSetInputTriggersOnlyOnChange(t *testing.T) {
	var calls atomic.Int32
	execute := func(ctx context.Context, filters *domain.FilterOptions, sort *domain.SortOptions) ([]domain.Job, error) {
		calls.Add(1)
		return nil, nil
	}

	b := view.NewBinding("jobs", execute)
	updates := make(chan view.Snapshot[domain.Job], 16)
	b.OnUpdate(func(s view.Snapshot[domain.Job]) { updates <- s })
	ctx := context.Background()

	// The first input always triggers, even an empty one.
	require.True(t, b.SetInput(ctx, nil, nil))
	waitSnapshot(t, updates, func(s view.Snapshot[domain.Job]) bool {
		return !s.Loading && s.Version == 1
	}, "first input did not trigger a refetch")

	filters := &domain.FilterOptions{Status: "running"}
	require.True(t, b.SetInput(ctx, filters, nil))
	waitSnapshot(t, updates, func(s view.Snapshot[domain.Job]) bool {
		return !s.Loading && s.Version == 2
	}, "changed input did not trigger a refetch")

	// A fresh but equivalent value must not re-trigger.
	require.False(t, b.SetInput(ctx, &domain.FilterOptions{Status: "running"}, nil))

	// The binding keeps its own copy, so mutating the caller's value does
	// not change the stored input.
	filters.Status = "failed"
	require.False(t, b.SetInput(ctx, &domain.FilterOptions{Status: "running"}, nil))

	require.True(t, b.SetInput(ctx, &domain.FilterOptions{Status: "running"},
		&domain.SortOptions{Field: "name", Direction: domain.SortAsc}))
	waitSnapshot(t, updates, func(s view.Snapshot[domain.Job]) bool {
		return !s.Loading && s.Version == 3
	}, "changed sort did not trigger a refetch")

	assert.Equal(t, int32(3), calls.Load())
}

func TestBindingRefetchUsesStoredInput(t *testing.T) {
	var seen atomic.Value
	execute := func(ctx context.Context, filters *domain.FilterOptions, sort *domain.SortOptions) ([]domain.Job, error) {
		if filters != nil {
			seen.Store(filters.Status)
		}
		return nil, nil
	}

	b := view.NewBinding("jobs", execute)
	updates := make(chan view.Snapshot[domain.Job], 16)
	b.OnUpdate(func(s view.Snapshot[domain.Job]) { updates <- s })
	ctx := context.Background()

	require.True(t, b.SetInput(ctx, &domain.FilterOptions{Status: "running"}, nil))
	waitSnapshot(t, updates, func(s view.Snapshot[domain.Job]) bool {
		return !s.Loading && s.Version == 1
	}, "input did not trigger a refetch")

	// A scheduler-driven refetch reuses the input from SetInput.
	require.NoError(t, b.Refetch(ctx))
	assert.Equal(t, "running", seen.Load())
}
