// Package view adapts chain executions to a component-style data binding.
// A Binding owns the {data, loading, error} state for one dashboard view,
// re-fetches when its input changes, and protects the state against stale
// completions when refreshes overlap.
package view

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/opsdeck/opsdeck/internal/clock"
	"github.com/opsdeck/opsdeck/pkg/domain"
)

// ExecuteFunc fetches the rows for a view. Chain Execute methods satisfy it
// directly.
type ExecuteFunc[T any] func(ctx context.Context, filters *domain.FilterOptions, sort *domain.SortOptions) ([]T, error)

// Snapshot is a point-in-time copy of a binding's state.
type Snapshot[T any] struct {
	// Data holds the rows from the newest applied refresh. It keeps its
	// previous value while Loading and across failed refreshes.
	Data []T
	// Loading reports whether at least one refresh is in flight.
	Loading bool
	// Err is the error from the newest applied refresh, nil after a
	// successful one.
	Err error
	// Version increases with every applied refresh. Observers seeing
	// snapshots out of order can drop the lower-versioned one.
	Version uint64
	// UpdatedAt is when the newest refresh was applied.
	UpdatedAt time.Time
}

// Option configures a Binding.
type Option func(*options)

type options struct {
	logger *slog.Logger
	clock  clock.Clock
}

// WithLogger sets the logger for discarded completions and background
// refresh failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock injects the time source used for UpdatedAt stamps.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// Binding binds one ExecuteFunc to observable view state. All methods are
// safe for concurrent use.
type Binding[T any] struct {
	execute ExecuteFunc[T]
	logger  *slog.Logger
	clock   clock.Clock

	mu       sync.Mutex
	hasInput bool
	inputKey string
	filters  *domain.FilterOptions
	sort     *domain.SortOptions
	data     []T
	err      error
	inFlight int
	seq      uint64
	applied  uint64
	updated  time.Time
	onUpdate []func(Snapshot[T])
}

// NewBinding creates a binding for the named view over an ExecuteFunc.
func NewBinding[T any](name string, execute ExecuteFunc[T], opts ...Option) *Binding[T] {
	o := options{
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
		clock:  clock.Real(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Binding[T]{
		execute: execute,
		logger:  o.logger.With("binding", name),
		clock:   o.clock,
	}
}

// SetInput replaces the filter and sort input for the view, then refetches
// in the background when the input content actually changed. Inputs are
// compared by their serialized form, so a freshly built but equivalent value
// does not re-trigger. The first call always triggers. Returns whether a
// refetch was started.
func (b *Binding[T]) SetInput(ctx context.Context, filters *domain.FilterOptions, sort *domain.SortOptions) bool {
	key := encodeInput(filters, sort)

	b.mu.Lock()
	if b.hasInput && key == b.inputKey {
		b.mu.Unlock()
		return false
	}
	b.hasInput = true
	b.inputKey = key
	b.filters = cloneFilters(filters)
	b.sort = cloneSort(sort)
	b.mu.Unlock()

	b.TriggerRefetch(ctx)
	return true
}

// Refetch runs the view's ExecuteFunc once and blocks until it completes.
// The returned error is the run's own result; whether the run's outcome was
// applied to the binding depends on the staleness rule below.
//
// Every run is tagged with an increasing sequence number when it starts. A
// completion older than the newest applied one is discarded entirely, success
// or failure, so overlapping refreshes resolve to last-write-wins by
// completion time. An applied failure sets Err and leaves the previous Data
// in place; an applied success replaces Data and clears Err.
func (b *Binding[T]) Refetch(ctx context.Context) error {
	seq, filters, sort := b.begin()
	data, err := b.execute(ctx, filters, sort)
	b.finish(seq, data, err)
	return err
}

// TriggerRefetch starts a Refetch in a new goroutine. Failures are logged,
// mirroring Refetch's state handling.
func (b *Binding[T]) TriggerRefetch(ctx context.Context) {
	go func() {
		if err := b.Refetch(ctx); err != nil {
			b.logger.Warn("refresh failed", "err", err)
		}
	}()
}

// Snapshot returns a copy of the current view state.
func (b *Binding[T]) Snapshot() Snapshot[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

// InFlight reports whether a refresh is currently executing.
func (b *Binding[T]) InFlight() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inFlight > 0
}

// OnUpdate registers an observer called with a fresh Snapshot after every
// state change. Callbacks run outside the binding's lock; under overlapping
// refreshes they may observe snapshots out of order, so order-sensitive
// observers should compare Version.
func (b *Binding[T]) OnUpdate(fn func(Snapshot[T])) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onUpdate = append(b.onUpdate, fn)
}

func (b *Binding[T]) begin() (uint64, *domain.FilterOptions, *domain.SortOptions) {
	b.mu.Lock()
	b.seq++
	seq := b.seq
	b.inFlight++
	filters, sort := b.filters, b.sort
	snap := b.snapshotLocked()
	fns := slices.Clone(b.onUpdate)
	b.mu.Unlock()

	notify(fns, snap)
	return seq, filters, sort
}

func (b *Binding[T]) finish(seq uint64, data []T, err error) {
	b.mu.Lock()
	b.inFlight--
	stale := seq < b.applied
	if !stale {
		b.applied = seq
		b.updated = b.clock.Now()
		if err != nil {
			b.err = err
		} else {
			b.data = data
			b.err = nil
		}
	}
	snap := b.snapshotLocked()
	fns := slices.Clone(b.onUpdate)
	b.mu.Unlock()

	if stale {
		b.logger.Debug("stale completion discarded", "seq", seq, "applied", snap.Version)
	}
	notify(fns, snap)
}

func (b *Binding[T]) snapshotLocked() Snapshot[T] {
	return Snapshot[T]{
		Data:      slices.Clone(b.data),
		Loading:   b.inFlight > 0,
		Err:       b.err,
		Version:   b.applied,
		UpdatedAt: b.updated,
	}
}

func notify[T any](fns []func(Snapshot[T]), snap Snapshot[T]) {
	for _, fn := range fns {
		fn(snap)
	}
}

func encodeInput(filters *domain.FilterOptions, sort *domain.SortOptions) string {
	raw, err := json.Marshal(struct {
		Filters *domain.FilterOptions `json:"filters"`
		Sort    *domain.SortOptions   `json:"sort"`
	}{filters, sort})
	if err != nil {
		// Options are plain structs; Marshal cannot fail for them.
		return fmt.Sprintf("unencodable: %v", err)
	}
	return string(raw)
}

func cloneFilters(f *domain.FilterOptions) *domain.FilterOptions {
	if f == nil {
		return nil
	}
	clone := *f
	clone.Tags = slices.Clone(f.Tags)
	return &clone
}

func cloneSort(s *domain.SortOptions) *domain.SortOptions {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}
