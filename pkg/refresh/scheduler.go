// Package refresh drives periodic view refreshes from a preference-controlled
// timer. A Scheduler owns one polling loop: it fires a target function on each
// tick, skips ticks that arrive while a previous run is still in flight, and
// can be re-paced at runtime when the user changes their refresh preference.
package refresh

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opsdeck/opsdeck/internal/clock"
)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used for skip and failure events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock injects the time source. Defaults to the wall clock.
func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithMode sets the initial refresh mode. Defaults to ModeOff.
func WithMode(m Mode) Option {
	return func(s *Scheduler) { s.mode = m }
}

// WithInterval sets an explicit polling period that overrides the mode's
// preset. ModeOff still disables polling entirely.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.override = d }
}

// WithOnRun registers a callback invoked after every completed refresh with
// the target's error, nil on success. Used to feed run counters.
func WithOnRun(fn func(error)) Option {
	return func(s *Scheduler) { s.onRun = fn }
}

// WithOnSkip registers a callback invoked whenever a tick is dropped because
// the previous refresh is still in flight.
func WithOnSkip(fn func()) Option {
	return func(s *Scheduler) { s.onSkip = fn }
}

// Scheduler periodically invokes a refresh target. Ticks that arrive while a
// run is still in flight are skipped, never queued, so a slow collaborator
// yields fewer refreshes rather than a backlog of them.
type Scheduler struct {
	target func(context.Context) error
	clock  clock.Clock
	logger *slog.Logger
	onRun  func(error)
	onSkip func()

	mu       sync.Mutex
	mode     Mode
	override time.Duration
	running  bool
	ticker   *clock.Ticker
	cancel   context.CancelFunc
	done     chan struct{}

	busy atomic.Bool
	wg   sync.WaitGroup
}

// New creates a Scheduler for the named view. The target is the refresh to
// run on each tick; it receives the context passed to Start.
func New(name string, target func(context.Context) error, opts ...Option) *Scheduler {
	s := &Scheduler{
		target: target,
		clock:  clock.Real(),
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
		mode:   ModeOff,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("scheduler", name)
	return s
}

// Start launches the polling loop. A second Start while running is a no-op.
// The loop stops when Stop is called; cancelling ctx also stops ticking, but
// Stop remains the way to release the timer.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	// One ticker per run, re-armed in place on preference changes so the
	// loop reads a single channel for its whole life.
	s.ticker = s.clock.NewTicker(time.Hour)
	if d := s.intervalLocked(); d > 0 {
		s.ticker.Reset(d)
	} else {
		s.ticker.Stop()
	}

	go s.loop(runCtx, s.ticker.C, s.done)
}

// Stop halts the loop and blocks until it and any in-flight refresh have
// returned. No tick fires after Stop returns. Stopping a stopped Scheduler
// is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.ticker.Stop()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	s.wg.Wait()
}

// SetMode switches the refresh mode. While running, the new cadence applies
// immediately: the period restarts from now, and ModeOff stops the timer. A
// tick already delivered before the change may still run once.
func (s *Scheduler) SetMode(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m == s.mode {
		return
	}
	s.mode = m
	s.rearmLocked()
}

// SetInterval sets or clears (d <= 0) the explicit period override.
func (s *Scheduler) SetInterval(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d < 0 {
		d = 0
	}
	if d == s.override {
		return
	}
	s.override = d
	s.rearmLocked()
}

// Mode returns the current refresh mode.
func (s *Scheduler) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Interval returns the effective polling period, zero when polling is off.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intervalLocked()
}

// Running reports whether the loop has been started and not yet stopped.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// InFlight reports whether a refresh is currently executing.
func (s *Scheduler) InFlight() bool {
	return s.busy.Load()
}

func (s *Scheduler) intervalLocked() time.Duration {
	if s.mode == ModeOff {
		return 0
	}
	if s.override > 0 {
		return s.override
	}
	return s.mode.Interval()
}

func (s *Scheduler) rearmLocked() {
	if !s.running {
		return
	}
	if d := s.intervalLocked(); d > 0 {
		s.ticker.Reset(d)
	} else {
		s.ticker.Stop()
	}
}

func (s *Scheduler) loop(ctx context.Context, tick <-chan time.Time, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if !s.busy.CompareAndSwap(false, true) {
		s.logger.Debug("tick skipped, refresh still in flight")
		if s.onSkip != nil {
			s.onSkip()
		}
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.target(ctx)
		s.busy.Store(false)
		if err != nil {
			s.logger.Warn("refresh failed", "err", err)
		}
		if s.onRun != nil {
			s.onRun(err)
		}
	}()
}
