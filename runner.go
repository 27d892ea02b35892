package opsdeck

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// FrameRenderer turns one dashboard frame into the text the Runner writes.
// This keeps presentation (ANSI tables, markdown) out of the core package.
type FrameRenderer func(Frame) string

// Runner drives the interactive watch loop of a Deck using provided IO.
// This allows for easy testing and integration with different frontends.
type Runner struct {
	Output io.Writer
	Render FrameRenderer
	// Clear, when set, wipes the screen before each repaint.
	Clear func()
}

// Run starts the deck's schedulers, paints a first frame, then repaints on
// every view update until ctx is cancelled. Refresh failures are not fatal:
// they surface on the frame itself as per-view error state. Run registers an
// update observer on the deck, so a Runner should drive a deck once.
func (r *Runner) Run(ctx context.Context, deck *Deck) error {
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	if r.Render == nil {
		return fmt.Errorf("frame renderer must be set")
	}

	// Coalescing channel: bursts of view updates collapse into one repaint.
	updates := make(chan struct{}, 1)
	deck.OnUpdate(func() {
		select {
		case updates <- struct{}{}:
		default:
		}
	})

	deck.Start(ctx)
	defer deck.Stop()

	_ = deck.RefreshAll(ctx)

	for {
		r.paint(deck)
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-updates:
		}
	}
}

func (r *Runner) paint(deck *Deck) {
	if r.Clear != nil {
		r.Clear()
	}
	fmt.Fprint(r.Output, r.Render(deck.Frame()))
}
