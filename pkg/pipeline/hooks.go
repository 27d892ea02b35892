package pipeline

import (
	"context"
	"time"
)

// ChainEvent describes the start or completion of one chain run.
type ChainEvent struct {
	Chain    string        `json:"chain"`
	Path     []string      `json:"path,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// LinkEvent describes the start or completion of one link call within a run.
type LinkEvent struct {
	Chain    string        `json:"chain"`
	Link     string        `json:"link"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability. Any field may be
// nil. Hooks observe; they must not mutate the Context or block for long.
type LifecycleHooks struct {
	OnChainStart func(context.Context, *ChainEvent)
	OnChainEnd   func(context.Context, *ChainEvent)
	OnLinkStart  func(context.Context, *LinkEvent)
	OnLinkEnd    func(context.Context, *LinkEvent)
}

// Merge returns hooks that invoke h's callbacks first and other's second.
// Nil callbacks on either side are skipped.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnChainStart: mergeChainFn(h.OnChainStart, other.OnChainStart),
		OnChainEnd:   mergeChainFn(h.OnChainEnd, other.OnChainEnd),
		OnLinkStart:  mergeLinkFn(h.OnLinkStart, other.OnLinkStart),
		OnLinkEnd:    mergeLinkFn(h.OnLinkEnd, other.OnLinkEnd),
	}
}

func mergeChainFn(a, b func(context.Context, *ChainEvent)) func(context.Context, *ChainEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, ev *ChainEvent) {
		a(ctx, ev)
		b(ctx, ev)
	}
}

func mergeLinkFn(a, b func(context.Context, *LinkEvent)) func(context.Context, *LinkEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, ev *LinkEvent) {
		a(ctx, ev)
		b(ctx, ev)
	}
}

func (h LifecycleHooks) chainStart(ctx context.Context, ev *ChainEvent) {
	if h.OnChainStart != nil {
		h.OnChainStart(ctx, ev)
	}
}

func (h LifecycleHooks) chainEnd(ctx context.Context, ev *ChainEvent) {
	if h.OnChainEnd != nil {
		h.OnChainEnd(ctx, ev)
	}
}

func (h LifecycleHooks) linkStart(ctx context.Context, ev *LinkEvent) {
	if h.OnLinkStart != nil {
		h.OnLinkStart(ctx, ev)
	}
}

func (h LifecycleHooks) linkEnd(ctx context.Context, ev *LinkEvent) {
	if h.OnLinkEnd != nil {
		h.OnLinkEnd(ctx, ev)
	}
}
