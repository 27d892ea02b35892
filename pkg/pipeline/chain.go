package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Predicate gates an edge. It must be a pure function of the Context: no clock,
// no randomness, no external reads, so a given input always drives the same path.
type Predicate func(Context) bool

type edge struct {
	from string
	to   string
	pred Predicate
}

// Chain is a named directed graph of Links. The first Link added is the entry.
// Construction is fluent; wiring mistakes are recorded and surface on the first
// Run (or via Validate) rather than panicking mid-build.
//
// A built Chain is immutable in practice: wire it once, then share it freely
// across goroutines. Each Run operates on its own Context.
type Chain struct {
	name    string
	order   []string
	links   map[string]Link
	edges   []edge
	logger  *slog.Logger
	hooks   LifecycleHooks
	wireErr error
}

// Option configures a Chain.
type Option func(*Chain)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(ch *Chain) {
		if logger != nil {
			ch.logger = logger
		}
	}
}

// WithHooks registers observability callbacks fired around chains and links.
func WithHooks(hooks LifecycleHooks) Option {
	return func(ch *Chain) {
		ch.hooks = hooks
	}
}

// New creates an empty Chain with the given name.
func New(name string, opts ...Option) *Chain {
	ch := &Chain{
		name:   name,
		links:  make(map[string]Link),
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(ch)
	}
	ch.logger = ch.logger.With("chain", name)
	return ch
}

// Name returns the chain's name.
func (ch *Chain) Name() string {
	return ch.name
}

// Edge describes one wired transition, for rendering and debugging. Predicates
// are opaque functions, so an Edge only records whether the transition is
// conditional.
type Edge struct {
	From        string
	To          string
	Conditional bool
}

// Links returns the link names in registration order; the entry link is first.
func (ch *Chain) Links() []string {
	out := make([]string, len(ch.order))
	copy(out, ch.order)
	return out
}

// Edges returns the wired transitions in evaluation order.
func (ch *Chain) Edges() []Edge {
	out := make([]Edge, 0, len(ch.edges))
	for _, e := range ch.edges {
		out = append(out, Edge{From: e.from, To: e.to, Conditional: e.pred != nil})
	}
	return out
}

// AddLink registers link under name. The first registration becomes the entry
// point. Registering the same name twice replaces the Link but keeps its
// position in the graph.
func (ch *Chain) AddLink(name string, link Link) *Chain {
	if link == nil {
		ch.recordWireErr(fmt.Errorf("chain %q: link %q is nil", ch.name, name))
		return ch
	}
	if _, exists := ch.links[name]; !exists {
		ch.order = append(ch.order, name)
	}
	ch.links[name] = link
	return ch
}

// Connect adds a directed edge between two registered Links. A nil predicate
// means "always". Edges are evaluated in the order they were connected.
func (ch *Chain) Connect(from, to string, pred Predicate) *Chain {
	if _, ok := ch.links[from]; !ok {
		ch.recordWireErr(fmt.Errorf("chain %q: connect from unknown link %q", ch.name, from))
		return ch
	}
	if _, ok := ch.links[to]; !ok {
		ch.recordWireErr(fmt.Errorf("chain %q: connect to unknown link %q", ch.name, to))
		return ch
	}
	ch.edges = append(ch.edges, edge{from: from, to: to, pred: pred})
	return ch
}

// Validate reports wiring problems: a recorded construction error or an empty
// graph.
func (ch *Chain) Validate() error {
	if ch.wireErr != nil {
		return ch.wireErr
	}
	if len(ch.order) == 0 {
		return fmt.Errorf("chain %q has no links", ch.name)
	}
	return nil
}

// Run builds a fresh Context from input and walks the graph from the entry
// Link. After each Link completes, the outgoing edges are evaluated in
// registration order against the new Context; the first true predicate selects
// the next Link, and a Link with no satisfied edge is terminal.
//
// A Link error aborts the run: no partial Context is returned and the error
// propagates wrapped with the chain and link names (errors.As still reaches the
// typed cause).
func (ch *Chain) Run(ctx context.Context, input map[string]any) (Context, error) {
	if err := ch.Validate(); err != nil {
		return Context{}, err
	}

	start := time.Now()
	c := NewContext(input)
	current := ch.order[0]
	path := make([]string, 0, len(ch.order))

	ch.hooks.chainStart(ctx, &ChainEvent{Chain: ch.name})

	for {
		if err := ctx.Err(); err != nil {
			ch.hooks.chainEnd(ctx, &ChainEvent{Chain: ch.name, Path: path, Duration: time.Since(start), Err: err})
			return Context{}, err
		}

		path = append(path, current)
		linkStart := time.Now()
		ch.hooks.linkStart(ctx, &LinkEvent{Chain: ch.name, Link: current})
		ch.logger.Debug("link start", "link", current)

		next, err := ch.links[current].Call(ctx, c)
		ch.hooks.linkEnd(ctx, &LinkEvent{Chain: ch.name, Link: current, Duration: time.Since(linkStart), Err: err})
		if err != nil {
			ch.logger.Debug("link failed", "link", current, "err", err)
			ch.hooks.chainEnd(ctx, &ChainEvent{Chain: ch.name, Path: path, Duration: time.Since(start), Err: err})
			return Context{}, fmt.Errorf("chain %q: link %q: %w", ch.name, current, err)
		}
		c = next

		target, ok := ch.next(current, c)
		if !ok {
			break
		}
		current = target
	}

	ch.logger.Debug("chain complete", "path", path, "duration", time.Since(start))
	ch.hooks.chainEnd(ctx, &ChainEvent{Chain: ch.name, Path: path, Duration: time.Since(start)})
	return c, nil
}

// next evaluates the outgoing edges of from in registration order and returns
// the first satisfied target.
func (ch *Chain) next(from string, c Context) (string, bool) {
	for _, e := range ch.edges {
		if e.from != from {
			continue
		}
		if e.pred == nil || e.pred(c) {
			return e.to, true
		}
	}
	return "", false
}

func (ch *Chain) recordWireErr(err error) {
	if ch.wireErr == nil {
		ch.wireErr = err
	}
}
