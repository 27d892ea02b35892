/*
Package pipeline implements the Context/Link/Chain engine that every resource view
in opsdeck is built on.

A Chain is a named directed graph of Links. Each Link is one asynchronous unit of
work that receives an immutable Context, performs at most one external call, and
returns a new Context with additional keys. Edges between Links carry predicates
over the current Context; after a Link completes, the engine evaluates the outgoing
edges in registration order and follows the first whose predicate holds. A Link
with no satisfied outgoing edge terminates the run.

# Key Components

  - Context: immutable ordered key/value snapshot. Insert returns a new Context;
    holders of earlier references never observe later writes.
  - Link: the step contract, Call(ctx, c) (c', error). LinkFunc adapts plain funcs.
  - Chain: the builder and walker. AddLink registers nodes, Connect wires edges,
    Run walks the graph from the first registered Link.
  - LifecycleHooks: optional observability callbacks fired around chains and links.

# Usage

	ch := pipeline.New("greeter").
		AddLink("fetch", fetchLink).
		AddLink("shape", shapeLink).
		Connect("fetch", "shape", nil)

	out, err := ch.Run(ctx, map[string]any{"name": "ada"})

Errors raised by Links are never swallowed by the engine: a failing Link aborts the
run and the error (typically a *ExternalCallError or *ValidationError) propagates
to the caller with no partial Context.
*/
package pipeline
