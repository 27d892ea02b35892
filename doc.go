/*
Package opsdeck is a chain-driven engine for operations dashboards over jobs,
agents, deployments and work queues.

It separates data flow (Chains of Links over a shared Context) from view
state (Bindings with {data, loading, error} snapshots) and from pacing
(preference-controlled refresh Schedulers), so the same core drives a
terminal dashboard, an HTTP API and an MCP server without changes.

# Concept

Every read and mutation is a chain: an ordered pipeline of small links such
as fetch, filter, sort and extract. The engine manages traversal, validation
and error wrapping, while your application supplies the collaborators that
actually talk to a backend. Collaborators are plain interfaces, so the engine
runs identically against a live API, the bundled HTTP client or the seeded
in-memory stores.

# Key Features

  - Declarative pipelines: chains validate their topology up front and fail
    fast on dangling connections or duplicate links.
  - Stale-safe views: overlapping refreshes resolve to last-write-wins by
    completion time, and failed refreshes keep the previous data visible.
  - Preference-driven pacing: refresh modes (off, efficient, live) re-arm
    running schedulers in place and can persist per user.
  - Swappable backends: the same deck runs over HTTP, in-memory fixtures or
    anything else implementing the four collaborator interfaces.

# Usage

Assemble a Deck over a set of collaborators and refresh it. The in-memory
fixtures make the library usable without any backend:

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/opsdeck/opsdeck"
		"github.com/opsdeck/opsdeck/pkg/adapters/memory"
	)

	func main() {
		backend := memory.NewFixtures()

		deck, err := opsdeck.New(backend.Collaborators())
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		if err := deck.RefreshAll(ctx); err != nil {
			log.Fatal(err)
		}

		frame := deck.Frame()
		fmt.Println("jobs:", len(frame.Jobs.Data))

		// Or let the schedulers poll in the background.
		deck.Start(ctx)
		defer deck.Stop()
	}

For a live terminal loop, wrap the deck in a Runner with a FrameRenderer;
the CLI's watch command is exactly that.
*/
package opsdeck
