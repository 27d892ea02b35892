/*
Package chains builds the concrete resource pipelines of the dashboard on top
of pkg/pipeline: JobsChain, AgentsChain, DeploymentsChain and QueueChain.

Each view chain wires the same four links — fetch → filter → sort → extract —
over one collaborator port and exposes a single canonical contract:

	Execute(ctx, filters, sort) ([]T, error)

returning the domain slice directly; the Context/Link/Chain machinery stays an
implementation detail behind it. Mutations (enqueue, claim, start, complete,
fail, requeue, pause, resume) are one-link chains that surface their
collaborator's error verbatim.

WebhookChain is the one ingestion pipeline: validate → store → route over a
webhook event store, with an optional create_job tail that turns push events
into build jobs when the tool opts in.

Chains are built once and shared: Execute is safe for concurrent use, and every
run operates on its own Context.
*/
package chains
