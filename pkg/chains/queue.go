package chains

import (
	"context"
	"fmt"

	"github.com/opsdeck/opsdeck/pkg/domain"
	"github.com/opsdeck/opsdeck/pkg/pipeline"
	"github.com/opsdeck/opsdeck/pkg/ports"
)

// KeyQueuedJobs is the raw collection key of the queue view chain.
const KeyQueuedJobs = "queued_jobs"

// QueueChain is the work queue pipeline: the view chain, the stats chain, and
// the lease lifecycle mutations (claim, start, complete, fail, requeue).
type QueueChain struct {
	api  ports.QueueAPI
	view *pipeline.Chain

	stats    *pipeline.Chain
	claim    *pipeline.Chain
	start    *pipeline.Chain
	complete *pipeline.Chain
	fail     *pipeline.Chain
	requeue  *pipeline.Chain
}

// NewQueueChain wires the queue view, stats and mutation chains over the
// collaborator.
func NewQueueChain(api ports.QueueAPI, opts ...pipeline.Option) *QueueChain {
	qc := &QueueChain{api: api}

	qc.view = newViewChain("queue", KeyQueuedJobs, func(ctx context.Context) ([]domain.QueuedJob, error) {
		page, err := api.ListQueued(ctx, ports.ListOptions{})
		if err != nil {
			return nil, err
		}
		return page.Jobs, nil
	}, opts)

	qc.stats = pipeline.New("queue.stats", opts...).
		AddLink("stats", pipeline.LinkFunc(func(ctx context.Context, c pipeline.Context) (pipeline.Context, error) {
			stats, err := api.Stats(ctx)
			if err != nil {
				return pipeline.Context{}, err
			}
			return c.Insert("stats", stats), nil
		}))

	qc.claim = pipeline.New("queue.claim", opts...).
		AddLink("claim", pipeline.LinkFunc(func(ctx context.Context, c pipeline.Context) (pipeline.Context, error) {
			agentID, err := stringKey(c, "claim", "agent_id")
			if err != nil {
				return pipeline.Context{}, err
			}
			poolID, _ := c.String("pool_id")
			job, err := api.Claim(ctx, ports.ClaimRequest{AgentID: agentID, PoolID: poolID})
			if err != nil {
				return pipeline.Context{}, err
			}
			return c.Insert("queued_job", job), nil
		}))

	qc.start = pipeline.New("queue.start", opts...).
		AddLink("start", pipeline.LinkFunc(func(ctx context.Context, c pipeline.Context) (pipeline.Context, error) {
			jobID, err := stringKey(c, "start", "job_id")
			if err != nil {
				return pipeline.Context{}, err
			}
			agentID, err := stringKey(c, "start", "agent_id")
			if err != nil {
				return pipeline.Context{}, err
			}
			job, err := api.Start(ctx, jobID, agentID)
			if err != nil {
				return pipeline.Context{}, err
			}
			return c.Insert("queued_job", job), nil
		}))

	qc.complete = pipeline.New("queue.complete", opts...).
		AddLink("complete", pipeline.LinkFunc(func(ctx context.Context, c pipeline.Context) (pipeline.Context, error) {
			jobID, err := stringKey(c, "complete", "job_id")
			if err != nil {
				return pipeline.Context{}, err
			}
			req, _ := c.Value("request").(ports.CompleteRequest)
			job, err := api.Complete(ctx, jobID, req)
			if err != nil {
				return pipeline.Context{}, err
			}
			return c.Insert("queued_job", job), nil
		}))

	qc.fail = pipeline.New("queue.fail", opts...).
		AddLink("fail", pipeline.LinkFunc(func(ctx context.Context, c pipeline.Context) (pipeline.Context, error) {
			jobID, err := stringKey(c, "fail", "job_id")
			if err != nil {
				return pipeline.Context{}, err
			}
			req, _ := c.Value("request").(ports.FailRequest)
			job, err := api.Fail(ctx, jobID, req)
			if err != nil {
				return pipeline.Context{}, err
			}
			return c.Insert("queued_job", job), nil
		}))

	qc.requeue = pipeline.New("queue.requeue", opts...).
		AddLink("requeue", pipeline.LinkFunc(func(ctx context.Context, c pipeline.Context) (pipeline.Context, error) {
			moved, err := api.Requeue(ctx)
			if err != nil {
				return pipeline.Context{}, err
			}
			return c.Insert("requeued", moved), nil
		}))

	return qc
}

// View exposes the read pipeline for topology introspection.
func (qc *QueueChain) View() *pipeline.Chain { return qc.view }

// Execute runs the view chain and returns the filtered, sorted queued jobs.
func (qc *QueueChain) Execute(ctx context.Context, filters *domain.FilterOptions, sortOpts *domain.SortOptions) ([]domain.QueuedJob, error) {
	return executeView[domain.QueuedJob](ctx, qc.view, filters, sortOpts)
}

// Stats returns the queue's aggregate snapshot.
func (qc *QueueChain) Stats(ctx context.Context) (*domain.QueueStats, error) {
	out, err := qc.stats.Run(ctx, nil)
	if err != nil {
		return nil, err
	}
	stats, ok := out.Value("stats").(*domain.QueueStats)
	if !ok {
		return nil, fmt.Errorf("chain %q produced no stats", qc.stats.Name())
	}
	return stats, nil
}

// Claim leases the next queued job to an agent. A nil job means the queue had
// nothing claimable.
func (qc *QueueChain) Claim(ctx context.Context, agentID, poolID string) (*domain.QueuedJob, error) {
	return qc.runQueueMutation(ctx, qc.claim, map[string]any{"agent_id": agentID, "pool_id": poolID})
}

// Start marks a claimed job as running.
func (qc *QueueChain) Start(ctx context.Context, jobID, agentID string) (*domain.QueuedJob, error) {
	return qc.runQueueMutation(ctx, qc.start, map[string]any{"job_id": jobID, "agent_id": agentID})
}

// Complete reports a finished run.
func (qc *QueueChain) Complete(ctx context.Context, jobID string, req ports.CompleteRequest) (*domain.QueuedJob, error) {
	return qc.runQueueMutation(ctx, qc.complete, map[string]any{"job_id": jobID, "request": req})
}

// Fail reports a failed run.
func (qc *QueueChain) Fail(ctx context.Context, jobID string, req ports.FailRequest) (*domain.QueuedJob, error) {
	return qc.runQueueMutation(ctx, qc.fail, map[string]any{"job_id": jobID, "request": req})
}

// Requeue returns expired-lease jobs to the queue and reports how many moved.
func (qc *QueueChain) Requeue(ctx context.Context) (int, error) {
	out, err := qc.requeue.Run(ctx, nil)
	if err != nil {
		return 0, err
	}
	moved, ok := out.Value("requeued").(int)
	if !ok {
		return 0, fmt.Errorf("chain %q produced no requeue count", qc.requeue.Name())
	}
	return moved, nil
}

func (qc *QueueChain) runQueueMutation(ctx context.Context, ch *pipeline.Chain, input map[string]any) (*domain.QueuedJob, error) {
	out, err := ch.Run(ctx, input)
	if err != nil {
		return nil, err
	}
	job, ok := out.Value("queued_job").(*domain.QueuedJob)
	if !ok {
		return nil, fmt.Errorf("chain %q produced no job", ch.Name())
	}
	return job, nil
}
