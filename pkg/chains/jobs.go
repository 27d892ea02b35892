package chains

import (
	"context"
	"fmt"

	"github.com/opsdeck/opsdeck/pkg/domain"
	"github.com/opsdeck/opsdeck/pkg/pipeline"
	"github.com/opsdeck/opsdeck/pkg/ports"
)

// KeyJobs is the raw collection key of the jobs view chain.
const KeyJobs = "jobs"

// JobsChain is the dashboard jobs pipeline: a view chain plus the job mutation
// chains. Construct once with NewJobsChain and share freely.
type JobsChain struct {
	api  ports.JobsAPI
	view *pipeline.Chain

	enqueue  *pipeline.Chain
	complete *pipeline.Chain
	fail     *pipeline.Chain
}

// NewJobsChain wires the jobs view and mutation chains over the collaborator.
func NewJobsChain(api ports.JobsAPI, opts ...pipeline.Option) *JobsChain {
	jc := &JobsChain{api: api}

	jc.view = newViewChain("jobs", KeyJobs, func(ctx context.Context) ([]domain.Job, error) {
		page, err := api.ListJobs(ctx, ports.ListOptions{})
		if err != nil {
			return nil, err
		}
		return page.Jobs, nil
	}, opts)

	jc.enqueue = pipeline.New("jobs.enqueue", opts...).
		AddLink("enqueue", pipeline.LinkFunc(func(ctx context.Context, c pipeline.Context) (pipeline.Context, error) {
			req, ok := c.Value("request").(ports.JobRequest)
			if !ok {
				return pipeline.Context{}, &pipeline.ValidationError{Link: "enqueue", MissingKeys: []string{"request"}}
			}
			job, err := api.Enqueue(ctx, req)
			if err != nil {
				return pipeline.Context{}, err
			}
			return c.Insert("job", job), nil
		}))

	jc.complete = pipeline.New("jobs.complete", opts...).
		AddLink("complete", pipeline.LinkFunc(func(ctx context.Context, c pipeline.Context) (pipeline.Context, error) {
			jobID, err := stringKey(c, "complete", "job_id")
			if err != nil {
				return pipeline.Context{}, err
			}
			agentID, err := stringKey(c, "complete", "agent_id")
			if err != nil {
				return pipeline.Context{}, err
			}
			req, _ := c.Value("request").(ports.CompleteRequest)
			job, err := api.Complete(ctx, jobID, agentID, req)
			if err != nil {
				return pipeline.Context{}, err
			}
			return c.Insert("job", job), nil
		}))

	jc.fail = pipeline.New("jobs.fail", opts...).
		AddLink("fail", pipeline.LinkFunc(func(ctx context.Context, c pipeline.Context) (pipeline.Context, error) {
			jobID, err := stringKey(c, "fail", "job_id")
			if err != nil {
				return pipeline.Context{}, err
			}
			agentID, err := stringKey(c, "fail", "agent_id")
			if err != nil {
				return pipeline.Context{}, err
			}
			reason, _ := c.String("reason")
			job, err := api.Fail(ctx, jobID, agentID, reason)
			if err != nil {
				return pipeline.Context{}, err
			}
			return c.Insert("job", job), nil
		}))

	return jc
}

// View exposes the read pipeline for topology introspection.
func (jc *JobsChain) View() *pipeline.Chain { return jc.view }

// Execute runs the view chain and returns the filtered, sorted jobs.
func (jc *JobsChain) Execute(ctx context.Context, filters *domain.FilterOptions, sortOpts *domain.SortOptions) ([]domain.Job, error) {
	return executeView[domain.Job](ctx, jc.view, filters, sortOpts)
}

// Enqueue submits a new job.
func (jc *JobsChain) Enqueue(ctx context.Context, req ports.JobRequest) (*domain.Job, error) {
	return jc.runJobMutation(ctx, jc.enqueue, map[string]any{"request": req})
}

// Complete reports a finished run.
func (jc *JobsChain) Complete(ctx context.Context, jobID, agentID string, req ports.CompleteRequest) (*domain.Job, error) {
	return jc.runJobMutation(ctx, jc.complete, map[string]any{
		"job_id":   jobID,
		"agent_id": agentID,
		"request":  req,
	})
}

// Fail reports a failed run.
func (jc *JobsChain) Fail(ctx context.Context, jobID, agentID, reason string) (*domain.Job, error) {
	return jc.runJobMutation(ctx, jc.fail, map[string]any{
		"job_id":   jobID,
		"agent_id": agentID,
		"reason":   reason,
	})
}

func (jc *JobsChain) runJobMutation(ctx context.Context, ch *pipeline.Chain, input map[string]any) (*domain.Job, error) {
	out, err := ch.Run(ctx, input)
	if err != nil {
		return nil, err
	}
	job, ok := out.Value("job").(*domain.Job)
	if !ok {
		return nil, fmt.Errorf("chain %q produced no job", ch.Name())
	}
	return job, nil
}
