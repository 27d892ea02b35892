package rest

import (
	"context"
	"net/http"

	"github.com/opsdeck/opsdeck/pkg/domain"
	"github.com/opsdeck/opsdeck/pkg/ports"
)

// defaultLeaseSeconds matches the queue service's default claim lease.
const defaultLeaseSeconds = 30

// QueueClient talks to the work queue service. Unlike the dashboard, the
// queue wraps every response in a status envelope; the envelope types below
// mirror that wire shape and stay private to this package.
type QueueClient struct {
	*client
}

var _ ports.QueueAPI = (*QueueClient)(nil)

// NewQueueClient builds a queue client against cfg.BaseURL.
func NewQueueClient(cfg Config) (*QueueClient, error) {
	c, err := newClient("queue", cfg)
	if err != nil {
		return nil, err
	}
	return &QueueClient{client: c}, nil
}

type queueListEnvelope struct {
	Status string             `json:"status"`
	Jobs   []domain.QueuedJob `json:"jobs"`
	Count  int                `json:"count"`
}

type queueClaimEnvelope struct {
	Status          string            `json:"status"`
	NoJobsAvailable bool              `json:"no_jobs_available"`
	Job             *domain.QueuedJob `json:"job"`
}

type queueJobEnvelope struct {
	Status  string           `json:"status"`
	Job     domain.QueuedJob `json:"job"`
	Retried bool             `json:"retried"`
}

type queueStatsEnvelope struct {
	Status string            `json:"status"`
	Stats  domain.QueueStats `json:"stats"`
}

type requeueEnvelope struct {
	Status        string `json:"status"`
	RequeuedCount int    `json:"requeued_count"`
}

type claimBody struct {
	AgentID      string `json:"agent_id"`
	PoolName     string `json:"pool_name,omitempty"`
	LeaseSeconds int    `json:"lease_duration_seconds"`
}

type startBody struct {
	AgentID string `json:"agent_id"`
}

type queueCompleteBody struct {
	ExitCode        int     `json:"exit_code"`
	DurationSeconds float64 `json:"duration_seconds"`
	ErrorMessage    string  `json:"error_message,omitempty"`
}

// ListQueued fetches the current queue contents. The queue reports a count
// rather than a paging window, so Limit and Offset echo the request.
func (c *QueueClient) ListQueued(ctx context.Context, opts ports.ListOptions) (ports.QueuedJobPage, error) {
	var env queueListEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/queue/jobs", listQuery(opts), nil, &env); err != nil {
		return ports.QueuedJobPage{}, err
	}
	return ports.QueuedJobPage{
		Jobs:   env.Jobs,
		Total:  env.Count,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}, nil
}

// Stats fetches the queue's aggregate snapshot.
func (c *QueueClient) Stats(ctx context.Context) (*domain.QueueStats, error) {
	var env queueStatsEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/queue/stats", nil, nil, &env); err != nil {
		return nil, err
	}
	return &env.Stats, nil
}

// Claim leases the next queued job to the agent. An empty queue is not an
// error; the returned job is nil.
func (c *QueueClient) Claim(ctx context.Context, req ports.ClaimRequest) (*domain.QueuedJob, error) {
	body := claimBody{
		AgentID:      req.AgentID,
		PoolName:     req.PoolID,
		LeaseSeconds: defaultLeaseSeconds,
	}
	var env queueClaimEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/queue/claim", nil, body, &env); err != nil {
		return nil, err
	}
	if env.NoJobsAvailable {
		return nil, nil
	}
	return env.Job, nil
}

// Start reports that the claiming agent began executing the job.
func (c *QueueClient) Start(ctx context.Context, jobID, agentID string) (*domain.QueuedJob, error) {
	var env queueJobEnvelope
	err := c.do(ctx, http.MethodPatch, "/api/queue/jobs/"+jobID+"/start", nil, startBody{AgentID: agentID}, &env)
	if err != nil {
		return nil, err
	}
	return &env.Job, nil
}

// Complete reports the job's outcome to the queue.
func (c *QueueClient) Complete(ctx context.Context, jobID string, req ports.CompleteRequest) (*domain.QueuedJob, error) {
	body := queueCompleteBody{
		ExitCode:        req.ExitCode,
		DurationSeconds: req.DurationSeconds,
		ErrorMessage:    req.ErrorMessage,
	}
	var env queueJobEnvelope
	err := c.do(ctx, http.MethodPatch, "/api/queue/jobs/"+jobID+"/complete", nil, body, &env)
	if err != nil {
		return nil, err
	}
	return &env.Job, nil
}

// Fail reports a failed run. On the wire this is a completion with a non-zero
// exit code; a zero ExitCode is sent as 1.
func (c *QueueClient) Fail(ctx context.Context, jobID string, req ports.FailRequest) (*domain.QueuedJob, error) {
	exit := req.ExitCode
	if exit == 0 {
		exit = 1
	}
	body := queueCompleteBody{
		ExitCode:     exit,
		ErrorMessage: req.Reason,
	}
	var env queueJobEnvelope
	err := c.do(ctx, http.MethodPatch, "/api/queue/jobs/"+jobID+"/complete", nil, body, &env)
	if err != nil {
		return nil, err
	}
	return &env.Job, nil
}

// Requeue returns expired-lease jobs to the queue.
func (c *QueueClient) Requeue(ctx context.Context) (int, error) {
	var env requeueEnvelope
	err := c.do(ctx, http.MethodPost, "/api/queue/maintenance/requeue-expired", nil, nil, &env)
	if err != nil {
		return 0, err
	}
	return env.RequeuedCount, nil
}
