package rest

import (
	"context"
	"net/http"

	"github.com/opsdeck/opsdeck/pkg/domain"
	"github.com/opsdeck/opsdeck/pkg/ports"
)

// JobsClient talks to the dashboard jobs service.
type JobsClient struct {
	*client
}

var _ ports.JobsAPI = (*JobsClient)(nil)

// NewJobsClient builds a jobs client against cfg.BaseURL.
func NewJobsClient(cfg Config) (*JobsClient, error) {
	c, err := newClient("jobs", cfg)
	if err != nil {
		return nil, err
	}
	return &JobsClient{client: c}, nil
}

// ListJobs fetches one page of dashboard jobs.
func (c *JobsClient) ListJobs(ctx context.Context, opts ports.ListOptions) (ports.JobPage, error) {
	var page ports.JobPage
	if err := c.do(ctx, http.MethodGet, "/api/dashboard/jobs", listQuery(opts), nil, &page); err != nil {
		return ports.JobPage{}, err
	}
	return page, nil
}

// Enqueue registers a new job with the dashboard.
func (c *JobsClient) Enqueue(ctx context.Context, req ports.JobRequest) (*domain.Job, error) {
	var job domain.Job
	if err := c.do(ctx, http.MethodPost, "/api/dashboard/jobs", nil, req, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// completeJobBody is the dashboard's completion payload. The dashboard keys
// the outcome off exit_code; there is no separate fail route.
type completeJobBody struct {
	AgentID         string  `json:"agent_id"`
	ExitCode        int     `json:"exit_code"`
	DurationSeconds float64 `json:"duration_seconds"`
	LogsURL         string  `json:"logs_url,omitempty"`
	LogsSummary     string  `json:"logs_summary,omitempty"`
	ErrorMessage    string  `json:"error_message,omitempty"`
}

// Complete reports a finished run to the dashboard.
func (c *JobsClient) Complete(ctx context.Context, jobID, agentID string, req ports.CompleteRequest) (*domain.Job, error) {
	body := completeJobBody{
		AgentID:         agentID,
		ExitCode:        req.ExitCode,
		DurationSeconds: req.DurationSeconds,
		LogsURL:         req.LogsURL,
		LogsSummary:     req.LogsSummary,
		ErrorMessage:    req.ErrorMessage,
	}
	var job domain.Job
	if err := c.do(ctx, http.MethodPatch, "/api/dashboard/jobs/"+jobID+"/complete", nil, body, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Fail reports a failed run. On the wire this is a completion with a non-zero
// exit code.
func (c *JobsClient) Fail(ctx context.Context, jobID, agentID, reason string) (*domain.Job, error) {
	body := completeJobBody{
		AgentID:      agentID,
		ExitCode:     1,
		ErrorMessage: reason,
	}
	var job domain.Job
	if err := c.do(ctx, http.MethodPatch, "/api/dashboard/jobs/"+jobID+"/complete", nil, body, &job); err != nil {
		return nil, err
	}
	return &job, nil
}
