// Package ports defines the driven-side contracts of opsdeck: the collaborator
// APIs each fetch/mutation link calls, and the preference store the scheduler
// reads. Adapters (rest, memory, redis) implement these; the chains only ever
// see the interfaces.
package ports

import (
	"context"

	"github.com/opsdeck/opsdeck/pkg/domain"
)

// ListOptions carries the server-side paging hints for a fetch call. Filtering
// and sorting of the fetched collection happen in the pipeline, not here.
type ListOptions struct {
	Status string
	PoolID string
	Limit  int
	Offset int
}

// JobPage is the jobs collaborator's list envelope.
type JobPage struct {
	Jobs   []domain.Job `json:"jobs"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// AgentPage is the agents collaborator's list envelope.
type AgentPage struct {
	Agents []domain.Agent `json:"agents"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// DeploymentPage is the deployments collaborator's list envelope.
type DeploymentPage struct {
	Deployments []domain.Deployment `json:"deployments"`
	Total       int                 `json:"total"`
	Limit       int                 `json:"limit"`
	Offset      int                 `json:"offset"`
}

// QueuedJobPage is the queue collaborator's list envelope.
type QueuedJobPage struct {
	Jobs   []domain.QueuedJob `json:"jobs"`
	Total  int                `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

// JobRequest describes a job to enqueue.
type JobRequest struct {
	Name         string             `json:"name"`
	Type         string             `json:"type"`
	Priority     domain.JobPriority `json:"priority,omitempty"`
	Region       string             `json:"region,omitempty"`
	GitRepo      string             `json:"git_repo,omitempty"`
	GitRef       string             `json:"git_ref,omitempty"`
	GitCommitSHA string             `json:"git_commit_sha,omitempty"`
	GitAuthor    string             `json:"git_author,omitempty"`
	Tags         []string           `json:"tags,omitempty"`
}

// CompleteRequest reports a finished job run. A non-zero ExitCode marks the
// run failed on the collaborator side.
type CompleteRequest struct {
	ExitCode        int     `json:"exit_code"`
	DurationSeconds float64 `json:"duration_seconds"`
	LogsURL         string  `json:"logs_url,omitempty"`
	LogsSummary     string  `json:"logs_summary,omitempty"`
	ErrorMessage    string  `json:"error_message,omitempty"`
}

// ClaimRequest asks the queue for the next job an agent may work on.
type ClaimRequest struct {
	AgentID string `json:"agent_id"`
	PoolID  string `json:"pool_id,omitempty"`
}

// FailRequest reports a failed job run. A zero ExitCode is reported as 1.
type FailRequest struct {
	ExitCode int    `json:"exit_code"`
	Reason   string `json:"reason"`
}

// JobsAPI is the dashboard jobs collaborator. The job lifecycle between
// creation and completion (claiming, leasing) belongs to QueueAPI; the
// dashboard only learns the outcome.
type JobsAPI interface {
	ListJobs(ctx context.Context, opts ListOptions) (JobPage, error)
	Enqueue(ctx context.Context, req JobRequest) (*domain.Job, error)
	Complete(ctx context.Context, jobID, agentID string, req CompleteRequest) (*domain.Job, error)
	Fail(ctx context.Context, jobID, agentID, reason string) (*domain.Job, error)
}

// AgentsAPI is the agent fleet collaborator.
type AgentsAPI interface {
	ListAgents(ctx context.Context, opts ListOptions) (AgentPage, error)
	Pause(ctx context.Context, agentID string) (*domain.Agent, error)
	Resume(ctx context.Context, agentID string) (*domain.Agent, error)
}

// DeploymentsAPI is the deployments collaborator. Read-only.
type DeploymentsAPI interface {
	ListDeployments(ctx context.Context, opts ListOptions) (DeploymentPage, error)
}

// QueueAPI is the work queue collaborator.
type QueueAPI interface {
	ListQueued(ctx context.Context, opts ListOptions) (QueuedJobPage, error)
	Stats(ctx context.Context) (*domain.QueueStats, error)
	// Claim leases the next queued job to the agent; a nil job means nothing
	// was claimable.
	Claim(ctx context.Context, req ClaimRequest) (*domain.QueuedJob, error)
	Start(ctx context.Context, jobID, agentID string) (*domain.QueuedJob, error)
	Complete(ctx context.Context, jobID string, req CompleteRequest) (*domain.QueuedJob, error)
	Fail(ctx context.Context, jobID string, req FailRequest) (*domain.QueuedJob, error)
	// Requeue returns expired-lease jobs to the queue and reports how many
	// were moved.
	Requeue(ctx context.Context) (int, error)
}

// Collaborators bundles the four resource APIs for wiring convenience.
type Collaborators struct {
	Jobs        JobsAPI
	Agents      AgentsAPI
	Deployments DeploymentsAPI
	Queue       QueueAPI
}
