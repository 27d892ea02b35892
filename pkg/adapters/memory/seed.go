package memory

import (
	"time"

	"github.com/opsdeck/opsdeck/pkg/domain"
	"github.com/opsdeck/opsdeck/pkg/ports"
)

// Fixtures bundles the seeded demo stores. The demo server serves HTTP over
// them; the watch command in demo mode wires them straight into the chains.
type Fixtures struct {
	Jobs        *JobStore
	Agents      *AgentStore
	Deployments *DeploymentStore
	Queue       *QueueStore
	Preferences *PreferenceStore
	Webhooks    *WebhookEventStore
}

// Collaborators exposes the fixture stores as the four resource APIs.
func (f *Fixtures) Collaborators() ports.Collaborators {
	return ports.Collaborators{
		Jobs:        f.Jobs,
		Agents:      f.Agents,
		Deployments: f.Deployments,
		Queue:       f.Queue,
	}
}

// NewFixtures builds fully seeded demo stores. Timestamps are laid out
// relative to the clock's current time so the data looks fresh whenever the
// demo starts.
func NewFixtures(opts ...Option) *Fixtures {
	o := newOptions(opts)
	now := o.clock.Now()

	f := &Fixtures{
		Jobs:        NewJobStore(opts...),
		Agents:      NewAgentStore(opts...),
		Deployments: NewDeploymentStore(),
		Queue:       NewQueueStore(opts...),
		Preferences: NewPreferenceStore(),
		Webhooks:    NewWebhookEventStore(),
	}

	f.Jobs.Seed(
		domain.Job{
			ID: "job-1a2b3c4d5e6f", Name: "build api", Type: "build",
			Status: domain.JobStatusRunning, Priority: domain.PriorityHigh,
			Region: "us-east-1", AgentID: "agent-0a1b2c3d4e5f",
			GitRepo: "github.com/opsdeck/api", GitRef: "main",
			GitCommitSHA: "9f31c2ab", GitAuthor: "priya",
			Tags:      []string{"ci", "api"},
			CreatedAt: now.Add(-4 * time.Minute), StartedAt: now.Add(-3 * time.Minute),
		},
		domain.Job{
			ID: "job-2b3c4d5e6f7a", Name: "test api", Type: "test",
			Status: domain.JobStatusQueued, Priority: domain.PriorityNormal,
			Region: "us-east-1",
			GitRepo: "github.com/opsdeck/api", GitRef: "main",
			GitCommitSHA: "9f31c2ab", GitAuthor: "priya",
			Tags:      []string{"ci", "api"},
			CreatedAt: now.Add(-3 * time.Minute),
		},
		domain.Job{
			ID: "job-3c4d5e6f7a8b", Name: "deploy web to staging", Type: "deploy",
			Status: domain.JobStatusSuccess, Priority: domain.PriorityHigh,
			Region: "eu-west-1", AgentID: "agent-1b2c3d4e5f6a",
			GitRepo: "github.com/opsdeck/web", GitRef: "release/2.4",
			GitCommitSHA: "77ac01ee", GitAuthor: "marcus",
			Tags:      []string{"deploy", "web"},
			CreatedAt: now.Add(-42 * time.Minute), StartedAt: now.Add(-40 * time.Minute),
			CompletedAt: now.Add(-38 * time.Minute), DurationSeconds: 118,
		},
		domain.Job{
			ID: "job-4d5e6f7a8b9c", Name: "nightly data sync", Type: "batch",
			Status: domain.JobStatusFailed, Priority: domain.PriorityLow,
			Region: "us-west-2", AgentID: "agent-2c3d4e5f6a7b",
			GitRepo: "github.com/opsdeck/etl", GitRef: "main",
			GitCommitSHA: "c0ffee12", GitAuthor: "sofia",
			Tags:      []string{"batch"},
			CreatedAt: now.Add(-6 * time.Hour), StartedAt: now.Add(-6 * time.Hour),
			CompletedAt:  now.Add(-5 * time.Hour),
			ExitCode:     137, DurationSeconds: 3540,
			ErrorMessage: "worker killed: out of memory",
		},
		domain.Job{
			ID: "job-5e6f7a8b9c0d", Name: "build web", Type: "build",
			Status: domain.JobStatusSuccess, Priority: domain.PriorityNormal,
			Region: "eu-west-1", AgentID: "agent-1b2c3d4e5f6a",
			GitRepo: "github.com/opsdeck/web", GitRef: "release/2.4",
			GitCommitSHA: "77ac01ee", GitAuthor: "marcus",
			Tags:      []string{"ci", "web"},
			CreatedAt: now.Add(-55 * time.Minute), StartedAt: now.Add(-54 * time.Minute),
			CompletedAt: now.Add(-49 * time.Minute), DurationSeconds: 301,
		},
		domain.Job{
			ID: "job-6f7a8b9c0d1e", Name: "terraform plan", Type: "infra",
			Status: domain.JobStatusPending, Priority: domain.PriorityCritical,
			Region: "us-east-1",
			GitRepo: "github.com/opsdeck/infra", GitRef: "main",
			GitCommitSHA: "ab12cd34", GitAuthor: "priya",
			Tags:      []string{"infra", "terraform"},
			CreatedAt: now.Add(-1 * time.Minute),
		},
	)

	f.Agents.Seed(
		domain.Agent{
			ID: "agent-0a1b2c3d4e5f", Name: "builder-us-1", Status: domain.AgentStatusHealthy,
			PoolID: "build-pool", Region: "us-east-1", Version: "1.8.2",
			MaxConcurrentJobs: 4, CurrentJobCount: 1,
			RegisteredAt: now.Add(-72 * time.Hour), LastHeartbeat: now.Add(-10 * time.Second),
			Tags: []string{"linux", "amd64"},
		},
		domain.Agent{
			ID: "agent-1b2c3d4e5f6a", Name: "builder-eu-1", Status: domain.AgentStatusHealthy,
			PoolID: "build-pool", Region: "eu-west-1", Version: "1.8.2",
			MaxConcurrentJobs: 4, CurrentJobCount: 0,
			RegisteredAt: now.Add(-72 * time.Hour), LastHeartbeat: now.Add(-7 * time.Second),
			Tags: []string{"linux", "amd64"},
		},
		domain.Agent{
			ID: "agent-2c3d4e5f6a7b", Name: "batch-us-1", Status: domain.AgentStatusDegraded,
			PoolID: "batch-pool", Region: "us-west-2", Version: "1.7.9",
			MaxConcurrentJobs: 8, CurrentJobCount: 5,
			RegisteredAt: now.Add(-30 * 24 * time.Hour), LastHeartbeat: now.Add(-95 * time.Second),
			Tags: []string{"linux", "arm64", "highmem"},
		},
		domain.Agent{
			ID: "agent-3d4e5f6a7b8c", Name: "deploy-eu-1", Status: domain.AgentStatusOffline,
			PoolID: "deploy-pool", Region: "eu-west-1", Version: "1.8.0",
			MaxConcurrentJobs: 2, CurrentJobCount: 0,
			RegisteredAt: now.Add(-14 * 24 * time.Hour), LastHeartbeat: now.Add(-45 * time.Minute),
			Tags: []string{"linux", "amd64"},
		},
	)

	f.Deployments.Seed(
		domain.Deployment{
			ID: "deploy-0f1e2d3c4b5a", ServiceName: "checkout", ServiceVersion: "2.4.1",
			Status: domain.DeploymentStatusLive, Region: "eu-west-1",
			GitCommitSHA: "77ac01ee",
			CreatedAt:    now.Add(-38 * time.Minute),
			StagingAt:    now.Add(-35 * time.Minute), ProductionAt: now.Add(-20 * time.Minute),
		},
		domain.Deployment{
			ID: "deploy-1e2d3c4b5a69", ServiceName: "search", ServiceVersion: "0.9.14",
			Status: domain.DeploymentStatusStaged, Region: "us-east-1",
			GitCommitSHA: "5b6c7d8e",
			CreatedAt:    now.Add(-2 * time.Hour), StagingAt: now.Add(-110 * time.Minute),
		},
		domain.Deployment{
			ID: "deploy-2d3c4b5a6978", ServiceName: "checkout", ServiceVersion: "2.4.0",
			Status: domain.DeploymentStatusRolledBack, Region: "eu-west-1",
			GitCommitSHA: "1199aabb", RolledBack: true,
			CreatedAt:    now.Add(-26 * time.Hour),
			StagingAt:    now.Add(-26 * time.Hour), ProductionAt: now.Add(-25 * time.Hour),
		},
	)

	f.Queue.Seed(
		domain.QueuedJob{
			ID: "job-2b3c4d5e6f7a", Name: "test api", PoolID: "build-pool",
			Priority: domain.PriorityNormal, Status: domain.QueueStatusQueued,
			EnqueuedAt: now.Add(-3 * time.Minute), TimeoutSeconds: 1800,
		},
		domain.QueuedJob{
			ID: "job-6f7a8b9c0d1e", Name: "terraform plan", PoolID: "deploy-pool",
			Priority: domain.PriorityCritical, Status: domain.QueueStatusQueued,
			EnqueuedAt: now.Add(-1 * time.Minute), TimeoutSeconds: 900,
		},
		domain.QueuedJob{
			ID: "job-1a2b3c4d5e6f", Name: "build api", PoolID: "build-pool",
			Priority: domain.PriorityHigh, Status: domain.QueueStatusRunning,
			EnqueuedAt: now.Add(-4 * time.Minute), ClaimedAt: now.Add(-3 * time.Minute),
			StartedAt:  now.Add(-3 * time.Minute), ClaimedBy: "agent-0a1b2c3d4e5f",
			LeaseExpiresAt: now.Add(27 * time.Second), TimeoutSeconds: 3600,
		},
		domain.QueuedJob{
			ID: "job-5e6f7a8b9c0d", Name: "build web", PoolID: "build-pool",
			Priority: domain.PriorityNormal, Status: domain.QueueStatusCompleted,
			EnqueuedAt: now.Add(-55 * time.Minute), ClaimedAt: now.Add(-54 * time.Minute),
			StartedAt:  now.Add(-54 * time.Minute), CompletedAt: now.Add(-49 * time.Minute),
			ClaimedBy:  "agent-1b2c3d4e5f6a", TimeoutSeconds: 3600,
		},
		domain.QueuedJob{
			ID: "job-4d5e6f7a8b9c", Name: "nightly data sync", PoolID: "batch-pool",
			Priority: domain.PriorityLow, Status: domain.QueueStatusDeadLettered,
			EnqueuedAt: now.Add(-6 * time.Hour), ClaimedAt: now.Add(-6 * time.Hour),
			StartedAt:  now.Add(-6 * time.Hour), CompletedAt: now.Add(-5 * time.Hour),
			ClaimedBy:  "agent-2c3d4e5f6a7b", Attempt: 3,
			ErrorMessage: "worker killed: out of memory", TimeoutSeconds: 7200,
		},
	)

	return f
}
