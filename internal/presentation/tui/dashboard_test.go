package tui_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opsdeck/opsdeck/internal/presentation/tui"
	"github.com/opsdeck/opsdeck/pkg/domain"
	"github.com/opsdeck/opsdeck/pkg/view"
)

var epoch = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func sampleDashboard() tui.Dashboard {
	return tui.Dashboard{
		GeneratedAt: epoch,
		Mode:        "live",
		Jobs: view.Snapshot[domain.Job]{Data: []domain.Job{
			{ID: "job-1a2b3c4d5e6f", Name: "build api", Type: "build", Status: domain.JobStatusRunning, Priority: domain.PriorityHigh, AgentID: "agent-0a1b2c3d4e5f"},
		}},
		Agents: view.Snapshot[domain.Agent]{Data: []domain.Agent{
			{Name: "builder-us-1", Status: domain.AgentStatusHealthy, PoolID: "build-pool", Region: "us-east-1", CurrentJobCount: 1, MaxConcurrentJobs: 4, LastHeartbeat: epoch.Add(-10 * time.Second)},
		}},
		Deployments: view.Snapshot[domain.Deployment]{Data: []domain.Deployment{
			{ServiceName: "checkout", ServiceVersion: "2.4.1", Status: domain.DeploymentStatusLive, Region: "eu-west-1", GitCommitSHA: "77ac01ee"},
		}},
		Queue: view.Snapshot[domain.QueuedJob]{Data: []domain.QueuedJob{
			{ID: "job-2b3c4d5e6f7a", Name: "test api", PoolID: "build-pool", Priority: domain.PriorityNormal, Status: domain.QueueStatusQueued, Attempt: 1, MaxAttempts: 3},
		}},
		Stats: &domain.QueueStats{TotalQueued: 1, TotalCompleted: 2, FailureRate: 0.5, P95QueueWaitSeconds: 30},
	}
}

func TestRenderDashboardSections(t *testing.T) {
	out := tui.RenderDashboard(sampleDashboard(), 100)

	require.Contains(t, out, "opsdeck · live · refreshed 12:00:00")
	require.Contains(t, out, "JOBS (1)")
	require.Contains(t, out, "build api")
	require.Contains(t, out, "AGENTS (1)")
	require.Contains(t, out, "builder-us-1")
	require.Contains(t, out, "10s ago")
	require.Contains(t, out, "DEPLOYMENTS (1)")
	require.Contains(t, out, "checkout")
	require.Contains(t, out, "QUEUE (1)")
	require.Contains(t, out, "1/3")
	require.Contains(t, out, "p95 wait 30.0s")
	require.Contains(t, out, "failure rate 50%")
}

func TestRenderDashboardEmptyViews(t *testing.T) {
	out := tui.RenderDashboard(tui.Dashboard{GeneratedAt: epoch, Mode: "off"}, 80)

	require.Contains(t, out, "no jobs")
	require.Contains(t, out, "no agents")
	require.Contains(t, out, "no deployments")
	require.Contains(t, out, "queue is empty")
}

func TestRenderDashboardShowsLoadingAndError(t *testing.T) {
	d := sampleDashboard()
	d.Jobs.Loading = true
	d.Agents.Err = errors.New("collaborator call failed")

	out := tui.RenderDashboard(d, 100)
	require.Contains(t, out, "JOBS (1) · refreshing")
	require.Contains(t, out, "last refresh failed: collaborator call failed")
	// Stale data stays on screen next to the error banner.
	require.Contains(t, out, "builder-us-1")
}
