package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opsdeck/opsdeck/internal/clock"
	"github.com/opsdeck/opsdeck/pkg/adapters/memory"
	"github.com/opsdeck/opsdeck/pkg/domain"
	"github.com/opsdeck/opsdeck/pkg/ports"
)

func TestQueueStoreClaimPrefersPriorityThenAge(t *testing.T) {
	s := memory.NewQueueStore()
	s.Seed(
		domain.QueuedJob{
			ID: "q-old-normal", PoolID: "build-pool", Priority: domain.PriorityNormal,
			Status: domain.QueueStatusQueued, EnqueuedAt: epoch.Add(-10 * time.Minute),
		},
		domain.QueuedJob{
			ID: "q-new-critical", PoolID: "build-pool", Priority: domain.PriorityCritical,
			Status: domain.QueueStatusQueued, EnqueuedAt: epoch.Add(-1 * time.Minute),
		},
		domain.QueuedJob{
			ID: "q-old-critical", PoolID: "build-pool", Priority: domain.PriorityCritical,
			Status: domain.QueueStatusQueued, EnqueuedAt: epoch.Add(-5 * time.Minute),
		},
	)

	first, err := s.Claim(context.Background(), ports.ClaimRequest{AgentID: "agent-7", PoolID: "build-pool"})
	require.NoError(t, err)
	require.Equal(t, "q-old-critical", first.ID, "highest priority, oldest first")
	require.Equal(t, domain.QueueStatusClaimed, first.Status)
	require.Equal(t, "agent-7", first.ClaimedBy)

	second, err := s.Claim(context.Background(), ports.ClaimRequest{AgentID: "agent-7", PoolID: "build-pool"})
	require.NoError(t, err)
	require.Equal(t, "q-new-critical", second.ID)

	third, err := s.Claim(context.Background(), ports.ClaimRequest{AgentID: "agent-7", PoolID: "build-pool"})
	require.NoError(t, err)
	require.Equal(t, "q-old-normal", third.ID)
}

func TestQueueStoreClaimEmptyPoolReturnsNil(t *testing.T) {
	s := memory.NewQueueStore()
	s.Seed(domain.QueuedJob{
		ID: "q-1", PoolID: "build-pool", Status: domain.QueueStatusQueued,
	})

	job, err := s.Claim(context.Background(), ports.ClaimRequest{AgentID: "agent-7", PoolID: "deploy-pool"})
	require.NoError(t, err)
	require.Nil(t, job)
}

func TestQueueStoreClaimSetsLease(t *testing.T) {
	s := memory.NewQueueStore(memory.WithClock(clock.Fake(epoch)))
	s.Seed(domain.QueuedJob{ID: "q-1", Status: domain.QueueStatusQueued})

	job, err := s.Claim(context.Background(), ports.ClaimRequest{AgentID: "agent-7"})
	require.NoError(t, err)
	require.Equal(t, epoch, job.ClaimedAt)
	require.Equal(t, epoch.Add(30*time.Second), job.LeaseExpiresAt)
}

func TestQueueStoreStartRequiresClaimHolder(t *testing.T) {
	s := memory.NewQueueStore()
	s.Seed(domain.QueuedJob{ID: "q-1", Status: domain.QueueStatusQueued})

	_, err := s.Claim(context.Background(), ports.ClaimRequest{AgentID: "agent-7"})
	require.NoError(t, err)

	_, err = s.Start(context.Background(), "q-1", "agent-9")
	require.Error(t, err, "only the claiming agent may start the job")

	job, err := s.Start(context.Background(), "q-1", "agent-7")
	require.NoError(t, err)
	require.Equal(t, domain.QueueStatusRunning, job.Status)
}

func TestQueueStoreCompleteSuccess(t *testing.T) {
	s := memory.NewQueueStore(memory.WithClock(clock.Fake(epoch)))
	s.Seed(domain.QueuedJob{
		ID: "q-1", Status: domain.QueueStatusRunning, ClaimedBy: "agent-7",
	})

	job, err := s.Complete(context.Background(), "q-1", ports.CompleteRequest{DurationSeconds: 12.5})
	require.NoError(t, err)
	require.Equal(t, domain.QueueStatusCompleted, job.Status)
	require.Equal(t, epoch, job.CompletedAt)
}

func TestQueueStoreFailedRunRetriesUntilDeadLettered(t *testing.T) {
	s := memory.NewQueueStore()
	s.Seed(domain.QueuedJob{
		ID: "q-1", Status: domain.QueueStatusRunning, ClaimedBy: "agent-7", MaxAttempts: 3,
	})

	// Attempts 1 and 2 fail: the job goes back to queued with the claim
	// cleared and the attempt counter bumped.
	retried, err := s.Fail(context.Background(), "q-1", ports.FailRequest{Reason: "flaky"})
	require.NoError(t, err)
	require.Equal(t, domain.QueueStatusQueued, retried.Status)
	require.Equal(t, 2, retried.Attempt)
	require.Empty(t, retried.ClaimedBy)
	require.Empty(t, retried.ErrorMessage, "retry wipes the previous run's error")

	retried, err = s.Fail(context.Background(), "q-1", ports.FailRequest{Reason: "flaky"})
	require.NoError(t, err)
	require.Equal(t, domain.QueueStatusQueued, retried.Status)
	require.Equal(t, 3, retried.Attempt)

	// Attempt 3 is the last: the job dead-letters and keeps the error.
	dead, err := s.Fail(context.Background(), "q-1", ports.FailRequest{Reason: "flaky"})
	require.NoError(t, err)
	require.Equal(t, domain.QueueStatusDeadLettered, dead.Status)
	require.Equal(t, "flaky", dead.ErrorMessage)
}

func TestQueueStoreRequeueSweepsExpiredLeases(t *testing.T) {
	fake := clock.Fake(epoch)
	s := memory.NewQueueStore(memory.WithClock(fake))
	s.Seed(
		domain.QueuedJob{ID: "q-1", Status: domain.QueueStatusQueued},
		domain.QueuedJob{ID: "q-2", Status: domain.QueueStatusQueued},
	)

	_, err := s.Claim(context.Background(), ports.ClaimRequest{AgentID: "agent-7"})
	require.NoError(t, err)
	_, err = s.Claim(context.Background(), ports.ClaimRequest{AgentID: "agent-8"})
	require.NoError(t, err)

	// Within the lease nothing moves.
	moved, err := s.Requeue(context.Background())
	require.NoError(t, err)
	require.Zero(t, moved)

	fake.Advance(31 * time.Second)
	moved, err = s.Requeue(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, moved)

	page, err := s.ListQueued(context.Background(), ports.ListOptions{Status: "queued"})
	require.NoError(t, err)
	require.Len(t, page.Jobs, 2)
	for _, j := range page.Jobs {
		require.Empty(t, j.ClaimedBy)
	}
}

func TestQueueStoreListOrdersByPriorityThenAge(t *testing.T) {
	s := memory.NewQueueStore()
	s.Seed(
		domain.QueuedJob{
			ID: "q-normal", Priority: domain.PriorityNormal,
			Status: domain.QueueStatusQueued, EnqueuedAt: epoch.Add(-10 * time.Minute),
		},
		domain.QueuedJob{
			ID: "q-critical", Priority: domain.PriorityCritical,
			Status: domain.QueueStatusQueued, EnqueuedAt: epoch,
		},
	)

	page, err := s.ListQueued(context.Background(), ports.ListOptions{})
	require.NoError(t, err)
	require.Equal(t, "q-critical", page.Jobs[0].ID)
	require.Equal(t, "q-normal", page.Jobs[1].ID)
}

func TestQueueStoreStats(t *testing.T) {
	s := memory.NewQueueStore()
	s.Seed(
		domain.QueuedJob{ID: "q-1", Status: domain.QueueStatusQueued},
		domain.QueuedJob{ID: "q-2", Status: domain.QueueStatusRunning},
		domain.QueuedJob{
			ID: "q-3", Status: domain.QueueStatusCompleted,
			EnqueuedAt: epoch, ClaimedAt: epoch.Add(10 * time.Second),
			StartedAt: epoch.Add(12 * time.Second), CompletedAt: epoch.Add(72 * time.Second),
		},
		domain.QueuedJob{
			ID: "q-4", Status: domain.QueueStatusDeadLettered,
			EnqueuedAt: epoch, ClaimedAt: epoch.Add(30 * time.Second),
		},
	)

	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalQueued)
	require.Equal(t, 1, stats.TotalRunning)
	require.Equal(t, 1, stats.TotalCompleted)
	require.Equal(t, 1, stats.TotalDeadLettered)
	require.Equal(t, 20.0, stats.AvgQueueWaitSeconds, "mean of 10s and 30s")
	require.Equal(t, 60.0, stats.AvgExecutionSeconds)
	require.Equal(t, 0.5, stats.FailureRate, "one dead-lettered of two finished")
}
