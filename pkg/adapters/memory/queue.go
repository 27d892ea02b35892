package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/opsdeck/opsdeck/internal/clock"
	"github.com/opsdeck/opsdeck/pkg/domain"
	"github.com/opsdeck/opsdeck/pkg/ports"
)

const defaultLease = 30 * time.Second

// QueueStore implements ports.QueueAPI over an in-memory queue with the full
// lease lifecycle: claim hands out the highest-priority queued job with a
// lease, failed runs retry until attempts are exhausted and then dead-letter,
// and expired leases can be swept back into the queue.
type QueueStore struct {
	clock clock.Clock
	lease time.Duration

	mu   sync.RWMutex
	jobs []domain.QueuedJob
}

var _ ports.QueueAPI = (*QueueStore)(nil)

// NewQueueStore creates an empty queue.
func NewQueueStore(opts ...Option) *QueueStore {
	o := newOptions(opts)
	return &QueueStore{clock: o.clock, lease: defaultLease}
}

// Seed appends queued jobs as given. Jobs without MaxAttempts get three.
func (s *QueueStore) Seed(jobs ...domain.QueuedJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range jobs {
		if j.MaxAttempts == 0 {
			j.MaxAttempts = 3
		}
		if j.Attempt == 0 {
			j.Attempt = 1
		}
		s.jobs = append(s.jobs, j)
	}
}

// priorityRank orders claims: critical first, then high, normal, low.
func priorityRank(p domain.JobPriority) int {
	switch p {
	case domain.PriorityCritical:
		return 4
	case domain.PriorityHigh:
		return 3
	case domain.PriorityNormal:
		return 2
	case domain.PriorityLow:
		return 1
	default:
		return 0
	}
}

// ListQueued returns the queue contents ordered by priority then enqueue
// time, optionally filtered by pool and status.
func (s *QueueStore) ListQueued(ctx context.Context, opts ports.ListOptions) (ports.QueuedJobPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.QueuedJob, 0, len(s.jobs))
	for _, j := range s.jobs {
		if opts.PoolID != "" && j.PoolID != opts.PoolID {
			continue
		}
		if opts.Status != "" && string(j.Status) != opts.Status {
			continue
		}
		matched = append(matched, j)
	}

	sort.SliceStable(matched, func(i, k int) bool {
		ri, rk := priorityRank(matched[i].Priority), priorityRank(matched[k].Priority)
		if ri != rk {
			return ri > rk
		}
		return matched[i].EnqueuedAt.Before(matched[k].EnqueuedAt)
	})

	start, end := pageWindow(len(matched), opts.Limit, opts.Offset)
	return ports.QueuedJobPage{
		Jobs:   matched[start:end],
		Total:  len(matched),
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}, nil
}

// Claim leases the highest-priority queued job in the pool to the agent.
// Returns nil when nothing is claimable.
func (s *QueueStore) Claim(ctx context.Context, req ports.ClaimRequest) (*domain.QueuedJob, error) {
	return s.ClaimFor(ctx, req, s.lease)
}

// ClaimFor is Claim with an explicit lease duration; the demo server passes
// the caller's lease_duration_seconds through here.
func (s *QueueStore) ClaimFor(ctx context.Context, req ports.ClaimRequest, lease time.Duration) (*domain.QueuedJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	best := -1
	for i := range s.jobs {
		j := &s.jobs[i]
		if j.Status != domain.QueueStatusQueued {
			continue
		}
		if req.PoolID != "" && j.PoolID != req.PoolID {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		b := &s.jobs[best]
		if priorityRank(j.Priority) > priorityRank(b.Priority) ||
			(priorityRank(j.Priority) == priorityRank(b.Priority) && j.EnqueuedAt.Before(b.EnqueuedAt)) {
			best = i
		}
	}
	if best < 0 {
		return nil, nil
	}

	if lease <= 0 {
		lease = s.lease
	}
	now := s.clock.Now()
	job := &s.jobs[best]
	job.Status = domain.QueueStatusClaimed
	job.ClaimedBy = req.AgentID
	job.ClaimedAt = now
	job.LeaseExpiresAt = now.Add(lease)

	out := *job
	return &out, nil
}

// Start moves a claimed job to running. The starting agent must hold the claim.
func (s *QueueStore) Start(ctx context.Context, jobID, agentID string) (*domain.QueuedJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(jobID)
	if i < 0 || s.jobs[i].ClaimedBy != agentID || s.jobs[i].Status != domain.QueueStatusClaimed {
		return nil, notFound("queue")
	}

	job := &s.jobs[i]
	job.Status = domain.QueueStatusRunning
	job.StartedAt = s.clock.Now()

	out := *job
	return &out, nil
}

// Complete records the run's outcome. A failed run (non-zero exit) retries
// while attempts remain; once exhausted it dead-letters. The returned job
// reflects the post-retry state, so callers see queued again on a retry.
func (s *QueueStore) Complete(ctx context.Context, jobID string, req ports.CompleteRequest) (*domain.QueuedJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(jobID)
	if i < 0 {
		return nil, notFound("queue")
	}

	now := s.clock.Now()
	job := &s.jobs[i]
	job.ErrorMessage = req.ErrorMessage
	job.CompletedAt = now

	if req.ExitCode == 0 {
		job.Status = domain.QueueStatusCompleted
		out := *job
		return &out, nil
	}

	if job.Attempt < job.MaxAttempts {
		job.Attempt++
		job.Status = domain.QueueStatusQueued
		job.ClaimedBy = ""
		job.ClaimedAt = time.Time{}
		job.StartedAt = time.Time{}
		job.CompletedAt = time.Time{}
		job.LeaseExpiresAt = time.Time{}
		job.ErrorMessage = ""
	} else {
		job.Status = domain.QueueStatusDeadLettered
	}

	out := *job
	return &out, nil
}

// Fail records a failed run; a zero exit code is recorded as 1.
func (s *QueueStore) Fail(ctx context.Context, jobID string, req ports.FailRequest) (*domain.QueuedJob, error) {
	exit := req.ExitCode
	if exit == 0 {
		exit = 1
	}
	return s.Complete(ctx, jobID, ports.CompleteRequest{ExitCode: exit, ErrorMessage: req.Reason})
}

// Requeue sweeps claimed jobs whose lease has expired back into the queue.
func (s *QueueStore) Requeue(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	moved := 0
	for i := range s.jobs {
		job := &s.jobs[i]
		if job.Status != domain.QueueStatusClaimed || job.LeaseExpiresAt.After(now) {
			continue
		}
		job.Status = domain.QueueStatusQueued
		job.ClaimedBy = ""
		job.ClaimedAt = time.Time{}
		job.LeaseExpiresAt = time.Time{}
		moved++
	}
	return moved, nil
}

// Stats computes the aggregate snapshot from the current queue contents.
func (s *QueueStore) Stats(ctx context.Context) (*domain.QueueStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.QueueStats{}
	var waits, execs []float64

	for _, j := range s.jobs {
		switch j.Status {
		case domain.QueueStatusQueued:
			stats.TotalQueued++
		case domain.QueueStatusClaimed:
			stats.TotalClaimed++
		case domain.QueueStatusRunning:
			stats.TotalRunning++
		case domain.QueueStatusCompleted:
			stats.TotalCompleted++
		case domain.QueueStatusFailed:
			stats.TotalFailed++
		case domain.QueueStatusDeadLettered:
			stats.TotalDeadLettered++
		}

		finished := j.Status == domain.QueueStatusCompleted ||
			j.Status == domain.QueueStatusFailed ||
			j.Status == domain.QueueStatusDeadLettered
		if !finished {
			continue
		}
		if !j.ClaimedAt.IsZero() && !j.EnqueuedAt.IsZero() {
			waits = append(waits, j.ClaimedAt.Sub(j.EnqueuedAt).Seconds())
		}
		if !j.StartedAt.IsZero() && !j.CompletedAt.IsZero() {
			execs = append(execs, j.CompletedAt.Sub(j.StartedAt).Seconds())
		}
	}

	if len(waits) > 0 {
		stats.AvgQueueWaitSeconds = mean(waits)
		sort.Float64s(waits)
		idx := int(float64(len(waits)) * 0.95)
		if idx >= len(waits) {
			idx = len(waits) - 1
		}
		stats.P95QueueWaitSeconds = waits[idx]
	}
	if len(execs) > 0 {
		stats.AvgExecutionSeconds = mean(execs)
	}

	finished := stats.TotalCompleted + stats.TotalFailed + stats.TotalDeadLettered
	if finished > 0 {
		stats.FailureRate = float64(stats.TotalFailed+stats.TotalDeadLettered) / float64(finished)
	}

	return &stats, nil
}

func (s *QueueStore) indexLocked(jobID string) int {
	for i := range s.jobs {
		if s.jobs[i].ID == jobID {
			return i
		}
	}
	return -1
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
