package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/opsdeck/opsdeck/internal/clock"
	"github.com/opsdeck/opsdeck/pkg/domain"
	"github.com/opsdeck/opsdeck/pkg/ports"
)

// JobStore implements ports.JobsAPI over an in-memory collection.
type JobStore struct {
	clock clock.Clock

	mu   sync.RWMutex
	jobs []domain.Job
}

var _ ports.JobsAPI = (*JobStore)(nil)

// NewJobStore creates an empty job store.
func NewJobStore(opts ...Option) *JobStore {
	o := newOptions(opts)
	return &JobStore{clock: o.clock}
}

// Seed appends jobs to the store, keeping their IDs and timestamps as given.
func (s *JobStore) Seed(jobs ...domain.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range jobs {
		s.jobs = append(s.jobs, copyJob(j))
	}
}

// ListJobs returns one page of jobs, optionally filtered by status.
func (s *JobStore) ListJobs(ctx context.Context, opts ports.ListOptions) (ports.JobPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		if opts.Status != "" && string(j.Status) != opts.Status {
			continue
		}
		matched = append(matched, copyJob(j))
	}

	start, end := pageWindow(len(matched), opts.Limit, opts.Offset)
	return ports.JobPage{
		Jobs:   matched[start:end],
		Total:  len(matched),
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}, nil
}

// Enqueue registers a new job in queued state.
func (s *JobStore) Enqueue(ctx context.Context, req ports.JobRequest) (*domain.Job, error) {
	priority := req.Priority
	if priority == "" {
		priority = domain.PriorityNormal
	}

	job := domain.Job{
		ID:           newID("job"),
		Name:         req.Name,
		Type:         req.Type,
		Status:       domain.JobStatusQueued,
		Priority:     priority,
		Region:       req.Region,
		Tags:         slices.Clone(req.Tags),
		GitRepo:      req.GitRepo,
		GitRef:       req.GitRef,
		GitCommitSHA: req.GitCommitSHA,
		GitAuthor:    req.GitAuthor,
		CreatedAt:    s.clock.Now(),
	}

	s.mu.Lock()
	s.jobs = append(s.jobs, job)
	s.mu.Unlock()

	out := copyJob(job)
	return &out, nil
}

// Complete records a finished run. A non-zero exit code marks the job failed.
func (s *JobStore) Complete(ctx context.Context, jobID, agentID string, req ports.CompleteRequest) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(jobID)
	if i < 0 {
		return nil, notFound("jobs")
	}

	job := &s.jobs[i]
	if req.ExitCode == 0 {
		job.Status = domain.JobStatusSuccess
	} else {
		job.Status = domain.JobStatusFailed
	}
	job.AgentID = agentID
	job.ExitCode = req.ExitCode
	job.DurationSeconds = req.DurationSeconds
	job.ErrorMessage = req.ErrorMessage
	job.CompletedAt = s.clock.Now()

	out := copyJob(*job)
	return &out, nil
}

// Fail records a failed run with exit code 1.
func (s *JobStore) Fail(ctx context.Context, jobID, agentID, reason string) (*domain.Job, error) {
	return s.Complete(ctx, jobID, agentID, ports.CompleteRequest{ExitCode: 1, ErrorMessage: reason})
}

func (s *JobStore) indexLocked(jobID string) int {
	for i := range s.jobs {
		if s.jobs[i].ID == jobID {
			return i
		}
	}
	return -1
}

func copyJob(j domain.Job) domain.Job {
	j.Tags = slices.Clone(j.Tags)
	return j
}
