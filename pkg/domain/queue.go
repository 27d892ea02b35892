package domain

import "time"

// QueueStatus enumerates the lease-based queue lifecycle of a queued job.
type QueueStatus string

const (
	QueueStatusQueued       QueueStatus = "queued"
	QueueStatusClaimed      QueueStatus = "claimed"
	QueueStatusRunning      QueueStatus = "running"
	QueueStatusCompleted    QueueStatus = "completed"
	QueueStatusFailed       QueueStatus = "failed"
	QueueStatusDeadLettered QueueStatus = "dead_lettered"
)

// QueuedJob is one job sitting in (or moving through) the work queue.
type QueuedJob struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	PoolID         string      `json:"pool_id"`
	Priority       JobPriority `json:"priority"`
	Status         QueueStatus `json:"status"`
	EnqueuedAt     time.Time   `json:"enqueued_at"`
	ClaimedAt      time.Time   `json:"claimed_at"`
	StartedAt      time.Time   `json:"started_at"`
	CompletedAt    time.Time   `json:"completed_at"`
	ClaimedBy      string      `json:"claimed_by"`
	Attempt        int         `json:"attempt"`
	MaxAttempts    int         `json:"max_attempts"`
	LeaseExpiresAt time.Time   `json:"lease_expires_at"`
	TimeoutSeconds int         `json:"timeout_seconds"`
	ErrorMessage   string      `json:"error_message"`
}

// Field implements Fielder over the filterable and sortable queue fields.
// "created_at" aliases the enqueue time for the shared default ordering.
func (q QueuedJob) Field(name string) (any, bool) {
	switch name {
	case "id":
		return q.ID, true
	case "name":
		return q.Name, true
	case "pool_id":
		return q.PoolID, true
	case "priority":
		return string(q.Priority), true
	case "status":
		return string(q.Status), true
	case "enqueued_at", "created_at":
		return q.EnqueuedAt, true
	case "claimed_at":
		return q.ClaimedAt, true
	case "started_at":
		return q.StartedAt, true
	case "completed_at":
		return q.CompletedAt, true
	case "claimed_by":
		return q.ClaimedBy, true
	case "attempt":
		return q.Attempt, true
	default:
		return nil, false
	}
}

// QueueStats is the aggregate snapshot served by the queue's stats call.
type QueueStats struct {
	TotalQueued         int     `json:"total_queued"`
	TotalClaimed        int     `json:"total_claimed"`
	TotalRunning        int     `json:"total_running"`
	TotalCompleted      int     `json:"total_completed"`
	TotalFailed         int     `json:"total_failed"`
	TotalDeadLettered   int     `json:"total_dead_lettered"`
	AvgQueueWaitSeconds float64 `json:"avg_queue_wait_seconds"`
	AvgExecutionSeconds float64 `json:"avg_execution_seconds"`
	FailureRate         float64 `json:"failure_rate"`
	P95QueueWaitSeconds float64 `json:"p95_queue_wait_seconds"`
}
