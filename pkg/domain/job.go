// Package domain holds the resource entities carried through pipeline runs
// (Job, Agent, Deployment, QueuedJob) and the request-shaped option values
// (FilterOptions, SortOptions) that parameterize the domain chains.
//
// Entities are plain records keyed by a stable ID. Fetch links produce them;
// later links only reorder or drop collection elements, never edit a record in
// place.
package domain

import "time"

// JobStatus enumerates the dashboard job lifecycle.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSuccess   JobStatus = "success"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
	JobStatusTimeout   JobStatus = "timeout"
	JobStatusError     JobStatus = "error"
)

// JobPriority enumerates scheduling priority, shared with the queue.
type JobPriority string

const (
	PriorityLow      JobPriority = "low"
	PriorityNormal   JobPriority = "normal"
	PriorityHigh     JobPriority = "high"
	PriorityCritical JobPriority = "critical"
)

// Job is one orchestrated job as reported by the dashboard collaborator.
type Job struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Type            string      `json:"type"`
	Status          JobStatus   `json:"status"`
	Priority        JobPriority `json:"priority"`
	Region          string      `json:"region"`
	Tags            []string    `json:"tags"`
	AgentID         string      `json:"agent_id"`
	GitRepo         string      `json:"git_repo"`
	GitRef          string      `json:"git_ref"`
	GitCommitSHA    string      `json:"git_commit_sha"`
	GitAuthor       string      `json:"git_author"`
	CreatedAt       time.Time   `json:"created_at"`
	StartedAt       time.Time   `json:"started_at"`
	CompletedAt     time.Time   `json:"completed_at"`
	ExitCode        int         `json:"exit_code"`
	DurationSeconds float64     `json:"duration_seconds"`
	ErrorMessage    string      `json:"error_message"`
}

// Field implements Fielder over the filterable and sortable job fields.
func (j Job) Field(name string) (any, bool) {
	switch name {
	case "id":
		return j.ID, true
	case "name":
		return j.Name, true
	case "type":
		return j.Type, true
	case "status":
		return string(j.Status), true
	case "priority":
		return string(j.Priority), true
	case "region":
		return j.Region, true
	case "tags":
		return j.Tags, true
	case "agent_id":
		return j.AgentID, true
	case "git_author":
		return j.GitAuthor, true
	case "created_at":
		return j.CreatedAt, true
	case "started_at":
		return j.StartedAt, true
	case "completed_at":
		return j.CompletedAt, true
	case "exit_code":
		return j.ExitCode, true
	case "duration_seconds":
		return j.DurationSeconds, true
	default:
		return nil, false
	}
}
