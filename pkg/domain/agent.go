package domain

import "time"

// AgentStatus enumerates the agent lifecycle.
type AgentStatus string

const (
	AgentStatusRegistering AgentStatus = "registering"
	AgentStatusHealthy     AgentStatus = "healthy"
	AgentStatusDegraded    AgentStatus = "degraded"
	AgentStatusUnhealthy   AgentStatus = "unhealthy"
	AgentStatusOffline     AgentStatus = "offline"
	AgentStatusTerminating AgentStatus = "terminating"
	AgentStatusTerminated  AgentStatus = "terminated"
)

// Agent is one worker agent registered with the fleet.
type Agent struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	Status            AgentStatus `json:"status"`
	PoolID            string      `json:"pool_id"`
	Region            string      `json:"region"`
	Version           string      `json:"version"`
	MaxConcurrentJobs int         `json:"max_concurrent_jobs"`
	CurrentJobCount   int         `json:"current_job_count"`
	RegisteredAt      time.Time   `json:"registered_at"`
	LastHeartbeat     time.Time   `json:"last_heartbeat"`
	Tags              []string    `json:"tags"`
}

// Field implements Fielder over the filterable and sortable agent fields.
func (a Agent) Field(name string) (any, bool) {
	switch name {
	case "id":
		return a.ID, true
	case "name":
		return a.Name, true
	case "status":
		return string(a.Status), true
	case "pool_id":
		return a.PoolID, true
	case "region":
		return a.Region, true
	case "version":
		return a.Version, true
	case "tags":
		return a.Tags, true
	case "current_job_count":
		return a.CurrentJobCount, true
	case "max_concurrent_jobs":
		return a.MaxConcurrentJobs, true
	case "registered_at":
		return a.RegisteredAt, true
	case "created_at":
		// Registration is the agent's creation moment; aliased so the default
		// ordering works uniformly across resources.
		return a.RegisteredAt, true
	case "last_heartbeat":
		return a.LastHeartbeat, true
	default:
		return nil, false
	}
}
