package domain

import "time"

// DeploymentStatus enumerates the deployment pipeline stages.
type DeploymentStatus string

const (
	DeploymentStatusPending    DeploymentStatus = "pending"
	DeploymentStatusStaging    DeploymentStatus = "staging"
	DeploymentStatusStaged     DeploymentStatus = "staged"
	DeploymentStatusProduction DeploymentStatus = "production"
	DeploymentStatusLive       DeploymentStatus = "live"
	DeploymentStatusFailed     DeploymentStatus = "failed"
	DeploymentStatusRolledBack DeploymentStatus = "rolled_back"
)

// Deployment is one service rollout tracked by the dashboard.
type Deployment struct {
	ID             string           `json:"id"`
	ServiceName    string           `json:"service_name"`
	ServiceVersion string           `json:"service_version"`
	Status         DeploymentStatus `json:"status"`
	Region         string           `json:"region"`
	GitCommitSHA   string           `json:"git_commit_sha"`
	CreatedAt      time.Time        `json:"created_at"`
	StagingAt      time.Time        `json:"staging_at"`
	ProductionAt   time.Time        `json:"production_at"`
	RolledBack     bool             `json:"rolled_back"`
}

// Field implements Fielder over the filterable and sortable deployment fields.
// "name" aliases the service name so the shared search semantics apply.
func (d Deployment) Field(name string) (any, bool) {
	switch name {
	case "id":
		return d.ID, true
	case "name", "service_name":
		return d.ServiceName, true
	case "service_version":
		return d.ServiceVersion, true
	case "status":
		return string(d.Status), true
	case "region":
		return d.Region, true
	case "git_commit_sha":
		return d.GitCommitSHA, true
	case "created_at":
		return d.CreatedAt, true
	case "staging_at":
		return d.StagingAt, true
	case "production_at":
		return d.ProductionAt, true
	default:
		return nil, false
	}
}
