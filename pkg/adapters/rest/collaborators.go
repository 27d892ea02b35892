package rest

import "github.com/opsdeck/opsdeck/pkg/ports"

// NewCollaborators builds all four resource clients over one shared Config.
func NewCollaborators(cfg Config) (ports.Collaborators, error) {
	jobs, err := NewJobsClient(cfg)
	if err != nil {
		return ports.Collaborators{}, err
	}
	agents, err := NewAgentsClient(cfg)
	if err != nil {
		return ports.Collaborators{}, err
	}
	deployments, err := NewDeploymentsClient(cfg)
	if err != nil {
		return ports.Collaborators{}, err
	}
	queue, err := NewQueueClient(cfg)
	if err != nil {
		return ports.Collaborators{}, err
	}
	return ports.Collaborators{
		Jobs:        jobs,
		Agents:      agents,
		Deployments: deployments,
		Queue:       queue,
	}, nil
}
