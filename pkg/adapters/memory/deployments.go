package memory

import (
	"context"
	"sync"

	"github.com/opsdeck/opsdeck/pkg/domain"
	"github.com/opsdeck/opsdeck/pkg/ports"
)

// DeploymentStore implements ports.DeploymentsAPI over an in-memory collection.
type DeploymentStore struct {
	mu          sync.RWMutex
	deployments []domain.Deployment
}

var _ ports.DeploymentsAPI = (*DeploymentStore)(nil)

// NewDeploymentStore creates an empty deployment store. Deployments are
// read-only here, so no clock is involved.
func NewDeploymentStore() *DeploymentStore {
	return &DeploymentStore{}
}

// Seed appends deployments to the store as given.
func (s *DeploymentStore) Seed(deployments ...domain.Deployment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deployments = append(s.deployments, deployments...)
}

// ListDeployments returns one page of deployments, optionally filtered by status.
func (s *DeploymentStore) ListDeployments(ctx context.Context, opts ports.ListOptions) (ports.DeploymentPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.Deployment, 0, len(s.deployments))
	for _, d := range s.deployments {
		if opts.Status != "" && string(d.Status) != opts.Status {
			continue
		}
		matched = append(matched, d)
	}

	start, end := pageWindow(len(matched), opts.Limit, opts.Offset)
	return ports.DeploymentPage{
		Deployments: matched[start:end],
		Total:       len(matched),
		Limit:       opts.Limit,
		Offset:      opts.Offset,
	}, nil
}
