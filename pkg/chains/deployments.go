package chains

import (
	"context"

	"github.com/opsdeck/opsdeck/pkg/domain"
	"github.com/opsdeck/opsdeck/pkg/pipeline"
	"github.com/opsdeck/opsdeck/pkg/ports"
)

// KeyDeployments is the raw collection key of the deployments view chain.
const KeyDeployments = "deployments"

// DeploymentsChain is the deployments pipeline. The resource is read-only, so
// there are no mutation chains.
type DeploymentsChain struct {
	view *pipeline.Chain
}

// NewDeploymentsChain wires the deployments view chain over the collaborator.
func NewDeploymentsChain(api ports.DeploymentsAPI, opts ...pipeline.Option) *DeploymentsChain {
	return &DeploymentsChain{
		view: newViewChain("deployments", KeyDeployments, func(ctx context.Context) ([]domain.Deployment, error) {
			page, err := api.ListDeployments(ctx, ports.ListOptions{})
			if err != nil {
				return nil, err
			}
			return page.Deployments, nil
		}, opts),
	}
}

// View exposes the read pipeline for topology introspection.
func (dc *DeploymentsChain) View() *pipeline.Chain { return dc.view }

// Execute runs the view chain and returns the filtered, sorted deployments.
func (dc *DeploymentsChain) Execute(ctx context.Context, filters *domain.FilterOptions, sortOpts *domain.SortOptions) ([]domain.Deployment, error) {
	return executeView[domain.Deployment](ctx, dc.view, filters, sortOpts)
}
