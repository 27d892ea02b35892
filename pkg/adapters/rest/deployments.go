package rest

import (
	"context"
	"net/http"

	"github.com/opsdeck/opsdeck/pkg/ports"
)

// DeploymentsClient talks to the dashboard deployments service.
type DeploymentsClient struct {
	*client
}

var _ ports.DeploymentsAPI = (*DeploymentsClient)(nil)

// NewDeploymentsClient builds a deployments client against cfg.BaseURL.
func NewDeploymentsClient(cfg Config) (*DeploymentsClient, error) {
	c, err := newClient("deployments", cfg)
	if err != nil {
		return nil, err
	}
	return &DeploymentsClient{client: c}, nil
}

// ListDeployments fetches one page of deployments.
func (c *DeploymentsClient) ListDeployments(ctx context.Context, opts ports.ListOptions) (ports.DeploymentPage, error) {
	var page ports.DeploymentPage
	if err := c.do(ctx, http.MethodGet, "/api/dashboard/deployments", listQuery(opts), nil, &page); err != nil {
		return ports.DeploymentPage{}, err
	}
	return page, nil
}
