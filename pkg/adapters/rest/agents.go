package rest

import (
	"context"
	"net/http"

	"github.com/opsdeck/opsdeck/pkg/domain"
	"github.com/opsdeck/opsdeck/pkg/ports"
)

// AgentsClient talks to the agent fleet service.
type AgentsClient struct {
	*client
}

var _ ports.AgentsAPI = (*AgentsClient)(nil)

// NewAgentsClient builds an agents client against cfg.BaseURL.
func NewAgentsClient(cfg Config) (*AgentsClient, error) {
	c, err := newClient("agents", cfg)
	if err != nil {
		return nil, err
	}
	return &AgentsClient{client: c}, nil
}

// ListAgents fetches one page of fleet agents.
func (c *AgentsClient) ListAgents(ctx context.Context, opts ports.ListOptions) (ports.AgentPage, error) {
	var page ports.AgentPage
	if err := c.do(ctx, http.MethodGet, "/api/agents", listQuery(opts), nil, &page); err != nil {
		return ports.AgentPage{}, err
	}
	return page, nil
}

type agentStatusBody struct {
	Status domain.AgentStatus `json:"status"`
}

// Pause takes the agent out of rotation by marking it offline.
func (c *AgentsClient) Pause(ctx context.Context, agentID string) (*domain.Agent, error) {
	return c.setStatus(ctx, agentID, domain.AgentStatusOffline)
}

// Resume returns the agent to rotation by marking it healthy.
func (c *AgentsClient) Resume(ctx context.Context, agentID string) (*domain.Agent, error) {
	return c.setStatus(ctx, agentID, domain.AgentStatusHealthy)
}

func (c *AgentsClient) setStatus(ctx context.Context, agentID string, status domain.AgentStatus) (*domain.Agent, error) {
	var agent domain.Agent
	err := c.do(ctx, http.MethodPatch, "/api/agents/"+agentID+"/status", nil, agentStatusBody{Status: status}, &agent)
	if err != nil {
		return nil, err
	}
	return &agent, nil
}
