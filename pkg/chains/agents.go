package chains

import (
	"context"
	"fmt"

	"github.com/opsdeck/opsdeck/pkg/domain"
	"github.com/opsdeck/opsdeck/pkg/pipeline"
	"github.com/opsdeck/opsdeck/pkg/ports"
)

// KeyAgents is the raw collection key of the agents view chain.
const KeyAgents = "agents"

// AgentsChain is the agent fleet pipeline: the view chain plus pause/resume.
type AgentsChain struct {
	api    ports.AgentsAPI
	view   *pipeline.Chain
	pause  *pipeline.Chain
	resume *pipeline.Chain
}

// NewAgentsChain wires the agents view and mutation chains over the
// collaborator.
func NewAgentsChain(api ports.AgentsAPI, opts ...pipeline.Option) *AgentsChain {
	ac := &AgentsChain{api: api}

	ac.view = newViewChain("agents", KeyAgents, func(ctx context.Context) ([]domain.Agent, error) {
		page, err := api.ListAgents(ctx, ports.ListOptions{})
		if err != nil {
			return nil, err
		}
		return page.Agents, nil
	}, opts)

	ac.pause = pipeline.New("agents.pause", opts...).
		AddLink("pause", agentMutationLink("pause", api.Pause))
	ac.resume = pipeline.New("agents.resume", opts...).
		AddLink("resume", agentMutationLink("resume", api.Resume))

	return ac
}

// agentMutationLink wraps one agent state-transition call.
func agentMutationLink(name string, call func(context.Context, string) (*domain.Agent, error)) pipeline.Link {
	return pipeline.LinkFunc(func(ctx context.Context, c pipeline.Context) (pipeline.Context, error) {
		agentID, err := stringKey(c, name, "agent_id")
		if err != nil {
			return pipeline.Context{}, err
		}
		agent, err := call(ctx, agentID)
		if err != nil {
			return pipeline.Context{}, err
		}
		return c.Insert("agent", agent), nil
	})
}

// View exposes the read pipeline for topology introspection.
func (ac *AgentsChain) View() *pipeline.Chain { return ac.view }

// Execute runs the view chain and returns the filtered, sorted agents.
func (ac *AgentsChain) Execute(ctx context.Context, filters *domain.FilterOptions, sortOpts *domain.SortOptions) ([]domain.Agent, error) {
	return executeView[domain.Agent](ctx, ac.view, filters, sortOpts)
}

// Pause takes the agent out of rotation.
func (ac *AgentsChain) Pause(ctx context.Context, agentID string) (*domain.Agent, error) {
	return ac.runAgentMutation(ctx, ac.pause, agentID)
}

// Resume returns a paused agent to rotation.
func (ac *AgentsChain) Resume(ctx context.Context, agentID string) (*domain.Agent, error) {
	return ac.runAgentMutation(ctx, ac.resume, agentID)
}

func (ac *AgentsChain) runAgentMutation(ctx context.Context, ch *pipeline.Chain, agentID string) (*domain.Agent, error) {
	out, err := ch.Run(ctx, map[string]any{"agent_id": agentID})
	if err != nil {
		return nil, err
	}
	agent, ok := out.Value("agent").(*domain.Agent)
	if !ok {
		return nil, fmt.Errorf("chain %q produced no agent", ch.Name())
	}
	return agent, nil
}
