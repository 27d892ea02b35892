package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/opsdeck/opsdeck/internal/clock"
	"github.com/opsdeck/opsdeck/pkg/domain"
	"github.com/opsdeck/opsdeck/pkg/ports"
)

// AgentStore implements ports.AgentsAPI over an in-memory fleet.
type AgentStore struct {
	clock clock.Clock

	mu     sync.RWMutex
	agents []domain.Agent
}

var _ ports.AgentsAPI = (*AgentStore)(nil)

// NewAgentStore creates an empty agent store.
func NewAgentStore(opts ...Option) *AgentStore {
	o := newOptions(opts)
	return &AgentStore{clock: o.clock}
}

// Seed appends agents to the fleet as given.
func (s *AgentStore) Seed(agents ...domain.Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range agents {
		s.agents = append(s.agents, copyAgent(a))
	}
}

// ListAgents returns one page of agents, optionally filtered by status and pool.
func (s *AgentStore) ListAgents(ctx context.Context, opts ports.ListOptions) (ports.AgentPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.Agent, 0, len(s.agents))
	for _, a := range s.agents {
		if opts.Status != "" && string(a.Status) != opts.Status {
			continue
		}
		if opts.PoolID != "" && a.PoolID != opts.PoolID {
			continue
		}
		matched = append(matched, copyAgent(a))
	}

	start, end := pageWindow(len(matched), opts.Limit, opts.Offset)
	return ports.AgentPage{
		Agents: matched[start:end],
		Total:  len(matched),
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}, nil
}

// Pause takes the agent out of rotation by marking it offline.
func (s *AgentStore) Pause(ctx context.Context, agentID string) (*domain.Agent, error) {
	return s.SetStatus(ctx, agentID, domain.AgentStatusOffline)
}

// Resume returns the agent to rotation by marking it healthy.
func (s *AgentStore) Resume(ctx context.Context, agentID string) (*domain.Agent, error) {
	return s.SetStatus(ctx, agentID, domain.AgentStatusHealthy)
}

// SetStatus updates an agent's status directly. The demo server's status
// route accepts any lifecycle value, not just the pause/resume pair.
func (s *AgentStore) SetStatus(ctx context.Context, agentID string, status domain.AgentStatus) (*domain.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.agents {
		if s.agents[i].ID != agentID {
			continue
		}
		s.agents[i].Status = status
		s.agents[i].LastHeartbeat = s.clock.Now()
		out := copyAgent(s.agents[i])
		return &out, nil
	}
	return nil, notFound("agents")
}

func copyAgent(a domain.Agent) domain.Agent {
	a.Tags = slices.Clone(a.Tags)
	return a
}
