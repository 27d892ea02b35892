package rest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opsdeck/opsdeck/pkg/adapters/rest"
	"github.com/opsdeck/opsdeck/pkg/domain"
	"github.com/opsdeck/opsdeck/pkg/ports"
)

func TestAgentsClientListAgents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/agents", r.URL.Path)
		require.Equal(t, "build-pool", r.URL.Query().Get("pool_name"))
		require.Equal(t, "healthy", r.URL.Query().Get("status"))

		json.NewEncoder(w).Encode(ports.AgentPage{
			Agents: []domain.Agent{
				{ID: "agent-1", Name: "builder-a", Status: domain.AgentStatusHealthy, PoolID: "build-pool"},
			},
			Total: 1,
		})
	}))
	defer srv.Close()

	c, err := rest.NewAgentsClient(rest.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	page, err := c.ListAgents(context.Background(), ports.ListOptions{Status: "healthy", PoolID: "build-pool"})
	require.NoError(t, err)
	require.Len(t, page.Agents, 1)
	require.Equal(t, "agent-1", page.Agents[0].ID)
}

func TestAgentsClientPauseMarksOffline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/api/agents/agent-1/status", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "offline", body["status"])

		json.NewEncoder(w).Encode(domain.Agent{ID: "agent-1", Status: domain.AgentStatusOffline})
	}))
	defer srv.Close()

	c, err := rest.NewAgentsClient(rest.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	agent, err := c.Pause(context.Background(), "agent-1")
	require.NoError(t, err)
	require.Equal(t, domain.AgentStatusOffline, agent.Status)
}

func TestAgentsClientResumeMarksHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/agents/agent-1/status", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "healthy", body["status"])

		json.NewEncoder(w).Encode(domain.Agent{ID: "agent-1", Status: domain.AgentStatusHealthy})
	}))
	defer srv.Close()

	c, err := rest.NewAgentsClient(rest.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	agent, err := c.Resume(context.Background(), "agent-1")
	require.NoError(t, err)
	require.Equal(t, domain.AgentStatusHealthy, agent.Status)
}
