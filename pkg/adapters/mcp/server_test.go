package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/opsdeck/internal/clock"
	"github.com/opsdeck/opsdeck/pkg/adapters/memory"
	"github.com/opsdeck/opsdeck/pkg/domain"
)

var epoch = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	fixtures := memory.NewFixtures(memory.WithClock(clock.Fake(epoch)))
	return NewServer(fixtures.Collaborators())
}

func TestHandleListJobsFilters(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.handleListJobs(context.Background(), mcp.CallToolRequest{}, map[string]any{
		"status": "running",
	})
	require.NoError(t, err)
	require.NotZero(t, resp.Count)
	for _, j := range resp.Jobs {
		require.Equal(t, domain.JobStatusRunning, j.Status)
	}
}

func TestHandleListJobsLimitFromJSONNumber(t *testing.T) {
	s := newTestServer(t)

	// MCP arguments arrive as float64; the decoder must still honor them.
	resp, err := s.handleListJobs(context.Background(), mcp.CallToolRequest{}, map[string]any{
		"limit": float64(2),
	})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Count)
	require.Len(t, resp.Jobs, 2)
}

func TestHandleListJobsSorts(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.handleListJobs(context.Background(), mcp.CallToolRequest{}, map[string]any{
		"sort_by": "created_at", "sort_direction": "desc",
	})
	require.NoError(t, err)
	for i := 1; i < len(resp.Jobs); i++ {
		require.False(t, resp.Jobs[i-1].CreatedAt.Before(resp.Jobs[i].CreatedAt))
	}
}

func TestHandleListAgentsByPool(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.handleListAgents(context.Background(), mcp.CallToolRequest{}, map[string]any{
		"pool": "build-pool",
	})
	require.NoError(t, err)
	require.NotZero(t, resp.Count)
	for _, a := range resp.Agents {
		require.Equal(t, "build-pool", a.PoolID)
	}
}

func TestHandleListDeployments(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.handleListDeployments(context.Background(), mcp.CallToolRequest{}, map[string]any{})
	require.NoError(t, err)
	require.Equal(t, len(resp.Deployments), resp.Count)
	require.NotZero(t, resp.Count)
}

func TestHandleListQueueByStatus(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.handleListQueue(context.Background(), mcp.CallToolRequest{}, map[string]any{
		"status": "queued",
	})
	require.NoError(t, err)
	for _, q := range resp.Jobs {
		require.Equal(t, domain.QueueStatusQueued, q.Status)
	}
}

func TestHandleQueueStats(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.handleQueueStats(context.Background(), mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	require.NotNil(t, resp.Stats)
	require.Positive(t, resp.Stats.TotalQueued)
}

func TestHandleEnqueueJob(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.handleEnqueueJob(context.Background(), mcp.CallToolRequest{}, map[string]any{
		"name": "smoke test", "type": "test", "priority": "high",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Job)
	require.NotEmpty(t, resp.Job.ID)
	require.Equal(t, domain.PriorityHigh, resp.Job.Priority)

	listed, err := s.handleListJobs(context.Background(), mcp.CallToolRequest{}, map[string]any{
		"search": "smoke",
	})
	require.NoError(t, err)
	require.Equal(t, 1, listed.Count)
}

func TestHandleEnqueueJobRequiresNameAndType(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleEnqueueJob(context.Background(), mcp.CallToolRequest{}, map[string]any{
		"name": "half a request",
	})
	require.Error(t, err)
}

func TestDecodeArgsRejectsWrongShape(t *testing.T) {
	var a listArgs
	err := decodeArgs(map[string]any{"status": map[string]any{"nested": true}}, &a)
	require.Error(t, err)
}
