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

func newQueueClient(t *testing.T, handler http.HandlerFunc) *rest.QueueClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := rest.NewQueueClient(rest.Config{BaseURL: srv.URL})
	require.NoError(t, err)
	return c
}

func TestQueueClientListQueuedUnwrapsEnvelope(t *testing.T) {
	c := newQueueClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/queue/jobs", r.URL.Path)
		require.Equal(t, "build-pool", r.URL.Query().Get("pool_name"))

		w.Write([]byte(`{
			"status": "success",
			"jobs": [
				{"id": "q-1", "name": "compile", "pool_id": "build-pool", "status": "queued"},
				{"id": "q-2", "name": "test", "pool_id": "build-pool", "status": "claimed"}
			],
			"count": 2
		}`))
	})

	page, err := c.ListQueued(context.Background(), ports.ListOptions{PoolID: "build-pool", Limit: 100})
	require.NoError(t, err)
	require.Len(t, page.Jobs, 2)
	require.Equal(t, "q-1", page.Jobs[0].ID)
	require.Equal(t, domain.QueueStatusClaimed, page.Jobs[1].Status)
	require.Equal(t, 2, page.Total)
	require.Equal(t, 100, page.Limit)
}

func TestQueueClientClaim(t *testing.T) {
	c := newQueueClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/queue/claim", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "agent-7", body["agent_id"])
		require.Equal(t, "build-pool", body["pool_name"])
		require.Equal(t, float64(30), body["lease_duration_seconds"])

		w.Write([]byte(`{
			"status": "success",
			"no_jobs_available": false,
			"job": {"id": "q-1", "name": "compile", "status": "claimed", "claimed_by": "agent-7"}
		}`))
	})

	job, err := c.Claim(context.Background(), ports.ClaimRequest{AgentID: "agent-7", PoolID: "build-pool"})
	require.NoError(t, err)
	require.NotNil(t, job)
	require.Equal(t, "q-1", job.ID)
	require.Equal(t, "agent-7", job.ClaimedBy)
}

func TestQueueClientClaimEmptyQueueReturnsNil(t *testing.T) {
	c := newQueueClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "success", "no_jobs_available": true, "job": null}`))
	})

	job, err := c.Claim(context.Background(), ports.ClaimRequest{AgentID: "agent-7"})
	require.NoError(t, err)
	require.Nil(t, job)
}

func TestQueueClientStart(t *testing.T) {
	c := newQueueClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/api/queue/jobs/q-1/start", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "agent-7", body["agent_id"])

		w.Write([]byte(`{"status": "success", "job": {"id": "q-1", "status": "running"}}`))
	})

	job, err := c.Start(context.Background(), "q-1", "agent-7")
	require.NoError(t, err)
	require.Equal(t, domain.QueueStatusRunning, job.Status)
}

func TestQueueClientComplete(t *testing.T) {
	c := newQueueClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/queue/jobs/q-1/complete", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, float64(0), body["exit_code"])
		require.Equal(t, 12.5, body["duration_seconds"])

		w.Write([]byte(`{"status": "success", "job": {"id": "q-1", "status": "completed"}, "retried": false}`))
	})

	job, err := c.Complete(context.Background(), "q-1", ports.CompleteRequest{DurationSeconds: 12.5})
	require.NoError(t, err)
	require.Equal(t, domain.QueueStatusCompleted, job.Status)
}

func TestQueueClientFailDefaultsExitCode(t *testing.T) {
	c := newQueueClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/queue/jobs/q-1/complete", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, float64(1), body["exit_code"])
		require.Equal(t, "oom", body["error_message"])

		w.Write([]byte(`{"status": "success", "job": {"id": "q-1", "status": "failed", "error_message": "oom"}}`))
	})

	job, err := c.Fail(context.Background(), "q-1", ports.FailRequest{Reason: "oom"})
	require.NoError(t, err)
	require.Equal(t, domain.QueueStatusFailed, job.Status)
	require.Equal(t, "oom", job.ErrorMessage)
}

func TestQueueClientStats(t *testing.T) {
	c := newQueueClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/queue/stats", r.URL.Path)

		w.Write([]byte(`{
			"status": "success",
			"stats": {
				"total_queued": 4,
				"total_running": 2,
				"failure_rate": 0.125,
				"avg_queue_wait_seconds": 6.5
			}
		}`))
	})

	stats, err := c.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, stats.TotalQueued)
	require.Equal(t, 2, stats.TotalRunning)
	require.Equal(t, 0.125, stats.FailureRate)
	require.Equal(t, 6.5, stats.AvgQueueWaitSeconds)
}

func TestQueueClientRequeue(t *testing.T) {
	c := newQueueClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/queue/maintenance/requeue-expired", r.URL.Path)

		w.Write([]byte(`{"status": "success", "requeued_count": 3}`))
	})

	moved, err := c.Requeue(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, moved)
}
