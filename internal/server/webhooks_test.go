package server_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opsdeck/opsdeck/internal/clock"
	"github.com/opsdeck/opsdeck/internal/server"
	"github.com/opsdeck/opsdeck/pkg/adapters/memory"
	"github.com/opsdeck/opsdeck/pkg/ports"
)

const webhookSecret = "test-webhook-secret"

const githubToolYAML = `version: "1.0.0"
type: tool
metadata:
  id: github
  name: GitHub / GitHub Actions
  category: version-control
integration:
  webhooks:
    enabled: true
    endpoint: /api/webhooks/github
    verification:
      method: hmac-sha256
      header: X-Hub-Signature-256
      secret_env_var: GITHUB_WEBHOOK_SECRET
    events:
      push:
        http_event_header: X-GitHub-Event
        header_value: push
        data_mapping:
          event_type: push
          repository: $.repository.full_name
          branch: $.ref
          commit_sha: $.head_commit.id
          commit_message: $.head_commit.message
          author: $.pusher.name
          source_url: $.head_commit.url
features:
  auto_job_creation: true
`

// newWebhookServer serves the API with a single github tool config and its
// secret in the environment.
func newWebhookServer(t *testing.T) (*httptest.Server, *memory.Fixtures) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "github.yaml"), []byte(githubToolYAML), 0o644))
	t.Setenv("GITHUB_WEBHOOK_SECRET", webhookSecret)

	fixtures := memory.NewFixtures(memory.WithClock(clock.Fake(epoch)))
	srv := httptest.NewServer(server.New(fixtures, server.WithWebhookTools(dir)).Handler())
	t.Cleanup(srv.Close)
	return srv, fixtures
}

func signedPush(t *testing.T) ([]byte, http.Header) {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"ref": "refs/heads/main",
		"repository": map[string]any{
			"full_name": "opsdeck/api",
		},
		"head_commit": map[string]any{
			"id":      "abc123def456",
			"message": "feat: add webhook support",
			"url":     "https://github.com/opsdeck/api/commit/abc123",
		},
		"pusher": map[string]any{
			"name": "priya",
		},
	})
	require.NoError(t, err)

	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(body)

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("X-GitHub-Event", "push")
	header.Set("X-Hub-Signature-256", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	return body, header
}

func postWebhook(t *testing.T, url string, body []byte, header http.Header, out any) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header = header

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestReceiveWebhookAcceptsSignedPush(t *testing.T) {
	srv, fixtures := newWebhookServer(t)
	body, header := signedPush(t)

	var accepted map[string]string
	resp := postWebhook(t, srv.URL+"/api/webhooks/github", body, header, &accepted)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "accepted", accepted["status"])
	require.Equal(t, "github", accepted["tool"])
	require.Equal(t, "push", accepted["event_type"])
	require.NotEmpty(t, accepted["event_id"])

	events, err := fixtures.Webhooks.ListEvents(context.Background(), "github", 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, accepted["event_id"], events[0].EventID)
	require.Equal(t, "opsdeck/api", events[0].Metadata["repository"])
}

func TestReceiveWebhookCreatesBuildJob(t *testing.T) {
	srv, fixtures := newWebhookServer(t)
	body, header := signedPush(t)

	resp := postWebhook(t, srv.URL+"/api/webhooks/github", body, header, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	page, err := fixtures.Jobs.ListJobs(context.Background(), ports.ListOptions{Status: "queued"})
	require.NoError(t, err)
	var created bool
	for _, j := range page.Jobs {
		if j.Name == "feat: add webhook support" {
			created = true
			require.Equal(t, "build", j.Type)
			require.Contains(t, j.Tags, "webhook")
			require.Equal(t, "opsdeck/api", j.GitRepo)
		}
	}
	require.True(t, created, "push delivery enqueues a build job")
}

func TestReceiveWebhookUnknownTool(t *testing.T) {
	srv, _ := newWebhookServer(t)
	body, header := signedPush(t)

	var detail map[string]string
	resp := postWebhook(t, srv.URL+"/api/webhooks/gitlab", body, header, &detail)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Contains(t, detail["detail"], "gitlab")
}

func TestReceiveWebhookRejectsBadSignature(t *testing.T) {
	srv, fixtures := newWebhookServer(t)
	body, header := signedPush(t)
	header.Set("X-Hub-Signature-256", "sha256=deadbeef")

	var detail map[string]string
	resp := postWebhook(t, srv.URL+"/api/webhooks/github", body, header, &detail)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "invalid webhook signature", detail["detail"])

	events, err := fixtures.Webhooks.ListEvents(context.Background(), "github", 0)
	require.NoError(t, err)
	require.Empty(t, events, "rejected deliveries are not stored")
}

func TestReceiveWebhookRejectsUnknownEventType(t *testing.T) {
	srv, _ := newWebhookServer(t)
	body, header := signedPush(t)
	header.Set("X-GitHub-Event", "deployment_status")

	var detail map[string]string
	resp := postWebhook(t, srv.URL+"/api/webhooks/github", body, header, &detail)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, detail["detail"], "event type")
}

func TestListWebhookTools(t *testing.T) {
	srv, _ := newWebhookServer(t)

	var body struct {
		Tools []string `json:"tools"`
		Count int      `json:"count"`
	}
	resp := getJSON(t, srv.URL+"/api/webhooks/", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []string{"github"}, body.Tools)
	require.Equal(t, 1, body.Count)
}

func TestWebhookToolHealth(t *testing.T) {
	srv, _ := newWebhookServer(t)

	var body map[string]string
	resp := getJSON(t, srv.URL+"/api/webhooks/github/health", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ready", body["status"])
	require.Equal(t, "/api/webhooks/github", body["endpoint"])
	require.Equal(t, "hmac-sha256", body["verification"])

	resp = getJSON(t, srv.URL+"/api/webhooks/gitlab/health", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
