// Package server hosts the demo API: the collaborator REST contract served
// over the in-memory fixture stores, plus /healthz, Prometheus /metrics and
// an /events SSE stream that announces every mutation. It exists so the
// dashboard can be exercised end to end without the production backend.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opsdeck/opsdeck/internal/logging"
	"github.com/opsdeck/opsdeck/pkg/adapters/memory"
	"github.com/opsdeck/opsdeck/pkg/chains"
	"github.com/opsdeck/opsdeck/pkg/pipeline"
	"github.com/opsdeck/opsdeck/pkg/webhook"
)

// Server serves the demo API over fixture stores.
type Server struct {
	fixtures     *memory.Fixtures
	logger       *slog.Logger
	registry     *prometheus.Registry
	streams      *StreamManager
	webhookTools *webhook.ConfigStore
	webhookChain *chains.WebhookChain
}

// Option adjusts the server at construction.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithRegistry sets the Prometheus registry behind /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// WithWebhookTools points the webhook endpoints at a tool config directory.
func WithWebhookTools(dir string) Option {
	return func(s *Server) { s.webhookTools = webhook.NewConfigStore(dir) }
}

// New creates a server over the given fixtures.
func New(fixtures *memory.Fixtures, opts ...Option) *Server {
	s := &Server{
		fixtures:     fixtures,
		logger:       logging.NewNop(),
		registry:     prometheus.NewRegistry(),
		streams:      NewStreamManager(),
		webhookTools: webhook.NewConfigStore("config/webhooks/tools"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.webhookChain = chains.NewWebhookChain(fixtures.Webhooks, fixtures.Jobs,
		pipeline.WithLogger(s.logger))
	return s
}

// Handler builds the full route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/jobs", s.listJobs)
			r.Post("/jobs", s.enqueueJob)
			r.Patch("/jobs/{jobID}/complete", s.completeJob)
			r.Get("/deployments", s.listDeployments)
		})
		r.Route("/agents", func(r chi.Router) {
			r.Get("/", s.listAgents)
			r.Patch("/{agentID}/status", s.updateAgentStatus)
		})
		r.Route("/queue", func(r chi.Router) {
			r.Get("/jobs", s.listQueued)
			r.Post("/claim", s.claimJob)
			r.Patch("/jobs/{jobID}/start", s.startJob)
			r.Patch("/jobs/{jobID}/complete", s.completeQueuedJob)
			r.Get("/stats", s.queueStats)
			r.Post("/maintenance/requeue-expired", s.requeueExpired)
		})
		r.Route("/webhooks", func(r chi.Router) {
			r.Get("/", s.listWebhookTools)
			r.Post("/{toolID}", s.receiveWebhook)
			r.Get("/{toolID}/health", s.checkWebhookTool)
		})
	})

	r.Get("/events", s.subscribeEvents)
	r.Get("/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return enableCORS(r)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// writeDetail reports an error the way the backend does: a JSON object with
// a single detail field.
func (s *Server) writeDetail(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]string{"detail": detail})
}

// writeStoreError maps a store failure onto the wire. Fixture stores speak
// *pipeline.ExternalCallError for missing resources.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	var callErr *pipeline.ExternalCallError
	if errors.As(err, &callErr) && callErr.Status != 0 {
		s.writeDetail(w, callErr.Status, callErr.Error())
		return
	}
	s.logger.Error("store call failed", "err", err)
	s.writeDetail(w, http.StatusInternalServerError, "internal server error")
}
