package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opsdeck/opsdeck/pkg/webhook"
)

// maxWebhookBody caps how much of a delivery the server reads.
const maxWebhookBody = 1 << 20

func (s *Server) listWebhookTools(w http.ResponseWriter, r *http.Request) {
	tools, err := s.webhookTools.ListTools()
	if err != nil {
		s.logger.Error("listing webhook tools failed", "err", err)
		s.writeDetail(w, http.StatusInternalServerError, "error listing available tools")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"tools": tools,
		"count": len(tools),
	})
}

func (s *Server) checkWebhookTool(w http.ResponseWriter, r *http.Request) {
	toolID := chi.URLParam(r, "toolID")

	cfg, err := s.webhookTools.LoadConfig(toolID)
	if err != nil {
		if errors.Is(err, webhook.ErrToolNotFound) {
			s.writeDetail(w, http.StatusNotFound, "tool not found: "+toolID)
			return
		}
		s.logger.Error("webhook tool check failed", "tool", toolID, "err", err)
		s.writeDetail(w, http.StatusInternalServerError, "error checking tool status")
		return
	}

	endpoint := cfg.Integration.Webhooks.Endpoint
	if endpoint == "" {
		endpoint = "/api/webhooks/" + toolID
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"tool":         toolID,
		"status":       "ready",
		"endpoint":     endpoint,
		"verification": cfg.Integration.Webhooks.Verification.Method,
	})
}

// receiveWebhook is the single inbound endpoint for every tool. Which tool a
// delivery belongs to, how it is verified and how it maps onto an event all
// come from the tool's config.
func (s *Server) receiveWebhook(w http.ResponseWriter, r *http.Request) {
	toolID := chi.URLParam(r, "toolID")

	cfg, err := s.webhookTools.LoadConfig(toolID)
	if err != nil {
		if errors.Is(err, webhook.ErrToolNotFound) {
			s.logger.Warn("webhook for unknown tool", "tool", toolID)
			s.writeDetail(w, http.StatusNotFound, "tool not found: "+toolID)
			return
		}
		s.logger.Error("loading webhook config failed", "tool", toolID, "err", err)
		s.writeDetail(w, http.StatusInternalServerError, "internal server error processing webhook")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		s.writeDetail(w, http.StatusBadRequest, "could not read request body")
		return
	}

	adapter, err := webhook.NewAdapter(cfg)
	if err != nil {
		s.logger.Error("webhook adapter construction failed", "tool", toolID, "err", err)
		s.writeDetail(w, http.StatusInternalServerError, "internal server error processing webhook")
		return
	}

	event, err := adapter.Parse(body, r.Header)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			s.logger.Warn("webhook signature rejected", "tool", toolID)
			s.writeDetail(w, http.StatusUnauthorized, "invalid webhook signature")
			return
		}
		s.logger.Warn("webhook parse failed", "tool", toolID, "err", err)
		s.writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := s.webhookChain.Process(r.Context(), event, cfg.Features.AutoJobCreation)
	if err != nil {
		s.logger.Error("webhook processing failed", "tool", toolID, "event", event.EventID, "err", err)
		s.writeDetail(w, http.StatusInternalServerError, "internal server error processing webhook")
		return
	}

	s.logger.Info("webhook received",
		"tool", toolID,
		"event_type", event.EventType,
		"event", event.EventID,
	)
	s.streams.Broadcast(Event{Resource: "webhooks", Action: "receive", ID: event.EventID})
	if outcome.CreatedJob != nil {
		s.streams.Broadcast(Event{Resource: "jobs", Action: "enqueue", ID: outcome.CreatedJob.ID})
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":     "accepted",
		"event_id":   outcome.EventID,
		"tool":       toolID,
		"event_type": event.EventType,
		"message":    "Event received and queued for processing",
	})
}
