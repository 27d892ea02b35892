package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opsdeck/opsdeck/pkg/domain"
)

func (s *Server) listAgents(w http.ResponseWriter, r *http.Request) {
	page, err := s.fixtures.Agents.ListAgents(r.Context(), listOptionsFromQuery(r))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, page)
}

type agentStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) updateAgentStatus(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")

	var req agentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		s.logger.Warn("agent status: invalid request body", "err", err, "agent", agentID)
		s.writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	agent, err := s.fixtures.Agents.SetStatus(r.Context(), agentID, domain.AgentStatus(req.Status))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.streams.Broadcast(Event{Resource: "agents", Action: "status", ID: agent.ID})
	s.writeJSON(w, http.StatusOK, agent)
}
