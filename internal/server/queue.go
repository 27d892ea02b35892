package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/opsdeck/opsdeck/pkg/domain"
	"github.com/opsdeck/opsdeck/pkg/ports"
)

// Queue responses carry the backend's status envelope.
type queueListResponse struct {
	Status string             `json:"status"`
	Jobs   []domain.QueuedJob `json:"jobs"`
	Count  int                `json:"count"`
}

type queueClaimResponse struct {
	Status          string            `json:"status"`
	NoJobsAvailable bool              `json:"no_jobs_available"`
	Job             *domain.QueuedJob `json:"job"`
}

type queueJobResponse struct {
	Status  string            `json:"status"`
	Job     *domain.QueuedJob `json:"job"`
	Retried bool              `json:"retried,omitempty"`
}

func (s *Server) listQueued(w http.ResponseWriter, r *http.Request) {
	page, err := s.fixtures.Queue.ListQueued(r.Context(), listOptionsFromQuery(r))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, queueListResponse{
		Status: "success",
		Jobs:   page.Jobs,
		Count:  page.Total,
	})
}

type claimRequest struct {
	AgentID      string `json:"agent_id"`
	PoolName     string `json:"pool_name"`
	LeaseSeconds int    `json:"lease_duration_seconds"`
}

func (s *Server) claimJob(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("claim: invalid request body", "err", err)
		s.writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AgentID == "" {
		s.writeDetail(w, http.StatusBadRequest, "agent_id is required")
		return
	}

	job, err := s.fixtures.Queue.ClaimFor(r.Context(),
		ports.ClaimRequest{AgentID: req.AgentID, PoolID: req.PoolName},
		time.Duration(req.LeaseSeconds)*time.Second,
	)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	if job == nil {
		s.writeJSON(w, http.StatusOK, queueClaimResponse{Status: "success", NoJobsAvailable: true})
		return
	}

	s.streams.Broadcast(Event{Resource: "queue", Action: "claim", ID: job.ID})
	s.writeJSON(w, http.StatusOK, queueClaimResponse{Status: "success", Job: job})
}

type startRequest struct {
	AgentID string `json:"agent_id"`
}

func (s *Server) startJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AgentID == "" {
		s.logger.Warn("start: invalid request body", "err", err, "job", jobID)
		s.writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := s.fixtures.Queue.Start(r.Context(), jobID, req.AgentID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.streams.Broadcast(Event{Resource: "queue", Action: "start", ID: job.ID})
	s.writeJSON(w, http.StatusOK, queueJobResponse{Status: "success", Job: job})
}

type queueCompleteRequest struct {
	ExitCode        int     `json:"exit_code"`
	DurationSeconds float64 `json:"duration_seconds"`
	ErrorMessage    string  `json:"error_message"`
}

func (s *Server) completeQueuedJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	var req queueCompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("queue complete: invalid request body", "err", err, "job", jobID)
		s.writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := s.fixtures.Queue.Complete(r.Context(), jobID, ports.CompleteRequest{
		ExitCode:        req.ExitCode,
		DurationSeconds: req.DurationSeconds,
		ErrorMessage:    req.ErrorMessage,
	})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	// A failed run that went back to queued was auto-retried.
	retried := job.Status == domain.QueueStatusQueued

	s.streams.Broadcast(Event{Resource: "queue", Action: "complete", ID: job.ID})
	s.writeJSON(w, http.StatusOK, queueJobResponse{Status: "success", Job: job, Retried: retried})
}

type queueStatsResponse struct {
	Status string             `json:"status"`
	Stats  *domain.QueueStats `json:"stats"`
}

func (s *Server) queueStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.fixtures.Queue.Stats(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, queueStatsResponse{Status: "success", Stats: stats})
}

type requeueResponse struct {
	Status        string `json:"status"`
	RequeuedCount int    `json:"requeued_count"`
}

func (s *Server) requeueExpired(w http.ResponseWriter, r *http.Request) {
	moved, err := s.fixtures.Queue.Requeue(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	if moved > 0 {
		s.streams.Broadcast(Event{Resource: "queue", Action: "requeue"})
	}
	s.writeJSON(w, http.StatusOK, requeueResponse{Status: "success", RequeuedCount: moved})
}
