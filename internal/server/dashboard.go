package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/opsdeck/opsdeck/pkg/ports"
)

// listOptionsFromQuery reads the shared list query parameters. Unparseable
// numbers are treated as absent.
func listOptionsFromQuery(r *http.Request) ports.ListOptions {
	q := r.URL.Query()
	opts := ports.ListOptions{
		Status: q.Get("status"),
		PoolID: q.Get("pool_name"),
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		opts.Limit = n
	}
	if n, err := strconv.Atoi(q.Get("offset")); err == nil && n > 0 {
		opts.Offset = n
	}
	return opts
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	page, err := s.fixtures.Jobs.ListJobs(r.Context(), listOptionsFromQuery(r))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, page)
}

func (s *Server) enqueueJob(w http.ResponseWriter, r *http.Request) {
	var req ports.JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("enqueue: invalid request body", "err", err)
		s.writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := s.fixtures.Jobs.Enqueue(r.Context(), req)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.streams.Broadcast(Event{Resource: "jobs", Action: "enqueue", ID: job.ID})
	s.writeJSON(w, http.StatusOK, job)
}

// completeJobRequest is the dashboard completion payload.
type completeJobRequest struct {
	AgentID         string  `json:"agent_id"`
	ExitCode        int     `json:"exit_code"`
	DurationSeconds float64 `json:"duration_seconds"`
	LogsURL         string  `json:"logs_url"`
	LogsSummary     string  `json:"logs_summary"`
	ErrorMessage    string  `json:"error_message"`
}

func (s *Server) completeJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	var req completeJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("complete: invalid request body", "err", err, "job", jobID)
		s.writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := s.fixtures.Jobs.Complete(r.Context(), jobID, req.AgentID, ports.CompleteRequest{
		ExitCode:        req.ExitCode,
		DurationSeconds: req.DurationSeconds,
		LogsURL:         req.LogsURL,
		LogsSummary:     req.LogsSummary,
		ErrorMessage:    req.ErrorMessage,
	})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.streams.Broadcast(Event{Resource: "jobs", Action: "complete", ID: job.ID})
	s.writeJSON(w, http.StatusOK, job)
}

func (s *Server) listDeployments(w http.ResponseWriter, r *http.Request) {
	page, err := s.fixtures.Deployments.ListDeployments(r.Context(), listOptionsFromQuery(r))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, page)
}
