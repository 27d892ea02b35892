// Package mcp exposes the dashboard chains over the Model Context Protocol,
// so assistant tooling can query jobs, agents, deployments and the work queue
// and submit new jobs.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"

	"github.com/opsdeck/opsdeck"
	"github.com/opsdeck/opsdeck/pkg/chains"
	"github.com/opsdeck/opsdeck/pkg/domain"
	"github.com/opsdeck/opsdeck/pkg/pipeline"
	"github.com/opsdeck/opsdeck/pkg/ports"
)

// JobsResponse is the structured payload of the list_jobs tool.
type JobsResponse struct {
	Jobs  []domain.Job `json:"jobs"`
	Count int          `json:"count"`
}

// AgentsResponse is the structured payload of the list_agents tool.
type AgentsResponse struct {
	Agents []domain.Agent `json:"agents"`
	Count  int            `json:"count"`
}

// DeploymentsResponse is the structured payload of the list_deployments tool.
type DeploymentsResponse struct {
	Deployments []domain.Deployment `json:"deployments"`
	Count       int                 `json:"count"`
}

// QueueResponse is the structured payload of the list_queue tool.
type QueueResponse struct {
	Jobs  []domain.QueuedJob `json:"jobs"`
	Count int                `json:"count"`
}

// StatsResponse is the structured payload of the queue_stats tool.
type StatsResponse struct {
	Stats *domain.QueueStats `json:"stats"`
}

// JobResponse is the structured payload of the enqueue_job tool.
type JobResponse struct {
	Job *domain.Job `json:"job"`
}

// Server wraps the dashboard chains and exposes them as an MCP server.
type Server struct {
	jobs        *chains.JobsChain
	agents      *chains.AgentsChain
	deployments *chains.DeploymentsChain
	queue       *chains.QueueChain
	logger      *slog.Logger
	mcpServer   *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer builds the MCP surface over the four domain chains. Every tool
// call runs the corresponding chain, so hooks and logging wired through
// chainOpts observe MCP traffic like any other caller.
func NewServer(collabs ports.Collaborators, opts ...Option) *Server {
	s := &Server{
		logger:    slog.New(slog.NewJSONHandler(io.Discard, nil)),
		mcpServer: server.NewMCPServer("opsdeck-mcp", opsdeck.Version),
	}
	for _, opt := range opts {
		opt(s)
	}

	chainOpts := []pipeline.Option{pipeline.WithLogger(s.logger)}
	s.jobs = chains.NewJobsChain(collabs.Jobs, chainOpts...)
	s.agents = chains.NewAgentsChain(collabs.Agents, chainOpts...)
	s.deployments = chains.NewDeploymentsChain(collabs.Deployments, chainOpts...)
	s.queue = chains.NewQueueChain(collabs.Queue, chainOpts...)

	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening (sse)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: list_jobs
	s.mcpServer.AddTool(mcp.NewTool("list_jobs",
		mcp.WithDescription("List dashboard jobs, optionally filtered and sorted."),
		mcp.WithString("status", mcp.Description("Filter by status (pending, queued, running, success, failed, cancelled, timeout, error)")),
		mcp.WithString("priority", mcp.Description("Filter by priority (low, normal, high, critical)")),
		mcp.WithString("region", mcp.Description("Filter by region")),
		mcp.WithString("search", mcp.Description("Case-insensitive substring match on the job name")),
		mcp.WithString("sort_by", mcp.Description("Sort field (e.g. created_at, priority, status, name, duration_seconds)")),
		mcp.WithString("sort_direction", mcp.Description("asc or desc")),
		mcp.WithNumber("limit", mcp.Description("Cap the number of rows returned")),
		mcp.WithOutputSchema[JobsResponse](),
	), mcp.NewStructuredToolHandler(s.handleListJobs))

	// TOOL: list_agents
	s.mcpServer.AddTool(mcp.NewTool("list_agents",
		mcp.WithDescription("List worker agents, optionally filtered and sorted."),
		mcp.WithString("status", mcp.Description("Filter by status (healthy, degraded, offline)")),
		mcp.WithString("pool", mcp.Description("Filter by pool")),
		mcp.WithString("region", mcp.Description("Filter by region")),
		mcp.WithString("sort_by", mcp.Description("Sort field (e.g. name, status, last_heartbeat)")),
		mcp.WithString("sort_direction", mcp.Description("asc or desc")),
		mcp.WithNumber("limit", mcp.Description("Cap the number of rows returned")),
		mcp.WithOutputSchema[AgentsResponse](),
	), mcp.NewStructuredToolHandler(s.handleListAgents))

	// TOOL: list_deployments
	s.mcpServer.AddTool(mcp.NewTool("list_deployments",
		mcp.WithDescription("List service deployments, optionally filtered and sorted."),
		mcp.WithString("status", mcp.Description("Filter by status (pending, staging, staged, production, live, failed, rolled_back)")),
		mcp.WithString("region", mcp.Description("Filter by region")),
		mcp.WithString("search", mcp.Description("Case-insensitive substring match on the service name")),
		mcp.WithString("sort_by", mcp.Description("Sort field (e.g. created_at, service_name, status)")),
		mcp.WithString("sort_direction", mcp.Description("asc or desc")),
		mcp.WithNumber("limit", mcp.Description("Cap the number of rows returned")),
		mcp.WithOutputSchema[DeploymentsResponse](),
	), mcp.NewStructuredToolHandler(s.handleListDeployments))

	// TOOL: list_queue
	s.mcpServer.AddTool(mcp.NewTool("list_queue",
		mcp.WithDescription("List work queue entries, optionally filtered and sorted."),
		mcp.WithString("status", mcp.Description("Filter by status (queued, claimed, running, completed, failed, dead_lettered)")),
		mcp.WithString("pool", mcp.Description("Filter by pool")),
		mcp.WithString("sort_by", mcp.Description("Sort field (e.g. enqueued_at, priority, status)")),
		mcp.WithString("sort_direction", mcp.Description("asc or desc")),
		mcp.WithNumber("limit", mcp.Description("Cap the number of rows returned")),
		mcp.WithOutputSchema[QueueResponse](),
	), mcp.NewStructuredToolHandler(s.handleListQueue))

	// TOOL: queue_stats
	s.mcpServer.AddTool(mcp.NewTool("queue_stats",
		mcp.WithDescription("Get aggregate queue health: depth per status, wait and execution times, failure rate."),
		mcp.WithOutputSchema[StatsResponse](),
	), mcp.NewStructuredToolHandler(s.handleQueueStats))

	// TOOL: enqueue_job
	s.mcpServer.AddTool(mcp.NewTool("enqueue_job",
		mcp.WithDescription("Submit a new job to the dashboard."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Human-readable job name")),
		mcp.WithString("type", mcp.Required(), mcp.Description("Job type (e.g. build, test, deploy, batch)")),
		mcp.WithString("priority", mcp.Description("low, normal, high or critical (default normal)")),
		mcp.WithString("region", mcp.Description("Target region")),
		mcp.WithOutputSchema[JobResponse](),
	), mcp.NewStructuredToolHandler(s.handleEnqueueJob))
}

type listArgs struct {
	Status   string `mapstructure:"status"`
	Priority string `mapstructure:"priority"`
	Region   string `mapstructure:"region"`
	Pool     string `mapstructure:"pool"`
	Search   string `mapstructure:"search"`
	SortBy   string `mapstructure:"sort_by"`
	SortDir  string `mapstructure:"sort_direction"`
	Limit    int    `mapstructure:"limit"`
}

func (a listArgs) filters() *domain.FilterOptions {
	if a.Status == "" && a.Priority == "" && a.Region == "" && a.Pool == "" && a.Search == "" {
		return nil
	}
	return &domain.FilterOptions{
		Status:   a.Status,
		Priority: a.Priority,
		Region:   a.Region,
		PoolID:   a.Pool,
		Search:   a.Search,
	}
}

func (a listArgs) sort() *domain.SortOptions {
	if a.SortBy == "" {
		return nil
	}
	return &domain.SortOptions{Field: a.SortBy, Direction: domain.SortDirection(a.SortDir)}
}

// decodeArgs maps loosely typed MCP arguments onto a typed struct. JSON
// numbers arrive as float64, so decoding is weakly typed.
func decodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(args)
}

func capRows[T any](rows []T, limit int) []T {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}

func (s *Server) handleListJobs(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (JobsResponse, error) {
	var a listArgs
	if err := decodeArgs(args, &a); err != nil {
		return JobsResponse{}, fmt.Errorf("invalid arguments: %w", err)
	}
	jobs, err := s.jobs.Execute(ctx, a.filters(), a.sort())
	if err != nil {
		return JobsResponse{}, fmt.Errorf("list jobs failed: %w", err)
	}
	jobs = capRows(jobs, a.Limit)
	return JobsResponse{Jobs: jobs, Count: len(jobs)}, nil
}

func (s *Server) handleListAgents(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (AgentsResponse, error) {
	var a listArgs
	if err := decodeArgs(args, &a); err != nil {
		return AgentsResponse{}, fmt.Errorf("invalid arguments: %w", err)
	}
	agents, err := s.agents.Execute(ctx, a.filters(), a.sort())
	if err != nil {
		return AgentsResponse{}, fmt.Errorf("list agents failed: %w", err)
	}
	agents = capRows(agents, a.Limit)
	return AgentsResponse{Agents: agents, Count: len(agents)}, nil
}

func (s *Server) handleListDeployments(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (DeploymentsResponse, error) {
	var a listArgs
	if err := decodeArgs(args, &a); err != nil {
		return DeploymentsResponse{}, fmt.Errorf("invalid arguments: %w", err)
	}
	deployments, err := s.deployments.Execute(ctx, a.filters(), a.sort())
	if err != nil {
		return DeploymentsResponse{}, fmt.Errorf("list deployments failed: %w", err)
	}
	deployments = capRows(deployments, a.Limit)
	return DeploymentsResponse{Deployments: deployments, Count: len(deployments)}, nil
}

func (s *Server) handleListQueue(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (QueueResponse, error) {
	var a listArgs
	if err := decodeArgs(args, &a); err != nil {
		return QueueResponse{}, fmt.Errorf("invalid arguments: %w", err)
	}
	jobs, err := s.queue.Execute(ctx, a.filters(), a.sort())
	if err != nil {
		return QueueResponse{}, fmt.Errorf("list queue failed: %w", err)
	}
	jobs = capRows(jobs, a.Limit)
	return QueueResponse{Jobs: jobs, Count: len(jobs)}, nil
}

func (s *Server) handleQueueStats(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (StatsResponse, error) {
	stats, err := s.queue.Stats(ctx)
	if err != nil {
		return StatsResponse{}, fmt.Errorf("queue stats failed: %w", err)
	}
	return StatsResponse{Stats: stats}, nil
}

type enqueueArgs struct {
	Name     string `mapstructure:"name"`
	Type     string `mapstructure:"type"`
	Priority string `mapstructure:"priority"`
	Region   string `mapstructure:"region"`
}

func (s *Server) handleEnqueueJob(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (JobResponse, error) {
	var a enqueueArgs
	if err := decodeArgs(args, &a); err != nil {
		return JobResponse{}, fmt.Errorf("invalid arguments: %w", err)
	}
	if a.Name == "" || a.Type == "" {
		return JobResponse{}, fmt.Errorf("name and type are required")
	}

	job, err := s.jobs.Enqueue(ctx, ports.JobRequest{
		Name:     a.Name,
		Type:     a.Type,
		Priority: domain.JobPriority(a.Priority),
		Region:   a.Region,
	})
	if err != nil {
		return JobResponse{}, fmt.Errorf("enqueue failed: %w", err)
	}
	s.logger.Info("job enqueued via mcp", "job", job.ID)
	return JobResponse{Job: job}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: opsdeck://dashboard
	s.mcpServer.AddResource(mcp.NewResource("opsdeck://dashboard", "Dashboard Snapshot",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jobs, err := s.jobs.Execute(ctx, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list jobs: %w", err)
		}
		agents, err := s.agents.Execute(ctx, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list agents: %w", err)
		}
		deployments, err := s.deployments.Execute(ctx, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list deployments: %w", err)
		}
		queued, err := s.queue.Execute(ctx, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list queue: %w", err)
		}
		stats, err := s.queue.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to compute queue stats: %w", err)
		}

		jsonBytes, _ := json.Marshal(struct {
			Jobs        []domain.Job        `json:"jobs"`
			Agents      []domain.Agent      `json:"agents"`
			Deployments []domain.Deployment `json:"deployments"`
			Queue       []domain.QueuedJob  `json:"queue"`
			Stats       *domain.QueueStats  `json:"stats"`
		}{jobs, agents, deployments, queued, stats})

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "opsdeck://dashboard",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
