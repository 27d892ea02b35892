// Package rest implements the collaborator APIs over HTTP. One client per
// resource, all sharing the same request plumbing: JSON in, JSON out, and
// every failure reported as a *pipeline.ExternalCallError so the fetch and
// mutation links can surface collaborator trouble without translation.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/opsdeck/opsdeck/pkg/pipeline"
	"github.com/opsdeck/opsdeck/pkg/ports"
)

const defaultTimeout = 15 * time.Second

// Config holds the settings shared by the resource clients.
type Config struct {
	// BaseURL is the collaborator's root URL (e.g. "http://localhost:8000").
	// Paths are appended verbatim, so it should not carry a trailing slash.
	BaseURL string
	// HTTPClient is used for all requests. If nil, a client with a 15s
	// timeout is used.
	HTTPClient *http.Client
	// Logger receives request-level debug logging. If nil, logs are dropped.
	Logger *slog.Logger
}

// client is the shared transport under the four resource clients.
type client struct {
	baseURL  string
	http     *http.Client
	logger   *slog.Logger
	resource string
}

func newClient(resource string, cfg Config) (*client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("rest: BaseURL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("rest: invalid BaseURL %q: %w", cfg.BaseURL, err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	return &client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     httpClient,
		logger:   logger.With("resource", resource),
		resource: resource,
	}, nil
}

// do performs one request. A non-nil in is sent as a JSON body; a non-nil out
// receives the decoded 2xx response. Transport failures come back with Status
// zero, HTTP failures with the response status.
func (c *client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("rest: encoding %s %s body: %w", method, path, err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return fmt.Errorf("rest: building %s %s request: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &pipeline.ExternalCallError{Resource: c.resource, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &pipeline.ExternalCallError{Resource: c.resource, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug("collaborator call failed",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
		)
		return &pipeline.ExternalCallError{Resource: c.resource, Status: resp.StatusCode}
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("rest: decoding %s %s response: %w", method, path, err)
		}
	}
	return nil
}

// listQuery maps the paging hints onto the collaborators' shared query
// parameters. The queue and agents services key pools by name on the wire.
func listQuery(opts ports.ListOptions) url.Values {
	query := url.Values{}
	if opts.Status != "" {
		query.Set("status", opts.Status)
	}
	if opts.PoolID != "" {
		query.Set("pool_name", opts.PoolID)
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		query.Set("offset", strconv.Itoa(opts.Offset))
	}
	return query
}
