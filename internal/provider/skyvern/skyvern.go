// File: internal/provider/skyvern/skyvern.go
//
// Package skyvern wraps the Skyvern task API. Skyvern does not hand out
// a browser endpoint; instead a natural language prompt is submitted as
// a task and the run is polled until it reaches a terminal status. It
// therefore sits outside the CDP provider registry and is exposed as its
// own command.
package skyvern

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pbartkiw/aviary/internal/config"
	"github.com/pbartkiw/aviary/internal/provider"
	"github.com/pbartkiw/aviary/internal/provider/httpapi"
)

const Name = "skyvern"

const (
	defaultPollInterval = 2 * time.Second
	defaultMaxRunTime   = 10 * time.Minute
)

// TaskRequest describes one automation task.
type TaskRequest struct {
	// URL is the page the task starts on.
	URL string
	// Prompt is the natural language instruction.
	Prompt string
	// ExtractionSchema, when set, is a JSON schema the run's output must
	// conform to.
	ExtractionSchema map[string]any
	// MaxSteps caps the number of agent steps; zero lets the service
	// decide.
	MaxSteps int
}

// RunResult is the terminal state of a task run.
type RunResult struct {
	RunID   string `json:"run_id"`
	Status  string `json:"status"`
	Output  any    `json:"output"`
	Failure string `json:"failure_reason,omitempty"`
}

// Succeeded reports whether the run finished in the completed state.
func (r *RunResult) Succeeded() bool { return r.Status == "completed" }

type createTaskRequest struct {
	Prompt               string         `json:"prompt"`
	URL                  string         `json:"url,omitempty"`
	DataExtractionSchema map[string]any `json:"data_extraction_schema,omitempty"`
	MaxSteps             int            `json:"max_steps,omitempty"`
}

type runResponse struct {
	RunID         string `json:"run_id"`
	Status        string `json:"status"`
	Output        any    `json:"output"`
	FailureReason string `json:"failure_reason"`
}

// terminalStatuses are the run states after which polling stops.
var terminalStatuses = map[string]bool{
	"completed":  true,
	"failed":     true,
	"terminated": true,
	"canceled":   true,
	"timed_out":  true,
}

// Client submits tasks to the Skyvern API and polls runs to completion.
type Client struct {
	cfg    config.SkyvernConfig
	api    *httpapi.Client
	logger *zap.Logger
}

// New builds a client from config. Returns a *provider.ConfigError when
// the API key is missing.
func New(cfg config.SkyvernConfig, network config.NetworkConfig, logger *zap.Logger) (*Client, error) {
	return newClient(cfg, network, logger, nil)
}

func newClient(cfg config.SkyvernConfig, network config.NetworkConfig, logger *zap.Logger, transport http.RoundTripper) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &provider.ConfigError{Provider: Name, Missing: []string{"SKYVERN_API_KEY"}}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.MaxRunTime <= 0 {
		cfg.MaxRunTime = defaultMaxRunTime
	}
	return &Client{
		cfg: cfg,
		api: httpapi.New(httpapi.Config{
			BaseURL:        cfg.BaseURL,
			Headers:        map[string]string{"x-api-key": cfg.APIKey},
			RequestTimeout: network.RequestTimeout,
			Transport:      transport,
			Logger:         logger.Named(Name),
		}),
		logger: logger.Named(Name),
	}, nil
}

// RunTask submits the task and blocks until the run reaches a terminal
// status or the run time budget expires.
func (c *Client) RunTask(ctx context.Context, req TaskRequest) (*RunResult, error) {
	if req.Prompt == "" {
		return nil, fmt.Errorf("skyvern task needs a prompt")
	}

	var created runResponse
	body := createTaskRequest{
		Prompt:               req.Prompt,
		URL:                  req.URL,
		DataExtractionSchema: req.ExtractionSchema,
		MaxSteps:             req.MaxSteps,
	}
	if err := c.api.PostJSON(ctx, "/v1/run/tasks", body, &created); err != nil {
		return nil, fmt.Errorf("creating skyvern task: %w", err)
	}
	c.logger.Info("task submitted", zap.String("run_id", created.RunID), zap.String("status", created.Status))

	return c.waitForRun(ctx, created)
}

// ExtractData navigates to the URL and extracts data matching the schema.
func (c *Client) ExtractData(ctx context.Context, url, prompt string, schema map[string]any) (*RunResult, error) {
	return c.RunTask(ctx, TaskRequest{URL: url, Prompt: prompt, ExtractionSchema: schema})
}

// AutomateWorkflow runs the steps as a single sequenced task.
func (c *Client) AutomateWorkflow(ctx context.Context, url string, steps []string) (*RunResult, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("skyvern workflow needs at least one step")
	}
	return c.RunTask(ctx, TaskRequest{URL: url, Prompt: strings.Join(steps, " Then, ")})
}

// ScrapeWithSchema extracts the named fields from a page. The fields map
// field names to JSON types, e.g. {"title": "string", "price": "number"}.
func (c *Client) ScrapeWithSchema(ctx context.Context, url string, fields map[string]string) (*RunResult, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("skyvern scrape needs at least one field")
	}
	properties := make(map[string]any, len(fields))
	names := make([]string, 0, len(fields))
	for name, typ := range fields {
		properties[name] = map[string]any{"type": typ}
		names = append(names, name)
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	prompt := "Extract the following information: " + strings.Join(names, ", ")
	return c.ExtractData(ctx, url, prompt, schema)
}

// waitForRun polls GET /v1/runs/{id} until the run is terminal.
func (c *Client) waitForRun(ctx context.Context, initial runResponse) (*RunResult, error) {
	runID := initial.RunID
	if runID == "" {
		return nil, fmt.Errorf("skyvern task response has no run ID")
	}

	deadline := time.Now().Add(c.cfg.MaxRunTime)
	current := initial
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for !terminalStatuses[current.Status] {
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("skyvern run %s still %q after %s", runID, current.Status, c.cfg.MaxRunTime)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
		if err := c.api.GetJSON(ctx, "/v1/runs/"+runID, &current); err != nil {
			return nil, fmt.Errorf("polling skyvern run %s: %w", runID, err)
		}
		c.logger.Debug("run polled", zap.String("run_id", runID), zap.String("status", current.Status))
	}

	result := &RunResult{
		RunID:   runID,
		Status:  current.Status,
		Output:  current.Output,
		Failure: current.FailureReason,
	}
	if !result.Succeeded() {
		c.logger.Warn("run finished unsuccessfully",
			zap.String("run_id", runID),
			zap.String("status", result.Status),
			zap.String("failure_reason", result.Failure),
		)
	} else {
		c.logger.Info("run completed", zap.String("run_id", runID))
	}
	return result, nil
}
