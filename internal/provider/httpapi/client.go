// File: internal/provider/httpapi/client.go
package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// DefaultRequestTimeout bounds a single vendor API call end to end.
	DefaultRequestTimeout = 30 * time.Second

	// Vendor control planes all rate-limit session creation. A small
	// steady allowance with a burst of a few keeps us well under every
	// documented limit without serializing unrelated calls.
	defaultRateLimit = rate.Limit(5)
	defaultRateBurst = 5

	// Error bodies are kept short in StatusError; vendors return small
	// JSON problem documents, so this is only a guard against misrouted
	// responses (HTML error pages, proxies).
	maxErrorBodyBytes = 4 << 10
)

// StatusError reports a non-2xx response from a vendor API, including a
// truncated copy of the response body for diagnostics.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.Status, body)
}

// Client is a small JSON-over-HTTP helper shared by the vendor session
// APIs. It applies a base URL, a fixed set of headers (API keys), a
// client side rate limiter, and decodes JSON responses.
//
// Safe for concurrent use.
type Client struct {
	baseURL string
	headers map[string]string
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// Config configures a vendor API client.
type Config struct {
	// BaseURL is the scheme and host of the vendor API, without a
	// trailing slash. Required.
	BaseURL string

	// Headers are attached to every request. Use this for API key
	// headers such as "X-BB-API-Key".
	Headers map[string]string

	// RequestTimeout bounds each call; DefaultRequestTimeout if zero.
	RequestTimeout time.Duration

	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper

	Logger *zap.Logger
}

// New builds a Client from the given config.
func New(cfg Config) *Client {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		headers: headers,
		http: &http.Client{
			Timeout:   timeout,
			Transport: cfg.Transport,
		},
		limiter: rate.NewLimiter(defaultRateLimit, defaultRateBurst),
		logger:  cfg.Logger,
	}
}

// GetJSON performs a GET and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// PostJSON performs a POST with a JSON body (nil body allowed) and
// decodes the JSON response into out (nil out discards the body).
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// PutJSON performs a PUT with a JSON body (nil body allowed) and
// decodes the JSON response into out (nil out discards the body).
func (c *Client) PutJSON(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s request: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("vendor API call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &StatusError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Body:   string(snippet),
		}
	}

	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}
