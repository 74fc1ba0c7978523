// File: internal/provider/browserbase/browserbase.go
//
// Package browserbase binds the Browserbase session API to the shared
// CDP driver. Sessions are created over REST, driven over the returned
// connect URL, and explicitly released on close so they do not count
// against the project's concurrency limit until their idle timeout.
package browserbase

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/pbartkiw/aviary/internal/config"
	"github.com/pbartkiw/aviary/internal/output"
	"github.com/pbartkiw/aviary/internal/provider"
	"github.com/pbartkiw/aviary/internal/provider/cdpdriver"
	"github.com/pbartkiw/aviary/internal/provider/httpapi"
)

const Name = "browserbase"

type createSessionRequest struct {
	ProjectID string `json:"projectId"`
}

type sessionResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	ConnectURL string `json:"connectUrl"`
}

type updateSessionRequest struct {
	ProjectID string `json:"projectId"`
	Status    string `json:"status"`
}

// Connector creates Browserbase sessions. Implements provider.Connector.
type Connector struct {
	cfg     config.BrowserbaseConfig
	network config.NetworkConfig
	store   *output.Store
	logger  *zap.Logger

	// transport overrides the HTTP transport in tests.
	transport http.RoundTripper
}

// New builds a connector from config. Missing credentials are reported
// by Configured and by Open; construction never fails.
func New(cfg config.BrowserbaseConfig, network config.NetworkConfig, store *output.Store, logger *zap.Logger) *Connector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connector{cfg: cfg, network: network, store: store, logger: logger.Named(Name)}
}

func (c *Connector) Name() string     { return Name }
func (c *Connector) Protocol() string { return "cdp" }

// Configured reports whether the API key and project ID are both set.
func (c *Connector) Configured() bool {
	return c.cfg.APIKey != "" && c.cfg.ProjectID != ""
}

// Open creates a session via POST /v1/sessions and dials the returned
// connect URL over CDP.
func (c *Connector) Open(ctx context.Context) (provider.Client, error) {
	var missing []string
	if c.cfg.APIKey == "" {
		missing = append(missing, "BROWSERBASE_API_KEY")
	}
	if c.cfg.ProjectID == "" {
		missing = append(missing, "BROWSERBASE_PROJECT_ID")
	}
	if len(missing) > 0 {
		return nil, &provider.ConfigError{Provider: Name, Missing: missing}
	}

	api := c.api()
	var sess sessionResponse
	err := api.PostJSON(ctx, "/v1/sessions", createSessionRequest{ProjectID: c.cfg.ProjectID}, &sess)
	if err != nil {
		return nil, fmt.Errorf("creating browserbase session: %w", err)
	}
	if sess.ConnectURL == "" {
		return nil, fmt.Errorf("browserbase session %s has no connect URL (status %q)", sess.ID, sess.Status)
	}
	c.logger.Info("session created", zap.String("session_id", sess.ID))

	return cdpdriver.Dial(ctx, cdpdriver.Options{
		Name:              Name,
		WebSocketURL:      sess.ConnectURL,
		Release:           c.releaseFunc(api, sess.ID),
		NavigationTimeout: c.network.NavigationTimeout,
		ElementWait:       c.network.ElementWait,
		Store:             c.store,
		Logger:            c.logger,
	})
}

// releaseFunc requests session release so the slot frees immediately
// instead of waiting out the idle timeout.
func (c *Connector) releaseFunc(api *httpapi.Client, sessionID string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		body := updateSessionRequest{ProjectID: c.cfg.ProjectID, Status: "REQUEST_RELEASE"}
		if err := api.PostJSON(ctx, "/v1/sessions/"+sessionID, body, nil); err != nil {
			return err
		}
		c.logger.Info("session released", zap.String("session_id", sessionID))
		return nil
	}
}

func (c *Connector) api() *httpapi.Client {
	return httpapi.New(httpapi.Config{
		BaseURL:        c.cfg.BaseURL,
		Headers:        map[string]string{"X-BB-API-Key": c.cfg.APIKey},
		RequestTimeout: c.network.RequestTimeout,
		Transport:      c.transport,
		Logger:         c.logger,
	})
}
