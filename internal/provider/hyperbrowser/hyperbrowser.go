// File: internal/provider/hyperbrowser/hyperbrowser.go
//
// Package hyperbrowser binds the Hyperbrowser session API to the shared
// CDP driver. Hyperbrowser exposes only a CDP wsEndpoint, so there is no
// WebDriver variant of this binding.
package hyperbrowser

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

const Name = "hyperbrowser"

type sessionResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	WSEndpoint string `json:"wsEndpoint"`
}

// Connector creates Hyperbrowser sessions. Implements provider.Connector.
type Connector struct {
	cfg     config.HyperbrowserConfig
	network config.NetworkConfig
	store   *output.Store
	logger  *zap.Logger

	transport http.RoundTripper
}

// New builds a connector from config.
func New(cfg config.HyperbrowserConfig, network config.NetworkConfig, store *output.Store, logger *zap.Logger) *Connector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connector{cfg: cfg, network: network, store: store, logger: logger.Named(Name)}
}

func (c *Connector) Name() string     { return Name }
func (c *Connector) Protocol() string { return "cdp" }

// Configured reports whether the API key is set.
func (c *Connector) Configured() bool { return c.cfg.APIKey != "" }

// Open creates a session via POST /api/session and dials the returned
// wsEndpoint over CDP.
func (c *Connector) Open(ctx context.Context) (provider.Client, error) {
	if c.cfg.APIKey == "" {
		return nil, &provider.ConfigError{Provider: Name, Missing: []string{"HYPERBROWSER_API_KEY"}}
	}

	api := c.api()
	var sess sessionResponse
	if err := api.PostJSON(ctx, "/api/session", nil, &sess); err != nil {
		return nil, fmt.Errorf("creating hyperbrowser session: %w", err)
	}
	if sess.WSEndpoint == "" {
		return nil, fmt.Errorf("hyperbrowser session %s has no websocket endpoint (status %q)", sess.ID, sess.Status)
	}
	c.logger.Info("session created", zap.String("session_id", sess.ID))

	return cdpdriver.Dial(ctx, cdpdriver.Options{
		Name:         Name,
		WebSocketURL: sess.WSEndpoint,
		Release: func(ctx context.Context) error {
			if err := api.PutJSON(ctx, "/api/session/"+sess.ID+"/stop", nil, nil); err != nil {
				return err
			}
			c.logger.Info("session stopped", zap.String("session_id", sess.ID))
			return nil
		},
		NavigationTimeout: c.network.NavigationTimeout,
		ElementWait:       c.network.ElementWait,
		Store:             c.store,
		Logger:            c.logger,
	})
}

func (c *Connector) api() *httpapi.Client {
	return httpapi.New(httpapi.Config{
		BaseURL:        c.cfg.BaseURL,
		Headers:        map[string]string{"x-api-key": c.cfg.APIKey},
		RequestTimeout: c.network.RequestTimeout,
		Transport:      c.transport,
		Logger:         c.logger,
	})
}
