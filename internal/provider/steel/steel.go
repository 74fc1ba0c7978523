// File: internal/provider/steel/steel.go
//
// Package steel binds the Steel session API to the shared CDP driver.
// Steel authenticates the WebSocket connection itself with an apiKey
// query parameter in addition to the REST header.
package steel

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/pbartkiw/aviary/internal/config"
	"github.com/pbartkiw/aviary/internal/output"
	"github.com/pbartkiw/aviary/internal/provider"
	"github.com/pbartkiw/aviary/internal/provider/cdpdriver"
	"github.com/pbartkiw/aviary/internal/provider/httpapi"
)

const Name = "steel"

type sessionResponse struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	WebsocketURL     string `json:"websocketUrl"`
	SessionViewerURL string `json:"sessionViewerUrl"`
}

// Connector creates Steel sessions. Implements provider.Connector.
type Connector struct {
	cfg     config.SteelConfig
	network config.NetworkConfig
	store   *output.Store
	logger  *zap.Logger

	transport http.RoundTripper
}

// New builds a connector from config.
func New(cfg config.SteelConfig, network config.NetworkConfig, store *output.Store, logger *zap.Logger) *Connector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connector{cfg: cfg, network: network, store: store, logger: logger.Named(Name)}
}

func (c *Connector) Name() string     { return Name }
func (c *Connector) Protocol() string { return "cdp" }

// Configured reports whether the API key is set.
func (c *Connector) Configured() bool { return c.cfg.APIKey != "" }

// Open creates a session via POST /v1/sessions and dials the returned
// websocketUrl over CDP.
func (c *Connector) Open(ctx context.Context) (provider.Client, error) {
	if c.cfg.APIKey == "" {
		return nil, &provider.ConfigError{Provider: Name, Missing: []string{"STEEL_API_KEY"}}
	}

	api := c.api()
	var sess sessionResponse
	if err := api.PostJSON(ctx, "/v1/sessions", struct{}{}, &sess); err != nil {
		return nil, fmt.Errorf("creating steel session: %w", err)
	}
	if sess.WebsocketURL == "" {
		return nil, fmt.Errorf("steel session %s has no websocket URL (status %q)", sess.ID, sess.Status)
	}
	wsURL, err := c.authenticatedWSURL(sess.WebsocketURL)
	if err != nil {
		return nil, err
	}
	c.logger.Info("session created",
		zap.String("session_id", sess.ID),
		zap.String("viewer_url", sess.SessionViewerURL),
	)

	return cdpdriver.Dial(ctx, cdpdriver.Options{
		Name:         Name,
		WebSocketURL: wsURL,
		Release: func(ctx context.Context) error {
			if err := api.PostJSON(ctx, "/v1/sessions/"+sess.ID+"/release", nil, nil); err != nil {
				return err
			}
			c.logger.Info("session released", zap.String("session_id", sess.ID))
			return nil
		},
		NavigationTimeout: c.network.NavigationTimeout,
		ElementWait:       c.network.ElementWait,
		Store:             c.store,
		Logger:            c.logger,
	})
}

// authenticatedWSURL appends the apiKey query parameter Steel requires
// on the CDP connection.
func (c *Connector) authenticatedWSURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing steel websocket URL: %w", err)
	}
	q := u.Query()
	q.Set("apiKey", c.cfg.APIKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Connector) api() *httpapi.Client {
	return httpapi.New(httpapi.Config{
		BaseURL:        c.cfg.BaseURL,
		Headers:        map[string]string{"steel-api-key": c.cfg.APIKey},
		RequestTimeout: c.network.RequestTimeout,
		Transport:      c.transport,
		Logger:         c.logger,
	})
}
