// File: internal/provider/registry/registry.go
//
// The registry assembles one connector per supported vendor from the
// application config and answers which of them are usable in this
// environment. Order is fixed so multi-provider runs are deterministic.
package registry

import (
	"go.uber.org/zap"

	"github.com/pbartkiw/aviary/internal/config"
	"github.com/pbartkiw/aviary/internal/output"
	"github.com/pbartkiw/aviary/internal/provider"
	"github.com/pbartkiw/aviary/internal/provider/browserbase"
	"github.com/pbartkiw/aviary/internal/provider/hyperbrowser"
	"github.com/pbartkiw/aviary/internal/provider/steel"
)

// Registry holds the connectors for every CDP-capable provider.
type Registry struct {
	connectors []provider.Connector
}

// New builds the registry from config. Connectors for providers with
// missing credentials are still present (so they can be listed), but
// report Configured() == false and are excluded from Available().
func New(cfg *config.Config, store *output.Store, logger *zap.Logger) *Registry {
	return &Registry{
		connectors: []provider.Connector{
			browserbase.New(cfg.Providers.Browserbase, cfg.Network, store, logger),
			hyperbrowser.New(cfg.Providers.Hyperbrowser, cfg.Network, store, logger),
			steel.New(cfg.Providers.Steel, cfg.Network, store, logger),
		},
	}
}

// FromConnectors builds a registry over the given connectors, in order.
// Used by tests and by restricted multi-provider runs.
func FromConnectors(connectors ...provider.Connector) *Registry {
	return &Registry{connectors: connectors}
}

// All returns every known connector in registration order.
func (r *Registry) All() []provider.Connector {
	return r.connectors
}

// Available returns the connectors whose required environment configuration
// is present, in registration order.
func (r *Registry) Available() []provider.Connector {
	var out []provider.Connector
	for _, c := range r.connectors {
		if c.Configured() {
			out = append(out, c)
		}
	}
	return out
}

// Names returns every known provider name in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.connectors))
	for _, c := range r.connectors {
		names = append(names, c.Name())
	}
	return names
}

// Lookup returns the connector with the given name, or an
// *provider.UnsupportedError naming the valid set.
func (r *Registry) Lookup(name string) (provider.Connector, error) {
	for _, c := range r.connectors {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, &provider.UnsupportedError{Name: name, Known: r.Names()}
}
