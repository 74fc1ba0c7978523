// File: internal/provider/provider.go
//
// Package provider defines the capability interface shared by every cloud
// browser vendor binding, plus the registry used to select one at runtime.
// One interface, one concrete implementation per vendor SDK surface.
package provider

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
)

// Client is a live remote browser session. All methods are blocking and
// map to a single remote round trip; failures propagate the typed errors
// in errors.go without retries.
type Client interface {
	// Name identifies the vendor that issued the session.
	Name() string

	// Navigate loads a page and fails with a *NavigationError on non-2xx
	// responses or timeouts.
	Navigate(ctx context.Context, url string) error

	Title(ctx context.Context) (string, error)
	CurrentURL(ctx context.Context) (string, error)
	PageSource(ctx context.Context) (string, error)

	// FindElement returns a handle to the first element matching the CSS
	// selector, waiting up to the configured element wait before failing
	// with a *NotFoundError. Handles are owned by the underlying driver
	// and are not tracked beyond the call.
	FindElement(ctx context.Context, selector string) (*cdp.Node, error)
	FindElements(ctx context.Context, selector string) ([]*cdp.Node, error)

	Click(ctx context.Context, selector string) error
	TypeText(ctx context.Context, selector, text string) error

	// ExecuteScript evaluates JavaScript in the page and optionally
	// unmarshals the result into out.
	ExecuteScript(ctx context.Context, script string, out any) error

	Text(ctx context.Context, selector string) (string, error)
	Attribute(ctx context.Context, selector, name string) (string, error)
	ScrollTo(ctx context.Context, selector string) error

	// Screenshot captures the current viewport and returns the path the
	// PNG was written to.
	Screenshot(ctx context.Context, name string) (string, error)

	// Close releases the remote session. Safe to call more than once;
	// teardown happens exactly once.
	Close(ctx context.Context) error
}

// Connector is a configured-but-not-yet-opened provider. Construction is
// credential validation only; Open performs the first network call.
type Connector interface {
	Name() string
	// Protocol names the wire protocol the vendor session speaks ("cdp").
	Protocol() string
	// Configured reports whether the required credentials are present.
	Configured() bool
	// Open creates a remote session. Returns a *ConfigError without any
	// network activity when credentials are missing.
	Open(ctx context.Context) (Client, error)
}

// closeTimeout bounds session teardown when the caller's context is
// already dead.
const closeTimeout = 15 * time.Second

// WithClient opens a session on the connector, runs fn, and guarantees the
// session is closed exactly once on every exit path, including a panic in
// fn. The first error (open, fn, or close) wins.
func WithClient(ctx context.Context, c Connector, fn func(Client) error) (err error) {
	client, err := c.Open(ctx)
	if err != nil {
		return err
	}

	var closeOnce sync.Once
	closeClient := func() {
		closeOnce.Do(func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
			defer cancel()
			if cerr := client.Close(closeCtx); cerr != nil && err == nil {
				err = cerr
			}
		})
	}

	defer func() {
		if r := recover(); r != nil {
			closeClient()
			panic(r)
		}
		closeClient()
	}()

	err = fn(client)
	return err
}
