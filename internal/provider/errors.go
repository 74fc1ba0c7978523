// File: internal/provider/errors.go
package provider

import (
	"fmt"
	"strings"
	"time"
)

// ConfigError reports missing provider credentials. Constructors return it
// before touching the network.
type ConfigError struct {
	Provider string
	Missing  []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %s is not configured: set %s", e.Provider, strings.Join(e.Missing, " and "))
}

// NavigationError reports a failed page load: a non-2xx status, a timeout,
// or a transport failure surfaced by the browser.
type NavigationError struct {
	URL    string
	Status int64
	Err    error
}

func (e *NavigationError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("navigation to %s failed with status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// NotFoundError reports an element lookup that found nothing within the
// implicit wait.
type NotFoundError struct {
	Selector string
	Wait     time.Duration
	Err      error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no element matching '%s' after %s", e.Selector, e.Wait)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// UnsupportedError reports a request for a provider this build does not
// know. The message names the valid set as the remedy.
type UnsupportedError struct {
	Name  string
	Known []string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unknown provider '%s': supported providers are %s", e.Name, strings.Join(e.Known, ", "))
}
