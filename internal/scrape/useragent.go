// File: internal/scrape/useragent.go
package scrape

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pbartkiw/aviary/internal/output"
	"github.com/pbartkiw/aviary/internal/provider"
)

// UserAgentURL is the detection page the user agent demo reads.
const UserAgentURL = "https://gs.statcounter.com/detect"

// UserAgentReport is the result of a user agent detection run.
type UserAgentReport struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	UserAgent string `json:"user_agent"`
	// Source records whether the string came from the page markup or a
	// navigator.userAgent fallback.
	Source string `json:"source"`

	BrowserName    string `json:"browser_name,omitempty"`
	BrowserVersion string `json:"browser_version,omitempty"`
	OSName         string `json:"os_name,omitempty"`

	JSONPath   string `json:"json_path,omitempty"`
	Screenshot string `json:"screenshot,omitempty"`
}

// UserAgent navigates to the detection page and reads the user agent the
// remote browser presents. The page markup is the primary source; if the
// expected element never appears the string is read from the JavaScript
// runtime instead. Browser and OS details are best effort.
func UserAgent(ctx context.Context, client provider.Client, store *output.Store, logger *zap.Logger) (*UserAgentReport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := client.Navigate(ctx, UserAgentURL); err != nil {
		return nil, err
	}

	report := &UserAgentReport{}
	if title, err := client.Title(ctx); err == nil {
		report.Title = title
	}
	if loc, err := client.CurrentURL(ctx); err == nil {
		report.URL = loc
	}

	ua, err := client.Text(ctx, ".string-major")
	if err == nil && ua != "" {
		report.UserAgent = ua
		report.Source = "page"
	} else {
		logger.Warn("user agent element not readable, falling back to navigator", zap.Error(err))
		var jsUA string
		if err := client.ExecuteScript(ctx, "return navigator.userAgent;", &jsUA); err != nil {
			return nil, fmt.Errorf("reading user agent: %w", err)
		}
		report.UserAgent = jsUA
		report.Source = "javascript"
	}

	// The detail elements are not always rendered; missing ones are
	// simply left empty.
	if v, err := client.Text(ctx, ".browser-name"); err == nil {
		report.BrowserName = v
	}
	if v, err := client.Text(ctx, ".browser-version"); err == nil {
		report.BrowserVersion = v
	}
	if v, err := client.Text(ctx, ".os-name"); err == nil {
		report.OSName = v
	}

	logger.Info("user agent detected",
		zap.String("provider", client.Name()),
		zap.String("user_agent", report.UserAgent),
		zap.String("source", report.Source),
	)

	if store != nil {
		path, err := store.WriteJSON("user-agent", report)
		if err != nil {
			return nil, err
		}
		report.JSONPath = path

		shot, err := client.Screenshot(ctx, "user-agent-screenshot")
		if err != nil {
			logger.Warn("screenshot failed", zap.Error(err))
		} else {
			report.Screenshot = shot
		}
	}

	return report, nil
}
