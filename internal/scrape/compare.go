// File: internal/scrape/compare.go
package scrape

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pbartkiw/aviary/internal/output"
	"github.com/pbartkiw/aviary/internal/provider"
)

// defaultMaxQuotes caps how many quotes each provider scrapes during a
// comparison run, keeping per-provider session time short.
const defaultMaxQuotes = 5

// Outcome is the result of running the quote workload on one provider.
// Exactly one of Quotes and Error is meaningful.
type Outcome struct {
	Provider   string  `json:"provider"`
	Protocol   string  `json:"protocol"`
	Quotes     []Quote `json:"quotes,omitempty"`
	Error      string  `json:"error,omitempty"`
	DurationMS int64   `json:"duration_ms"`
	Screenshot string  `json:"screenshot,omitempty"`
}

// Comparison is the combined result across all providers.
type Comparison struct {
	RunID    string             `json:"run_id"`
	Outcomes map[string]Outcome `json:"outcomes"`
	JSONPath string             `json:"json_path,omitempty"`
}

// CompareOptions tune a comparison run.
type CompareOptions struct {
	// MaxQuotes caps the quotes scraped per provider; defaultMaxQuotes
	// if zero.
	MaxQuotes int
}

// Compare runs the quote workload on each connector in order, one
// session at a time. A provider failing does not stop the run; its
// outcome records the error and the next provider still executes. The
// combined results are written to the store as one JSON document.
func Compare(ctx context.Context, connectors []provider.Connector, store *output.Store, opts CompareOptions, logger *zap.Logger) (*Comparison, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(connectors) == 0 {
		return nil, fmt.Errorf("no providers are configured")
	}
	maxQuotes := opts.MaxQuotes
	if maxQuotes <= 0 {
		maxQuotes = defaultMaxQuotes
	}

	comparison := &Comparison{
		RunID:    uuid.NewString(),
		Outcomes: make(map[string]Outcome, len(connectors)),
	}
	logger.Info("starting multi-provider comparison",
		zap.String("run_id", comparison.RunID),
		zap.Int("providers", len(connectors)),
	)

	for _, conn := range connectors {
		outcome := runOne(ctx, conn, maxQuotes, logger)
		comparison.Outcomes[conn.Name()] = outcome
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	if store != nil {
		path, err := store.WriteJSON("multi-provider-comparison", comparison)
		if err != nil {
			return nil, err
		}
		comparison.JSONPath = path
	}
	return comparison, nil
}

// runOne opens a session on the connector, scrapes the first page of
// quotes, and screenshots it. Session teardown is guaranteed even when
// the workload fails.
func runOne(ctx context.Context, conn provider.Connector, maxQuotes int, logger *zap.Logger) Outcome {
	outcome := Outcome{
		Provider: conn.Name(),
		Protocol: conn.Protocol(),
	}
	start := time.Now()

	err := provider.WithClient(ctx, conn, func(client provider.Client) error {
		if err := client.Navigate(ctx, QuotesURL); err != nil {
			return err
		}
		html, err := client.PageSource(ctx)
		if err != nil {
			return err
		}
		quotes, err := ParseQuotes(html, 1)
		if err != nil {
			return err
		}
		if len(quotes) > maxQuotes {
			quotes = quotes[:maxQuotes]
		}
		outcome.Quotes = quotes

		shot, err := client.Screenshot(ctx, "quotes-"+conn.Name())
		if err != nil {
			logger.Warn("screenshot failed",
				zap.String("provider", conn.Name()),
				zap.Error(err),
			)
		} else {
			outcome.Screenshot = shot
		}
		return nil
	})

	outcome.DurationMS = time.Since(start).Milliseconds()
	if err != nil {
		outcome.Quotes = nil
		outcome.Error = err.Error()
		logger.Error("provider run failed",
			zap.String("provider", conn.Name()),
			zap.Error(err),
		)
	} else {
		logger.Info("provider run complete",
			zap.String("provider", conn.Name()),
			zap.Int("quotes", len(outcome.Quotes)),
			zap.Int64("duration_ms", outcome.DurationMS),
		)
	}
	return outcome
}
