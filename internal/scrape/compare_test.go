package scrape

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pbartkiw/aviary/internal/output"
	"github.com/pbartkiw/aviary/internal/provider"
)

// scriptedConnector hands out a scriptedClient and records open order.
type scriptedConnector struct {
	name    string
	client  *scriptedClient
	openErr error
	opened  *[]string
}

func (c *scriptedConnector) Name() string     { return c.name }
func (c *scriptedConnector) Protocol() string { return "cdp" }
func (c *scriptedConnector) Configured() bool { return true }
func (c *scriptedConnector) Open(context.Context) (provider.Client, error) {
	if c.opened != nil {
		*c.opened = append(*c.opened, c.name)
	}
	if c.openErr != nil {
		return nil, c.openErr
	}
	return c.client, nil
}

func TestCompare_EveryProviderGetsAnOutcome(t *testing.T) {
	var opened []string
	good := &scriptedConnector{
		name:   "browserbase",
		client: &scriptedClient{name: "browserbase", pages: []string{quotesPageHTML(1, 10, true)}},
		opened: &opened,
	}
	bad := &scriptedConnector{
		name:    "steel",
		openErr: errors.New("session quota exceeded"),
		opened:  &opened,
	}
	store, err := output.NewStore(t.TempDir())
	require.NoError(t, err)

	comparison, err := Compare(context.Background(),
		[]provider.Connector{good, bad}, store, CompareOptions{}, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.Len(t, comparison.Outcomes, 2)
	assert.Equal(t, []string{"browserbase", "steel"}, opened, "providers run serially in order")
	assert.NotEmpty(t, comparison.RunID)
	assert.NotEmpty(t, comparison.JSONPath)

	success := comparison.Outcomes["browserbase"]
	assert.Empty(t, success.Error)
	assert.Len(t, success.Quotes, defaultMaxQuotes, "capped at the comparison limit")
	assert.NotEmpty(t, success.Screenshot)

	failure := comparison.Outcomes["steel"]
	assert.Contains(t, failure.Error, "session quota exceeded")
	assert.Empty(t, failure.Quotes, "a failed outcome carries no partial records")
}

func TestCompare_FailureDoesNotStopTheRun(t *testing.T) {
	var opened []string
	first := &scriptedConnector{name: "hyperbrowser", openErr: errors.New("boom"), opened: &opened}
	second := &scriptedConnector{
		name:   "steel",
		client: &scriptedClient{name: "steel", pages: []string{quotesPageHTML(1, 3, false)}},
		opened: &opened,
	}

	comparison, err := Compare(context.Background(),
		[]provider.Connector{first, second}, nil, CompareOptions{}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"hyperbrowser", "steel"}, opened)
	assert.Len(t, comparison.Outcomes["steel"].Quotes, 3)
}

func TestCompare_SessionsAreClosed(t *testing.T) {
	client := &scriptedClient{name: "browserbase", pages: []string{quotesPageHTML(1, 2, false)}}
	conn := &scriptedConnector{name: "browserbase", client: client}

	_, err := Compare(context.Background(),
		[]provider.Connector{conn}, nil, CompareOptions{}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, 1, client.closeCalls)
}

func TestCompare_MaxQuotesOption(t *testing.T) {
	client := &scriptedClient{name: "steel", pages: []string{quotesPageHTML(1, 10, false)}}
	conn := &scriptedConnector{name: "steel", client: client}

	comparison, err := Compare(context.Background(),
		[]provider.Connector{conn}, nil, CompareOptions{MaxQuotes: 2}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Len(t, comparison.Outcomes["steel"].Quotes, 2)
}

func TestCompare_NoProviders(t *testing.T) {
	_, err := Compare(context.Background(), nil, nil, CompareOptions{}, zaptest.NewLogger(t))
	assert.Error(t, err)
}
