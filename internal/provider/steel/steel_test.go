package steel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pbartkiw/aviary/internal/config"
	"github.com/pbartkiw/aviary/internal/provider"
)

func testNetwork() config.NetworkConfig {
	return config.NewDefaultConfig().Network
}

func TestConfigured(t *testing.T) {
	assert.True(t, New(config.SteelConfig{APIKey: "steel-key"}, testNetwork(), nil, nil).Configured())
	assert.False(t, New(config.SteelConfig{}, testNetwork(), nil, nil).Configured())
}

func TestOpen_MissingKeyMakesNoNetworkCalls(t *testing.T) {
	tripwire := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s %s", r.Method, r.URL.Path)
	}))
	defer tripwire.Close()

	conn := New(config.SteelConfig{BaseURL: tripwire.URL}, testNetwork(), nil, zaptest.NewLogger(t))

	_, err := conn.Open(context.Background())
	var cfgErr *provider.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{"STEEL_API_KEY"}, cfgErr.Missing)
}

func TestOpen_CreatesSessionWithAPIKeyHeader(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/sessions", r.URL.Path)
		gotKey = r.Header.Get("steel-api-key")
		// No websocketUrl keeps Open from dialing CDP.
		_, _ = w.Write([]byte(`{"id":"st-1","status":"live"}`))
	}))
	defer server.Close()

	conn := New(config.SteelConfig{APIKey: "steel-key", BaseURL: server.URL}, testNetwork(), nil, zaptest.NewLogger(t))

	_, err := conn.Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no websocket URL")
	assert.Equal(t, "steel-key", gotKey)
}

// The CDP connection itself authenticates with an apiKey query parameter.
func TestAuthenticatedWSURL(t *testing.T) {
	conn := New(config.SteelConfig{APIKey: "steel-key"}, testNetwork(), nil, nil)

	got, err := conn.authenticatedWSURL("wss://connect.steel.dev?sessionId=st-1")
	require.NoError(t, err)
	assert.Contains(t, got, "apiKey=steel-key")
	assert.Contains(t, got, "sessionId=st-1")
}
