package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, "aviary", cfg.Logger.ServiceName)
	assert.Equal(t, "outputs", cfg.Output.Dir)

	assert.Equal(t, 30*time.Second, cfg.Network.RequestTimeout)
	assert.Equal(t, 60*time.Second, cfg.Network.NavigationTimeout)
	assert.Equal(t, 10*time.Second, cfg.Network.ElementWait)

	assert.Equal(t, "https://api.browserbase.com", cfg.Providers.Browserbase.BaseURL)
	assert.Equal(t, "https://api.hyperbrowser.ai", cfg.Providers.Hyperbrowser.BaseURL)
	assert.Equal(t, "https://api.steel.dev", cfg.Providers.Steel.BaseURL)
	assert.Equal(t, "https://api.skyvern.com", cfg.Providers.Skyvern.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Providers.Skyvern.PollInterval)
	assert.Equal(t, 10*time.Minute, cfg.Providers.Skyvern.MaxRunTime)

	assert.Empty(t, cfg.Providers.Browserbase.APIKey, "no credentials by default")
	require.NoError(t, cfg.Validate())
}

// Vendor credentials come straight from the env vars the vendors
// document, with no AVIARY_ prefix.
func TestNewConfigFromViper_BindsVendorEnvVars(t *testing.T) {
	t.Setenv("BROWSERBASE_API_KEY", "bb-key")
	t.Setenv("BROWSERBASE_PROJECT_ID", "proj-1")
	t.Setenv("HYPERBROWSER_API_KEY", "hb-key")
	t.Setenv("STEEL_API_KEY", "steel-key")
	t.Setenv("SKYVERN_API_KEY", "sk-key")

	v := viper.New()
	SetDefaults(v)
	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "bb-key", cfg.Providers.Browserbase.APIKey)
	assert.Equal(t, "proj-1", cfg.Providers.Browserbase.ProjectID)
	assert.Equal(t, "hb-key", cfg.Providers.Hyperbrowser.APIKey)
	assert.Equal(t, "steel-key", cfg.Providers.Steel.APIKey)
	assert.Equal(t, "sk-key", cfg.Providers.Skyvern.APIKey)
}

func TestNewConfigFromViper_ExplicitSettingsOverrideDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("network.element_wait", "3s")
	v.Set("output.dir", "artifacts")

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Network.ElementWait)
	assert.Equal(t, "artifacts", cfg.Output.Dir)
}

func TestNewConfigFromViper_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"empty output dir", "output.dir", ""},
		{"zero request timeout", "network.request_timeout", "0s"},
		{"negative navigation timeout", "network.navigation_timeout", "-5s"},
		{"zero element wait", "network.element_wait", "0s"},
		{"zero poll interval", "providers.skyvern.poll_interval", "0s"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			v.Set(tc.key, tc.value)

			_, err := NewConfigFromViper(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}
}

func TestValidate_DefaultIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.NoError(t, cfg.Validate())
}
