// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Output    OutputConfig    `mapstructure:"output" yaml:"output"`
	Network   NetworkConfig   `mapstructure:"network" yaml:"network"`
	Providers ProvidersConfig `mapstructure:"providers" yaml:"providers"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" yaml:"fatal"`
}

// OutputConfig controls where screenshots and scrape results are written.
type OutputConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// NetworkConfig tunes timeouts applied to remote browser operations.
type NetworkConfig struct {
	// RequestTimeout bounds a single vendor REST API call.
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	// NavigationTimeout bounds a single page load.
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	// ElementWait is the implicit wait applied to element lookups before
	// they fail with a not-found error.
	ElementWait time.Duration `mapstructure:"element_wait" yaml:"element_wait"`
}

// ProvidersConfig is a container for all vendor credentials and endpoints.
type ProvidersConfig struct {
	Browserbase  BrowserbaseConfig  `mapstructure:"browserbase" yaml:"browserbase"`
	Hyperbrowser HyperbrowserConfig `mapstructure:"hyperbrowser" yaml:"hyperbrowser"`
	Steel        SteelConfig        `mapstructure:"steel" yaml:"steel"`
	Skyvern      SkyvernConfig      `mapstructure:"skyvern" yaml:"skyvern"`
}

// BrowserbaseConfig holds the credentials for Browserbase remote sessions.
type BrowserbaseConfig struct {
	APIKey    string `mapstructure:"api_key" yaml:"-"`
	ProjectID string `mapstructure:"project_id" yaml:"project_id"`
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"`
}

// HyperbrowserConfig holds the credentials for Hyperbrowser remote sessions.
type HyperbrowserConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"-"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// SteelConfig holds the credentials for Steel remote sessions.
type SteelConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"-"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// SkyvernConfig holds the credentials and polling behavior for the
// Skyvern task API.
type SkyvernConfig struct {
	APIKey       string        `mapstructure:"api_key" yaml:"-"`
	BaseURL      string        `mapstructure:"base_url" yaml:"base_url"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	MaxRunTime   time.Duration `mapstructure:"max_run_time" yaml:"max_run_time"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "aviary")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Output --
	v.SetDefault("output.dir", "outputs")

	// -- Network --
	v.SetDefault("network.request_timeout", "30s")
	v.SetDefault("network.navigation_timeout", "60s")
	v.SetDefault("network.element_wait", "10s")

	// -- Providers --
	v.SetDefault("providers.browserbase.base_url", "https://api.browserbase.com")
	v.SetDefault("providers.hyperbrowser.base_url", "https://api.hyperbrowser.ai")
	v.SetDefault("providers.steel.base_url", "https://api.steel.dev")
	v.SetDefault("providers.skyvern.base_url", "https://api.skyvern.com")
	v.SetDefault("providers.skyvern.poll_interval", "2s")
	v.SetDefault("providers.skyvern.max_run_time", "10m")
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with defaults only.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a validated configuration instance from a viper object.
// Vendor credentials are bound to the env vars the vendors document, so an
// existing .env-style setup keeps working without an aviary config file.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	v.BindEnv("providers.browserbase.api_key", "BROWSERBASE_API_KEY")
	v.BindEnv("providers.browserbase.project_id", "BROWSERBASE_PROJECT_ID")
	v.BindEnv("providers.hyperbrowser.api_key", "HYPERBROWSER_API_KEY")
	v.BindEnv("providers.steel.api_key", "STEEL_API_KEY")
	v.BindEnv("providers.skyvern.api_key", "SKYVERN_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must not be empty")
	}
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("network.request_timeout must be a positive duration")
	}
	if c.Network.NavigationTimeout <= 0 {
		return fmt.Errorf("network.navigation_timeout must be a positive duration")
	}
	if c.Network.ElementWait <= 0 {
		return fmt.Errorf("network.element_wait must be a positive duration")
	}
	if c.Providers.Skyvern.PollInterval <= 0 {
		return fmt.Errorf("providers.skyvern.poll_interval must be a positive duration")
	}
	if c.Providers.Skyvern.MaxRunTime <= 0 {
		return fmt.Errorf("providers.skyvern.max_run_time must be a positive duration")
	}
	return nil
}
