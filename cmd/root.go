// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pbartkiw/aviary/internal/config"
	"github.com/pbartkiw/aviary/internal/observability"
	"github.com/pbartkiw/aviary/internal/output"
	"github.com/pbartkiw/aviary/internal/provider/registry"
)

var (
	cfgFile string

	// cfg is populated by the root command's PersistentPreRunE before
	// any subcommand runs.
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "aviary",
	Short: "Aviary drives cloud browser providers through one interface.",
	Long: `Aviary is a command line client for cloud browser automation services
(Browserbase, Hyperbrowser, Steel and Skyvern). It opens remote browser
sessions, runs scraping demos against them, and compares providers by
running the same workload on each one.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initializeConfig(); err != nil {
			return err
		}

		loaded, err := config.NewConfigFromViper(viper.GetViper())
		if err != nil {
			// Fall back to a console logger so the failure is visible.
			observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "aviary"})
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded

		observability.InitializeLogger(cfg.Logger)
		observability.GetLogger().Debug("starting aviary", zap.String("version", Version))
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the root command under the given context and returns the
// command error, leaving exit codes to main.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		observability.GetLogger().Error("command failed", zap.Error(err))
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// initializeConfig reads in the config file and environment variables.
func initializeConfig() error {
	v := viper.GetViper()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("AVIARY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults plus environment variables apply.
	}
	return nil
}

// newStore opens the configured output directory.
func newStore() (*output.Store, error) {
	return output.NewStore(cfg.Output.Dir)
}

// newRegistry assembles the CDP provider registry from the loaded config.
func newRegistry(store *output.Store) *registry.Registry {
	return registry.New(cfg, store, observability.GetLogger())
}
