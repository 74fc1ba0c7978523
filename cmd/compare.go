// -- cmd/compare.go --
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pbartkiw/aviary/internal/observability"
	"github.com/pbartkiw/aviary/internal/provider"
	"github.com/pbartkiw/aviary/internal/scrape"
)

var compareMaxQuotes int

var compareCmd = &cobra.Command{
	Use:   "compare [provider]",
	Short: "Run the quote workload on every configured provider",
	Long: `Runs the same scraping workload on each configured provider, one at a
time, and writes a combined comparison document to the output directory.
With a provider argument only that provider is run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore()
		if err != nil {
			return err
		}
		reg := newRegistry(store)

		var connectors []provider.Connector
		if len(args) == 1 {
			conn, err := reg.Lookup(args[0])
			if err != nil {
				return err
			}
			connectors = []provider.Connector{conn}
		} else {
			connectors = reg.Available()
			if len(connectors) == 0 {
				return fmt.Errorf("no providers are configured: set at least one of BROWSERBASE_API_KEY, HYPERBROWSER_API_KEY, STEEL_API_KEY")
			}
		}

		opts := scrape.CompareOptions{MaxQuotes: compareMaxQuotes}
		comparison, err := scrape.Compare(cmd.Context(), connectors, store, opts, observability.GetLogger())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, conn := range connectors {
			outcome := comparison.Outcomes[conn.Name()]
			if outcome.Error != "" {
				fmt.Fprintf(out, "%-14s failed after %dms: %s\n", outcome.Provider, outcome.DurationMS, outcome.Error)
				continue
			}
			fmt.Fprintf(out, "%-14s %d quotes in %dms\n", outcome.Provider, len(outcome.Quotes), outcome.DurationMS)
		}
		if comparison.JSONPath != "" {
			fmt.Fprintf(out, "Combined results: %s\n", comparison.JSONPath)
		}
		return nil
	},
}

func init() {
	compareCmd.Flags().IntVar(&compareMaxQuotes, "max-quotes", 5, "quotes to keep per provider")
	rootCmd.AddCommand(compareCmd)
}
