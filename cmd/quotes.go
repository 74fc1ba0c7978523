// -- cmd/quotes.go --
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pbartkiw/aviary/internal/observability"
	"github.com/pbartkiw/aviary/internal/provider"
	"github.com/pbartkiw/aviary/internal/scrape"
)

var (
	quotesProvider string
	quotesPages    int
)

var quotesCmd = &cobra.Command{
	Use:   "quotes",
	Short: "Scrape quotes from quotes.toscrape.com",
	Long: `Opens a session on the chosen provider and scrapes quotes, authors and
tags from quotes.toscrape.com, following pagination for the requested
number of pages. Results are written to the output directory as JSON
along with a screenshot of the last page.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore()
		if err != nil {
			return err
		}
		conn, err := newRegistry(store).Lookup(quotesProvider)
		if err != nil {
			return err
		}

		var result *scrape.QuotesResult
		err = provider.WithClient(cmd.Context(), conn, func(client provider.Client) error {
			result, err = scrape.Quotes(cmd.Context(), client, store, quotesPages, observability.GetLogger())
			return err
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Provider:      %s\n", conn.Name())
		fmt.Fprintf(out, "Pages scraped: %d\n", result.Pages)
		fmt.Fprintf(out, "Quotes:        %d\n", len(result.Quotes))
		fmt.Fprintf(out, "Authors:       %s\n", strings.Join(result.Authors(), ", "))
		fmt.Fprintf(out, "Tags:          %s\n", strings.Join(result.Tags(), ", "))
		if result.JSONPath != "" {
			fmt.Fprintf(out, "Saved to:      %s\n", result.JSONPath)
		}
		if result.Screenshot != "" {
			fmt.Fprintf(out, "Screenshot:    %s\n", result.Screenshot)
		}
		return nil
	},
}

func init() {
	quotesCmd.Flags().StringVarP(&quotesProvider, "provider", "p", "browserbase", "provider to open the session on")
	quotesCmd.Flags().IntVarP(&quotesPages, "pages", "n", 2, "number of pages to scrape")
	rootCmd.AddCommand(quotesCmd)
}
