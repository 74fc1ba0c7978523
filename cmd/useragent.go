// -- cmd/useragent.go --
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pbartkiw/aviary/internal/observability"
	"github.com/pbartkiw/aviary/internal/provider"
	"github.com/pbartkiw/aviary/internal/scrape"
)

var userAgentProvider string

var userAgentCmd = &cobra.Command{
	Use:   "useragent",
	Short: "Detect the user agent a remote browser presents",
	Long: `Opens a session on the chosen provider, navigates to the user agent
detection page, and reports the user agent string the remote browser
presents, with browser and OS details when the page exposes them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore()
		if err != nil {
			return err
		}
		conn, err := newRegistry(store).Lookup(userAgentProvider)
		if err != nil {
			return err
		}

		var report *scrape.UserAgentReport
		err = provider.WithClient(cmd.Context(), conn, func(client provider.Client) error {
			report, err = scrape.UserAgent(cmd.Context(), client, store, observability.GetLogger())
			return err
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Provider:   %s\n", conn.Name())
		fmt.Fprintf(out, "Page title: %s\n", report.Title)
		fmt.Fprintf(out, "User agent: %s (from %s)\n", report.UserAgent, report.Source)
		if report.BrowserName != "" {
			fmt.Fprintf(out, "Browser:    %s %s\n", report.BrowserName, report.BrowserVersion)
		}
		if report.OSName != "" {
			fmt.Fprintf(out, "OS:         %s\n", report.OSName)
		}
		if report.Screenshot != "" {
			fmt.Fprintf(out, "Screenshot: %s\n", report.Screenshot)
		}
		if report.JSONPath != "" {
			fmt.Fprintf(out, "Report:     %s\n", report.JSONPath)
		}
		return nil
	},
}

func init() {
	userAgentCmd.Flags().StringVarP(&userAgentProvider, "provider", "p", "browserbase", "provider to open the session on")
	rootCmd.AddCommand(userAgentCmd)
}
