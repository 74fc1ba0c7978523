// -- cmd/providers.go --
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the supported browser providers and their status",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore()
		if err != nil {
			return err
		}
		reg := newRegistry(store)

		out := cmd.OutOrStdout()
		for _, conn := range reg.All() {
			status := "not configured"
			if conn.Configured() {
				status = "configured"
			}
			fmt.Fprintf(out, "%-14s %-5s %s\n", conn.Name(), conn.Protocol(), status)
		}

		skyvernStatus := "not configured"
		if cfg.Providers.Skyvern.APIKey != "" {
			skyvernStatus = "configured"
		}
		fmt.Fprintf(out, "%-14s %-5s %s\n", "skyvern", "task", skyvernStatus)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
