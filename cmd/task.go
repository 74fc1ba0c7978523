// -- cmd/task.go --
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pbartkiw/aviary/internal/observability"
	"github.com/pbartkiw/aviary/internal/provider/skyvern"
)

var (
	taskURL      string
	taskPrompt   string
	taskSteps    []string
	taskFields   []string
	taskMaxSteps int
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Run a natural language automation task on Skyvern",
	Long: `Submits a task to the Skyvern API and polls the run until it finishes.
The task is described in natural language with --prompt, as a sequence
of --step flags, or as a set of --field name=type pairs to extract
structured data from the page.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := skyvern.New(cfg.Providers.Skyvern, cfg.Network, observability.GetLogger())
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		var result *skyvern.RunResult
		switch {
		case len(taskFields) > 0:
			fields, err := parseFields(taskFields)
			if err != nil {
				return err
			}
			result, err = client.ScrapeWithSchema(ctx, taskURL, fields)
			if err != nil {
				return err
			}
		case len(taskSteps) > 0:
			result, err = client.AutomateWorkflow(ctx, taskURL, taskSteps)
			if err != nil {
				return err
			}
		case taskPrompt != "":
			result, err = client.RunTask(ctx, skyvern.TaskRequest{
				URL:      taskURL,
				Prompt:   taskPrompt,
				MaxSteps: taskMaxSteps,
			})
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("one of --prompt, --step or --field is required")
		}

		store, err := newStore()
		if err != nil {
			return err
		}
		path, err := store.WriteJSON("skyvern-task", result)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Run ID: %s\n", result.RunID)
		fmt.Fprintf(out, "Status: %s\n", result.Status)
		if result.Failure != "" {
			fmt.Fprintf(out, "Reason: %s\n", result.Failure)
		}
		fmt.Fprintf(out, "Result: %s\n", path)
		if !result.Succeeded() {
			return fmt.Errorf("skyvern run %s finished with status %q", result.RunID, result.Status)
		}
		return nil
	},
}

// parseFields turns --field name=type pairs into the schema field map.
func parseFields(pairs []string) (map[string]string, error) {
	fields := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, typ, ok := strings.Cut(pair, "=")
		if !ok || name == "" || typ == "" {
			return nil, fmt.Errorf("invalid --field %q: expected name=type", pair)
		}
		fields[name] = typ
	}
	return fields, nil
}

func init() {
	taskCmd.Flags().StringVar(&taskURL, "url", "", "starting URL for the task")
	taskCmd.Flags().StringVar(&taskPrompt, "prompt", "", "natural language instruction")
	taskCmd.Flags().StringArrayVar(&taskSteps, "step", nil, "workflow step, repeatable, run in order")
	taskCmd.Flags().StringArrayVar(&taskFields, "field", nil, "field to extract as name=type, repeatable")
	taskCmd.Flags().IntVar(&taskMaxSteps, "max-steps", 0, "cap on agent steps (0 lets the service decide)")
	rootCmd.AddCommand(taskCmd)
}
