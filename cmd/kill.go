package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kverel/edge-search-cli/internal/adapters/prompt/console"
)

func newKillCmd(app *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "kill",
		Short: "Terminate running Edge processes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			acquire := app.newAcquireService(console.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout()))
			out := cmd.OutOrStdout()

			if dryRun {
				handles, err := acquire.FindBrowserProcesses(cmd.Context())
				if err != nil {
					return err
				}
				if len(handles) == 0 {
					_, err = fmt.Fprintln(out, "No Edge processes running.")
					return err
				}

				for _, handle := range handles {
					_, _ = fmt.Fprintf(out, "%d\t%s\n", handle.PID, handle.Name)
				}

				return nil
			}

			results, err := acquire.SweepBrowser(cmd.Context())
			if err != nil {
				return err
			}
			if len(results) == 0 {
				_, err = fmt.Fprintln(out, "No Edge processes running.")
				return err
			}

			failed := 0
			for _, result := range results {
				if result.Err != nil {
					failed++
					_, _ = fmt.Fprintf(out, "%d\t%s\tfailed: %v\n", result.Handle.PID, result.Handle.Name, result.Err)
					continue
				}
				_, _ = fmt.Fprintf(out, "%d\t%s\tterminated\n", result.Handle.PID, result.Handle.Name)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d Edge processes could not be terminated", failed, len(results))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List matching processes without terminating them")

	return cmd
}
