package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	reportadapter "github.com/kverel/edge-search-cli/internal/adapters/render/report"
)

func newRunsCmd(app *app) *cobra.Command {
	var last int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show past run reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runs, err := app.runs.List(cmd.Context())
			if err != nil {
				return err
			}
			if last > 0 && last < len(runs) {
				runs = runs[:last]
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(runs)
			}

			rendered, err := app.historyRenderer(runs, reportadapter.RenderOptions{Now: app.now()})
			if err != nil {
				return fmt.Errorf("render run history: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().IntVar(&last, "last", 0, "Show only the N most recent runs")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}
