package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kverel/edge-search-cli/internal/domain"
)

func newQueriesCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "queries",
		Short: "Inspect the query pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := app.config.GetString("queries.path")
			pool, err := domain.LoadQueryPool(path)
			if err != nil {
				return err
			}

			if asJSON {
				payload := struct {
					Path       string
					Total      int
					Unique     int
					Duplicates map[string]int
				}{path, len(pool.All), len(pool.Unique), pool.Duplicates}

				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(payload)
			}

			rendered, err := app.queriesRenderer(pool)
			if err != nil {
				return fmt.Errorf("render queries: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}
