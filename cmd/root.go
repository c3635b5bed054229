package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &app{}
	defer app.close()

	return newRootCmd(app).ExecuteContext(ctx)
}

func newRootCmd(app *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "es",
		Short:         "Edge Search CLI (es): automated Bing search sessions on a copied Edge profile",
		Long:          "es runs automated Bing search sessions against a disposable copy of a Microsoft Edge profile: it lists profiles, copies the selected one around file locks, drives a randomized query session with bounded restarts, and keeps a history of past runs.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return app.wire()
		},
	}

	rootCmd.PersistentFlags().BoolVar(&app.verbose, "verbose", false, "Mirror debug logs to stderr")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(app),
		newProfilesCmd(app),
		newQueriesCmd(app),
		newRunsCmd(app),
		newKillCmd(app),
	)

	return rootCmd
}
