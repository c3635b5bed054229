package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kverel/edge-search-cli/internal/adapters/browser/playwright"
	"github.com/kverel/edge-search-cli/internal/adapters/prompt/console"
	reportadapter "github.com/kverel/edge-search-cli/internal/adapters/render/report"
	"github.com/kverel/edge-search-cli/internal/application"
	"github.com/kverel/edge-search-cli/internal/domain"
	"github.com/kverel/edge-search-cli/internal/ports"
)

func newRunCmd(app *app) *cobra.Command {
	var searchCount int
	var policyFlag string
	var killEdge bool
	var keepProfile bool
	var installDriver bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an automated search session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			logger := app.logger.With(zap.String("component", "run"))

			if installDriver {
				if err := playwright.Install(); err != nil {
					return err
				}
			}

			policy, err := resolvePolicy(app, policyFlag)
			if err != nil {
				return err
			}

			queriesPath := app.config.GetString("queries.path")
			pool, err := domain.LoadQueryPool(queriesPath)
			if err != nil {
				return err
			}
			if len(pool.Unique) == 0 {
				return fmt.Errorf("no queries in %s", queriesPath)
			}

			prompter := console.NewPrompter(cmd.InOrStdin(), out)

			selected, err := selectProfile(ctx, out, app, prompter)
			if err != nil {
				return err
			}

			count, err := resolveSearchCount(ctx, out, prompter, searchCount)
			if err != nil {
				return err
			}

			acquire := app.newAcquireService(prompter)

			if killEdge || app.config.GetBool("acquire.kill_before_copy") {
				if err := sweepBeforeCopy(ctx, out, acquire, logger); err != nil {
					return err
				}
			}

			working, err := acquireProfile(ctx, cmd.ErrOrStderr(), acquire, selected, policy)
			if err != nil {
				return err
			}

			if app.config.GetBool("acquire.cleanup") && !keepProfile {
				defer func() {
					if err := acquire.Cleanup(working); err != nil {
						logger.Warn("clean up working profile", zap.Error(err))
					}
				}()
			}

			session := application.NewSessionService(
				app.driver,
				prompter,
				reportadapter.NewConsoleObserver(out),
				app.clock,
				app.rng,
				logger,
				app.sessionConfig(),
			)

			result, runErr := session.Run(ctx, application.RunSessionCommand{
				Profile:     working,
				Pool:        pool,
				SearchCount: count,
				Policy:      policy,
			})

			rendered, renderErr := app.reportRenderer(result, reportadapter.RenderOptions{Now: app.now()})
			if renderErr != nil {
				logger.Warn("render run report", zap.Error(renderErr))
			} else if _, err := fmt.Fprintln(out, rendered); err != nil {
				return err
			}

			// An interrupted run is still history worth keeping.
			if err := app.runs.Save(context.Background(), result); err != nil {
				logger.Warn("persist run history", zap.Error(err))
			}

			return runErr
		},
	}

	cmd.Flags().IntVar(&searchCount, "count", 0, "Number of searches to perform (default: prompt)")
	cmd.Flags().StringVar(&policyFlag, "policy", "", "Profile copy policy: auto or assisted (default: config acquire.policy)")
	cmd.Flags().BoolVar(&killEdge, "kill-edge", false, "Terminate running Edge processes before copying")
	cmd.Flags().BoolVar(&keepProfile, "keep-profile", false, "Keep the ephemeral working profile after the run")
	cmd.Flags().BoolVar(&installDriver, "install-driver", false, "Install the Playwright driver runtime before running")

	return cmd
}

func resolvePolicy(app *app, flagValue string) (domain.CopyPolicy, error) {
	value := flagValue
	if value == "" {
		value = app.config.GetString("acquire.policy")
	}

	return domain.ParseCopyPolicy(value)
}

func selectProfile(ctx context.Context, out io.Writer, app *app, prompter ports.OperatorPrompter) (domain.ProfileDescriptor, error) {
	root, err := domain.EdgeUserDataRoot(runtime.GOOS)
	if err != nil {
		return domain.ProfileDescriptor{}, err
	}

	candidates, err := app.profileService.ListCandidates(root)
	if err != nil {
		return domain.ProfileDescriptor{}, err
	}

	rendered, err := app.profilesRenderer(candidates)
	if err != nil {
		return domain.ProfileDescriptor{}, fmt.Errorf("render profiles: %w", err)
	}
	if _, err := fmt.Fprintln(out, rendered); err != nil {
		return domain.ProfileDescriptor{}, err
	}

	for {
		input, err := prompter.Ask(ctx, "Profile to copy [1]: ")
		if err != nil {
			return domain.ProfileDescriptor{}, err
		}

		selected, err := app.profileService.SelectByIndex(candidates, input)
		if errors.Is(err, domain.ErrInvalidSelection) {
			if _, err := fmt.Fprintf(out, "%v\n", err); err != nil {
				return domain.ProfileDescriptor{}, err
			}
			continue
		}

		return selected, err
	}
}

func resolveSearchCount(ctx context.Context, out io.Writer, prompter ports.OperatorPrompter, flagCount int) (int, error) {
	if flagCount != 0 {
		if flagCount < 1 {
			return 0, fmt.Errorf("%w: search count must be at least 1", domain.ErrInvalidSelection)
		}
		return flagCount, nil
	}

	for {
		input, err := prompter.Ask(ctx, "Searches to perform [5]: ")
		if err != nil {
			return 0, err
		}

		count, err := parseSearchCount(input)
		if errors.Is(err, domain.ErrInvalidSelection) {
			if _, err := fmt.Fprintf(out, "%v\n", err); err != nil {
				return 0, err
			}
			continue
		}

		return count, err
	}
}

// parseSearchCount resolves the operator's count input. Blank input picks
// the advertised default of five searches.
func parseSearchCount(input string) (int, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return 5, nil
	}

	count, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidSelection, input)
	}
	if count < 1 {
		return 0, fmt.Errorf("%w: search count must be at least 1", domain.ErrInvalidSelection)
	}

	return count, nil
}

// sweepBeforeCopy is best effort: holders that survive are resolved by the
// copy loop's own lock handling.
func sweepBeforeCopy(ctx context.Context, out io.Writer, acquire *application.AcquireService, logger *zap.Logger) error {
	results, err := acquire.SweepBrowser(ctx)
	if err != nil {
		return fmt.Errorf("sweep browser processes: %w", err)
	}

	terminated := 0
	for _, result := range results {
		if result.Err != nil {
			logger.Warn("terminate browser process",
				zap.Int32("pid", result.Handle.PID),
				zap.String("name", result.Handle.Name),
				zap.Error(result.Err))
			continue
		}
		terminated++
	}
	if terminated > 0 {
		_, _ = fmt.Fprintf(out, "Terminated %d Edge processes before copying.\n", terminated)
	}

	return nil
}

func acquireProfile(ctx context.Context, spinnerOut io.Writer, acquire *application.AcquireService, desc domain.ProfileDescriptor, policy domain.CopyPolicy) (domain.WorkingProfile, error) {
	var working domain.WorkingProfile

	label := fmt.Sprintf("Copying profile %s...", desc.Name)
	err := runAcquireSpinner(ctx, spinnerOut, label, func(ctx context.Context) error {
		var acquireErr error
		working, acquireErr = acquire.Acquire(ctx, desc, policy)
		return acquireErr
	})
	if err != nil {
		if ctx.Err() != nil {
			return domain.WorkingProfile{}, ctx.Err()
		}
		return domain.WorkingProfile{}, err
	}

	return working, nil
}
