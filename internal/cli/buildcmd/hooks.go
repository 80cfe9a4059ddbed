package buildcmd

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/gcstr/buildversions/internal/apperr"
	"github.com/gcstr/buildversions/internal/cli/common"
	"github.com/gcstr/buildversions/internal/logger"
	"github.com/gcstr/buildversions/internal/orchestrator"
	"github.com/gcstr/buildversions/internal/runner"
	"github.com/gcstr/buildversions/internal/ui"
	"github.com/spf13/cobra"
)

type hookFlags struct {
	platform    string
	development bool
	strict      bool
}

func (f *hookFlags) register(cmd *cobra.Command, platformRequired bool) {
	cmd.Flags().StringVarP(&f.platform, "platform", "p", "", "Target platform of the build, e.g. android or ios")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "Exit non-zero when an updater or the state bookkeeping fails")
	if platformRequired {
		_ = cmd.MarkFlagRequired("platform")
	}
}

func newStartCmd() *cobra.Command {
	var f hookFlags
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run the pre-build hook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, orch, err := prepare(cmd)
			if err != nil {
				return err
			}
			defer c.Close()
			return start(c, orch, f)
		},
	}
	f.register(cmd, true)
	cmd.Flags().BoolVar(&f.development, "development", false, "Mark the build as a development build")
	return cmd
}

func newFinishCmd() *cobra.Command {
	var f hookFlags
	var failed bool
	cmd := &cobra.Command{
		Use:   "finish",
		Short: "Run the post-build hook",
		Long:  "Run the post-build hook. Updates deferred by 'build start' are applied when the build succeeded and dropped when --failed is given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, orch, err := prepare(cmd)
			if err != nil {
				return err
			}
			defer c.Close()
			return finish(c, orch, f, !failed)
		},
	}
	f.register(cmd, false)
	cmd.Flags().BoolVar(&failed, "failed", false, "Report the build as failed")
	return cmd
}

func newRunCmd() *cobra.Command {
	var f hookFlags
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "run -- <command> [args...]",
		Short: "Run a build command between the pre-build and post-build hooks",
		Long:  "Run a build command between the pre-build and post-build hooks. The command runs even when the version bookkeeping cannot be loaded or saved; such failures are warnings unless --strict is given.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pr := ui.Printer(ui.StdPrinter{Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()})
			log := logger.Nop()
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			var hookErrs []error
			c, orch, err := prepare(cmd)
			if err == nil {
				defer c.Close()
				pr, log, ctx = c.Printer, c.Log, c.Ctx
				var rep orchestrator.Report
				if rep, err = startCycle(c, orch, f); err == nil {
					if repErr := report(pr, rep, f.strict); repErr != nil {
						hookErrs = append(hookErrs, repErr)
					}
				}
			}
			ready := err == nil
			if !ready {
				hookErrs = append(hookErrs, err)
				log.Warn("build_hook_unavailable", "phase", "start", "error", err)
				pr.Warn("version bookkeeping unavailable, running the build without updates: %v", err)
			}

			r := runner.Runner{Hook: func(e runner.Event) {
				switch e.Phase {
				case runner.PhaseStart:
					log.Info("build_command_started", "command", e.Args[0])
				case runner.PhaseFinish:
					log.Info("build_command_finished", "command", e.Args[0], "exit_code", e.ExitCode, "duration", e.Duration.String())
				}
			}}
			_, runErr := r.Run(ctx, runner.Options{
				Stdin:   cmd.InOrStdin(),
				Stdout:  cmd.OutOrStdout(),
				Stderr:  cmd.ErrOrStderr(),
				Timeout: timeout,
			}, args...)

			if ready {
				rep, err := finishCycle(c, orch, f, runErr == nil)
				if err != nil {
					hookErrs = append(hookErrs, err)
					log.Warn("build_hook_unavailable", "phase", "finish", "error", err)
					pr.Warn("could not record the build result: %v", err)
				} else if repErr := report(pr, rep, f.strict); repErr != nil {
					hookErrs = append(hookErrs, repErr)
				}
			}

			if runErr != nil {
				return runErr
			}
			if f.strict {
				return errors.Join(hookErrs...)
			}
			return nil
		},
	}
	f.register(cmd, true)
	cmd.Flags().BoolVar(&f.development, "development", false, "Mark the build as a development build")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Stop the build command after this long, e.g. 30m")
	return cmd
}

// prepare loads the state and the orchestrator for a hook.
func prepare(cmd *cobra.Command) (*common.CLIContext, *orchestrator.Orchestrator, error) {
	c, err := common.SetupCLIContext(cmd)
	if err != nil {
		return nil, nil, err
	}
	orch, err := c.NewOrchestrator(cmd)
	if err != nil {
		c.Close()
		return nil, nil, err
	}
	return c, orch, nil
}

// start runs the pre-build hook and persists the resulting pending cycle.
func start(c *common.CLIContext, orch *orchestrator.Orchestrator, f hookFlags) error {
	rep, err := startCycle(c, orch, f)
	if err != nil {
		return err
	}
	return report(c.Printer, rep, f.strict)
}

// finish completes the cycle saved by start and clears it from the state.
func finish(c *common.CLIContext, orch *orchestrator.Orchestrator, f hookFlags, success bool) error {
	rep, err := finishCycle(c, orch, f, success)
	if err != nil {
		return err
	}
	return report(c.Printer, rep, f.strict)
}

func startCycle(c *common.CLIContext, orch *orchestrator.Orchestrator, f hookFlags) (orchestrator.Report, error) {
	if p := common.PendingFromState(c.State.Pending); p != nil {
		orch.Resume(*p)
	}
	rep := orch.OnBuildStarting(c.Ctx, orchestrator.Build{Platform: f.platform, Development: f.development})
	c.State.Pending = common.PendingToState(orch.Pending())
	return rep, c.Save()
}

func finishCycle(c *common.CLIContext, orch *orchestrator.Orchestrator, f hookFlags, success bool) (orchestrator.Report, error) {
	if p := common.PendingFromState(c.State.Pending); p != nil {
		orch.Resume(*p)
	}
	rep := orch.OnBuildFinished(c.Ctx, f.platform, success)
	c.State.Pending = common.PendingToState(orch.Pending())
	return rep, c.Save()
}

// report prints what a hook did. Updater failures are warnings unless strict
// is set.
func report(pr ui.Printer, rep orchestrator.Report, strict bool) error {
	switch rep.Skipped {
	case "":
	case orchestrator.SkipBuildFailed:
		pr.Info("build failed; pending updates discarded")
		return nil
	default:
		pr.Info("no updates: %s", rep.Skipped)
		return nil
	}

	var decisions []ui.DiffLine
	ids := make([]string, 0, len(rep.Decisions))
	for id := range rep.Decisions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if rep.Decisions[id] {
			decisions = append(decisions, ui.Line(ui.Add, "%s", id))
		} else {
			decisions = append(decisions, ui.Line(ui.Noop, "%s declined", id))
		}
	}
	sections := []ui.Section{{Title: "Decisions", Items: decisions}}
	if rep.Dispatch != nil {
		var applied []ui.DiffLine
		for _, id := range rep.Dispatch.Applied {
			applied = append(applied, ui.Line(ui.Change, "%s", id))
		}
		sections = append(sections, ui.Section{Title: "Applied", Items: applied})
	}
	if out := ui.RenderSectionedList(sections); out != "" {
		pr.Plain("%s", out)
	}
	if rep.Deferred {
		pr.Info("updates deferred until 'build finish' reports success (cycle %s)", rep.CycleID)
	}

	err := rep.Err()
	if err == nil {
		return nil
	}
	if strict {
		return apperr.Wrap("cli.build", apperr.External, err, "updaters failed")
	}
	pr.Warn("some updates failed: %v", err)
	return nil
}
