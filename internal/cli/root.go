package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gcstr/buildversions/internal/apperr"
	"github.com/gcstr/buildversions/internal/cli/buildcmd"
	"github.com/gcstr/buildversions/internal/cli/buildinfo"
	"github.com/gcstr/buildversions/internal/cli/bumpcmd"
	"github.com/gcstr/buildversions/internal/cli/initcmd"
	"github.com/gcstr/buildversions/internal/cli/secretcmd"
	"github.com/gcstr/buildversions/internal/cli/setcmd"
	"github.com/gcstr/buildversions/internal/cli/showcmd"
	"github.com/gcstr/buildversions/internal/cli/synccmd"
	"github.com/gcstr/buildversions/internal/cli/validatecmd"
	"github.com/gcstr/buildversions/internal/cli/versioncmd"
	"github.com/spf13/cobra"
)

// Execute runs the root command and handles error formatting and exit codes.
func Execute(ctx context.Context) int {
	cmd := newRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		verbose, _ := cmd.PersistentFlags().GetBool("verbose")
		printUserFriendly(os.Stderr, err, verbose)
		return apperr.ExitCode(err)
	}
	return 0
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "buildversions",
		Short:         "Track build numbers, build dates and semantic versions across builds",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringP("config", "c", "", "Path to options file or directory (defaults to buildversions.yml or buildversions.yaml in current directory)")
	pf.BoolP("verbose", "v", false, "Verbose error output and debug logs")
	pf.String("log-level", "", "Log level: debug, info, warn or error")
	pf.String("log-format", "auto", "Log format: auto, pretty or json")
	pf.String("log-file", "", "Also write JSON logs to this file")
	pf.Bool("no-color", false, "Disable colored log output")
	pf.BoolP("yes", "y", false, "Answer yes to every prompt")
	pf.Bool("no-input", false, "Never prompt; use prompt_default from the options file")

	cmd.AddCommand(initcmd.New())
	cmd.AddCommand(bumpcmd.New())
	cmd.AddCommand(setcmd.NewVersion())
	cmd.AddCommand(setcmd.NewType())
	cmd.AddCommand(setcmd.NewDate())
	cmd.AddCommand(setcmd.NewBuildNumber())
	cmd.AddCommand(setcmd.NewBundleCode())
	cmd.AddCommand(buildcmd.New())
	cmd.AddCommand(showcmd.New())
	cmd.AddCommand(synccmd.New())
	cmd.AddCommand(validatecmd.New())
	cmd.AddCommand(secretcmd.New())
	cmd.AddCommand(versioncmd.New())
	registerDocsCmd(cmd)

	cmd.SetHelpTemplate(cmd.HelpTemplate() + "\n\nProject home: https://github.com/gcstr/buildversions\n")

	cmd.SetVersionTemplate(fmt.Sprintf("%s\n", buildinfo.VersionSimple()))
	cmd.Version = buildinfo.VersionSimple()

	return cmd
}

func printUserFriendly(w io.Writer, err error, verbose bool) {
	var e *apperr.E
	if errors.As(err, &e) {
		// Short human message
		if e.Msg != "" {
			_, _ = fmt.Fprintf(w, "Error: %s\n", e.Msg)
		} else {
			_, _ = fmt.Fprintf(w, "Error: %s\n", err.Error())
		}
		if verbose {
			_, _ = fmt.Fprintln(w, "Detail:", err)
		}
		switch {
		case apperr.IsKind(err, apperr.NotFound):
			_, _ = fmt.Fprintln(w, "Hint: Run `buildversions init` to create the options and state files.")
		case apperr.IsKind(err, apperr.Unavailable):
			_, _ = fmt.Fprintln(w, "Hint: Is the git remote reachable and are the credentials valid?")
		}
		return
	}
	_, _ = fmt.Fprintln(w, "Error:", err)
}
