package versioncmd

import (
	"fmt"
	"runtime"

	"github.com/gcstr/buildversions/internal/cli/buildinfo"
	"github.com/gcstr/buildversions/internal/ui"
	"github.com/spf13/cobra"
)

// New creates the `version` command.
func New() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show detailed version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if short {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), buildinfo.VersionSimple())
				return err
			}
			goVer := buildinfo.GoVersion()
			if goVer == "" {
				goVer = runtime.Version()
			}
			built := orUnknown(buildinfo.BuildDate())
			if by := buildinfo.BuiltBy(); by != "" && built != "<unknown>" {
				built = built + " (" + by + ")"
			}
			_, err := fmt.Fprint(cmd.OutOrStdout(), ui.RenderTable("buildversions", []ui.KV{
				{Key: "Version", Value: buildinfo.Version()},
				{Key: "Go version", Value: goVer},
				{Key: "Git commit", Value: orUnknown(buildinfo.Commit())},
				{Key: "Built", Value: built},
				{Key: "OS/Arch", Value: runtime.GOOS + "/" + runtime.GOARCH},
			}))
			return err
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version and short commit")
	return cmd
}

func orUnknown(s string) string {
	if s == "" {
		return "<unknown>"
	}
	return s
}
