package buildcmd

import (
	"github.com/spf13/cobra"
)

// New creates the `build` command group wrapping the build hooks.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run the pre-build and post-build hooks",
		Long: `Run the build hooks around an external build.

'build start' asks every participant for its decision before the build. With
build_update_time set to successful_builds the decisions are stored in the
state file and applied by 'build finish' once the build has succeeded.
'build run' wraps a build command and runs both hooks around it.`,
		RunE: func(cmd *cobra.Command, args []string) error { return cmd.Help() },
	}
	cmd.AddCommand(newStartCmd())
	cmd.AddCommand(newFinishCmd())
	cmd.AddCommand(newRunCmd())
	return cmd
}
