package setcmd

import (
	"github.com/gcstr/buildversions/internal/apperr"
	"github.com/gcstr/buildversions/internal/cli/common"
	"github.com/gcstr/buildversions/internal/platform"
	"github.com/gcstr/buildversions/internal/ui"
	"github.com/gcstr/buildversions/internal/version"
	"github.com/spf13/cobra"
)

// NewVersion creates the `set-version` command.
func NewVersion() *cobra.Command {
	var plat string
	cmd := &cobra.Command{
		Use:   "set-version <major.minor.patch>",
		Short: "Store an explicit version for a platform",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := version.Parse(args[0])
			if err != nil {
				return apperr.Wrap("cli.set-version", apperr.InvalidInput, err, "invalid version %q", args[0])
			}
			id, err := platform.Parse(plat)
			if err != nil {
				return apperr.Wrap("cli.set-version", apperr.InvalidInput, err, "unknown platform %q", plat)
			}
			return common.WithState(cmd, func(c *common.CLIContext) error {
				prev, _ := c.State.Settings.Version(id)
				if err := c.State.Settings.SetVersion(id, v.String()); err != nil {
					return apperr.Wrap("cli.set-version", apperr.InvalidInput, err, "unknown platform %q", plat)
				}
				c.State.LastSemanticVersion = v.String()
				c.Log.Info("version_set", "platform", string(id), "from", prev, "to", v.String())
				c.Printer.Plain("%s", ui.Changed(string(id), prev, v.String()))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&plat, "platform", "p", string(platform.None), "Platform whose version fields are written")
	return cmd
}
