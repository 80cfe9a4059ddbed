package bumpcmd

import (
	"github.com/gcstr/buildversions/internal/apperr"
	"github.com/gcstr/buildversions/internal/cli/common"
	"github.com/gcstr/buildversions/internal/platform"
	"github.com/gcstr/buildversions/internal/version"
	"github.com/spf13/cobra"
)

// New creates the `bump` command.
func New() *cobra.Command {
	var plat string
	cmd := &cobra.Command{
		Use:       "bump {major|minor|patch}",
		Short:     "Increase one component of a platform's version",
		Long:      "Increase one component of the version stored for a platform. Lower components reset to zero and the result becomes the current semantic version.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"major", "minor", "patch"},
		RunE: func(cmd *cobra.Command, args []string) error {
			comp, err := version.ParseComponent(args[0])
			if err != nil {
				return apperr.Wrap("cli.bump", apperr.InvalidInput, err, "unknown component %q", args[0])
			}
			id, err := platform.Parse(plat)
			if err != nil {
				return apperr.Wrap("cli.bump", apperr.InvalidInput, err, "unknown platform %q", plat)
			}
			return common.WithState(cmd, func(c *common.CLIContext) error {
				cur, err := c.State.Settings.Version(id)
				if err != nil {
					return apperr.Wrap("cli.bump", apperr.InvalidInput, err, "unknown platform %q", plat)
				}
				next, err := version.Bump(cur, comp)
				if err != nil {
					return apperr.Wrap("cli.bump", apperr.InvalidInput, err, "stored %s version %q is not major.minor.patch", id, cur)
				}
				if err := c.State.Settings.SetVersion(id, next); err != nil {
					return apperr.Wrap("cli.bump", apperr.InvalidInput, err, "unknown platform %q", plat)
				}
				c.State.LastSemanticVersion = next
				c.Log.Info("version_bumped", "platform", string(id), "component", comp.String(), "from", cur, "to", next)
				c.Printer.Plain("%s", next)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&plat, "platform", "p", string(platform.None), "Platform whose version fields are bumped")
	return cmd
}
