package synccmd

import (
	"github.com/gcstr/buildversions/internal/apperr"
	"github.com/gcstr/buildversions/internal/cli/common"
	"github.com/gcstr/buildversions/internal/config"
	"github.com/gcstr/buildversions/internal/syncer"
	"github.com/gcstr/buildversions/internal/version"
	"github.com/spf13/cobra"
)

// New creates the `sync` command.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync [version]",
		Short: "Copy the current semantic version to the configured files and git tag",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := common.SetupReadOnly(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			if c.Config.SemanticUpdate == config.Disabled {
				c.Printer.Warn("semantic_update is disabled; nothing to sync")
				return nil
			}
			v := c.State.CurrentVersion()
			if len(args) == 1 {
				v = args[0]
			}
			if !version.IsValid(v) {
				return apperr.Wrap("cli.sync", apperr.InvalidInput, version.ErrInvalidFormat, "cannot sync %q", v)
			}
			targets, err := c.SyncTargets()
			if err != nil {
				return err
			}
			if len(targets) == 0 {
				c.Printer.Info("no sync targets configured")
				return nil
			}
			if err := syncer.Run(c.Ctx, v, targets); err != nil {
				return err
			}
			c.Printer.Info("synced %s to %d target(s)", v, len(targets))
			return nil
		},
	}
	return cmd
}
