package validatecmd

import (
	"fmt"

	"github.com/gcstr/buildversions/internal/apperr"
	"github.com/gcstr/buildversions/internal/cli/common"
	"github.com/gcstr/buildversions/internal/config"
	"github.com/gcstr/buildversions/internal/platform"
	"github.com/gcstr/buildversions/internal/version"
	"github.com/spf13/cobra"
)

// New creates the `validate` command.
func New() *cobra.Command {
	var printCfg bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the options file and the state file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := common.SetupConfig(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			if _, err := c.SyncTargets(); err != nil {
				return err
			}

			exists, err := c.Store.Exists()
			if err != nil {
				return err
			}
			if exists {
				st, err := c.Store.Load()
				if err != nil {
					return err
				}
				for _, f := range st.Settings.SortedFields() {
					if v := st.Settings.Versions[f]; !version.IsValid(v) {
						return apperr.Wrap("cli.validate", apperr.InvalidInput, version.ErrInvalidFormat, "%s holds %q", f, v)
					}
				}
				for _, f := range platform.AllFields() {
					if _, ok := st.Settings.Versions[f]; !ok {
						c.Printer.Warn("state has no value for %s", f)
					}
				}
				if st.Pending != nil {
					c.Printer.Warn("build cycle %s for %s is still pending; run 'build finish'", st.Pending.ID, st.Pending.Platform)
				}
			} else {
				c.Printer.Warn("state file %s does not exist yet", c.Store.Path())
			}

			if printCfg {
				b, err := config.Encode(c.Config.Redacted())
				if err != nil {
					return err
				}
				if _, err := cmd.OutOrStdout().Write(b); err != nil {
					return err
				}
			}

			// If we get here, validation was successful
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), "validation successful"); err != nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&printCfg, "print", false, "Print the effective options after defaults and interpolation")
	return cmd
}
