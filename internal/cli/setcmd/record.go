package setcmd

import (
	"strconv"

	"github.com/gcstr/buildversions/internal/apperr"
	"github.com/gcstr/buildversions/internal/cli/common"
	"github.com/gcstr/buildversions/internal/record"
	"github.com/gcstr/buildversions/internal/ui"
	"github.com/spf13/cobra"
)

// NewType creates the `set-type` command.
func NewType() *cobra.Command {
	return &cobra.Command{
		Use:   "set-type <label>",
		Short: "Set the build type label, e.g. alpha or release",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return common.WithState(cmd, func(c *common.CLIContext) error {
				prev := c.State.Information.BuildType
				c.State.Information.SetBuildType(args[0])
				c.Printer.Plain("%s", ui.Changed("build type", prev, c.State.Information.BuildType))
				return nil
			})
		},
	}
}

// NewDate creates the `set-date` command.
func NewDate() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "set-date",
		Short: "Stamp the build date (today unless --date is given)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := record.DateOf(common.Now())
			if date != "" {
				parsed, err := record.ParseDate(date)
				if err != nil {
					return apperr.Wrap("cli.set-date", apperr.InvalidInput, err, "invalid date %q, want YYYY-MM-DD", date)
				}
				d = parsed
			}
			return common.WithState(cmd, func(c *common.CLIContext) error {
				prev := c.State.Information.BuildDate
				c.State.Information.BuildDate = d
				c.Printer.Plain("%s", ui.Changed("build date", prev.String(), d.String()))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Date to store as YYYY-MM-DD")
	return cmd
}

// NewBuildNumber creates the `set-build-number` command. Without arguments
// the counter is incremented.
func NewBuildNumber() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "set-build-number [n]",
		Short: "Increment, set or reset the build number",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if reset && len(args) > 0 {
				return apperr.New("cli.set-build-number", apperr.InvalidInput, "--reset cannot be combined with an explicit number")
			}
			n := -1
			if len(args) == 1 {
				v, err := strconv.Atoi(args[0])
				if err != nil || v < 0 {
					return apperr.Wrap("cli.set-build-number", apperr.InvalidInput, record.ErrNegativeBuildNumber, "invalid build number %q", args[0])
				}
				n = v
			}
			return common.WithState(cmd, func(c *common.CLIContext) error {
				counter := &c.State.Information.BuildNumber
				prev := counter.Value()
				switch {
				case reset:
					counter.Reset()
				case n >= 0:
					if _, err := counter.SetTo(n); err != nil {
						return apperr.Wrap("cli.set-build-number", apperr.InvalidInput, err, "invalid build number %d", n)
					}
				default:
					counter.Increment()
				}
				c.Log.Info("build_number_set", "from", prev, "to", counter.Value())
				c.Printer.Plain("%s", ui.Changed("build number", strconv.Itoa(prev), strconv.Itoa(counter.Value())))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "Reset the build number to its initial value")
	return cmd
}

// NewBundleCode creates the `set-bundle-code` command.
func NewBundleCode() *cobra.Command {
	return &cobra.Command{
		Use:   "set-bundle-code <n>",
		Short: "Set the Android bundle version code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return apperr.New("cli.set-bundle-code", apperr.InvalidInput, "bundle code must be a positive integer, got %q", args[0])
			}
			return common.WithState(cmd, func(c *common.CLIContext) error {
				prev := c.State.Settings.AndroidBundleCode
				c.State.Settings.AndroidBundleCode = n
				c.Printer.Plain("%s", ui.Changed("android bundle code", strconv.Itoa(prev), strconv.Itoa(n)))
				return nil
			})
		},
	}
}
