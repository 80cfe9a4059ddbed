package common

import (
	"io"
	"strings"

	"github.com/gcstr/buildversions/internal/config"
	"github.com/gcstr/buildversions/internal/logger"
	"github.com/spf13/cobra"
)

// NewLogger builds the structured logger for one invocation from the
// --log-* flags. Without --log-level the level is info when show_logs is
// set, debug with --verbose, warn otherwise.
func NewLogger(cmd *cobra.Command, cfg config.Config) (logger.Logger, io.Closer, error) {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	file, _ := cmd.Flags().GetString("log-file")
	noColor, _ := cmd.Flags().GetBool("no-color")
	verbose, _ := cmd.Flags().GetBool("verbose")

	def := "warn"
	if cfg.ShowLogs {
		def = "info"
	}
	if verbose {
		def = "debug"
	}
	l, closer, err := logger.New(logger.Options{
		Out:          cmd.ErrOrStderr(),
		Level:        level,
		DefaultLevel: def,
		Format:       format,
		NoColor:      noColor,
		LogFile:      file,
	})
	if err != nil {
		return nil, nil, err
	}
	return l.With("run_id", logger.NewRunID(), "command", commandPath(cmd)), closer, nil
}

func commandPath(cmd *cobra.Command) string {
	parts := strings.Fields(cmd.CommandPath())
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.Join(parts, " ")
}
