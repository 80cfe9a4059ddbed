package common

import (
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// canPrompt reports whether build hooks may open an interactive prompt:
// both ends of cmd must be terminals and the run must not be a CI job, where
// a prompt would stall the build until it times out.
func canPrompt(cmd *cobra.Command) bool {
	if inCI() || os.Getenv("TERM") == "dumb" {
		return false
	}
	return isTerminal(cmd.InOrStdin()) && isTerminal(cmd.OutOrStdout())
}

func isTerminal(stream any) bool {
	f, ok := stream.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// inCI reports whether a CI runner set the conventional CI variable.
func inCI() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("CI"))) {
	case "", "0", "false":
		return false
	}
	return true
}
