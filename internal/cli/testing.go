package cli

import "github.com/spf13/cobra"

// TestNewRootCmd exposes the root command to tests in other packages.
func TestNewRootCmd() *cobra.Command { return newRootCmd() }
