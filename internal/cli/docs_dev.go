//go:build dev

package cli

import (
	"os"

	"github.com/gcstr/buildversions/internal/apperr"
	"github.com/gcstr/buildversions/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// registerDocsCmd adds the docs command in dev builds.
func registerDocsCmd(root *cobra.Command) {
	root.AddCommand(newDocsCmd())
}

// newDocsCmd creates a hidden command that writes a Markdown page per
// command, including the build and set-* hooks.
func newDocsCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:    "docs",
		Short:  "Generate CLI documentation (Markdown tree)",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return apperr.Wrap("cli.docs", apperr.Internal, err, "create %s", outDir)
			}

			root := cmd.Root()
			root.DisableAutoGenTag = true
			if err := doc.GenMarkdownTree(root, outDir); err != nil {
				return apperr.Wrap("cli.docs", apperr.Internal, err, "generate docs")
			}
			ui.StdPrinter{Out: cmd.OutOrStdout()}.Info("wrote command reference to %s", outDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "docs/cli", "Output directory for generated docs")

	return cmd
}
