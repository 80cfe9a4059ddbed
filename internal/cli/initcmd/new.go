package initcmd

import (
	_ "embed"
	"os"
	"path/filepath"

	"github.com/gcstr/buildversions/internal/apperr"
	"github.com/gcstr/buildversions/internal/cli/common"
	"github.com/gcstr/buildversions/internal/config"
	"github.com/gcstr/buildversions/internal/state"
	"github.com/gcstr/buildversions/internal/ui"
	"github.com/spf13/cobra"
)

//go:embed template.yml
var optionsTemplate string

// New creates the `init` command.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a buildversions.yml options file and the initial state",
		Long: `Create a template buildversions.yml options file and the initial state file in
the current directory or the specified directory.

The generated file contains comments explaining every option. An existing
state file is left untouched.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			targetDir := "."
			if len(args) > 0 {
				targetDir = args[0]
			}
			if info, err := os.Stat(targetDir); os.IsNotExist(err) {
				return apperr.New("cli.init", apperr.NotFound, "directory %s does not exist", targetDir)
			} else if err != nil {
				return apperr.Wrap("cli.init", apperr.Internal, err, "check directory %s", targetDir)
			} else if !info.IsDir() {
				return apperr.New("cli.init", apperr.InvalidInput, "%s is not a directory", targetDir)
			}

			for _, name := range config.FileNames {
				if _, err := os.Stat(filepath.Join(targetDir, name)); err == nil {
					return apperr.New("cli.init", apperr.InvalidInput, "%s already exists in %s", name, targetDir)
				}
			}
			configPath := filepath.Join(targetDir, config.FileNames[0])
			if err := os.WriteFile(configPath, []byte(optionsTemplate), 0o644); err != nil {
				return apperr.Wrap("cli.init", apperr.Internal, err, "write %s", config.FileNames[0])
			}

			pr := ui.StdPrinter{Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()}
			pr.Info("created %s", relative(configPath))

			cfg, _, err := config.Load(cmd.Context(), configPath)
			if err != nil {
				return err
			}
			store := state.OpenDir(cfg.BaseDir, cfg.StateFile)
			exists, err := store.Exists()
			if err != nil {
				return err
			}
			statePath := filepath.Join(cfg.BaseDir, store.Path())
			if exists {
				pr.Info("keeping existing state %s", relative(statePath))
				return nil
			}
			if err := store.Save(state.New(common.Now())); err != nil {
				return err
			}
			pr.Info("created %s", relative(statePath))
			return nil
		},
	}
	return cmd
}

func relative(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	cwd, err := os.Getwd()
	if err != nil {
		return p
	}
	if rel, err := filepath.Rel(cwd, abs); err == nil && len(rel) < len(abs) {
		return rel
	}
	return abs
}
