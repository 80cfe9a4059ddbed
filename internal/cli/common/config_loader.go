package common

import (
	"os"

	"github.com/gcstr/buildversions/internal/apperr"
	"github.com/gcstr/buildversions/internal/config"
	"github.com/gcstr/buildversions/internal/ui"
	"github.com/spf13/cobra"
)

// LoadConfigWithWarnings loads the options named by --config and prints a
// warning per unresolved ${VAR}. When no options file exists in the working
// directory (or in the directory given by --config) the defaults are used.
func LoadConfigWithWarnings(cmd *cobra.Command, pr ui.Printer) (config.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	cfg, missing, err := config.Load(cmd.Context(), file)
	if err == nil {
		for _, name := range missing {
			pr.Warn("environment variable %s is not set; replacing with empty string", name)
		}
		return cfg, nil
	}
	if !apperr.IsKind(err, apperr.NotFound) {
		return config.Config{}, err
	}

	dir := "."
	if file != "" {
		info, statErr := os.Stat(file)
		if statErr != nil || !info.IsDir() {
			return config.Config{}, err
		}
		dir = file
	}
	pr.Warn("no %s found; using default options (run `buildversions init` to create one)", config.FileNames[0])
	return config.DefaultsFor(dir)
}
