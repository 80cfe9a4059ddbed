package initcmd_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gcstr/buildversions/internal/apperr"
	"github.com/gcstr/buildversions/internal/cli"
	"github.com/gcstr/buildversions/internal/cli/clitest"
	"github.com/gcstr/buildversions/internal/config"
	"github.com/gcstr/buildversions/internal/platform"
	"github.com/gcstr/buildversions/internal/state"
)

func TestInit_CreatesOptionsAndState(t *testing.T) {
	clitest.FreezeNow(t, time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC))
	dir := t.TempDir()

	out, _, err := clitest.Exec(t, cli.TestNewRootCmd(), "init", dir)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if strings.Count(out, "created") != 2 {
		t.Fatalf("expected two created lines, got: %q", out)
	}

	cfg, missing, err := config.Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("template should load: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("template should not reference env vars, got %v", missing)
	}
	def := config.Defaults()
	if cfg.AssetStatus != def.AssetStatus || cfg.BuildUpdateTime != def.BuildUpdateTime ||
		cfg.SemanticUpdate != def.SemanticUpdate || cfg.SemanticComponent != def.SemanticComponent ||
		cfg.AndroidBundleCode != def.AndroidBundleCode || cfg.RunInDevBuilds != def.RunInDevBuilds ||
		cfg.StateFile != def.StateFile {
		t.Fatalf("template should match defaults:\n got %s\nwant %s", cfg, def)
	}

	st := clitest.LoadState(t, dir)
	if st.Information.BuildNumber.Value() != 1 {
		t.Fatalf("build number = %d, want 1", st.Information.BuildNumber.Value())
	}
	if got := st.Information.BuildDate.String(); got != "2024-02-29" {
		t.Fatalf("build date = %s", got)
	}
	if got := st.Settings.Versions[platform.BundleVersion]; got != state.DefaultVersion {
		t.Fatalf("bundle version = %q", got)
	}
}

func TestInit_RefusesExistingOptions(t *testing.T) {
	dir := clitest.Project(t, clitest.Options)
	_, _, err := clitest.Exec(t, cli.TestNewRootCmd(), "init", dir)
	if !apperr.IsKind(err, apperr.InvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if got := clitest.ReadFile(t, dir, "buildversions.yml"); got != clitest.Options {
		t.Fatalf("existing options were overwritten")
	}
}

func TestInit_KeepsExistingState(t *testing.T) {
	dir := t.TempDir()
	st := state.New(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	st.Information.BuildNumber = 41
	clitest.SaveState(t, dir, st)

	out, _, err := clitest.Exec(t, cli.TestNewRootCmd(), "init", dir)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "keeping existing state") {
		t.Fatalf("expected keep message, got %q", out)
	}
	if got := clitest.LoadState(t, dir).Information.BuildNumber.Value(); got != 41 {
		t.Fatalf("build number = %d, want 41", got)
	}
}

func TestInit_MissingDirectory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	_, _, err := clitest.Exec(t, cli.TestNewRootCmd(), "init", missing)
	if !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, statErr := os.Stat(missing); !os.IsNotExist(statErr) {
		t.Fatalf("directory should not be created")
	}
}
