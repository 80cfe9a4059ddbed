package validatecmd_test

import (
	"strings"
	"testing"
	"time"

	"github.com/gcstr/buildversions/internal/apperr"
	"github.com/gcstr/buildversions/internal/cli"
	"github.com/gcstr/buildversions/internal/cli/clitest"
	"github.com/gcstr/buildversions/internal/platform"
	"github.com/gcstr/buildversions/internal/state"
)

func TestValidate_Success_PrintsMessage(t *testing.T) {
	dir := clitest.Project(t, clitest.Options)
	clitest.SaveState(t, dir, state.New(time.Now()))

	out, errOut, err := clitest.Exec(t, cli.TestNewRootCmd(), "validate", "-c", dir)
	if err != nil {
		t.Fatalf("validate execute: %v", err)
	}
	if !strings.Contains(out, "validation successful") {
		t.Fatalf("expected validation success message in output, got: %q", out)
	}
	if strings.Contains(errOut, "[warn]") {
		t.Fatalf("unexpected warnings: %q", errOut)
	}
}

func TestValidate_WarnsWithoutState(t *testing.T) {
	dir := clitest.Project(t, clitest.Options)
	out, errOut, err := clitest.Exec(t, cli.TestNewRootCmd(), "validate", "-c", dir)
	if err != nil {
		t.Fatalf("validate execute: %v", err)
	}
	if !strings.Contains(errOut, "does not exist yet") || !strings.Contains(out, "validation successful") {
		t.Fatalf("expected warning and success, got out=%q err=%q", out, errOut)
	}
}

func TestValidate_Print(t *testing.T) {
	dir := clitest.Project(t, "semantic_update: enabled\n")
	out, _, err := clitest.Exec(t, cli.TestNewRootCmd(), "validate", "--print", "-c", dir)
	if err != nil {
		t.Fatalf("validate --print: %v", err)
	}
	for _, want := range []string{"asset_status: enabled", "semantic_update: enabled", "build_update_time: successful_builds", "state_file: .buildversions/state.yml"} {
		if !strings.Contains(out, want) {
			t.Fatalf("printed options missing %q: %q", want, out)
		}
	}
}

func TestValidate_PrintMasksGitToken(t *testing.T) {
	t.Setenv("BV_TEST_GIT_TOKEN", "s3cr3t-value")
	dir := clitest.Project(t, "sync:\n  git:\n    token: ${BV_TEST_GIT_TOKEN}\n")
	out, _, err := clitest.Exec(t, cli.TestNewRootCmd(), "validate", "--print", "-c", dir)
	if err != nil {
		t.Fatalf("validate --print: %v", err)
	}
	if strings.Contains(out, "s3cr3t-value") {
		t.Fatalf("token leaked into printed options: %q", out)
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Fatalf("expected masked token, got %q", out)
	}
}

func TestValidate_InvalidConfigPath_ReturnsError(t *testing.T) {
	_, _, err := clitest.Exec(t, cli.TestNewRootCmd(), "validate", "-c", "does-not-exist.yml")
	if err == nil {
		t.Fatalf("expected error for invalid config path, got nil")
	}
}

func TestValidate_InvalidOptions(t *testing.T) {
	dir := clitest.Project(t, "asset_status: sometimes\n")
	_, _, err := clitest.Exec(t, cli.TestNewRootCmd(), "validate", "-c", dir)
	if !apperr.IsKind(err, apperr.InvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestValidate_MalformedStoredVersion(t *testing.T) {
	dir := clitest.Project(t, clitest.Options)
	st := state.New(time.Now())
	st.Settings.Versions[platform.PS4AppVersion] = "01.00"
	clitest.SaveState(t, dir, st)

	_, _, err := clitest.Exec(t, cli.TestNewRootCmd(), "validate", "-c", dir)
	if !apperr.IsKind(err, apperr.InvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if !strings.Contains(err.Error(), "ps4_app_version") {
		t.Fatalf("error should name the field: %v", err)
	}
}

func TestValidate_WarnsAboutPendingCycle(t *testing.T) {
	dir := clitest.Project(t, clitest.Options)
	st := state.New(time.Now())
	st.Pending = &state.PendingCycle{ID: "c-1", Platform: "ios", StartedAt: time.Now().UTC(), Decisions: map[string]bool{}}
	clitest.SaveState(t, dir, st)

	_, errOut, err := clitest.Exec(t, cli.TestNewRootCmd(), "validate", "-c", dir)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(errOut, "c-1") {
		t.Fatalf("expected pending warning, got %q", errOut)
	}
}
