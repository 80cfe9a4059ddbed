package setcmd_test

import (
	"strings"
	"testing"
	"time"

	"github.com/gcstr/buildversions/internal/apperr"
	"github.com/gcstr/buildversions/internal/cli"
	"github.com/gcstr/buildversions/internal/cli/clitest"
	"github.com/gcstr/buildversions/internal/platform"
)

func TestSetVersion(t *testing.T) {
	dir := clitest.Project(t, clitest.Options)
	out, _, err := clitest.Exec(t, cli.TestNewRootCmd(), "set-version", "2.3.4", "-p", "ios", "-c", dir)
	if err != nil {
		t.Fatalf("set-version: %v", err)
	}
	if !strings.Contains(out, "ios: 0.1.0 → 2.3.4") {
		t.Fatalf("unexpected output %q", out)
	}
	st := clitest.LoadState(t, dir)
	if st.Settings.Versions[platform.IOSBuildNumber] != "2.3.4" || st.LastSemanticVersion != "2.3.4" {
		t.Fatalf("version not stored: %+v", st.Settings.Versions)
	}
}

func TestSetVersion_RejectsMalformed(t *testing.T) {
	dir := clitest.Project(t, clitest.Options)
	for _, v := range []string{"1.2", "1.2.3.4", "v1.2.3", "a.b.c"} {
		_, _, err := clitest.Exec(t, cli.TestNewRootCmd(), "set-version", v, "-c", dir)
		if !apperr.IsKind(err, apperr.InvalidInput) {
			t.Fatalf("%s: expected invalid input, got %v", v, err)
		}
	}
}

func TestSetType(t *testing.T) {
	dir := clitest.Project(t, clitest.Options)
	if _, _, err := clitest.Exec(t, cli.TestNewRootCmd(), "set-type", "  beta ", "-c", dir); err != nil {
		t.Fatalf("set-type: %v", err)
	}
	if got := clitest.LoadState(t, dir).Information.BuildType; got != "beta" {
		t.Fatalf("build type = %q", got)
	}
}

func TestSetDate(t *testing.T) {
	clitest.FreezeNow(t, time.Date(2025, 7, 4, 8, 0, 0, 0, time.UTC))
	dir := clitest.Project(t, clitest.Options)

	if _, _, err := clitest.Exec(t, cli.TestNewRootCmd(), "set-date", "--date", "2023-12-31", "-c", dir); err != nil {
		t.Fatalf("set-date --date: %v", err)
	}
	if got := clitest.LoadState(t, dir).Information.BuildDate.String(); got != "2023-12-31" {
		t.Fatalf("build date = %s", got)
	}

	if _, _, err := clitest.Exec(t, cli.TestNewRootCmd(), "set-date", "-c", dir); err != nil {
		t.Fatalf("set-date: %v", err)
	}
	if got := clitest.LoadState(t, dir).Information.BuildDate.String(); got != "2025-07-04" {
		t.Fatalf("build date = %s", got)
	}

	_, _, err := clitest.Exec(t, cli.TestNewRootCmd(), "set-date", "--date", "04/07/2025", "-c", dir)
	if !apperr.IsKind(err, apperr.InvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestSetBuildNumber(t *testing.T) {
	dir := clitest.Project(t, clitest.Options)
	steps := []struct {
		args []string
		want int
	}{
		{[]string{"set-build-number"}, 2},
		{[]string{"set-build-number"}, 3},
		{[]string{"set-build-number", "40"}, 40},
		{[]string{"set-build-number", "0"}, 0},
		{[]string{"set-build-number", "--reset"}, 1},
	}
	for _, s := range steps {
		if _, _, err := clitest.Exec(t, cli.TestNewRootCmd(), append(s.args, "-c", dir)...); err != nil {
			t.Fatalf("%v: %v", s.args, err)
		}
		if got := clitest.LoadState(t, dir).Information.BuildNumber.Value(); got != s.want {
			t.Fatalf("%v: build number = %d, want %d", s.args, got, s.want)
		}
	}
}

func TestSetBuildNumber_Errors(t *testing.T) {
	dir := clitest.Project(t, clitest.Options)
	for _, args := range [][]string{
		{"set-build-number", "abc"},
		{"set-build-number", "5", "--reset"},
	} {
		_, _, err := clitest.Exec(t, cli.TestNewRootCmd(), append(args, "-c", dir)...)
		if !apperr.IsKind(err, apperr.InvalidInput) {
			t.Fatalf("%v: expected invalid input, got %v", args, err)
		}
	}
}

func TestSetBundleCode(t *testing.T) {
	dir := clitest.Project(t, clitest.Options)
	if _, _, err := clitest.Exec(t, cli.TestNewRootCmd(), "set-bundle-code", "17", "-c", dir); err != nil {
		t.Fatalf("set-bundle-code: %v", err)
	}
	if got := clitest.LoadState(t, dir).Settings.AndroidBundleCode; got != 17 {
		t.Fatalf("bundle code = %d", got)
	}
	_, _, err := clitest.Exec(t, cli.TestNewRootCmd(), "set-bundle-code", "0", "-c", dir)
	if !apperr.IsKind(err, apperr.InvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
