// Package clitest holds helpers shared by the command tests.
package clitest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gcstr/buildversions/internal/cli/common"
	"github.com/gcstr/buildversions/internal/state"
	"github.com/spf13/cobra"
)

// Options used by most tests: every participant runs without prompting and
// updates wait for `build finish`.
const Options = `asset_status: enabled
build_update_time: successful_builds
semantic_update: enabled
semantic_component: patch
android_bundle_code: enabled
`

// Project writes buildversions.yml with options into a fresh temp directory
// and returns the directory.
func Project(t *testing.T, options string) string {
	t.Helper()
	dir := t.TempDir()
	WriteFile(t, dir, "buildversions.yml", options)
	return dir
}

// WriteFile writes content to dir/rel, creating parent directories.
func WriteFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(p), err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

// ReadFile returns the content of dir/rel.
func ReadFile(t *testing.T, dir, rel string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(b)
}

// Exec runs root with args and empty stdin, returning stdout and stderr.
func Exec(t *testing.T, root *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

// FreezeNow pins the clock used by commands for the rest of the test.
func FreezeNow(t *testing.T, now time.Time) {
	t.Helper()
	prev := common.Now
	common.Now = func() time.Time { return now }
	t.Cleanup(func() { common.Now = prev })
}

// LoadState reads the state file of the project in dir.
func LoadState(t *testing.T, dir string) state.State {
	t.Helper()
	st, err := state.OpenDir(dir, state.DefaultPath).Load()
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	return st
}

// SaveState writes st as the state of the project in dir.
func SaveState(t *testing.T, dir string, st state.State) {
	t.Helper()
	if err := state.OpenDir(dir, state.DefaultPath).Save(st); err != nil {
		t.Fatalf("save state: %v", err)
	}
}
