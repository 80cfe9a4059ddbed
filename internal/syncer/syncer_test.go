package syncer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gcstr/buildversions/internal/apperr"
	"github.com/gcstr/buildversions/internal/config"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func writeFile(t *testing.T, root, rel, body string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
	return p
}

func readFile(t *testing.T, p string) string {
	t.Helper()
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read %s: %v", p, err)
	}
	return string(b)
}

type fakeTarget struct {
	name string
	err  error
	got  *[]string
}

func (f fakeTarget) Name() string { return f.name }
func (f fakeTarget) Sync(_ context.Context, v string) (bool, error) {
	*f.got = append(*f.got, f.name+"="+v)
	return f.err == nil, f.err
}

func TestRun_ContinuesAfterFailure(t *testing.T) {
	var got []string
	boom := errors.New("boom")
	err := Run(context.Background(), "1.2.3", []Target{
		fakeTarget{name: "a", err: boom, got: &got},
		fakeTarget{name: "b", got: &got},
	})
	if !errors.Is(err, boom) || !strings.Contains(err.Error(), "a: boom") {
		t.Fatalf("expected joined failure, got %v", err)
	}
	if strings.Join(got, ",") != "a=1.2.3,b=1.2.3" {
		t.Fatalf("targets run = %v", got)
	}
}

func TestRun_RejectsInvalidVersion(t *testing.T) {
	var got []string
	err := Run(context.Background(), "1.2", []Target{fakeTarget{name: "a", got: &got}})
	if !apperr.IsKind(err, apperr.InvalidInput) || len(got) != 0 {
		t.Fatalf("expected InvalidInput before any target ran, got %v %v", err, got)
	}
}

func TestFileTarget_RewritesVersionGroup(t *testing.T) {
	root := t.TempDir()
	asset := writeFile(t, root, "ProjectSettings/ProjectSettings.asset",
		"PlayerSettings:\n  productName: Game\n  bundleVersion: 0.1.0\n  other: 1\n")
	untouched := writeFile(t, root, "ProjectSettings/Other.asset", "nothing here\n")
	writeFile(t, root, "Assets/readme.txt", "bundleVersion: 9.9.9\n")

	ft, err := NewFileTarget(root, "ProjectSettings/*.asset", config.DefaultVersionPattern)
	if err != nil {
		t.Fatalf("NewFileTarget: %v", err)
	}
	changed, err := ft.Sync(context.Background(), "1.4.0")
	if err != nil || !changed {
		t.Fatalf("Sync = %v, %v", changed, err)
	}
	if got := readFile(t, asset); !strings.Contains(got, "bundleVersion: 1.4.0\n  other: 1") {
		t.Fatalf("asset not rewritten:\n%s", got)
	}
	if readFile(t, untouched) != "nothing here\n" {
		t.Fatalf("non-matching file must be left alone")
	}
	if !strings.Contains(readFile(t, filepath.Join(root, "Assets", "readme.txt")), "9.9.9") {
		t.Fatalf("file outside the glob must be left alone")
	}

	changed, err = ft.Sync(context.Background(), "1.4.0")
	if err != nil || changed {
		t.Fatalf("second sync must be a no-op, got %v %v", changed, err)
	}
}

func TestFileTarget_DoubleStarAndCustomPattern(t *testing.T) {
	root := t.TempDir()
	a := writeFile(t, root, "packages/a/package.json", `{"name":"a","version": "0.0.1"}`)
	b := writeFile(t, root, "packages/nested/b/package.json", `{"version": "0.0.2","name":"b"}`)
	ft, err := NewFileTarget(root, "**/package.json", `"version":\s*"(?P<version>[^"]+)"`)
	if err != nil {
		t.Fatalf("NewFileTarget: %v", err)
	}
	if _, err := ft.Sync(context.Background(), "2.0.0"); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if !strings.Contains(readFile(t, a), `"version": "2.0.0"`) || !strings.Contains(readFile(t, b), `"version": "2.0.0"`) {
		t.Fatalf("files not rewritten: %s | %s", readFile(t, a), readFile(t, b))
	}
}

func TestFileTarget_Errors(t *testing.T) {
	root := t.TempDir()
	if _, err := NewFileTarget(root, "*.txt", `v\d+`); !apperr.IsKind(err, apperr.InvalidInput) {
		t.Fatalf("expected InvalidInput for missing group, got %v", err)
	}
	if _, err := NewFileTarget(root, "[", config.DefaultVersionPattern); !apperr.IsKind(err, apperr.InvalidInput) {
		t.Fatalf("expected InvalidInput for bad glob, got %v", err)
	}
	ft, _ := NewFileTarget(root, "*.asset", config.DefaultVersionPattern)
	if _, err := ft.Sync(context.Background(), "1.0.0"); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("expected NotFound without matching files, got %v", err)
	}
	writeFile(t, root, "x.asset", "no version line\n")
	if _, err := ft.Sync(context.Background(), "1.0.0"); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("expected NotFound when the pattern matches nothing, got %v", err)
	}
}

func initRepo(t *testing.T) (string, *git.Repository) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	writeFile(t, dir, "README.md", "game\n")
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	if _, err := wt.Add("README.md"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	sig := &object.Signature{Name: "dev", Email: "dev@example.com", When: time.Now()}
	if _, err := wt.Commit("initial", &git.CommitOptions{Author: sig, Committer: sig}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return dir, repo
}

func TestGitTagTarget_Lightweight(t *testing.T) {
	dir, repo := initRepo(t)
	g := &GitTagTarget{Repo: dir, Prefix: "v"}
	changed, err := g.Sync(context.Background(), "1.2.3")
	if err != nil || !changed {
		t.Fatalf("Sync = %v, %v", changed, err)
	}
	ref, err := repo.Tag("v1.2.3")
	if err != nil {
		t.Fatalf("tag missing: %v", err)
	}
	head, _ := repo.Head()
	if ref.Hash() != head.Hash() {
		t.Fatalf("lightweight tag must point at HEAD")
	}
	if _, err := g.Sync(context.Background(), "1.2.3"); !apperr.IsKind(err, apperr.Conflict) {
		t.Fatalf("expected Conflict for existing tag, got %v", err)
	}
	if _, err := g.Sync(context.Background(), "1.2.2"); !apperr.IsKind(err, apperr.Conflict) {
		t.Fatalf("expected Conflict for older version, got %v", err)
	}
}

func TestGitTagTarget_AnnotatedMessage(t *testing.T) {
	dir, repo := initRepo(t)
	when := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	g := &GitTagTarget{Repo: dir, Prefix: "release-", Annotated: true, Message: "Release {version}", Now: func() time.Time { return when }}
	if _, err := g.Sync(context.Background(), "0.2.0"); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	ref, err := repo.Tag("release-0.2.0")
	if err != nil {
		t.Fatalf("tag missing: %v", err)
	}
	obj, err := repo.TagObject(ref.Hash())
	if err != nil {
		t.Fatalf("expected annotated tag object: %v", err)
	}
	if strings.TrimSpace(obj.Message) != "Release 0.2.0" || obj.Tagger.Name == "" {
		t.Fatalf("tag object = %q by %q", obj.Message, obj.Tagger.Name)
	}
}

func TestGitTagTarget_IgnoresOtherPrefixes(t *testing.T) {
	dir, repo := initRepo(t)
	head, _ := repo.Head()
	if err := repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewTagReferenceName("other-9.0.0"), head.Hash())); err != nil {
		t.Fatalf("set ref: %v", err)
	}
	g := &GitTagTarget{Repo: dir, Prefix: "v"}
	if _, err := g.Sync(context.Background(), "1.0.0"); err != nil {
		t.Fatalf("tags with another prefix must not block: %v", err)
	}
}

func TestGitTagTarget_PushWithoutRemote(t *testing.T) {
	dir, repo := initRepo(t)
	g := &GitTagTarget{Repo: dir, Prefix: "v", Push: true, Remote: "origin", Token: "t0ken"}
	changed, err := g.Sync(context.Background(), "1.0.0")
	if !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("expected NotFound for missing remote, got %v", err)
	}
	if !changed {
		t.Fatalf("tag is created before the push")
	}
	if _, err := repo.Tag("v1.0.0"); err != nil {
		t.Fatalf("local tag must remain after failed push: %v", err)
	}
}

func TestGitTagTarget_Errors(t *testing.T) {
	if _, err := (&GitTagTarget{Repo: t.TempDir()}).Sync(context.Background(), "1.0.0"); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("expected NotFound outside a repository, got %v", err)
	}
	dir := t.TempDir()
	if _, err := git.PlainInit(dir, false); err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	if _, err := (&GitTagTarget{Repo: dir}).Sync(context.Background(), "1.0.0"); !apperr.IsKind(err, apperr.Precondition) {
		t.Fatalf("expected Precondition without commits, got %v", err)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.BaseDir = t.TempDir()
	cfg.Sync.Files = []config.FileSync{{Glob: "*.asset", Pattern: config.DefaultVersionPattern}}
	cfg.Sync.Git = &config.GitSync{Enabled: false, Repo: cfg.BaseDir}
	targets, err := FromConfig(cfg)
	if err != nil || len(targets) != 1 {
		t.Fatalf("FromConfig = %v, %v", targets, err)
	}
	cfg.Sync.Git.Enabled = true
	targets, _ = FromConfig(cfg)
	if len(targets) != 2 || targets[1].Name() != "git:"+cfg.BaseDir {
		t.Fatalf("expected git target last, got %v", targets)
	}
}
