package syncer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gcstr/buildversions/internal/apperr"
	"github.com/gcstr/buildversions/internal/logger"
	"github.com/gcstr/buildversions/internal/version"
	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// GitTagTarget tags HEAD of a repository with Prefix+version and optionally
// pushes the tag.
type GitTagTarget struct {
	Repo      string
	Prefix    string
	Annotated bool
	// Message is the annotated tag message; {version} is replaced.
	Message  string
	Push     bool
	Remote   string
	Username string
	Token    string
	Now      func() time.Time
}

func (g *GitTagTarget) Name() string { return "git:" + g.Repo }

// TagName returns the tag created for v.
func (g *GitTagTarget) TagName(v string) string { return g.Prefix + v }

func (g *GitTagTarget) Sync(ctx context.Context, v string) (bool, error) {
	log := logger.FromContext(ctx)
	want, err := version.Parse(v)
	if err != nil {
		return false, apperr.Wrap("syncer.GitTagTarget", apperr.InvalidInput, err, "version %q", v)
	}
	repo, err := git.PlainOpenWithOptions(g.Repo, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return false, apperr.Wrap("syncer.GitTagTarget", apperr.NotFound, err, "open repository %s", g.Repo)
	}
	head, err := repo.Head()
	if err != nil {
		return false, apperr.Wrap("syncer.GitTagTarget", apperr.Precondition, err, "repository %s has no HEAD commit", g.Repo)
	}

	name := g.TagName(v)
	if _, err := repo.Tag(name); err == nil {
		return false, apperr.New("syncer.GitTagTarget", apperr.Conflict, "tag %s already exists", name)
	} else if !errors.Is(err, git.ErrTagNotFound) {
		return false, apperr.Wrap("syncer.GitTagTarget", apperr.Internal, err, "look up tag %s", name)
	}
	if newest, ok, err := g.newestTag(repo); err != nil {
		return false, err
	} else if ok && version.Compare(newest, want) > 0 {
		return false, apperr.New("syncer.GitTagTarget", apperr.Conflict, "newer tag %s%s exists", g.Prefix, newest)
	}

	var opts *git.CreateTagOptions
	if g.Annotated {
		opts = &git.CreateTagOptions{
			Tagger:  g.tagger(repo),
			Message: strings.ReplaceAll(g.Message, "{version}", v),
		}
	}
	if _, err := repo.CreateTag(name, head.Hash(), opts); err != nil {
		return false, apperr.Wrap("syncer.GitTagTarget", apperr.Internal, err, "create tag %s", name)
	}
	log.Info("git_tag_created", "tag", name, "commit", head.Hash().String()[:7], "annotated", g.Annotated)

	if !g.Push {
		return true, nil
	}
	if err := g.push(ctx, repo, name); err != nil {
		return true, err
	}
	log.Info("git_tag_pushed", "tag", name, "remote", g.Remote)
	return true, nil
}

// newestTag returns the highest semantic version among tags carrying Prefix.
func (g *GitTagTarget) newestTag(repo *git.Repository) (version.Semantic, bool, error) {
	iter, err := repo.Tags()
	if err != nil {
		return version.Semantic{}, false, apperr.Wrap("syncer.GitTagTarget", apperr.Internal, err, "list tags")
	}
	var newest version.Semantic
	found := false
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		short := ref.Name().Short()
		if !strings.HasPrefix(short, g.Prefix) {
			return nil
		}
		v, err := version.Parse(strings.TrimPrefix(short, g.Prefix))
		if err != nil {
			return nil
		}
		if !found || version.Compare(v, newest) > 0 {
			newest, found = v, true
		}
		return nil
	})
	if err != nil {
		return version.Semantic{}, false, apperr.Wrap("syncer.GitTagTarget", apperr.Internal, err, "iterate tags")
	}
	return newest, found, nil
}

func (g *GitTagTarget) tagger(repo *git.Repository) *object.Signature {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	sig := &object.Signature{Name: "buildversions", Email: "buildversions@localhost", When: now()}
	if cfg, err := repo.ConfigScoped(gitconfig.GlobalScope); err == nil {
		if cfg.User.Name != "" {
			sig.Name = cfg.User.Name
		}
		if cfg.User.Email != "" {
			sig.Email = cfg.User.Email
		}
	}
	return sig
}

func (g *GitTagTarget) push(ctx context.Context, repo *git.Repository, name string) error {
	ref := "refs/tags/" + name
	opts := &git.PushOptions{
		RemoteName: g.Remote,
		RefSpecs:   []gitconfig.RefSpec{gitconfig.RefSpec(ref + ":" + ref)},
		Auth:       g.auth(),
	}
	err := repo.PushContext(ctx, opts)
	switch {
	case err == nil, errors.Is(err, git.NoErrAlreadyUpToDate):
		return nil
	case errors.Is(err, git.ErrRemoteNotFound):
		return apperr.Wrap("syncer.GitTagTarget", apperr.NotFound, err, "remote %s", g.Remote)
	case errors.Is(err, transport.ErrAuthenticationRequired), errors.Is(err, transport.ErrAuthorizationFailed):
		return apperr.Wrap("syncer.GitTagTarget", apperr.External, err, "push %s to %s", name, g.Remote)
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.Wrap("syncer.GitTagTarget", apperr.Timeout, err, "push %s to %s", name, g.Remote)
	default:
		return apperr.Wrap("syncer.GitTagTarget", apperr.Unavailable, err, "push %s to %s", name, g.Remote)
	}
}

func (g *GitTagTarget) auth() transport.AuthMethod {
	if g.Token == "" {
		return nil
	}
	user := g.Username
	if user == "" {
		user = "git"
	}
	return &http.BasicAuth{Username: user, Password: g.Token}
}
