package syncer

import (
	"github.com/gcstr/buildversions/internal/config"
)

// FromConfig builds the targets configured under sync, files first.
func FromConfig(cfg config.Config) ([]Target, error) {
	var out []Target
	for _, f := range cfg.Sync.Files {
		t, err := NewFileTarget(cfg.BaseDir, f.Glob, f.Pattern)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if g := cfg.Sync.Git; g != nil && g.Enabled {
		out = append(out, &GitTagTarget{
			Repo:      g.Repo,
			Prefix:    g.Prefix,
			Annotated: g.Annotated,
			Message:   g.Message,
			Push:      g.Push,
			Remote:    g.Remote,
			Username:  g.Username,
			Token:     g.Token,
		})
	}
	return out, nil
}
