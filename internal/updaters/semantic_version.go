package updaters

import (
	"context"
	"errors"
	"fmt"

	"github.com/gcstr/buildversions/internal/apperr"
	"github.com/gcstr/buildversions/internal/config"
	"github.com/gcstr/buildversions/internal/logger"
	"github.com/gcstr/buildversions/internal/platform"
	"github.com/gcstr/buildversions/internal/prompt"
	"github.com/gcstr/buildversions/internal/registry"
	"github.com/gcstr/buildversions/internal/version"
)

// SemanticVersion bumps the configured component of the target platform's
// version.
type SemanticVersion struct{ env *Env }

func (*SemanticVersion) ID() string { return SemanticVersionID }
func (*SemanticVersion) Order() int { return 10 }

func (s *SemanticVersion) RequestDecision(ctx context.Context, t registry.Target) (bool, error) {
	cfg := s.env.Config
	if cfg.SemanticUpdate != config.PromptUser {
		return decide(ctx, s.env, cfg.SemanticUpdate, prompt.Question{})
	}
	from := s.env.State.CurrentVersion()
	if id, err := platform.Parse(t.Platform); err == nil {
		if v, err := s.env.State.Settings.Version(id); err == nil && v != "" {
			from = v
		}
	}
	msg := fmt.Sprintf("Bump the %s version?", cfg.Component())
	if to, err := version.Bump(from, cfg.Component()); err == nil {
		msg = fmt.Sprintf("Bump the %s version from %s to %s?", cfg.Component(), from, to)
	}
	return decide(ctx, s.env, cfg.SemanticUpdate, prompt.Question{
		Title:   "Semantic Version",
		Message: msg,
		Yes:     "Bump",
		No:      "Keep",
	})
}

func (s *SemanticVersion) Apply(ctx context.Context, t registry.Target) error {
	log := logger.FromContext(ctx)
	id, err := platform.Parse(t.Platform)
	if err != nil {
		return apperr.Wrap("updaters.SemanticVersion", apperr.InvalidInput, err, "platform %q", t.Platform)
	}
	settings := &s.env.State.Settings
	cur, err := settings.Version(id)
	if err != nil {
		return apperr.Wrap("updaters.SemanticVersion", apperr.InvalidInput, err, "platform %q", t.Platform)
	}
	next, err := version.Bump(cur, s.env.Config.Component())
	if errors.Is(err, version.ErrInvalidFormat) {
		log.Warn("semantic_version_invalid", "platform", string(id), "value", cur)
		return nil
	}
	if err != nil {
		return err
	}
	if err := settings.SetVersion(id, next); err != nil {
		return apperr.Wrap("updaters.SemanticVersion", apperr.InvalidInput, err, "platform %q", t.Platform)
	}
	s.env.State.LastSemanticVersion = next
	log.Info("semantic_version_bumped", "platform", string(id), "from", cur, "to", next)
	return nil
}
