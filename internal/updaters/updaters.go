// Package updaters holds the built-in build participants: the build record,
// the semantic version, the Android bundle code and version sync.
package updaters

import (
	"context"
	"time"

	"github.com/gcstr/buildversions/internal/config"
	"github.com/gcstr/buildversions/internal/prompt"
	"github.com/gcstr/buildversions/internal/registry"
	"github.com/gcstr/buildversions/internal/state"
	"github.com/gcstr/buildversions/internal/syncer"
)

// Participant ids, also used as decision keys.
const (
	BuildInformationID  = "build_information"
	SemanticVersionID   = "semantic_version"
	AndroidBundleCodeID = "android_bundle_code"
	SyncTargetsID       = "sync_targets"
)

// Env is what the participants read and mutate. State is shared with the
// caller, which persists it after the hooks ran.
type Env struct {
	State   *state.State
	Config  config.Config
	Confirm prompt.Confirmer
	// Decisions is consulted by participants that depend on another
	// participant's decision.
	Decisions interface{ GetDecision(id string) bool }
	Targets   []syncer.Target
	Now       func() time.Time
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Env) confirm(ctx context.Context, q prompt.Question) (bool, error) {
	if e.Confirm == nil {
		return e.Config.PromptDefault, nil
	}
	return e.Confirm.Confirm(ctx, q)
}

// RegisterDefaults registers every built-in participant with reg.
func RegisterDefaults(reg *registry.Registry, env *Env) error {
	if env.Decisions == nil {
		env.Decisions = reg
	}
	for _, p := range []registry.Participant{
		&BuildInformation{env: env},
		&SemanticVersion{env: env},
		&AndroidBundleCode{env: env},
		&SyncTargets{env: env},
	} {
		if err := reg.Register(p); err != nil {
			return err
		}
	}
	return nil
}

// decide resolves a usage policy, prompting for PromptUser.
func decide(ctx context.Context, env *Env, policy config.UsagePolicy, q prompt.Question) (bool, error) {
	switch policy {
	case config.Enabled:
		return true, nil
	case config.PromptUser:
		return env.confirm(ctx, q)
	default:
		return false, nil
	}
}
