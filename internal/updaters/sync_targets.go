package updaters

import (
	"context"

	"github.com/gcstr/buildversions/internal/logger"
	"github.com/gcstr/buildversions/internal/registry"
	"github.com/gcstr/buildversions/internal/syncer"
)

// SyncTargets copies a freshly bumped version to the sync targets. It runs
// last and only when the semantic version was bumped this cycle.
type SyncTargets struct{ env *Env }

func (*SyncTargets) ID() string { return SyncTargetsID }
func (*SyncTargets) Order() int { return 100 }

func (s *SyncTargets) Apply(ctx context.Context, _ registry.Target) error {
	log := logger.FromContext(ctx)
	if !s.env.Config.Sync.OnBuild {
		log.Debug("sync_skipped", "reason", "on_build_disabled")
		return nil
	}
	if !s.env.Decisions.GetDecision(SemanticVersionID) {
		log.Debug("sync_skipped", "reason", "semantic_version_declined")
		return nil
	}
	return syncer.Run(ctx, s.env.State.CurrentVersion(), s.env.Targets)
}
