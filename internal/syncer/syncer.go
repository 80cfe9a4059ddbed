// Package syncer copies the current semantic version to places outside the
// state file: project files and git tags.
package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/gcstr/buildversions/internal/apperr"
	"github.com/gcstr/buildversions/internal/logger"
	"github.com/gcstr/buildversions/internal/version"
)

// Target receives a version.
type Target interface {
	Name() string
	// Sync writes version to the target. changed is false when the target
	// already carried it.
	Sync(ctx context.Context, version string) (changed bool, err error)
}

// Run syncs version to every target in order. A failing target does not stop
// the others; failures are joined in the returned error.
func Run(ctx context.Context, v string, targets []Target) error {
	if !version.IsValid(v) {
		return apperr.Wrap("syncer.Run", apperr.InvalidInput, version.ErrInvalidFormat, "cannot sync %q", v)
	}
	log := logger.FromContext(ctx).With("component", "syncer", "version", v)
	if len(targets) == 0 {
		log.Info("sync_skipped", "reason", "no_targets")
		return nil
	}
	var errs []error
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		st := logger.StartStep(log, "sync_target", t.Name())
		changed, err := t.Sync(ctx, v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.Name(), st.Fail(err)))
			continue
		}
		st.OK(changed)
	}
	return errors.Join(errs...)
}
