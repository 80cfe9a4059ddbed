package updaters

import (
	"context"

	"github.com/gcstr/buildversions/internal/logger"
	"github.com/gcstr/buildversions/internal/registry"
)

// BuildInformation increments the build number and stamps today's date on
// every applied build.
type BuildInformation struct{ env *Env }

func (*BuildInformation) ID() string { return BuildInformationID }
func (*BuildInformation) Order() int { return 0 }

func (b *BuildInformation) Apply(ctx context.Context, _ registry.Target) error {
	info := &b.env.State.Information
	n := info.BuildNumber.Increment()
	info.SetBuildDate(b.env.now())
	logger.FromContext(ctx).Info("build_number_incremented", "build_number", n, "build_date", info.BuildDate.String())
	return nil
}
