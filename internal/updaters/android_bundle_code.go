package updaters

import (
	"context"
	"fmt"

	"github.com/gcstr/buildversions/internal/logger"
	"github.com/gcstr/buildversions/internal/platform"
	"github.com/gcstr/buildversions/internal/prompt"
	"github.com/gcstr/buildversions/internal/registry"
)

// AndroidBundleCode increments the bundle version code of Android builds.
type AndroidBundleCode struct{ env *Env }

func (*AndroidBundleCode) ID() string { return AndroidBundleCodeID }
func (*AndroidBundleCode) Order() int { return 20 }

// RequestDecision declines without asking for any platform but Android.
func (a *AndroidBundleCode) RequestDecision(ctx context.Context, t registry.Target) (bool, error) {
	if t.Platform != string(platform.Android) {
		return false, nil
	}
	code := a.env.State.Settings.AndroidBundleCode
	return decide(ctx, a.env, a.env.Config.AndroidBundleCode, prompt.Question{
		Title:   "Android Bundle Code",
		Message: fmt.Sprintf("Increment the Android bundle code from %d to %d?", code, code+1),
		Yes:     "Increment",
		No:      "Keep",
	})
}

func (a *AndroidBundleCode) Apply(ctx context.Context, t registry.Target) error {
	if t.Platform != string(platform.Android) {
		return nil
	}
	a.env.State.Settings.AndroidBundleCode++
	logger.FromContext(ctx).Info("android_bundle_code_incremented", "android_bundle_code", a.env.State.Settings.AndroidBundleCode)
	return nil
}
