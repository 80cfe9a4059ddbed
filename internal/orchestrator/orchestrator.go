// Package orchestrator drives a build cycle: it gates on the asset policy,
// collects one decision per participant before the build, and applies the
// accepted updates either immediately or once the build has succeeded.
package orchestrator

import (
	"context"
	"time"

	"github.com/gcstr/buildversions/internal/config"
	"github.com/gcstr/buildversions/internal/logger"
	"github.com/gcstr/buildversions/internal/prompt"
	"github.com/gcstr/buildversions/internal/registry"
	"github.com/google/uuid"
)

// State is the orchestrator's position in a build cycle. Every public call
// returns with the orchestrator back in Idle.
type State int

const (
	Idle State = iota
	PreBuildGate
	DecisionCollection
	ImmediateApply
	DeferredApply
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PreBuildGate:
		return "pre_build_gate"
	case DecisionCollection:
		return "decision_collection"
	case ImmediateApply:
		return "immediate_apply"
	case DeferredApply:
		return "deferred_apply"
	default:
		return "unknown"
	}
}

// Skip reasons reported when a hook dispatches nothing.
const (
	SkipDevelopmentBuild = "development_build"
	SkipAssetDisabled    = "asset_disabled"
	SkipDeclined         = "declined"
	SkipNoPendingCycle   = "no_pending_cycle"
	SkipBuildFailed      = "build_failed"
)

// Settings are the options the orchestrator reads.
type Settings struct {
	AssetStatus    config.UsagePolicy
	UpdateTime     config.ApplyTiming
	RunInDevBuilds bool
}

// SettingsFrom extracts orchestrator settings from the loaded options.
func SettingsFrom(cfg config.Config) Settings {
	return Settings{
		AssetStatus:    cfg.AssetStatus,
		UpdateTime:     cfg.BuildUpdateTime,
		RunInDevBuilds: cfg.RunInDevBuilds,
	}
}

// Build describes the build about to start.
type Build struct {
	Platform    string
	Development bool
}

// Cycle is a build whose decisions were collected and whose updates wait for
// the build-finished hook.
type Cycle struct {
	ID          string
	Platform    string
	Development bool
	StartedAt   time.Time
	Decisions   map[string]bool
}

func (c Cycle) target() registry.Target {
	return registry.Target{CycleID: c.ID, Platform: c.Platform, Development: c.Development}
}

// Report describes what one hook call did.
type Report struct {
	CycleID   string
	Decisions map[string]bool
	// Dispatch is nil when nothing was applied during this call.
	Dispatch *registry.Report
	// Deferred is true when updates wait for OnBuildFinished.
	Deferred bool
	// Skipped names why the hook stopped early, empty otherwise.
	Skipped string
}

// Err returns the joined participant failures, if any.
func (r Report) Err() error {
	if r.Dispatch == nil {
		return nil
	}
	return r.Dispatch.Err()
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithIDs replaces the cycle id generator.
func WithIDs(newID func() string) Option {
	return func(o *Orchestrator) { o.newID = newID }
}

// Orchestrator is not safe for concurrent use.
type Orchestrator struct {
	reg      *registry.Registry
	settings Settings
	confirm  prompt.Confirmer
	now      func() time.Time
	newID    func() string

	state   State
	pending *Cycle
}

// New builds an orchestrator over reg. A nil confirmer declines every prompt.
func New(reg *registry.Registry, s Settings, confirm prompt.Confirmer, opts ...Option) *Orchestrator {
	if confirm == nil {
		confirm = prompt.Fixed(false)
	}
	o := &Orchestrator{
		reg:      reg,
		settings: s,
		confirm:  confirm,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current state.
func (o *Orchestrator) State() State { return o.state }

// Registry returns the registry the orchestrator dispatches to.
func (o *Orchestrator) Registry() *registry.Registry { return o.reg }

// Pending returns a copy of the cycle waiting for OnBuildFinished, or nil.
func (o *Orchestrator) Pending() *Cycle {
	if o.pending == nil {
		return nil
	}
	c := *o.pending
	c.Decisions = copyDecisions(o.pending.Decisions)
	return &c
}

// Resume installs a cycle saved by an earlier process so that
// OnBuildFinished can complete it.
func (o *Orchestrator) Resume(c Cycle) {
	c.Decisions = copyDecisions(c.Decisions)
	o.pending = &c
	o.reg.Restore(c.Decisions)
}

// OnBuildStarting runs the pre-build hook.
func (o *Orchestrator) OnBuildStarting(ctx context.Context, b Build) Report {
	log := logger.FromContext(ctx).With("component", "orchestrator", "platform", b.Platform)
	defer o.transition(log, Idle)
	o.transition(log, PreBuildGate)
	o.reg.Clear()

	if o.pending != nil {
		log.Warn("pending_cycle_discarded", "cycle_id", o.pending.ID, "pending_platform", o.pending.Platform)
		o.pending = nil
	}

	if b.Development && !o.settings.RunInDevBuilds {
		log.Info("build_skipped", "reason", SkipDevelopmentBuild)
		return Report{Skipped: SkipDevelopmentBuild}
	}

	switch o.settings.AssetStatus {
	case config.Disabled:
		log.Info("build_skipped", "reason", SkipAssetDisabled)
		return Report{Skipped: SkipAssetDisabled}
	case config.PromptUser:
		ok, err := o.confirm.Confirm(ctx, prompt.Question{
			Title:   "Build Versions",
			Message: "Update the build information for this " + b.Platform + " build?",
			Yes:     "Update",
			No:      "Skip",
		})
		if err != nil {
			log.Warn("confirm_failed", "error", err.Error())
			ok = false
		}
		if !ok {
			log.Info("build_skipped", "reason", SkipDeclined)
			return Report{Skipped: SkipDeclined}
		}
	}

	o.transition(log, DecisionCollection)
	cycle := Cycle{
		ID:          o.newID(),
		Platform:    b.Platform,
		Development: b.Development,
		StartedAt:   o.now(),
	}
	log = log.With("cycle_id", cycle.ID)
	t := cycle.target()
	for _, rq := range o.reg.Requesters() {
		accepted, err := rq.RequestDecision(ctx, t)
		if err != nil {
			log.Warn("decision_failed", "subject", rq.ID(), "error", err.Error())
			accepted = false
		}
		o.reg.RecordDecision(rq.ID(), accepted)
		log.Debug("decision_recorded", "subject", rq.ID(), "accepted", accepted)
	}
	cycle.Decisions = o.reg.Decisions()
	rep := Report{CycleID: cycle.ID, Decisions: copyDecisions(cycle.Decisions)}

	if o.settings.UpdateTime == config.EveryBuild {
		o.transition(log, ImmediateApply)
		d := o.dispatch(ctx, t)
		rep.Dispatch = &d
		return rep
	}

	o.transition(log, DeferredApply)
	o.pending = &cycle
	rep.Deferred = true
	log.Info("updates_deferred", "decisions", len(cycle.Decisions))
	return rep
}

// OnBuildFinished runs the post-build hook. Updates of the pending cycle are
// applied only when success is true; the cycle is consumed either way.
func (o *Orchestrator) OnBuildFinished(ctx context.Context, platform string, success bool) Report {
	log := logger.FromContext(ctx).With("component", "orchestrator", "platform", platform)
	if o.pending == nil {
		log.Debug("build_finished_ignored", "reason", SkipNoPendingCycle)
		return Report{Skipped: SkipNoPendingCycle}
	}
	cycle := *o.pending
	o.pending = nil
	log = log.With("cycle_id", cycle.ID)
	rep := Report{CycleID: cycle.ID, Decisions: copyDecisions(cycle.Decisions)}

	if !success {
		o.reg.Clear()
		log.Info("build_skipped", "reason", SkipBuildFailed)
		rep.Skipped = SkipBuildFailed
		return rep
	}
	if platform != "" && platform != cycle.Platform {
		log.Warn("platform_mismatch", "pending_platform", cycle.Platform)
	}

	defer o.transition(log, Idle)
	o.transition(log, DeferredApply)
	o.reg.Restore(cycle.Decisions)
	d := o.dispatch(ctx, cycle.target())
	rep.Dispatch = &d
	return rep
}

// dispatch applies every participant except requesters that were declined
// or recorded no decision.
func (o *Orchestrator) dispatch(ctx context.Context, t registry.Target) registry.Report {
	return o.reg.DispatchApply(ctx, t, func(a registry.Applier) bool {
		if _, ok := a.(registry.DecisionRequester); !ok {
			return false
		}
		return !o.reg.GetDecision(a.ID())
	})
}

func (o *Orchestrator) transition(log logger.Logger, next State) {
	if o.state == next {
		return
	}
	log.Debug("state_transition", "from", o.state.String(), "to", next.String())
	o.state = next
}

func copyDecisions(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
