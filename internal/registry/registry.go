// Package registry keeps the build-time participants and the per-build
// decisions they record.
//
// Participants are registered explicitly at the composition root. A
// participant may request a decision before the build (DecisionRequester),
// apply a mutation (Applier), or both. Decisions are scoped to one build
// cycle: Clear discards them, and a participant with no recorded decision is
// treated as declined.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/gcstr/buildversions/internal/logger"
)

// Target describes the build a participant is acting for.
type Target struct {
	CycleID     string
	Platform    string
	Development bool
}

// Participant is anything registered with the registry.
type Participant interface {
	ID() string
}

// DecisionRequester produces a yes/no decision before the build starts,
// possibly by prompting the user.
type DecisionRequester interface {
	Participant
	RequestDecision(ctx context.Context, t Target) (bool, error)
}

// Applier performs a participant's mutation. Appliers run in ascending Order;
// equal orders keep registration order.
type Applier interface {
	Participant
	Order() int
	Apply(ctx context.Context, t Target) error
}

// Registry is not safe for concurrent use; each orchestrator owns one.
type Registry struct {
	participants []Participant
	ids          map[string]struct{}
	decisions    map[string]bool
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{ids: map[string]struct{}{}, decisions: map[string]bool{}}
}

// Register adds p. The id must be non-empty and unique, and p must implement
// DecisionRequester, Applier or both.
func (r *Registry) Register(p Participant) error {
	if p == nil {
		return errors.New("registry: participant is nil")
	}
	id := p.ID()
	if id == "" {
		return errors.New("registry: participant id is required")
	}
	if _, exists := r.ids[id]; exists {
		return fmt.Errorf("registry: %s already registered", id)
	}
	_, isRequester := p.(DecisionRequester)
	_, isApplier := p.(Applier)
	if !isRequester && !isApplier {
		return fmt.Errorf("registry: %s neither requests decisions nor applies updates", id)
	}
	r.ids[id] = struct{}{}
	r.participants = append(r.participants, p)
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(p Participant) {
	if err := r.Register(p); err != nil {
		panic(err)
	}
}

// Len returns the number of registered participants.
func (r *Registry) Len() int { return len(r.participants) }

// Requesters returns the decision requesters in registration order.
func (r *Registry) Requesters() []DecisionRequester {
	var out []DecisionRequester
	for _, p := range r.participants {
		if dr, ok := p.(DecisionRequester); ok {
			out = append(out, dr)
		}
	}
	return out
}

// Appliers returns the appliers sorted by Order, ties in registration order.
func (r *Registry) Appliers() []Applier {
	var out []Applier
	for _, p := range r.participants {
		if a, ok := p.(Applier); ok {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order() < out[j].Order() })
	return out
}

// Clear discards every recorded decision. Call once per build cycle before
// collecting decisions.
func (r *Registry) Clear() {
	r.decisions = map[string]bool{}
}

// RecordDecision stores the decision for id, replacing any earlier one from
// the same cycle.
func (r *Registry) RecordDecision(id string, accepted bool) {
	r.decisions[id] = accepted
}

// GetDecision returns the recorded decision for id, or false when none was
// recorded this cycle.
func (r *Registry) GetDecision(id string) bool {
	return r.decisions[id]
}

// Decision returns the recorded decision and whether one exists.
func (r *Registry) Decision(id string) (accepted, ok bool) {
	accepted, ok = r.decisions[id]
	return accepted, ok
}

// Decisions returns a copy of the decisions recorded this cycle.
func (r *Registry) Decisions() map[string]bool {
	out := make(map[string]bool, len(r.decisions))
	for k, v := range r.decisions {
		out[k] = v
	}
	return out
}

// Restore replaces the current decisions with a previously saved set, used
// when a build's start and finish hooks run in different processes.
func (r *Registry) Restore(decisions map[string]bool) {
	r.Clear()
	for k, v := range decisions {
		r.decisions[k] = v
	}
}

// Report summarizes one dispatch.
type Report struct {
	Applied []string
	Skipped []string
	Failed  map[string]error
}

// Err joins the failures in apply order, or returns nil.
func (rep Report) Err() error {
	if len(rep.Failed) == 0 {
		return nil
	}
	ids := make([]string, 0, len(rep.Failed))
	for id := range rep.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	errs := make([]error, 0, len(ids))
	for _, id := range ids {
		errs = append(errs, fmt.Errorf("%s: %w", id, rep.Failed[id]))
	}
	return errors.Join(errs...)
}

// DispatchApply runs every applier in order. Appliers for which skip returns
// true are not invoked. A failing applier is recorded and the rest still run.
func (r *Registry) DispatchApply(ctx context.Context, t Target, skip func(Applier) bool) Report {
	log := logger.FromContext(ctx).With("component", "registry", "cycle_id", t.CycleID, "platform", t.Platform)
	rep := Report{Failed: map[string]error{}}

	appliers := r.Appliers()
	if len(appliers) == 0 {
		log.Warn("no_updaters_registered")
		return rep
	}

	for _, a := range appliers {
		if skip != nil && skip(a) {
			rep.Skipped = append(rep.Skipped, a.ID())
			log.Debug("updater_skipped", "subject", a.ID())
			continue
		}
		st := logger.StartStep(log, "updater_apply", a.ID(), "order", a.Order())
		if err := a.Apply(ctx, t); err != nil {
			rep.Failed[a.ID()] = st.Fail(err)
			continue
		}
		st.OK(true)
		rep.Applied = append(rep.Applied, a.ID())
	}

	if len(rep.Applied) == 0 && len(rep.Failed) == 0 {
		log.Info("no_updaters_applicable", "skipped", len(rep.Skipped))
	}
	return rep
}
