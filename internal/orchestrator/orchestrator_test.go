package orchestrator

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/gcstr/buildversions/internal/config"
	"github.com/gcstr/buildversions/internal/prompt"
	"github.com/gcstr/buildversions/internal/registry"
)

// participant both asks for a decision and applies; plain applies only.
type participant struct {
	id     string
	order  int
	answer bool
	err    error
	asked  *int
	calls  *[]string
}

func (p participant) ID() string { return p.id }
func (p participant) Order() int { return p.order }
func (p participant) RequestDecision(context.Context, registry.Target) (bool, error) {
	*p.asked++
	return p.answer, p.err
}
func (p participant) Apply(_ context.Context, t registry.Target) error {
	*p.calls = append(*p.calls, p.id+"@"+t.Platform)
	return nil
}

type plain struct {
	id    string
	order int
	calls *[]string
}

func (p plain) ID() string { return p.id }
func (p plain) Order() int { return p.order }
func (p plain) Apply(_ context.Context, t registry.Target) error {
	*p.calls = append(*p.calls, p.id+"@"+t.Platform)
	return nil
}

type fixture struct {
	reg   *registry.Registry
	calls []string
	asked int
}

func newFixture() *fixture {
	f := &fixture{reg: registry.New()}
	f.reg.MustRegister(plain{id: "build_information", order: 0, calls: &f.calls})
	f.reg.MustRegister(participant{id: "yes", order: 10, answer: true, asked: &f.asked, calls: &f.calls})
	f.reg.MustRegister(participant{id: "no", order: 20, answer: false, asked: &f.asked, calls: &f.calls})
	return f
}

func (f *fixture) orchestrator(s Settings, c prompt.Confirmer) *Orchestrator {
	fixed := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	return New(f.reg, s, c, WithClock(func() time.Time { return fixed }), WithIDs(func() string { return "cycle-1" }))
}

func TestDisabled_NoDecisionsNoMutations(t *testing.T) {
	f := newFixture()
	f.reg.RecordDecision("yes", true)
	o := f.orchestrator(Settings{AssetStatus: config.Disabled, UpdateTime: config.EveryBuild, RunInDevBuilds: true}, nil)

	rep := o.OnBuildStarting(context.Background(), Build{Platform: "ios"})
	if rep.Skipped != SkipAssetDisabled || rep.Dispatch != nil {
		t.Fatalf("unexpected report %+v", rep)
	}
	if f.asked != 0 || len(f.calls) != 0 {
		t.Fatalf("disabled asset must not ask or apply: asked=%d calls=%v", f.asked, f.calls)
	}
	if len(rep.Decisions) != 0 || o.Pending() != nil {
		t.Fatalf("no decisions or pending cycle expected")
	}
	if o.State() != Idle {
		t.Fatalf("state = %v, want idle", o.State())
	}
}

func TestDeferred_AppliesOnlyAcceptedOnSuccess(t *testing.T) {
	f := newFixture()
	o := f.orchestrator(Settings{AssetStatus: config.Enabled, UpdateTime: config.SuccessfulBuilds, RunInDevBuilds: true}, nil)

	rep := o.OnBuildStarting(context.Background(), Build{Platform: "android"})
	if !rep.Deferred || rep.Dispatch != nil || len(f.calls) != 0 {
		t.Fatalf("expected deferred start without applying: %+v calls=%v", rep, f.calls)
	}
	if !reflect.DeepEqual(rep.Decisions, map[string]bool{"yes": true, "no": false}) {
		t.Fatalf("decisions = %v", rep.Decisions)
	}
	p := o.Pending()
	if p == nil || p.ID != "cycle-1" || p.Platform != "android" {
		t.Fatalf("pending = %+v", p)
	}

	rep = o.OnBuildFinished(context.Background(), "android", true)
	if err := rep.Err(); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	want := []string{"build_information@android", "yes@android"}
	if !reflect.DeepEqual(f.calls, want) {
		t.Fatalf("calls = %v, want %v", f.calls, want)
	}
	if !reflect.DeepEqual(rep.Dispatch.Skipped, []string{"no"}) {
		t.Fatalf("skipped = %v", rep.Dispatch.Skipped)
	}
	if o.Pending() != nil || o.State() != Idle {
		t.Fatalf("cycle must be consumed and state idle")
	}
}

func TestDeferred_FailedBuildAppliesNothing(t *testing.T) {
	f := newFixture()
	o := f.orchestrator(Settings{AssetStatus: config.Enabled, UpdateTime: config.SuccessfulBuilds, RunInDevBuilds: true}, nil)
	o.OnBuildStarting(context.Background(), Build{Platform: "ios"})

	rep := o.OnBuildFinished(context.Background(), "ios", false)
	if rep.Skipped != SkipBuildFailed || rep.Dispatch != nil || len(f.calls) != 0 {
		t.Fatalf("failed build must not apply: %+v calls=%v", rep, f.calls)
	}
	if o.Pending() != nil {
		t.Fatalf("failed build must consume the pending cycle")
	}
	// A late success signal for the same attempt does nothing.
	rep = o.OnBuildFinished(context.Background(), "ios", true)
	if rep.Skipped != SkipNoPendingCycle || len(f.calls) != 0 {
		t.Fatalf("late success must be ignored: %+v", rep)
	}
}

func TestEveryBuild_AppliesImmediately(t *testing.T) {
	f := newFixture()
	o := f.orchestrator(Settings{AssetStatus: config.Enabled, UpdateTime: config.EveryBuild, RunInDevBuilds: true}, nil)

	rep := o.OnBuildStarting(context.Background(), Build{Platform: "webgl"})
	if rep.Deferred || rep.Dispatch == nil {
		t.Fatalf("expected immediate dispatch: %+v", rep)
	}
	if !reflect.DeepEqual(f.calls, []string{"build_information@webgl", "yes@webgl"}) {
		t.Fatalf("calls = %v", f.calls)
	}
	if o.Pending() != nil {
		t.Fatalf("immediate apply must not leave a pending cycle")
	}
	if rep := o.OnBuildFinished(context.Background(), "webgl", true); rep.Skipped != SkipNoPendingCycle {
		t.Fatalf("finish after immediate apply must be a no-op: %+v", rep)
	}
	if len(f.calls) != 2 {
		t.Fatalf("finish must not apply twice: %v", f.calls)
	}
}

func TestPromptGate(t *testing.T) {
	for _, tc := range []struct {
		name    string
		confirm prompt.Confirmer
		applied bool
	}{
		{"accepted", prompt.Fixed(true), true},
		{"declined", prompt.Fixed(false), false},
		{"error counts as no", prompt.Func(func(context.Context, prompt.Question) (bool, error) {
			return true, errors.New("no terminal")
		}), false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			rec := &prompt.Recorder{Next: tc.confirm}
			o := f.orchestrator(Settings{AssetStatus: config.PromptUser, UpdateTime: config.EveryBuild, RunInDevBuilds: true}, rec)
			rep := o.OnBuildStarting(context.Background(), Build{Platform: "ios"})
			if len(rec.Asked) != 1 {
				t.Fatalf("expected exactly one gate prompt, got %d", len(rec.Asked))
			}
			if tc.applied != (len(f.calls) > 0) {
				t.Fatalf("applied=%v calls=%v", tc.applied, f.calls)
			}
			if !tc.applied && (rep.Skipped != SkipDeclined || f.asked != 0) {
				t.Fatalf("declined gate must skip decision collection: %+v asked=%d", rep, f.asked)
			}
		})
	}
}

func TestDevelopmentBuildSkipped(t *testing.T) {
	f := newFixture()
	o := f.orchestrator(Settings{AssetStatus: config.Enabled, UpdateTime: config.EveryBuild, RunInDevBuilds: false}, nil)
	rep := o.OnBuildStarting(context.Background(), Build{Platform: "ios", Development: true})
	if rep.Skipped != SkipDevelopmentBuild || f.asked != 0 || len(f.calls) != 0 {
		t.Fatalf("development build must be skipped: %+v", rep)
	}
	rep = o.OnBuildStarting(context.Background(), Build{Platform: "ios"})
	if rep.Skipped != "" || len(f.calls) == 0 {
		t.Fatalf("release build must still run: %+v", rep)
	}
}

func TestRequesterErrorRecordsFalse(t *testing.T) {
	reg := registry.New()
	var calls []string
	asked := 0
	reg.MustRegister(participant{id: "broken", answer: true, err: errors.New("boom"), asked: &asked, calls: &calls})
	o := New(reg, Settings{AssetStatus: config.Enabled, UpdateTime: config.EveryBuild, RunInDevBuilds: true}, nil)
	rep := o.OnBuildStarting(context.Background(), Build{Platform: "ios"})
	if rep.Decisions["broken"] || len(calls) != 0 {
		t.Fatalf("failing requester must be declined: %+v calls=%v", rep, calls)
	}
}

func TestResumeAcrossProcesses(t *testing.T) {
	first := newFixture()
	o1 := first.orchestrator(Settings{AssetStatus: config.Enabled, UpdateTime: config.SuccessfulBuilds, RunInDevBuilds: true}, nil)
	o1.OnBuildStarting(context.Background(), Build{Platform: "switch"})
	saved := o1.Pending()
	if saved == nil {
		t.Fatalf("expected pending cycle")
	}

	second := newFixture()
	o2 := second.orchestrator(Settings{AssetStatus: config.Enabled, UpdateTime: config.SuccessfulBuilds, RunInDevBuilds: true}, nil)
	o2.Resume(*saved)
	rep := o2.OnBuildFinished(context.Background(), "ios", true)
	if rep.CycleID != "cycle-1" {
		t.Fatalf("cycle id = %q", rep.CycleID)
	}
	// Platform mismatch keeps the pending platform.
	if !reflect.DeepEqual(second.calls, []string{"build_information@switch", "yes@switch"}) {
		t.Fatalf("calls = %v", second.calls)
	}
	if second.asked != 0 {
		t.Fatalf("resumed cycle must not ask again")
	}
}

func TestNewStartDiscardsPendingCycle(t *testing.T) {
	f := newFixture()
	ids := []string{"a", "b"}
	o := New(f.reg, Settings{AssetStatus: config.Enabled, UpdateTime: config.SuccessfulBuilds, RunInDevBuilds: true}, nil,
		WithIDs(func() string { id := ids[0]; ids = ids[1:]; return id }))
	o.OnBuildStarting(context.Background(), Build{Platform: "ios"})
	o.OnBuildStarting(context.Background(), Build{Platform: "android"})
	if p := o.Pending(); p == nil || p.ID != "b" || p.Platform != "android" {
		t.Fatalf("pending = %+v", p)
	}
}

func TestSkippedStartClearsResumedDecisions(t *testing.T) {
	for _, s := range []Settings{
		{AssetStatus: config.Disabled, UpdateTime: config.SuccessfulBuilds, RunInDevBuilds: true},
		{AssetStatus: config.Enabled, UpdateTime: config.SuccessfulBuilds, RunInDevBuilds: false},
	} {
		f := newFixture()
		o := f.orchestrator(s, nil)
		o.Resume(Cycle{ID: "old", Platform: "ios", Decisions: map[string]bool{"yes": true}})
		if !f.reg.GetDecision("yes") {
			t.Fatalf("resume should restore decisions")
		}

		rep := o.OnBuildStarting(context.Background(), Build{Platform: "ios", Development: true})
		if rep.Skipped == "" {
			t.Fatalf("expected a skipped start, got %+v", rep)
		}
		if _, ok := f.reg.Decision("yes"); ok {
			t.Fatalf("decisions of the previous cycle must not survive a new start (%+v)", s)
		}
	}
}

func TestStateString(t *testing.T) {
	want := map[State]string{
		Idle: "idle", PreBuildGate: "pre_build_gate", DecisionCollection: "decision_collection",
		ImmediateApply: "immediate_apply", DeferredApply: "deferred_apply", State(42): "unknown",
	}
	for s, w := range want {
		if s.String() != w {
			t.Fatalf("%d.String() = %q, want %q", int(s), s.String(), w)
		}
	}
}
