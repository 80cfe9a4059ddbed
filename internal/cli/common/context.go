package common

import (
	"context"
	"io"
	"time"

	"github.com/gcstr/buildversions/internal/config"
	"github.com/gcstr/buildversions/internal/logger"
	"github.com/gcstr/buildversions/internal/orchestrator"
	"github.com/gcstr/buildversions/internal/registry"
	"github.com/gcstr/buildversions/internal/state"
	"github.com/gcstr/buildversions/internal/syncer"
	"github.com/gcstr/buildversions/internal/ui"
	"github.com/gcstr/buildversions/internal/updaters"
	"github.com/spf13/cobra"
)

// Now is the clock used by every command.
var Now = time.Now

// CLIContext contains all the components needed for most CLI operations.
type CLIContext struct {
	Ctx     context.Context
	Config  config.Config
	Store   *state.Store
	State   state.State
	Printer ui.Printer
	Log     logger.Logger

	// Created is true when the state file did not exist and was initialised
	// in memory by this invocation.
	Created bool

	closer io.Closer
}

// SetupCLIContext loads the options and the state, creating the state when it
// does not exist yet. Mutating commands use it.
func SetupCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	c, err := setup(cmd)
	if err != nil {
		return nil, err
	}
	st, created, err := c.Store.LoadOrInit(Now())
	if err != nil {
		c.Close()
		return nil, err
	}
	c.State, c.Created = st, created
	if created {
		c.Log.Info("state_initialised", "path", c.Store.Path())
	}
	return c, nil
}

// SetupReadOnly is SetupCLIContext for commands that never write; a missing
// state file is an error.
func SetupReadOnly(cmd *cobra.Command) (*CLIContext, error) {
	c, err := setup(cmd)
	if err != nil {
		return nil, err
	}
	st, err := c.Store.Load()
	if err != nil {
		c.Close()
		return nil, err
	}
	c.State = st
	return c, nil
}

// SetupConfig loads the options and the logger without touching the state
// file.
func SetupConfig(cmd *cobra.Command) (*CLIContext, error) {
	return setup(cmd)
}

// WithState runs fn against the loaded state and saves it when fn succeeds.
func WithState(cmd *cobra.Command, fn func(c *CLIContext) error) error {
	c, err := SetupCLIContext(cmd)
	if err != nil {
		return err
	}
	defer c.Close()
	if err := fn(c); err != nil {
		return err
	}
	return c.Save()
}

func setup(cmd *cobra.Command) (*CLIContext, error) {
	pr := ui.StdPrinter{Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()}
	cfg, err := LoadConfigWithWarnings(cmd, pr)
	if err != nil {
		return nil, err
	}
	log, closer, err := NewLogger(cmd, cfg)
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return &CLIContext{
		Ctx:     logger.WithContext(ctx, log),
		Config:  cfg,
		Store:   state.OpenDir(cfg.BaseDir, cfg.StateFile),
		Printer: pr,
		Log:     log,
		closer:  closer,
	}, nil
}

// Save persists the state.
func (c *CLIContext) Save() error {
	if err := c.Store.Save(c.State); err != nil {
		return err
	}
	c.Log.Debug("state_saved", "path", c.Store.Path())
	return nil
}

// Close releases the log file sink, if any.
func (c *CLIContext) Close() {
	if c.closer != nil {
		_ = c.closer.Close()
	}
}

// SyncTargets builds the configured sync targets.
func (c *CLIContext) SyncTargets() ([]syncer.Target, error) {
	return syncer.FromConfig(c.Config)
}

// NewOrchestrator registers the built-in participants over c.State and
// returns an orchestrator ready for the build hooks.
func (c *CLIContext) NewOrchestrator(cmd *cobra.Command) (*orchestrator.Orchestrator, error) {
	targets, err := c.SyncTargets()
	if err != nil {
		return nil, err
	}
	confirm := Confirmer(cmd, c.Printer, c.Config.PromptDefault)
	reg := registry.New()
	env := &updaters.Env{
		State:   &c.State,
		Config:  c.Config,
		Confirm: confirm,
		Targets: targets,
		Now:     Now,
	}
	if err := updaters.RegisterDefaults(reg, env); err != nil {
		return nil, err
	}
	return orchestrator.New(reg, orchestrator.SettingsFrom(c.Config), confirm, orchestrator.WithClock(Now)), nil
}

// PendingFromState converts a persisted cycle for the orchestrator.
func PendingFromState(p *state.PendingCycle) *orchestrator.Cycle {
	if p == nil {
		return nil
	}
	return &orchestrator.Cycle{
		ID:          p.ID,
		Platform:    p.Platform,
		Development: p.Development,
		StartedAt:   p.StartedAt,
		Decisions:   p.Decisions,
	}
}

// PendingToState converts an orchestrator cycle for persisting.
func PendingToState(c *orchestrator.Cycle) *state.PendingCycle {
	if c == nil {
		return nil
	}
	return &state.PendingCycle{
		ID:          c.ID,
		Platform:    c.Platform,
		Development: c.Development,
		StartedAt:   c.StartedAt.UTC(),
		Decisions:   c.Decisions,
	}
}
