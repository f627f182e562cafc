// Package daemon drives the periodic balance-then-layout cycle.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/1broseidon/treetile/internal/metrics"
	"github.com/1broseidon/treetile/internal/platform"
	"github.com/1broseidon/treetile/internal/tiling"
	"github.com/1broseidon/treetile/internal/workspace"
)

// DefaultInterval is the pause between ticks.
const DefaultInterval = 300 * time.Millisecond

// ErrStopped is returned by commands sent to a poller that is not running.
var ErrStopped = errors.New("poller is not running")

// Settings are the tunables a poller can pick up on reload.
type Settings struct {
	Interval       time.Duration
	Threshold      int
	ReservedMargin int
	CreateAttempts int
	CreateInterval time.Duration
}

// ReloadFunc produces fresh settings, typically by re-reading the config file.
type ReloadFunc func() (Settings, error)

// PollerConfig holds configuration for the poller.
type PollerConfig struct {
	Settings Settings
	Reload   ReloadFunc
	Metrics  *metrics.Collector
	Logger   *slog.Logger
}

// Poller runs one balance pass followed by one layout pass per tick and
// owns the snapshot carried between ticks. All tick work and all commands
// run on the goroutine that called Run.
type Poller struct {
	sys      platform.WindowSystem
	balancer *workspace.Balancer
	engine   *tiling.Engine
	settings Settings
	reload   ReloadFunc
	metrics  *metrics.Collector
	logger   *slog.Logger

	snapshot *tiling.Snapshot
	stats    CycleStats
	// skipReason is the last transient failure, so repeats log at debug.
	skipReason string
	// abortReason is the last balancing failure that still let layout run.
	abortReason string

	commands chan command
	done     chan struct{}
}

// NewPoller creates a poller over sys.
func NewPoller(sys platform.WindowSystem, cfg PollerConfig) *Poller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	settings := normalize(cfg.Settings)

	p := &Poller{
		sys:      sys,
		settings: settings,
		reload:   cfg.Reload,
		metrics:  cfg.Metrics,
		logger:   logger,
		commands: make(chan command),
		done:     make(chan struct{}),
	}
	p.balancer = workspace.NewBalancer(sys, p.balancerConfig())
	p.engine = tiling.NewEngine(sys, tiling.EngineConfig{
		ReservedMargin: settings.ReservedMargin,
		Logger:         logger.With("component", "layout"),
	})
	return p
}

func normalize(s Settings) Settings {
	if s.Interval <= 0 {
		s.Interval = DefaultInterval
	}
	if s.Threshold <= 0 {
		s.Threshold = workspace.DefaultThreshold
	}
	if s.ReservedMargin < 0 {
		s.ReservedMargin = tiling.DefaultReservedMargin
	}
	if s.CreateAttempts <= 0 {
		s.CreateAttempts = workspace.DefaultCreateAttempts
	}
	if s.CreateInterval <= 0 {
		s.CreateInterval = workspace.DefaultCreateInterval
	}
	return s
}

func (p *Poller) balancerConfig() workspace.Config {
	return workspace.Config{
		Threshold:      p.settings.Threshold,
		CreateAttempts: p.settings.CreateAttempts,
		CreateInterval: p.settings.CreateInterval,
		Logger:         p.logger.With("component", "balancer"),
	}
}

// Run ticks until ctx is cancelled. The first tick runs immediately.
func (p *Poller) Run(ctx context.Context) error {
	defer close(p.done)

	ticker := time.NewTicker(p.settings.Interval)
	defer ticker.Stop()

	p.logger.Info("poller started",
		"interval", p.settings.Interval,
		"threshold", p.settings.Threshold)
	p.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped", "ticks", p.stats.Ticks)
			return nil
		case <-ticker.C:
			p.tick(ctx)
		case cmd := <-p.commands:
			before := p.settings.Interval
			cmd.reply <- p.handle(ctx, cmd.kind)
			if p.settings.Interval != before {
				ticker.Reset(p.settings.Interval)
			}
		}
	}
}

// tick performs a single balance and layout pass.
func (p *Poller) tick(ctx context.Context) {
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		p.stats.Ticks++
		p.stats.LastTick = start
		p.stats.LastTickDuration = elapsed
		p.metrics.ObserveTick(elapsed)
	}()
	// Recover from panics to keep the daemon alive
	defer func() {
		if err := recover(); err != nil {
			p.logger.Error("tick panic recovered", "error", err)
			p.stats.LastError = fmt.Sprint(err)
		}
	}()

	if err := p.preflight(); err != nil {
		p.skip(err)
		return
	}

	report, err := p.balancer.Balance(ctx)
	p.recordBalance(report)
	if err != nil {
		if !errors.Is(err, workspace.ErrWorkspaceCreation) {
			p.skip(fmt.Errorf("balance: %w", err))
			return
		}
		p.abort(err)
	} else {
		p.abortReason = ""
	}

	next, result, err := p.engine.Apply(p.snapshot)
	p.snapshot = next
	if err != nil {
		p.skip(err)
		return
	}
	p.recordLayout(result)
	p.skipReason = ""
	p.stats.LastError = ""
}

// preflight checks that there is an active workspace and at least one window.
func (p *Poller) preflight() error {
	if _, err := p.sys.ActiveWorkspace(); err != nil {
		return err
	}
	windows, err := p.sys.Windows()
	if err != nil {
		return fmt.Errorf("list windows: %w", err)
	}
	if len(windows) == 0 {
		return errNoWindows
	}
	return nil
}

var errNoWindows = errors.New("no windows")

// abort logs a balancing failure, at warn level only when it changes.
func (p *Poller) abort(err error) {
	reason := err.Error()
	if reason == p.abortReason {
		p.logger.Debug("balancing aborted", "error", err)
		return
	}
	p.abortReason = reason
	p.logger.Warn("balancing aborted", "error", err)
}

// skip logs a transient failure, at warn level only when it changes.
func (p *Poller) skip(err error) {
	p.stats.Skipped++
	reason := err.Error()
	p.stats.LastError = reason
	if reason == p.skipReason {
		p.logger.Debug("tick skipped", "reason", reason)
		return
	}
	p.skipReason = reason
	p.logger.Warn("tick skipped", "reason", reason)
}

func (p *Poller) recordBalance(r workspace.Report) {
	p.stats.WindowsMoved += uint64(len(r.Moves))
	p.stats.WorkspacesCreated += uint64(len(r.Created))
	p.stats.CreationFailures += uint64(r.CreationFailures)
	p.stats.BalanceAborts += uint64(len(r.Aborted))
	p.stats.LastBalance = summarize(r)
	p.metrics.ObserveBalance(len(r.Moves), len(r.Created), r.CreationFailures, len(r.Aborted))
}

func (p *Poller) recordLayout(r tiling.ApplyResult) {
	p.stats.LastLayout = LayoutSummary{
		Workspace: r.Workspace,
		Windows:   r.Windows,
		Changed:   r.Changed,
		Applied:   r.Applied,
		Failed:    r.Failed,
	}
	if r.Changed {
		p.stats.Relayouts++
		p.stats.GeometryUpdates += uint64(r.Applied)
	}
	p.metrics.ObserveLayout(r.Windows, r.Applied, r.Changed)
}

// apply installs new settings; they take effect from the next tick.
func (p *Poller) apply(s Settings) {
	p.settings = normalize(s)
	p.balancer.SetConfig(p.balancerConfig())
	p.engine.SetReservedMargin(p.settings.ReservedMargin)
	p.logger.Info("settings applied",
		"interval", p.settings.Interval,
		"threshold", p.settings.Threshold,
		"reserved_margin", p.settings.ReservedMargin)
}
