package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/1broseidon/treetile/internal/platform"
)

const (
	// DefaultCreateAttempts is how many times a new workspace is looked for
	// after it was requested.
	DefaultCreateAttempts = 10
	// DefaultCreateInterval is the pause between those looks.
	DefaultCreateInterval = 50 * time.Millisecond
)

// ErrWorkspaceCreation is returned when a requested workspace never appears.
var ErrWorkspaceCreation = errors.New("workspace creation not confirmed")

// Config holds balancer settings.
type Config struct {
	Threshold      int
	CreateAttempts int
	CreateInterval time.Duration
	Logger         *slog.Logger
}

// Move records one window relocation.
type Move struct {
	Window platform.WindowID   `json:"window"`
	From   platform.WorkspaceID `json:"from"`
	To     platform.WorkspaceID `json:"to"`
}

// Report describes one balancing pass.
type Report struct {
	Overloaded []platform.WorkspaceID
	Free       []platform.WorkspaceID
	Created    []platform.WorkspaceID
	Moves      []Move
	// Aborted lists overloaded workspaces left with excess windows because
	// no destination could be created.
	Aborted []platform.WorkspaceID
	// CreationFailures counts workspace requests that were never confirmed.
	CreationFailures int
	// Skipped counts moves that failed, usually because the window closed.
	Skipped int
	// Counts holds the active-window count per workspace after the pass.
	Counts map[platform.WorkspaceID]int
}

// Balancer redistributes windows from overloaded workspaces.
type Balancer struct {
	sys    platform.WindowSystem
	cfg    Config
	logger *slog.Logger
}

// NewBalancer creates a balancer over sys. Zero values in cfg take defaults.
func NewBalancer(sys platform.WindowSystem, cfg Config) *Balancer {
	b := &Balancer{sys: sys}
	b.SetConfig(cfg)
	return b
}

// SetConfig replaces the balancer settings from the next pass on.
func (b *Balancer) SetConfig(cfg Config) {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.CreateAttempts <= 0 {
		cfg.CreateAttempts = DefaultCreateAttempts
	}
	if cfg.CreateInterval < 0 {
		cfg.CreateInterval = 0
	}
	b.logger = cfg.Logger
	if b.logger == nil {
		b.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	b.cfg = cfg
}

// Threshold returns the active-window limit per workspace.
func (b *Balancer) Threshold() int {
	return b.cfg.Threshold
}

// Balance runs one pass. Overloaded workspaces shed their newest active
// windows, oldest of those first, onto free workspaces in id order; each
// destination is filled to the threshold before the next is used. A new
// workspace is requested whenever no workspace has room, even when nothing
// is overloaded yet, and again as soon as the last free one fills up.
//
// An error is returned when the window system cannot be enumerated or
// when the first workspace request fails, in which case no window moves.
// A failed request later on only stops the overloaded workspace being
// drained at the time and is recorded in the report.
func (b *Balancer) Balance(ctx context.Context) (Report, error) {
	var report Report

	counts, err := CountActive(b.sys)
	if err != nil {
		return report, err
	}
	report.Counts = counts

	overloaded, free := partition(counts, b.cfg.Threshold)
	report.Overloaded = overloaded
	report.Free = append([]platform.WorkspaceID(nil), free...)

	if len(free) == 0 {
		ws, err := b.replenish(ctx, &report, counts)
		if err != nil {
			report.Aborted = append(report.Aborted, overloaded...)
			return report, err
		}
		free = append(free, ws)
	}
	if len(overloaded) == 0 {
		return report, nil
	}

	windows, err := b.sys.Windows()
	if err != nil {
		return report, fmt.Errorf("list windows: %w", err)
	}

	for _, src := range overloaded {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		excess := counts[src] - b.cfg.Threshold
		candidates := newestActive(b.sys, windows, src, excess)
		b.logger.Info("workspace overloaded",
			"workspace", src,
			"windows", counts[src],
			"threshold", b.cfg.Threshold,
			"moving", len(candidates))

		for i, w := range candidates {
			// Only reached after an earlier request for this pass failed.
			if len(free) == 0 {
				ws, err := b.replenish(ctx, &report, counts)
				if err != nil {
					report.Aborted = append(report.Aborted, src)
					b.logger.Warn("stopping redistribution", "workspace", src, "error", err)
					break
				}
				free = append(free, ws)
			}

			dest := free[0]
			if err := b.sys.MoveToWorkspace(w, dest); err != nil {
				report.Skipped++
				b.logger.Warn("failed to move window", "window", w, "to", dest, "error", err)
				continue
			}
			b.logger.Info("moved window", "window", w, "from", src, "to", dest)
			report.Moves = append(report.Moves, Move{Window: w, From: src, To: dest})

			counts[src]--
			counts[dest]++
			if counts[dest] < b.cfg.Threshold {
				continue
			}
			free = free[1:]
			if len(free) > 0 {
				continue
			}
			ws, err := b.replenish(ctx, &report, counts)
			if err != nil {
				if i < len(candidates)-1 {
					report.Aborted = append(report.Aborted, src)
				}
				b.logger.Warn("stopping redistribution", "workspace", src, "error", err)
				break
			}
			free = append(free, ws)
		}
	}

	return report, nil
}

// replenish requests a workspace and records the outcome in report.
func (b *Balancer) replenish(ctx context.Context, report *Report, counts map[platform.WorkspaceID]int) (platform.WorkspaceID, error) {
	ws, err := b.createWorkspace(ctx)
	if err != nil {
		report.CreationFailures++
		return 0, err
	}
	report.Created = append(report.Created, ws)
	counts[ws] = 0
	return ws, nil
}

// newestActive returns up to n active windows of ws taken from the newest
// end of windows, ordered oldest first.
func newestActive(sys platform.WindowSystem, windows []platform.WindowID, ws platform.WorkspaceID, n int) []platform.WindowID {
	if n <= 0 {
		return nil
	}
	picked := make([]platform.WindowID, 0, n)
	for i := len(windows) - 1; i >= 0 && len(picked) < n; i-- {
		if platform.IsActiveOn(sys, windows[i], ws) {
			picked = append(picked, windows[i])
		}
	}
	for i, j := 0, len(picked)-1; i < j; i, j = i+1, j-1 {
		picked[i], picked[j] = picked[j], picked[i]
	}
	return picked
}

// createWorkspace asks for one more workspace and waits for the desktop
// count to grow. The new workspace is the one at the old count's index.
func (b *Balancer) createWorkspace(ctx context.Context) (platform.WorkspaceID, error) {
	before, err := b.sys.WorkspaceCount()
	if err != nil {
		return 0, fmt.Errorf("%w: read workspace count: %v", ErrWorkspaceCreation, err)
	}
	if err := b.sys.RequestAdditionalWorkspace(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrWorkspaceCreation, err)
	}
	b.logger.Info("requested new workspace", "count", before)

	for attempt := 0; attempt < b.cfg.CreateAttempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, b.cfg.CreateInterval); err != nil {
				return 0, err
			}
		}
		count, err := b.sys.WorkspaceCount()
		if err != nil || count <= before {
			continue
		}
		ws, err := b.sys.WorkspaceByIndex(before)
		if err != nil {
			continue
		}
		b.logger.Info("workspace created", "workspace", ws, "count", count)
		return ws, nil
	}

	return 0, fmt.Errorf("%w after %d attempts", ErrWorkspaceCreation, b.cfg.CreateAttempts)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
