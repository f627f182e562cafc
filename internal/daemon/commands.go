package daemon

import (
	"context"
	"errors"
	"fmt"

	"github.com/1broseidon/treetile/internal/workspace"
)

type commandKind int

const (
	cmdStatus commandKind = iota
	cmdRelayout
	cmdReload
	cmdWorkspaces
)

func (k commandKind) String() string {
	switch k {
	case cmdRelayout:
		return "relayout"
	case cmdReload:
		return "reload"
	case cmdWorkspaces:
		return "workspaces"
	default:
		return "status"
	}
}

type command struct {
	kind  commandKind
	reply chan result
}

type result struct {
	status     Status
	workspaces []workspace.Info
	err        error
}

// Status returns the poller's settings and counters.
func (p *Poller) Status(ctx context.Context) (Status, error) {
	r, err := p.send(ctx, cmdStatus)
	return r.status, err
}

// Relayout forgets the stored snapshot and runs a tick, so the layout is
// pushed even when nothing moved.
func (p *Poller) Relayout(ctx context.Context) (Status, error) {
	r, err := p.send(ctx, cmdRelayout)
	return r.status, err
}

// Reload fetches new settings through the configured ReloadFunc. On failure
// the current settings stay in place.
func (p *Poller) Reload(ctx context.Context) (Status, error) {
	r, err := p.send(ctx, cmdReload)
	return r.status, err
}

// Workspaces reports every workspace with its active-window count.
func (p *Poller) Workspaces(ctx context.Context) ([]workspace.Info, error) {
	r, err := p.send(ctx, cmdWorkspaces)
	return r.workspaces, err
}

// send hands a command to the Run goroutine and waits for its reply.
func (p *Poller) send(ctx context.Context, kind commandKind) (result, error) {
	reply := make(chan result, 1)
	select {
	case p.commands <- command{kind: kind, reply: reply}:
	case <-p.done:
		return result{}, ErrStopped
	case <-ctx.Done():
		return result{}, ctx.Err()
	}

	select {
	case r := <-reply:
		return r, r.err
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
}

func (p *Poller) handle(ctx context.Context, kind commandKind) result {
	p.logger.Debug("command received", "command", kind)

	switch kind {
	case cmdRelayout:
		p.snapshot = nil
		p.tick(ctx)
		return result{status: p.status()}

	case cmdReload:
		if p.reload == nil {
			return result{status: p.status(), err: errors.New("reload is not configured")}
		}
		settings, err := p.reload()
		if err != nil {
			p.logger.Warn("reload failed, keeping current settings", "error", err)
			return result{status: p.status(), err: fmt.Errorf("reload: %w", err)}
		}
		p.apply(settings)
		return result{status: p.status()}

	case cmdWorkspaces:
		infos, err := workspace.Survey(p.sys, p.settings.Threshold)
		return result{workspaces: infos, err: err}

	default:
		return result{status: p.status()}
	}
}
