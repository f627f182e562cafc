package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/1broseidon/treetile/internal/ipc"
	"github.com/1broseidon/treetile/internal/workspace"
)

type styles struct {
	label lipgloss.Style
	value lipgloss.Style
	dim   lipgloss.Style
	warn  lipgloss.Style
}

func newStyles(color bool) styles {
	s := styles{
		label: lipgloss.NewStyle().Width(20).Align(lipgloss.Right).PaddingRight(2),
		value: lipgloss.NewStyle(),
		dim:   lipgloss.NewStyle(),
		warn:  lipgloss.NewStyle(),
	}
	if color {
		s.label = s.label.Foreground(lipgloss.Color("250"))
		s.value = s.value.Foreground(lipgloss.Color("15")).Bold(true)
		s.dim = s.dim.Foreground(lipgloss.Color("241"))
		s.warn = s.warn.Foreground(lipgloss.Color("208"))
	}
	return s
}

// stdoutIsTerminal decides between styled text and JSON output.
func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderStatus(w io.Writer, st *ipc.StatusData, color bool) error {
	s := newStyles(color)
	row := func(label, value string) string {
		return s.label.Render(label) + s.value.Render(value)
	}

	p := st.Poller
	stats := p.Stats
	lines := []string{
		row("Daemon", fmt.Sprintf("running (pid %d)", st.PID)),
		row("Uptime", (time.Duration(st.UptimeSeconds) * time.Second).String()),
		"",
		row("Poll interval", p.Interval.String()),
		row("Max windows", strconv.Itoa(p.Threshold)),
		row("Reserved margin", strconv.Itoa(p.ReservedMargin)),
		"",
		row("Ticks", strconv.FormatUint(stats.Ticks, 10)),
		row("Skipped", strconv.FormatUint(stats.Skipped, 10)),
		row("Relayouts", strconv.FormatUint(stats.Relayouts, 10)),
		row("Geometry updates", strconv.FormatUint(stats.GeometryUpdates, 10)),
		row("Windows moved", strconv.FormatUint(stats.WindowsMoved, 10)),
		row("Workspaces created", strconv.FormatUint(stats.WorkspacesCreated, 10)),
		row("Creation failures", strconv.FormatUint(stats.CreationFailures, 10)),
		row("Balance aborts", strconv.FormatUint(stats.BalanceAborts, 10)),
		"",
		row("Last layout", fmt.Sprintf("workspace %d, %d windows, %d applied",
			stats.LastLayout.Workspace, stats.LastLayout.Windows, stats.LastLayout.Applied)),
	}
	if stats.LastError != "" {
		lines = append(lines, s.label.Render("Last error")+s.warn.Render(stats.LastError))
	}

	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

func renderWorkspaces(w io.Writer, infos []workspace.Info, color bool) error {
	s := newStyles(color)
	col := lipgloss.NewStyle().Width(12)

	header := s.dim.Render(col.Render("WORKSPACE") + col.Render("WINDOWS") + col.Render("BUCKET"))
	lines := []string{header}
	for _, info := range infos {
		id := strconv.Itoa(int(info.ID))
		if info.Active {
			id += " *"
		}
		line := col.Render(id) + col.Render(strconv.Itoa(info.Windows)) + col.Render(info.Bucket)
		if info.Bucket == workspace.Overloaded.String() {
			line = s.warn.Render(line)
		}
		lines = append(lines, line)
	}

	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}
