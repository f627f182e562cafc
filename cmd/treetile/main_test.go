package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/treetile/internal/config"
	"github.com/1broseidon/treetile/internal/daemon"
	"github.com/1broseidon/treetile/internal/ipc"
	"github.com/1broseidon/treetile/internal/platform"
	"github.com/1broseidon/treetile/internal/workspace"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// execute runs the CLI with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSettingsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.PollInterval = time.Second
	cfg.MaxWindowsPerWorkspace = 3
	cfg.ReservedMargin = 0
	cfg.WorkspaceCreation.Attempts = 4
	cfg.WorkspaceCreation.Interval = 20 * time.Millisecond

	got := settingsFromConfig(cfg)
	want := daemon.Settings{
		Interval:       time.Second,
		Threshold:      3,
		ReservedMargin: 0,
		CreateAttempts: 4,
		CreateInterval: 20 * time.Millisecond,
	}
	if got != want {
		t.Fatalf("settings=%+v, want %+v", got, want)
	}
}

func TestReloadFromPathRereadsFile(t *testing.T) {
	path := writeConfig(t, "max_windows_per_workspace: 2\n")
	reload := reloadFromPath(path)

	s, err := reload()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if s.Threshold != 2 {
		t.Fatalf("threshold=%d, want 2", s.Threshold)
	}

	if err := os.WriteFile(path, []byte("max_windows_per_workspace: 7\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	s, err = reload()
	if err != nil {
		t.Fatalf("second reload: %v", err)
	}
	if s.Threshold != 7 {
		t.Fatalf("threshold=%d, want 7", s.Threshold)
	}

	if err := os.WriteFile(path, []byte("max_windows_per_workspace: 0\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	if _, err := reload(); err == nil {
		t.Fatalf("expected validation error for a zero threshold")
	}
}

func TestNewLoggerHonoursLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, config.LogConfig{Level: "warn", Format: "json"}, false)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}

	logger.Info("hidden")
	logger.Warn("shown", "workspace", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record written at warn level: %q", out)
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &record); err != nil {
		t.Fatalf("output is not a single JSON record: %v (%q)", err, out)
	}
	if record["msg"] != "shown" {
		t.Fatalf("msg=%v, want shown", record["msg"])
	}
}

func TestNewLoggerVerboseForcesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, config.LogConfig{Level: "error", Format: "text"}, true)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	logger.Debug("tick skipped")
	if !strings.Contains(buf.String(), "tick skipped") {
		t.Fatalf("debug record missing: %q", buf.String())
	}
}

func TestNewLoggerRejectsUnknownFormat(t *testing.T) {
	if _, err := newLogger(&bytes.Buffer{}, config.LogConfig{Level: "info", Format: "xml"}, false); err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if _, err := newLogger(&bytes.Buffer{}, config.LogConfig{Level: "loud", Format: "text"}, false); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestRenderStatus(t *testing.T) {
	st := &ipc.StatusData{
		DaemonRunning: true,
		PID:           4242,
		UptimeSeconds: 90,
		Poller: daemon.Status{
			Interval:       300 * time.Millisecond,
			Threshold:      5,
			ReservedMargin: 5,
			Stats: daemon.CycleStats{
				Ticks:        17,
				WindowsMoved: 3,
				LastLayout:   daemon.LayoutSummary{Workspace: 1, Windows: 4, Applied: 4},
				LastError:    "no active workspace",
			},
		},
	}

	var buf bytes.Buffer
	if err := renderStatus(&buf, st, false); err != nil {
		t.Fatalf("renderStatus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"pid 4242", "1m30s", "300ms", "17", "workspace 1, 4 windows, 4 applied", "no active workspace"} {
		if !strings.Contains(out, want) {
			t.Fatalf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderWorkspacesMarksActive(t *testing.T) {
	infos := []workspace.Info{
		{ID: 0, Windows: 7, Bucket: "overloaded", Active: true},
		{ID: 1, Windows: 2, Bucket: "free"},
	}

	var buf bytes.Buffer
	if err := renderWorkspaces(&buf, infos, false); err != nil {
		t.Fatalf("renderWorkspaces: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines=%d, want 3:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[1], "0 *") || !strings.Contains(lines[1], "overloaded") {
		t.Fatalf("active row=%q", lines[1])
	}
	if strings.Contains(lines[2], "*") {
		t.Fatalf("inactive row marked active: %q", lines[2])
	}
}

func TestConfigValidateCommand(t *testing.T) {
	path := writeConfig(t, "poll_interval: 500ms\n")
	out, err := execute(t, "--config", path, "config", "validate")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if strings.TrimSpace(out) != "config: ok" {
		t.Fatalf("output=%q", out)
	}

	bad := writeConfig(t, "poll_interval: 0s\n")
	if _, err := execute(t, "--config", bad, "config", "validate"); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestConfigExplainCommand(t *testing.T) {
	path := writeConfig(t, "log:\n  level: debug\n")
	out, err := execute(t, "--config", path, "config", "explain", "log.level")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if !strings.Contains(out, "value:\ndebug") {
		t.Fatalf("output missing value:\n%s", out)
	}
	if !strings.Contains(out, "source: "+path+":2:") {
		t.Fatalf("output missing file source:\n%s", out)
	}

	out, err = execute(t, "--config", path, "config", "explain", "poll_interval")
	if err != nil {
		t.Fatalf("explain default: %v", err)
	}
	if !strings.Contains(out, "source: default") {
		t.Fatalf("output missing default source:\n%s", out)
	}
}

func TestConfigPrintDefaults(t *testing.T) {
	out, err := execute(t, "config", "print", "--defaults")
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	if !strings.Contains(out, "max_windows_per_workspace: 5") {
		t.Fatalf("defaults missing threshold:\n%s", out)
	}
}

type stubController struct {
	status     daemon.Status
	workspaces []workspace.Info
}

func (s *stubController) Status(context.Context) (daemon.Status, error) { return s.status, nil }
func (s *stubController) Relayout(context.Context) (daemon.Status, error) { return s.status, nil }
func (s *stubController) Reload(context.Context) (daemon.Status, error) { return s.status, nil }
func (s *stubController) Workspaces(context.Context) ([]workspace.Info, error) {
	return s.workspaces, nil
}

func startDaemonStub(t *testing.T, ctrl ipc.Controller) {
	t.Helper()
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	t.Setenv("TREETILE_SOCKET", "")

	server, err := ipc.NewServer(ctrl, ipc.ServerConfig{})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := server.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = server.Stop() })
}

func TestWorkspacesCommandPrintsJSON(t *testing.T) {
	startDaemonStub(t, &stubController{workspaces: []workspace.Info{
		{ID: 0, Windows: 5, Bucket: "exact", Active: true},
		{ID: platform.WorkspaceID(1), Windows: 1, Bucket: "free"},
	}})

	out, err := execute(t, "workspaces", "--json")
	if err != nil {
		t.Fatalf("workspaces: %v", err)
	}
	var data ipc.WorkspacesData
	if err := json.Unmarshal([]byte(out), &data); err != nil {
		t.Fatalf("decode output: %v (%q)", err, out)
	}
	if len(data.Workspaces) != 2 || data.Workspaces[1].Bucket != "free" {
		t.Fatalf("workspaces=%+v", data.Workspaces)
	}
}

func TestReloadCommandReportsSettings(t *testing.T) {
	startDaemonStub(t, &stubController{status: daemon.Status{
		Interval:       time.Second,
		Threshold:      4,
		ReservedMargin: 5,
	}})

	out, err := execute(t, "reload")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !strings.Contains(out, "interval 1s, max windows 4") {
		t.Fatalf("output=%q", out)
	}
}

func TestStatusCommandWithoutDaemonFails(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	t.Setenv("TREETILE_SOCKET", "")
	if _, err := execute(t, "status"); err == nil {
		t.Fatalf("expected connection error")
	}
}
