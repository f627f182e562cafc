package daemon

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/1broseidon/treetile/internal/metrics"
	"github.com/1broseidon/treetile/internal/platform"
	"github.com/1broseidon/treetile/internal/platform/platformtest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestPoller(sys platform.WindowSystem, cfg PollerConfig) *Poller {
	if cfg.Settings.Interval == 0 {
		cfg.Settings.Interval = time.Hour
	}
	cfg.Settings.CreateAttempts = 2
	cfg.Settings.CreateInterval = time.Millisecond
	return NewPoller(sys, cfg)
}

func addWindows(sys *platformtest.Fake, ws platform.WorkspaceID, first, last int) {
	for id := first; id <= last; id++ {
		sys.AddWindow(platform.WindowID(id), ws)
	}
}

// startPoller runs p until the test ends.
func startPoller(t *testing.T, p *Poller) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- p.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-errc)
	})
}

func TestTick_BalancesThenTiles(t *testing.T) {
	sys := platformtest.NewFake(1920, 1080, 2)
	addWindows(sys, 0, 1, 7)
	p := newTestPoller(sys, PollerConfig{})

	p.tick(context.Background())

	require.Equal(t, []platform.WindowID{1, 2, 3, 4, 5}, sys.WindowsOn(0))
	require.Equal(t, []platform.WindowID{6, 7}, sys.WindowsOn(1))
	require.Len(t, sys.GeometryCalls, 5)
	for _, call := range sys.GeometryCalls {
		require.LessOrEqual(t, call.Window, platform.WindowID(5))
	}

	st := p.status()
	require.EqualValues(t, 1, st.Stats.Ticks)
	require.EqualValues(t, 2, st.Stats.WindowsMoved)
	require.EqualValues(t, 1, st.Stats.Relayouts)
	require.EqualValues(t, 5, st.Stats.GeometryUpdates)
}

func TestTick_SettlesOnceWindowsAreInPlace(t *testing.T) {
	sys := platformtest.NewFake(1920, 1080, 1)
	addWindows(sys, 0, 1, 3)
	p := newTestPoller(sys, PollerConfig{})

	p.tick(context.Background())
	p.tick(context.Background())
	sys.ResetCalls()
	p.tick(context.Background())

	require.Empty(t, sys.GeometryCalls)
	require.EqualValues(t, 2, p.status().Stats.Relayouts)
}

func TestTick_SkipsWithoutActiveWorkspace(t *testing.T) {
	sys := platformtest.NewFake(1920, 1080, 2)
	addWindows(sys, 0, 1, 7)
	sys.ClearActive()
	p := newTestPoller(sys, PollerConfig{})

	p.tick(context.Background())

	require.Empty(t, sys.MoveCalls)
	require.Empty(t, sys.GeometryCalls)
	st := p.status().Stats
	require.EqualValues(t, 1, st.Skipped)
	require.Contains(t, st.LastError, platform.ErrNoActiveWorkspace.Error())
}

func TestTick_SkipsEmptyEnumeration(t *testing.T) {
	sys := platformtest.NewFake(1920, 1080, 1)
	p := newTestPoller(sys, PollerConfig{})

	p.tick(context.Background())
	p.tick(context.Background())

	st := p.status().Stats
	require.EqualValues(t, 2, st.Ticks)
	require.EqualValues(t, 2, st.Skipped)
	require.Zero(t, sys.CreationRequests)
}

func TestTick_CreationFailureStillLaysOut(t *testing.T) {
	sys := platformtest.NewFake(1920, 1080, 1)
	addWindows(sys, 0, 1, 7)
	sys.CreationFails = true
	p := newTestPoller(sys, PollerConfig{})

	p.tick(context.Background())

	require.Empty(t, sys.MoveCalls)
	require.Len(t, sys.GeometryCalls, 7)
	st := p.status().Stats
	require.EqualValues(t, 1, st.CreationFailures)
	require.EqualValues(t, 1, st.BalanceAborts)
	require.Equal(t, []platform.WorkspaceID{0}, st.LastBalance.Aborted)
}

func TestTick_FullWorkspacesStillLayOutWhenCreationFails(t *testing.T) {
	sys := platformtest.NewFake(1920, 1080, 1)
	addWindows(sys, 0, 1, 5)
	sys.CreationFails = true
	p := newTestPoller(sys, PollerConfig{})

	p.tick(context.Background())
	p.tick(context.Background())

	require.Empty(t, sys.MoveCalls)
	require.Equal(t, 2, sys.CreationRequests)
	st := p.status().Stats
	require.EqualValues(t, 2, st.CreationFailures)
	require.Zero(t, st.BalanceAborts)
	require.Zero(t, st.Skipped)
	require.EqualValues(t, 2, st.Relayouts)
}

type panickyFake struct {
	*platformtest.Fake
}

func (panickyFake) Windows() ([]platform.WindowID, error) {
	panic("enumeration exploded")
}

func TestTick_RecoversFromPanic(t *testing.T) {
	p := newTestPoller(panickyFake{platformtest.NewFake(800, 600, 1)}, PollerConfig{})

	require.NotPanics(t, func() { p.tick(context.Background()) })
	st := p.status().Stats
	require.EqualValues(t, 1, st.Ticks)
	require.Equal(t, "enumeration exploded", st.LastError)
}

func TestTick_RecordsMetrics(t *testing.T) {
	sys := platformtest.NewFake(1920, 1080, 2)
	addWindows(sys, 0, 1, 7)
	collector := metrics.New()
	p := newTestPoller(sys, PollerConfig{Metrics: collector})

	p.tick(context.Background())

	expected := `
# HELP treetile_windows_moved_total Total number of windows moved to another workspace
# TYPE treetile_windows_moved_total counter
treetile_windows_moved_total 2
# HELP treetile_ticks_total Total number of poll ticks run
# TYPE treetile_ticks_total counter
treetile_ticks_total 1
`
	require.NoError(t, testutil.GatherAndCompare(collector.Registry(), strings.NewReader(expected),
		"treetile_windows_moved_total", "treetile_ticks_total"))
}

func TestRun_StatusAndRelayout(t *testing.T) {
	sys := platformtest.NewFake(1920, 1080, 1)
	addWindows(sys, 0, 1, 2)
	p := newTestPoller(sys, PollerConfig{})
	startPoller(t, p)

	ctx := context.Background()
	st, err := p.Status(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, st.Stats.Ticks)
	require.EqualValues(t, 1, st.Stats.Relayouts)
	require.Equal(t, time.Hour, st.Interval)

	st, err = p.Relayout(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, st.Stats.Ticks)
	require.EqualValues(t, 2, st.Stats.Relayouts)
}

func TestRun_Workspaces(t *testing.T) {
	sys := platformtest.NewFake(1920, 1080, 2)
	addWindows(sys, 0, 1, 3)
	p := newTestPoller(sys, PollerConfig{})
	startPoller(t, p)

	infos, err := p.Workspaces(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)
	require.Equal(t, 3, infos[0].Windows)
	require.True(t, infos[0].Active)
	require.Equal(t, "free", infos[1].Bucket)
}

func TestRun_Reload(t *testing.T) {
	fail := false
	reload := func() (Settings, error) {
		if fail {
			return Settings{}, errors.New("bad yaml")
		}
		return Settings{Interval: time.Hour, Threshold: 3}, nil
	}
	p := newTestPoller(platformtest.NewFake(800, 600, 1), PollerConfig{Reload: reload})
	startPoller(t, p)
	ctx := context.Background()

	st, err := p.Reload(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, st.Threshold)

	fail = true
	st, err = p.Reload(ctx)
	require.ErrorContains(t, err, "bad yaml")
	require.Equal(t, 3, st.Threshold)
}

func TestRun_ReloadWithoutSource(t *testing.T) {
	p := newTestPoller(platformtest.NewFake(800, 600, 1), PollerConfig{})
	startPoller(t, p)

	_, err := p.Reload(context.Background())
	require.Error(t, err)
}

func TestCommands_AfterStop(t *testing.T) {
	p := newTestPoller(platformtest.NewFake(800, 600, 1), PollerConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	_, err := p.Status(context.Background())
	require.ErrorIs(t, err, ErrStopped)
}

func TestCommands_HonourContext(t *testing.T) {
	p := newTestPoller(platformtest.NewFake(800, 600, 1), PollerConfig{})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := p.Status(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
