package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/1broseidon/treetile/internal/config"
	"github.com/1broseidon/treetile/internal/daemon"
	"github.com/1broseidon/treetile/internal/ipc"
	"github.com/1broseidon/treetile/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

func newDaemonCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the tiling daemon in the foreground",
		Long: `Run the tiling daemon in the foreground.

SIGHUP reloads the config file. SIGINT and SIGTERM stop the daemon.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemon(cmd.Context(), opts)
		},
	}
}

// settingsFromConfig maps the config file onto the poller tunables.
func settingsFromConfig(cfg *config.Config) daemon.Settings {
	return daemon.Settings{
		Interval:       cfg.PollInterval,
		Threshold:      cfg.MaxWindowsPerWorkspace,
		ReservedMargin: cfg.ReservedMargin,
		CreateAttempts: cfg.WorkspaceCreation.Attempts,
		CreateInterval: cfg.WorkspaceCreation.Interval,
	}
}

// reloadFromPath re-reads path on every call.
func reloadFromPath(path string) daemon.ReloadFunc {
	return func() (daemon.Settings, error) {
		res, err := config.LoadFromPath(path)
		if err != nil {
			return daemon.Settings{}, err
		}
		return settingsFromConfig(res.Config), nil
	}
}

func runDaemon(ctx context.Context, opts *options) (err error) {
	path, err := opts.resolveConfigPath()
	if err != nil {
		return err
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := res.Config

	logger, err := newLogger(os.Stderr, cfg.Log, opts.verbose)
	if err != nil {
		return err
	}
	if res.File != "" {
		logger.Info("configuration loaded", "file", res.File)
	} else {
		logger.Info("no config file found, using defaults", "path", path)
	}

	if cfg.XAuthority != "" {
		if err := os.Setenv("XAUTHORITY", cfg.XAuthority); err != nil {
			return fmt.Errorf("failed to set XAUTHORITY: %w", err)
		}
	}

	sys, disconnect, err := openWindowSystem(cfg.Display)
	if err != nil {
		return fmt.Errorf("failed to connect to display: %w", err)
	}
	defer disconnect()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.New()
	}

	poller := daemon.NewPoller(sys, daemon.PollerConfig{
		Settings: settingsFromConfig(cfg),
		Reload:   reloadFromPath(path),
		Metrics:  collector,
		Logger:   logger,
	})

	var metricsServer *metrics.Server
	if collector != nil {
		metricsServer = metrics.NewServer(cfg.Metrics.Listen, collector, logger)
		if err := metricsServer.Start(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		logger.Info("metrics server listening", "addr", metricsServer.Addr())
	}

	var ipcServer *ipc.Server
	if cfg.IPC.Enabled {
		ipcServer, err = ipc.NewServer(poller, ipc.ServerConfig{Logger: logger})
		if err == nil {
			err = ipcServer.Start()
		}
		if err != nil {
			err = fmt.Errorf("failed to start IPC server: %w", err)
			return multierr.Append(err, shutdown(metricsServer, nil))
		}
	}

	defer func() {
		err = multierr.Append(err, shutdown(metricsServer, ipcServer))
	}()

	go watchReload(ctx, poller, logger)

	logger.Info("treetile daemon started", "pid", os.Getpid())
	return poller.Run(ctx)
}

// watchReload turns SIGHUP into a poller reload until ctx ends.
func watchReload(ctx context.Context, poller *daemon.Poller, logger *slog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			logger.Info("received SIGHUP, reloading configuration")
			if _, err := poller.Reload(ctx); err != nil {
				logger.Warn("config reload failed", "error", err)
			}
		}
	}
}

func shutdown(metricsServer *metrics.Server, ipcServer *ipc.Server) error {
	var err error
	if ipcServer != nil {
		err = multierr.Append(err, ipcServer.Stop())
	}
	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = multierr.Append(err, metricsServer.Shutdown(ctx))
	}
	return err
}
