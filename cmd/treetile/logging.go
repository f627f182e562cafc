package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/log"

	"github.com/1broseidon/treetile/internal/config"
)

// newLogger builds the daemon logger. Verbose forces debug regardless of
// the configured level.
func newLogger(w io.Writer, cfg config.LogConfig, verbose bool) (*slog.Logger, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	if verbose {
		level = log.DebugLevel
	}

	formatter, err := parseFormatter(cfg.Format)
	if err != nil {
		return nil, err
	}

	handler := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
		Formatter:       formatter,
		Prefix:          "treetile",
	})
	return slog.New(handler), nil
}

func parseFormatter(format string) (log.Formatter, error) {
	switch format {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	default:
		return log.TextFormatter, fmt.Errorf("log.format: unknown format %q", format)
	}
}
