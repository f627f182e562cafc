package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPollInterval           = 300 * time.Millisecond
	DefaultMaxWindowsPerWorkspace = 5
	DefaultReservedMargin         = 5
	DefaultCreationAttempts       = 10
	DefaultCreationInterval       = 50 * time.Millisecond
	DefaultMetricsListen          = "127.0.0.1:9731"
)

// WorkspaceCreation bounds the wait for a newly requested workspace.
type WorkspaceCreation struct {
	Attempts int           `yaml:"attempts"`
	Interval time.Duration `yaml:"interval"`
}

// LogConfig configures daemon logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is one of text, json, logfmt.
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// IPCConfig configures the control socket.
type IPCConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Config is the effective daemon configuration.
type Config struct {
	PollInterval           time.Duration     `yaml:"poll_interval"`
	MaxWindowsPerWorkspace int               `yaml:"max_windows_per_workspace"`
	ReservedMargin         int               `yaml:"reserved_margin"`
	WorkspaceCreation      WorkspaceCreation `yaml:"workspace_creation"`
	Display                string            `yaml:"display,omitempty"`    // X display override (e.g. ":0")
	XAuthority             string            `yaml:"xauthority,omitempty"` // XAUTHORITY override
	Log                    LogConfig         `yaml:"log"`
	Metrics                MetricsConfig     `yaml:"metrics"`
	IPC                    IPCConfig         `yaml:"ipc"`
}

// ValidationError points at the offending key and, when known, where it was set.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		PollInterval:           DefaultPollInterval,
		MaxWindowsPerWorkspace: DefaultMaxWindowsPerWorkspace,
		ReservedMargin:         DefaultReservedMargin,
		WorkspaceCreation: WorkspaceCreation{
			Attempts: DefaultCreationAttempts,
			Interval: DefaultCreationInterval,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  DefaultMetricsListen,
		},
		IPC: IPCConfig{
			Enabled: true,
		},
	}
}

func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return &ValidationError{Path: "poll_interval", Err: fmt.Errorf("poll_interval must be > 0")}
	}
	if c.MaxWindowsPerWorkspace <= 0 {
		return &ValidationError{Path: "max_windows_per_workspace", Err: fmt.Errorf("max_windows_per_workspace must be > 0")}
	}
	if c.ReservedMargin < 0 {
		return &ValidationError{Path: "reserved_margin", Err: fmt.Errorf("reserved_margin must be >= 0")}
	}
	if c.WorkspaceCreation.Attempts <= 0 {
		return &ValidationError{Path: "workspace_creation.attempts", Err: fmt.Errorf("attempts must be > 0")}
	}
	if c.WorkspaceCreation.Interval < 0 {
		return &ValidationError{Path: "workspace_creation.interval", Err: fmt.Errorf("interval must be >= 0")}
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "log.level", Err: fmt.Errorf("level must be one of: debug, info, warn, error")}
	}
	switch c.Log.Format {
	case "text", "json", "logfmt":
	default:
		return &ValidationError{Path: "log.format", Err: fmt.Errorf("format must be one of: text, json, logfmt")}
	}
	if c.Metrics.Enabled && strings.TrimSpace(c.Metrics.Listen) == "" {
		return &ValidationError{Path: "metrics.listen", Err: fmt.Errorf("listen address is required when metrics are enabled")}
	}
	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
