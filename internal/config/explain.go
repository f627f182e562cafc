package config

import "fmt"

// Explain returns the effective value at the given YAML path and its source.
//
// Supported paths:
//
//	poll_interval
//	max_windows_per_workspace
//	reserved_margin
//	workspace_creation.attempts
//	workspace_creation.interval
//	display
//	xauthority
//	log.level
//	log.format
//	metrics.enabled
//	metrics.listen
//	ipc.enabled
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	switch path {
	case "poll_interval":
		return cfg.PollInterval, nil
	case "max_windows_per_workspace":
		return cfg.MaxWindowsPerWorkspace, nil
	case "reserved_margin":
		return cfg.ReservedMargin, nil
	case "workspace_creation.attempts":
		return cfg.WorkspaceCreation.Attempts, nil
	case "workspace_creation.interval":
		return cfg.WorkspaceCreation.Interval, nil
	case "display":
		return cfg.Display, nil
	case "xauthority":
		return cfg.XAuthority, nil
	case "log.level":
		return cfg.Log.Level, nil
	case "log.format":
		return cfg.Log.Format, nil
	case "metrics.enabled":
		return cfg.Metrics.Enabled, nil
	case "metrics.listen":
		return cfg.Metrics.Listen, nil
	case "ipc.enabled":
		return cfg.IPC.Enabled, nil
	default:
		return nil, fmt.Errorf("unknown path: %s", path)
	}
}
