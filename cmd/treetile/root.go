package main

import (
	"github.com/spf13/cobra"

	"github.com/1broseidon/treetile/internal/config"
)

type options struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "treetile",
		Short:         "Automatic binary-tree tiling for X11 workspaces",
		Long:          `treetile polls the window manager, tiles the windows of the active workspace as a binary tree and moves surplus windows off crowded workspaces.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file path (default: ~/.config/treetile/config.yaml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newDaemonCmd(opts))
	root.AddCommand(newStatusCmd())
	root.AddCommand(newWorkspacesCmd())
	root.AddCommand(newRelayoutCmd())
	root.AddCommand(newReloadCmd())
	root.AddCommand(newConfigCmd(opts))
	root.AddCommand(newMCPCmd())

	return root
}

// resolveConfigPath returns --config or the default location.
func (o *options) resolveConfigPath() (string, error) {
	if o.configPath != "" {
		return o.configPath, nil
	}
	return config.DefaultConfigPath()
}

func (o *options) loadConfig() (*config.LoadResult, error) {
	path, err := o.resolveConfigPath()
	if err != nil {
		return nil, err
	}
	return config.LoadFromPath(path)
}
