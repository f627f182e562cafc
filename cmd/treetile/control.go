package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/1broseidon/treetile/internal/ipc"
)

func newStatusCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status via IPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := ipc.NewClient().GetStatus()
			if err != nil {
				return err
			}
			return printStatus(cmd, status, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON even on a terminal")
	return cmd
}

func newWorkspacesCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "workspaces",
		Short: "List workspaces with their active window counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := ipc.NewClient().GetWorkspaces()
			if err != nil {
				return err
			}
			tty := stdoutIsTerminal()
			if asJSON || !tty {
				return writeJSON(cmd.OutOrStdout(), data)
			}
			return renderWorkspaces(cmd.OutOrStdout(), data.Workspaces, tty)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON even on a terminal")
	return cmd
}

func newRelayoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "relayout",
		Short: "Force a layout pass even when nothing changed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := ipc.NewClient().Relayout()
			if err != nil {
				return err
			}
			last := status.Poller.Stats.LastLayout
			fmt.Fprintf(cmd.OutOrStdout(), "relayout: workspace %d, %d windows, %d applied\n",
				last.Workspace, last.Windows, last.Applied)
			return nil
		},
	}
}

func newReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Ask the daemon to re-read its config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := ipc.NewClient().Reload()
			if err != nil {
				return err
			}
			p := status.Poller
			fmt.Fprintf(cmd.OutOrStdout(), "reloaded: interval %s, max windows %d, reserved margin %d\n",
				p.Interval, p.Threshold, p.ReservedMargin)
			return nil
		},
	}
}

func printStatus(cmd *cobra.Command, status *ipc.StatusData, asJSON bool) error {
	tty := stdoutIsTerminal()
	if asJSON || !tty {
		return writeJSON(cmd.OutOrStdout(), status)
	}
	return renderStatus(cmd.OutOrStdout(), status, tty)
}
