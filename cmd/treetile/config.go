package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/treetile/internal/config"
)

func newConfigCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate the config file",
	}
	cmd.AddCommand(newConfigValidateCmd(opts))
	cmd.AddCommand(newConfigPrintCmd(opts))
	cmd.AddCommand(newConfigExplainCmd(opts))
	return cmd
}

func newConfigValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the config file for errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := opts.loadConfig(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "config: ok")
			return nil
		},
	}
}

func newConfigPrintCmd(opts *options) *cobra.Command {
	var defaults bool
	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultConfig()
			if !defaults {
				res, err := opts.loadConfig()
				if err != nil {
					return err
				}
				cfg = res.Config
				if res.File != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "# file: %s\n", res.File)
				}
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&defaults, "defaults", false, "print built-in defaults, ignoring the file")
	return cmd
}

func newConfigExplainCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "explain <yaml.path>",
		Short: "Show a setting's effective value and where it came from",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := opts.loadConfig()
			if err != nil {
				return err
			}
			value, src, err := config.Explain(res, args[0])
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(value)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "path: %s\n", args[0])
			fmt.Fprintf(w, "source: %s\n", src)
			fmt.Fprintf(w, "value:\n%s", out)
			return nil
		},
	}
}
