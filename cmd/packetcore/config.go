package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/strangelove-ventures/packetcore/config"
)

func configCmd(a *app) *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cfg.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration",
		Long: `Write the default configuration to path, as TOML or YAML by extension.
The default path is $HOME/.packetcore/config.toml.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(config.DefaultHome(), "config.toml")
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.Write(path, config.Default()); err != nil {
				return err
			}
			a.log.Info("Wrote config", zap.String("path", path))
			return nil
		},
	})
	return cfg
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "packetcore %s (%s)\n", Version, GitSha)
		},
	}
}
