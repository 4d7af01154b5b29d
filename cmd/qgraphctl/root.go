package main

import (
	"fmt"

	"github.com/adalundhe/qgraph/config"
	"github.com/spf13/cobra"
)

var configPath string

// loadedConfig holds the effective configuration for the process: either
// config.Default() or whatever --config points at, resolved once in
// rootCmd's PersistentPreRunE before any subcommand runs.
var loadedConfig = config.Default()

var rootCmd = &cobra.Command{
	Use:               "qgraphctl",
	Short:             "qgraphctl drives the qgraph incremental query engine",
	Long:              `qgraphctl evaluates, persists, and reloads queries against the qgraph engine.`,
	PersistentPreRunE: resolveConfig,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a qgraph config YAML file")
}

func resolveConfig(cmd *cobra.Command, args []string) error {
	if configPath == "" {
		return nil
	}
	m, err := config.LoadFile(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	loadedConfig = m.Current()
	return nil
}
