// Package cmd contains the tarka CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "tarka",
	Short: "tarka - alert triage engine",
	Long: `Tarka turns monitoring alerts into classified, evidence-cited
investigations: what broke, how widely, what to check next, and whether the
alert deserves a human at all.

Examples:
  # Run the engine: webhook ingest, workers, read API
  tarka serve --config configs/tarka.yaml

  # Triage one alert from a file and print the report
  tarka triage --alert alert.json`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to configuration file")
}
