package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "opsdeck",
	Short: "opsdeck is a terminal dashboard for jobs, agents, deployments and queues",
	Long: `opsdeck renders live operational state - jobs, build agents, deployments
and work queues - in the terminal, driven by the same chain engine it also
exposes over HTTP and MCP.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "opsdeck.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("demo", false, "Use seeded in-memory data instead of a backend")
	rootCmd.PersistentFlags().String("backend", "", "Backend base URL (overrides config)")
}
