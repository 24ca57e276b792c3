// Package main is the entry point for the coordinator CLI.
//
// Usage:
//
//	coordinator run -c config.yaml      # Poll the device and log cycles
//	coordinator validate -c config.yaml # Validate config, show batch plan
//	coordinator version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set by the build via ldflags.
var (
	version = "dev"
	commit  = "none"
)

var rootCmd = &cobra.Command{
	Use:   "coordinator",
	Short: "Clustered Modbus register poller",
	Long: `coordinator polls a Modbus TCP device on behalf of many consumers.

Each consumer declares the registers it needs; the coordinator clusters
them into the minimum number of bounded contiguous read transactions,
polls them on a fixed interval, and publishes one decoded snapshot per
cycle with per-batch failure isolation.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("coordinator %s (%s)\n", version, commit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
