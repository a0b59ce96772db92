// Package main is the entry point for the worldsim server
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "worldsim",
	Short: "Driftlands world simulation server",
	Long: `Worldsim runs the deterministic kernel behind the Driftlands: the
authoritative world state, action resolution, faction-derived policy, the
market economy, NPC scheduling, and periodic snapshots.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
