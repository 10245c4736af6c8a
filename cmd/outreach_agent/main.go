// Package main provides the outreach agent CLI: campaign workflows, job
// discovery, résumé upload, content generation, and the local web gateway.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "outreach_agent",
	Short: "Job application outreach assistant",
	Long:  "Outreach Agent drives application campaigns against the assistant backend: job discovery, contact research, draft generation with human checkpoints, and Gmail draft handoff.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
