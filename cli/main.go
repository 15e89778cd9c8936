// Package main provides a CLI for inspecting and watching planning poker sessions.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "pokr",
	Short:         "Inspect and watch planning poker sessions",
	Long:          `pokr talks to a running session engine. It prints session snapshots over the REST API and streams live session events over the WebSocket endpoint.`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

var serverURL string

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Base URL of the session engine")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
