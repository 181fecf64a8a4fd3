// Package cli wires panecore's cobra command tree, grounded on the
// teacher's cmd/ package (zjrosen-perles/cmd/root.go).
package cli

import (
	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "panecore",
	Short:   "Pane orchestration core host process",
	Long:    "panecore runs the pane orchestration core's BootSequencer standalone, for operators who want to drive it without an embedding UI shell.",
	Version: version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(bootCmd)
	rootCmd.AddCommand(versionCmd)
}
