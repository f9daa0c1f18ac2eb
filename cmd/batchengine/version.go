package main

import "github.com/spf13/cobra"

// Version information, set at build time via -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cmd.Printf("batchengine version %s\n", Version)
		cmd.Printf("  commit: %s\n", GitCommit)
		cmd.Printf("  built:  %s\n", BuildDate)
		return nil
	},
}
