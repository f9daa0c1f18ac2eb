package main

import (
	"github.com/spf13/cobra"

	"github.com/steelbatch/orderbook-engine/internal/applog"
	"github.com/steelbatch/orderbook-engine/internal/config"
)

// cfg is the configuration resolved once in PersistentPreRunE and shared by
// every subcommand's RunE.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "batchengine",
	Short:         "Deterministic batch matching engine for the on-chain UTXO order book",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		loaded, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		cfg = loaded
		return applog.Init(cfg.LogLevel, cfg.LogJSON, cfg.LogFile)
	},
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(runCmd, verifyProofsCmd, versionCmd)
}

// Execute runs the root command and returns any error raised along the way.
func Execute() error {
	return rootCmd.Execute()
}
