package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for suzerain
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suzerain",
		Short: "Classify how you govern an AI coding agent",
		Long: `Suzerain reads Claude Code session logs, measures how you accept or
reject tool calls, and places you in one of six governance archetypes:
Adaptive, Delegator, Council, Guardian, Strategist or Constitutionalist.

Analysis runs locally. Nothing leaves the machine unless you run
'suzerain share --confirm'.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "config file (default $SUZERAIN_HOME/config.yaml)")
	cmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error")

	cmd.AddCommand(NewAnalyzeCommand())
	cmd.AddCommand(NewShareCommand())
	cmd.AddCommand(NewSimulateCommand())
	cmd.AddCommand(NewAxesCommand())
	cmd.AddCommand(NewWatchCommand())
	cmd.AddCommand(NewHistoryCommand())
	cmd.AddCommand(NewConfigCommand())

	return cmd
}
