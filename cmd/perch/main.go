package main

import (
	"os"

	"github.com/perchdev/perch/cli"
	"github.com/perchdev/perch/cmd"
)

func main() {
	rootCmd := cli.NewStandardCommand(
		"perch",
		"Track Claude Code agent sessions across tmux panes and containers",
	)

	rootCmd.AddCommand(cmd.NewHookCmd())
	rootCmd.AddCommand(cmd.NewServeCmd())
	rootCmd.AddCommand(cmd.NewTuiCmd())
	rootCmd.AddCommand(cmd.NewListCmd())
	rootCmd.AddCommand(cmd.NewSetupCmd())
	rootCmd.AddCommand(cmd.NewUninstallCmd())
	rootCmd.AddCommand(cmd.NewBridgeDirsCmd())
	rootCmd.AddCommand(cmd.NewSetNameCmd())
	rootCmd.AddCommand(cmd.NewMarkCmd())
	rootCmd.AddCommand(cmd.NewDismissCmd())
	rootCmd.AddCommand(cmd.NewPriorityCmd())
	rootCmd.AddCommand(cmd.NewLogsCmd())
	rootCmd.AddCommand(cmd.NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
