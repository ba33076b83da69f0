package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/perchdev/perch/internal/hooks"
	"github.com/perchdev/perch/pkg/paths"
)

// NewSetupCmd creates the `setup` command.
func NewSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Install the tracking hooks into Claude Code settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := paths.EnsureDirs(); err != nil {
				return err
			}

			result, err := hooks.Install()
			if err != nil {
				return err
			}

			if len(result.Added) == 0 {
				fmt.Println("Hooks already installed, nothing to do.")
				return nil
			}

			fmt.Printf("Installed hooks for %d events: %v\n", len(result.Added), result.Added)
			if len(result.Skipped) > 0 {
				fmt.Printf("Already present: %v\n", result.Skipped)
			}
			if result.BackupPath != "" {
				fmt.Printf("Previous settings backed up to %s\n", result.BackupPath)
			}
			fmt.Println("Restart running Claude Code sessions to pick up the hooks.")
			return nil
		},
	}
}

// NewUninstallCmd creates the `uninstall` command.
func NewUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the tracking hooks from Claude Code settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := hooks.Uninstall()
			if err != nil {
				return err
			}
			if removed == 0 {
				fmt.Println("No perch hooks found, nothing to do.")
				return nil
			}
			fmt.Printf("Removed %d hook entries.\n", removed)
			return nil
		},
	}
}
