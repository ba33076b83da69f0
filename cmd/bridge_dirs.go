package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/perchdev/perch/config"
)

// NewBridgeDirsCmd creates the `bridge-dirs` command group.
func NewBridgeDirsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bridge-dirs",
		Short: "Manage directories watched for container bridge files",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List watched directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs, err := config.LoadBridgeDirs()
			if err != nil {
				return err
			}
			if len(dirs) == 0 {
				fmt.Println("No bridge directories configured.")
				return nil
			}
			for _, dir := range dirs {
				fmt.Println(dir)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <dir>",
		Short: "Add a directory to watch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			added, err := config.AddBridgeDir(args[0])
			if err != nil {
				return err
			}
			if !added {
				fmt.Println("Already watching that directory.")
				return nil
			}
			fmt.Println("Added.")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <dir>",
		Short: "Stop watching a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := config.RemoveBridgeDir(args[0])
			if err != nil {
				return err
			}
			if !removed {
				fmt.Println("That directory was not being watched.")
				return nil
			}
			fmt.Println("Removed.")
			return nil
		},
	})

	return cmd
}
