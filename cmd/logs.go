package cmd

import (
	"fmt"
	"os"

	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"

	"github.com/perchdev/perch/logging"
)

// NewLogsCmd creates the `logs` command for inspecting perch's own component
// log files.
func NewLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs [component]",
		Short: "Show perch component logs",
		Long: `Shows today's log file for a perch component (hook, server, tui).

Examples:
  # Print the server log
  perch logs server

  # Follow the hook log while debugging hook installation
  perch logs hook -f
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			component := "server"
			if len(args) > 0 {
				component = args[0]
			}

			path := logging.LogFilePath(component)
			if path == "" {
				return fmt.Errorf("cannot resolve log directory")
			}
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("no log file for component %q today (%s)", component, path)
			}

			follow, _ := cmd.Flags().GetBool("follow")
			if !follow {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				os.Stdout.Write(data)
				return nil
			}

			t, err := tail.TailFile(path, tail.Config{
				Follow: true,
				ReOpen: true,
				Logger: tail.DiscardingLogger,
			})
			if err != nil {
				return err
			}
			defer t.Cleanup()

			go func() {
				<-cmd.Context().Done()
				t.Stop()
			}()

			for line := range t.Lines {
				if line.Err != nil {
					continue
				}
				fmt.Println(line.Text)
			}
			return nil
		},
	}

	cmd.Flags().BoolP("follow", "f", false, "Follow log output")

	return cmd
}
