package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/perchdev/perch/cli"
	"github.com/perchdev/perch/internal/reconcile"
	"github.com/perchdev/perch/internal/store"
	"github.com/perchdev/perch/pkg/paths"
	"github.com/perchdev/perch/pkg/tmux"
	"github.com/perchdev/perch/tui"
)

// NewTuiCmd creates the `tui` command.
func NewTuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive session dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := cli.GetLogger(cmd, "tui")

			if err := paths.EnsureDirs(); err != nil {
				return err
			}

			st, err := store.Open(paths.DBPath())
			if err != nil {
				return err
			}
			defer st.Close()

			tmuxClient, err := tmux.NewClient()
			if err != nil {
				log.WithError(err).Debug("tmux unavailable, jump disabled")
				tmuxClient = nil
			}

			// Sweep stale sessions before first render.
			var lister reconcile.PaneLister
			if tmuxClient != nil {
				lister = tmuxClient
			}
			if err := reconcile.Run(cmd.Context(), st, lister, log); err != nil {
				log.WithError(err).Warn("Startup reconciliation failed")
			}

			program := tea.NewProgram(tui.New(st, tmuxClient), tea.WithAltScreen())
			_, err = program.Run()
			return err
		},
	}
}
