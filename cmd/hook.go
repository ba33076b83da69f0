package cmd

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/perchdev/perch/cli"
	"github.com/perchdev/perch/internal/store"
	"github.com/perchdev/perch/internal/track"
	"github.com/perchdev/perch/pkg/models"
	"github.com/perchdev/perch/pkg/paths"
	"github.com/perchdev/perch/pkg/tmux"
)

// NewHookCmd creates the `hook` command, the entry point Claude Code invokes
// for every hook event with the event payload on stdin.
//
// The command always exits 0. A tracking failure must never surface as a
// hook failure inside the agent; problems are logged and swallowed.
func NewHookCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "hook",
		Short:  "Ingest one hook event from stdin",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := cli.GetLogger(cmd, "hook")

			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				log.WithError(err).Error("Failed to read hook payload")
				return nil
			}

			var raw models.HookEvent
			if err := json.Unmarshal(data, &raw); err != nil {
				log.WithError(err).Warn("Malformed hook payload")
				return nil
			}

			st, err := store.Open(paths.DBPath())
			if err != nil {
				log.WithError(err).Error("Failed to open tracking database")
				return nil
			}
			defer st.Close()

			// Pane metadata is best-effort; no tmux binary just means empty
			// pane fields.
			var resolver track.PaneResolver
			if client, err := tmux.NewClient(); err == nil {
				resolver = client
			}

			res := track.New(st, resolver, log).Ingest(cmd.Context(), &raw, models.SourceHost, "")
			if !res.Applied() {
				log.WithField("reason", res.Reason).Debug("Hook event not applied")
			}
			return nil
		},
	}
}
