package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/perchdev/perch/cli"
	"github.com/perchdev/perch/internal/server"
	"github.com/perchdev/perch/internal/store"
	"github.com/perchdev/perch/pkg/paths"
	"github.com/perchdev/perch/pkg/tmux"
)

// NewServeCmd creates the `serve` command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the tracking server (HTTP API, bridge watcher, reconciliation)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := cli.GetLogger(cmd, "server")

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
				log.WithError(err).Warn("tmux unavailable, pane actions disabled")
				tmuxClient = nil
			}

			addr, _ := cmd.Flags().GetString("addr")
			if cmd.Flags().Changed("port") {
				port, _ := cmd.Flags().GetInt("port")
				addr = fmt.Sprintf("127.0.0.1:%d", port)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return server.New(st, tmuxClient, log, addr).Run(ctx)
		},
	}

	cmd.Flags().String("addr", server.DefaultAddr, "Listen address for the HTTP API")
	cmd.Flags().IntP("port", "p", 0, "Listen port on 127.0.0.1 (shorthand for --addr)")

	return cmd
}
