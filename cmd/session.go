package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	perrors "github.com/perchdev/perch/errors"
	"github.com/perchdev/perch/internal/store"
	"github.com/perchdev/perch/pkg/models"
	"github.com/perchdev/perch/pkg/paths"
	"github.com/perchdev/perch/pkg/tmux"
)

// resolveTarget picks the session a command acts on: an explicit id argument,
// or the session attached to the surrounding tmux pane.
func resolveTarget(ctx context.Context, st *store.Store, args []string) (*models.Session, error) {
	if len(args) > 0 {
		return st.GetSession(ctx, args[0])
	}
	pane := tmux.CurrentPane()
	if pane == "" {
		return nil, perrors.NoTmuxPane()
	}
	return st.SessionByPane(ctx, pane)
}

func withStore(fn func(ctx context.Context, st *store.Store, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(paths.DBPath())
		if err != nil {
			return err
		}
		defer st.Close()
		return fn(cmd.Context(), st, cmd, args)
	}
}

// NewSetNameCmd creates the `set-name` command.
func NewSetNameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-name <name>",
		Short: "Name the session running in the current tmux pane",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(ctx context.Context, st *store.Store, cmd *cobra.Command, args []string) error {
			sessionID, _ := cmd.Flags().GetString("session")
			var target []string
			if sessionID != "" {
				target = []string{sessionID}
			}
			sess, err := resolveTarget(ctx, st, target)
			if err != nil {
				return err
			}
			if err := st.SetName(ctx, sess.ID, args[0]); err != nil {
				return err
			}
			fmt.Printf("Named session %s %q\n", sess.ID, args[0])
			return nil
		}),
	}
	cmd.Flags().String("session", "", "Target session id instead of the current pane")
	return cmd
}

// NewMarkCmd creates the `mark` command.
func NewMarkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mark [reason]",
		Short: "Mark the current pane's session pending with a reason",
		Args:  cobra.MaximumNArgs(1),
		RunE: withStore(func(ctx context.Context, st *store.Store, cmd *cobra.Command, args []string) error {
			sessionID, _ := cmd.Flags().GetString("session")
			var target []string
			if sessionID != "" {
				target = []string{sessionID}
			}
			sess, err := resolveTarget(ctx, st, target)
			if err != nil {
				return err
			}

			if clear, _ := cmd.Flags().GetBool("clear"); clear {
				if err := st.ClearPending(ctx, sess.ID); err != nil {
					return err
				}
				fmt.Printf("Cleared pending mark on %s\n", sess.ID)
				return nil
			}

			reason := ""
			if len(args) > 0 {
				reason = args[0]
			}
			if err := st.SetPending(ctx, sess.ID, reason); err != nil {
				return err
			}
			fmt.Printf("Marked %s pending\n", sess.ID)
			return nil
		}),
	}
	cmd.Flags().Bool("clear", false, "Clear the pending mark instead of setting it")
	cmd.Flags().String("session", "", "Target session id instead of the current pane")
	return cmd
}

// NewDismissCmd creates the `dismiss` command.
func NewDismissCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss [session-id]",
		Short: "Hide a session from viewers",
		Args:  cobra.MaximumNArgs(1),
		RunE: withStore(func(ctx context.Context, st *store.Store, cmd *cobra.Command, args []string) error {
			sess, err := resolveTarget(ctx, st, args)
			if err != nil {
				return err
			}
			if err := st.Dismiss(ctx, sess.ID); err != nil {
				return err
			}
			fmt.Printf("Dismissed %s\n", sess.ID)
			return nil
		}),
	}
}

// NewPriorityCmd creates the `priority` command.
func NewPriorityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "priority [session-id]",
		Short: "Pin a session to the top of viewer lists",
		Args:  cobra.MaximumNArgs(1),
		RunE: withStore(func(ctx context.Context, st *store.Store, cmd *cobra.Command, args []string) error {
			sess, err := resolveTarget(ctx, st, args)
			if err != nil {
				return err
			}
			clear, _ := cmd.Flags().GetBool("clear")
			if err := st.SetPriority(ctx, sess.ID, !clear); err != nil {
				return err
			}
			if clear {
				fmt.Printf("Cleared priority on %s\n", sess.ID)
			} else {
				fmt.Printf("Prioritized %s\n", sess.ID)
			}
			return nil
		}),
	}
	cmd.Flags().Bool("clear", false, "Clear the priority flag instead of setting it")
	return cmd
}

// NewListCmd creates the `list` command, a plain-text session listing for
// scripts and quick checks without the TUI.
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked sessions",
		Args:  cobra.NoArgs,
		RunE: withStore(func(ctx context.Context, st *store.Store, cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			sessions, err := st.ListSessions(ctx, all)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println("No sessions tracked.")
				return nil
			}
			for _, sess := range sessions {
				name := sess.Name
				if name == "" {
					name = sess.ID
				}
				fmt.Printf("%-10s %-24s %s\n", sess.Status, name, sess.LastDetail)
			}
			return nil
		}),
	}
	cmd.Flags().Bool("all", false, "Include ended sessions")
	return cmd
}
