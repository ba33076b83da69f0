package errors

import (
	"fmt"
)

// SessionNotFound creates a session lookup failure error
func SessionNotFound(sessionID string) *PerchError {
	return New(ErrCodeSessionNotFound, fmt.Sprintf("no session found for %q", sessionID)).
		WithDetail("session_id", sessionID)
}

// NoSessionForPane is returned by user actions that resolve a session from
// the current tmux pane when no tracked session is attached to it.
func NoSessionForPane(pane string) *PerchError {
	return New(ErrCodeSessionNotFound, fmt.Sprintf("no tracked session for pane %s", pane)).
		WithDetail("pane", pane)
}

// NoTmuxPane is returned by user actions that require running inside tmux.
func NoTmuxPane() *PerchError {
	return New(ErrCodeNoTmuxPane, "not running inside a tmux pane (TMUX_PANE is unset)")
}

// SessionHasNoPane is returned by pane actions on a session that was never
// observed inside tmux.
func SessionHasNoPane(sessionID string) *PerchError {
	return New(ErrCodeNoTmuxPane, fmt.Sprintf("session %q has no tmux pane", sessionID)).
		WithDetail("session_id", sessionID)
}

// PaneGone is returned when a recorded pane no longer exists.
func PaneGone(pane string) *PerchError {
	return New(ErrCodePaneGone, fmt.Sprintf("pane %s no longer exists", pane)).
		WithDetail("pane", pane)
}

// EventInvalid creates a malformed-event error
func EventInvalid(reason string) *PerchError {
	return New(ErrCodeEventInvalid, fmt.Sprintf("invalid event: %s", reason))
}

// StoreBusy wraps a persistent lock contention failure
func StoreBusy(err error) *PerchError {
	return Wrap(err, ErrCodeStoreBusy, "tracking database is locked")
}

// CommandFailed creates a command execution failure error
func CommandFailed(cmd string, err error) *PerchError {
	return Wrap(err, ErrCodeCommandFailed, fmt.Sprintf("command failed: %s", cmd)).
		WithDetail("command", cmd)
}
