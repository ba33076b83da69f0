package models

import (
	"time"
)

// Status is the derived lifecycle status of a tracked session.
type Status string

const (
	// StatusActive means the agent is working (prompt submitted or tool running).
	StatusActive Status = "active"
	// StatusIdle means the agent stopped and is waiting for user input.
	StatusIdle Status = "idle"
	// StatusWaiting means one or more permission requests are unresolved.
	StatusWaiting Status = "waiting"
	// StatusPending is a user-set marker with an attached reason. It is never
	// produced by event ingestion.
	StatusPending Status = "pending"
	// StatusEnded is terminal: the session ended or its pane disappeared.
	StatusEnded Status = "ended"
	// StatusDismissed is terminal: the user hid the session from viewers.
	StatusDismissed Status = "dismissed"
)

// IsTerminal reports whether no further automatic transition applies.
func (s Status) IsTerminal() bool {
	return s == StatusEnded || s == StatusDismissed
}

// Rank orders statuses for viewer display: the more a session needs
// attention, the lower the rank.
func (s Status) Rank() int {
	switch s {
	case StatusActive:
		return 0
	case StatusWaiting:
		return 1
	case StatusPending:
		return 2
	case StatusIdle:
		return 3
	case StatusEnded:
		return 4
	default:
		return 5
	}
}

// SourceHost marks sessions whose events arrive via direct hook invocation.
const SourceHost = "host"

// ContainerSource builds the source tag for events relayed over the bridge.
func ContainerSource(containerID string) string {
	return "container:" + containerID
}

// Session is the derived state of one tracked Claude Code session.
// Exactly one row exists per session ID; rows are status-transitioned but
// never deleted.
type Session struct {
	ID                 string    `json:"session_id" db:"session_id"`
	Name               string    `json:"name,omitempty" db:"name"`
	Status             Status    `json:"status" db:"status"`
	PendingPermissions int       `json:"pending_permissions" db:"pending_permissions"`
	PendingReason      string    `json:"pending_reason,omitempty" db:"pending_reason"`
	IsPriority         bool      `json:"is_priority" db:"is_priority"`
	Source             string    `json:"source" db:"source"`
	ProjectDir         string    `json:"project_dir,omitempty" db:"project_dir"`
	TranscriptPath     string    `json:"transcript_path,omitempty" db:"transcript_path"`
	Model              string    `json:"model,omitempty" db:"model"`
	TmuxPane           string    `json:"tmux_pane,omitempty" db:"tmux_pane"`
	TmuxWindow         string    `json:"tmux_window,omitempty" db:"tmux_window"`
	TmuxSession        string    `json:"tmux_session,omitempty" db:"tmux_session"`
	StartedAt          time.Time `json:"started_at" db:"started_at"`
	LastActivity       time.Time `json:"last_activity" db:"last_activity"`
	LastEvent          string    `json:"last_event,omitempty" db:"last_event"`
	LastTool           string    `json:"last_tool,omitempty" db:"last_tool"`
	LastDetail         string    `json:"last_detail,omitempty" db:"last_detail"`
	LastPrompt         string    `json:"last_prompt,omitempty" db:"last_prompt"`
	PromptCount        int       `json:"prompt_count" db:"prompt_count"`
	ToolCount          int       `json:"tool_count" db:"tool_count"`
}
