package models

import (
	"time"
)

// Hook event names emitted by Claude Code. Unrecognized names pass through
// the state machine without changing status.
const (
	EventSessionStart      = "SessionStart"
	EventSessionEnd        = "SessionEnd"
	EventStop              = "Stop"
	EventNotification      = "Notification"
	EventPermissionRequest = "PermissionRequest"
	EventPreToolUse        = "PreToolUse"
	EventPostToolUse       = "PostToolUse"
	EventPostToolUseFailed = "PostToolUseFailure"
	EventUserPromptSubmit  = "UserPromptSubmit"
	EventSubagentStop      = "SubagentStop"
	EventUnknown           = "unknown"
)

// Notification subtypes that drive status transitions.
const (
	NotificationIdlePrompt       = "idle_prompt"
	NotificationPermissionPrompt = "permission_prompt"
)

// Event is one immutable row of a session's event log. Written once by the
// ingestion pipeline, never mutated.
type Event struct {
	ID        string    `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	EventType string    `json:"event_type" db:"event_type"`
	ToolName  string    `json:"tool_name,omitempty" db:"tool_name"`
	Detail    string    `json:"detail,omitempty" db:"detail"`
}
