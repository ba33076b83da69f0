package models

import (
	"encoding/json"
)

// HookEvent is the raw payload Claude Code pipes to hook commands on stdin.
// Every field except SessionID is optional; absent fields decode to zero
// values and are tolerated throughout ingestion.
type HookEvent struct {
	SessionID        string         `json:"session_id"`
	HookEventName    string         `json:"hook_event_name"`
	CWD              string         `json:"cwd"`
	ToolName         string         `json:"tool_name"`
	ToolInput        map[string]any `json:"tool_input"`
	Model            string         `json:"model"`
	TranscriptPath   string         `json:"transcript_path"`
	Prompt           string         `json:"prompt"`
	NotificationType string         `json:"notification_type"`
}

// EventType returns the hook event name, defaulting to "unknown" so that
// malformed events are recorded rather than rejected.
func (h *HookEvent) EventType() string {
	if h.HookEventName == "" {
		return EventUnknown
	}
	return h.HookEventName
}

// ToolInputString returns a string field from the tool input map, or "" when
// the field is absent or not a string.
func (h *HookEvent) ToolInputString(key string) string {
	if h.ToolInput == nil {
		return ""
	}
	s, _ := h.ToolInput[key].(string)
	return s
}

// BridgeRecord is one line of a bridge file: a hook event captured inside a
// container, wrapped with enough host-side context to translate it.
type BridgeRecord struct {
	Data         HookEvent `json:"data"`
	Container    string    `json:"container"`
	HostDir      string    `json:"host_dir"`
	HostTmuxPane string    `json:"host_tmux_pane"`
}

// DecodeBridgeRecord parses one newline-delimited bridge file record.
func DecodeBridgeRecord(line []byte) (*BridgeRecord, error) {
	var rec BridgeRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
