package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypeDefaultsToUnknown(t *testing.T) {
	ev := HookEvent{}
	assert.Equal(t, EventUnknown, ev.EventType())

	ev.HookEventName = EventStop
	assert.Equal(t, EventStop, ev.EventType())
}

func TestToolInputString(t *testing.T) {
	ev := HookEvent{ToolInput: map[string]any{
		"command": "ls -la",
		"timeout": 3000,
	}}
	assert.Equal(t, "ls -la", ev.ToolInputString("command"))
	assert.Equal(t, "", ev.ToolInputString("timeout"))
	assert.Equal(t, "", ev.ToolInputString("missing"))

	empty := HookEvent{}
	assert.Equal(t, "", empty.ToolInputString("command"))
}

func TestDecodeBridgeRecord(t *testing.T) {
	line := []byte(`{"data":{"session_id":"s1","hook_event_name":"PreToolUse","tool_name":"Bash"},"container":"box1","host_dir":"/home/u/proj","host_tmux_pane":"%2"}`)

	rec, err := DecodeBridgeRecord(line)
	require.NoError(t, err)
	assert.Equal(t, "s1", rec.Data.SessionID)
	assert.Equal(t, "Bash", rec.Data.ToolName)
	assert.Equal(t, "box1", rec.Container)
	assert.Equal(t, "/home/u/proj", rec.HostDir)
	assert.Equal(t, "%2", rec.HostTmuxPane)

	_, err = DecodeBridgeRecord([]byte("not json"))
	assert.Error(t, err)
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, StatusEnded.IsTerminal())
	assert.True(t, StatusDismissed.IsTerminal())
	assert.False(t, StatusWaiting.IsTerminal())

	assert.Less(t, StatusActive.Rank(), StatusWaiting.Rank())
	assert.Less(t, StatusWaiting.Rank(), StatusPending.Rank())
	assert.Less(t, StatusPending.Rank(), StatusIdle.Rank())
	assert.Less(t, StatusIdle.Rank(), StatusEnded.Rank())
}

func TestContainerSource(t *testing.T) {
	assert.Equal(t, "container:box1", ContainerSource("box1"))
	assert.Equal(t, "host", SourceHost)
}
