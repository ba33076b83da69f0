package track

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/perchdev/perch/pkg/models"
)

func TestNextTransitions(t *testing.T) {
	tests := []struct {
		name          string
		eventType     string
		notification  string
		pendingBefore int
		statusBefore  models.Status
		wantStatus    models.Status
		wantPending   int
	}{
		{
			name:         "session end is terminal and clears counter",
			eventType:    models.EventSessionEnd,
			pendingBefore: 3, statusBefore: models.StatusWaiting,
			wantStatus: models.StatusEnded, wantPending: 0,
		},
		{
			name:      "stop goes idle and clears counter",
			eventType: models.EventStop,
			pendingBefore: 2, statusBefore: models.StatusWaiting,
			wantStatus: models.StatusIdle, wantPending: 0,
		},
		{
			name:         "idle notification goes idle and clears counter",
			eventType:    models.EventNotification,
			notification: models.NotificationIdlePrompt,
			pendingBefore: 1, statusBefore: models.StatusActive,
			wantStatus: models.StatusIdle, wantPending: 0,
		},
		{
			name:         "permission notification flags waiting without counting",
			eventType:    models.EventNotification,
			notification: models.NotificationPermissionPrompt,
			pendingBefore: 1, statusBefore: models.StatusActive,
			wantStatus: models.StatusWaiting, wantPending: 1,
		},
		{
			name:         "unrecognized notification passes through",
			eventType:    models.EventNotification,
			notification: "something_else",
			pendingBefore: 2, statusBefore: models.StatusWaiting,
			wantStatus: models.StatusWaiting, wantPending: 2,
		},
		{
			name:      "permission request increments and waits",
			eventType: models.EventPermissionRequest,
			pendingBefore: 0, statusBefore: models.StatusActive,
			wantStatus: models.StatusWaiting, wantPending: 1,
		},
		{
			name:      "tool completion resolves last permission",
			eventType: models.EventPostToolUse,
			pendingBefore: 1, statusBefore: models.StatusWaiting,
			wantStatus: models.StatusActive, wantPending: 0,
		},
		{
			name:      "tool completion with permissions still queued stays waiting",
			eventType: models.EventPostToolUse,
			pendingBefore: 2, statusBefore: models.StatusWaiting,
			wantStatus: models.StatusWaiting, wantPending: 1,
		},
		{
			name:      "tool failure decrements like completion",
			eventType: models.EventPostToolUseFailed,
			pendingBefore: 1, statusBefore: models.StatusWaiting,
			wantStatus: models.StatusActive, wantPending: 0,
		},
		{
			name:      "prompt submit goes active keeping counter",
			eventType: models.EventUserPromptSubmit,
			pendingBefore: 1, statusBefore: models.StatusIdle,
			wantStatus: models.StatusActive, wantPending: 1,
		},
		{
			name:      "pre tool use goes active",
			eventType: models.EventPreToolUse,
			pendingBefore: 0, statusBefore: models.StatusIdle,
			wantStatus: models.StatusActive, wantPending: 0,
		},
		{
			name:      "session start passes through",
			eventType: models.EventSessionStart,
			pendingBefore: 0, statusBefore: models.StatusActive,
			wantStatus: models.StatusActive, wantPending: 0,
		},
		{
			name:      "subagent stop passes through",
			eventType: models.EventSubagentStop,
			pendingBefore: 1, statusBefore: models.StatusWaiting,
			wantStatus: models.StatusWaiting, wantPending: 1,
		},
		{
			name:      "unknown event passes through",
			eventType: models.EventUnknown,
			pendingBefore: 0, statusBefore: models.StatusIdle,
			wantStatus: models.StatusIdle, wantPending: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Next(tt.eventType, tt.notification, tt.pendingBefore, tt.statusBefore)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantPending, got.Pending)
		})
	}
}

// Completion events can outnumber permission requests after a restart wiped
// the counter; the counter must clamp at zero instead of going negative.
func TestCounterNeverNegative(t *testing.T) {
	got := Next(models.EventPostToolUse, "", 0, models.StatusActive)
	assert.Equal(t, 0, got.Pending)
	assert.Equal(t, models.StatusActive, got.Status)

	got = Next(models.EventPostToolUseFailed, "", 0, models.StatusActive)
	assert.Equal(t, 0, got.Pending)
}

func TestPermissionLifecycle(t *testing.T) {
	status := models.StatusActive
	pending := 0

	// Two tools ask for permission back to back.
	for i := 1; i <= 2; i++ {
		tr := Next(models.EventPermissionRequest, "", pending, status)
		status, pending = tr.Status, tr.Pending
		assert.Equal(t, models.StatusWaiting, status)
		assert.Equal(t, i, pending)
	}

	// First approval resolves one request; still waiting on the second.
	tr := Next(models.EventPostToolUse, "", pending, status)
	assert.Equal(t, models.StatusWaiting, tr.Status)
	assert.Equal(t, 1, tr.Pending)

	// Second approval returns the session to active.
	tr = Next(models.EventPostToolUse, "", tr.Pending, tr.Status)
	assert.Equal(t, models.StatusActive, tr.Status)
	assert.Equal(t, 0, tr.Pending)
}

// A Stop while permissions are queued means the user abandoned the prompt;
// leaving the counter up would strand the session in waiting.
func TestStopClearsQueuedPermissions(t *testing.T) {
	tr := Next(models.EventPermissionRequest, "", 0, models.StatusActive)
	tr = Next(models.EventPermissionRequest, "", tr.Pending, tr.Status)
	assert.Equal(t, 2, tr.Pending)

	tr = Next(models.EventStop, "", tr.Pending, tr.Status)
	assert.Equal(t, models.StatusIdle, tr.Status)
	assert.Equal(t, 0, tr.Pending)
}
