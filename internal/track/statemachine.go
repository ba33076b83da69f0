package track

import (
	"github.com/perchdev/perch/pkg/models"
)

// Transition is the state machine's output: the session's next status and
// permission counter.
type Transition struct {
	Status  models.Status
	Pending int
}

// Next derives a session's next status and pending-permission count from one
// incoming event. It is pure: no I/O, no clock.
//
// The counter never goes negative (tool completions can arrive without a
// matching permission event after a restart) and is forcibly zeroed by any
// event that implies the interactive loop moved past the prompt — otherwise a
// dropped completion event would strand the session in waiting forever.
func Next(eventType, notificationType string, pendingBefore int, statusBefore models.Status) Transition {
	switch eventType {
	case models.EventSessionEnd:
		return Transition{Status: models.StatusEnded, Pending: 0}

	case models.EventStop:
		return Transition{Status: models.StatusIdle, Pending: 0}

	case models.EventNotification:
		switch notificationType {
		case models.NotificationIdlePrompt:
			return Transition{Status: models.StatusIdle, Pending: 0}
		case models.NotificationPermissionPrompt:
			// Secondary signal for a request already counted by
			// PermissionRequest; flags waiting without incrementing.
			return Transition{Status: models.StatusWaiting, Pending: pendingBefore}
		}
		return Transition{Status: statusBefore, Pending: pendingBefore}

	case models.EventPermissionRequest:
		return Transition{Status: models.StatusWaiting, Pending: pendingBefore + 1}

	case models.EventPostToolUse, models.EventPostToolUseFailed:
		pending := pendingBefore - 1
		if pending < 0 {
			pending = 0
		}
		if pending > 0 {
			return Transition{Status: models.StatusWaiting, Pending: pending}
		}
		return Transition{Status: models.StatusActive, Pending: 0}

	case models.EventUserPromptSubmit, models.EventPreToolUse:
		return Transition{Status: models.StatusActive, Pending: pendingBefore}
	}

	// Sub-agent lifecycle, unrecognized notifications: pass through.
	return Transition{Status: statusBefore, Pending: pendingBefore}
}
