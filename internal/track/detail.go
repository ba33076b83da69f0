package track

import (
	"github.com/perchdev/perch/pkg/models"
)

// Free-text budgets keep row sizes predictable. Details are for display, not
// full fidelity.
const (
	detailBudget = 120
	promptBudget = 200
)

// truncate cuts s to budget characters, never mid-rune.
func truncate(s string, budget int) string {
	if len(s) <= budget {
		return s
	}
	runes := []rune(s)
	if len(runes) <= budget {
		return s
	}
	return string(runes[:budget])
}

// extractDetail pulls a short, tool-specific description out of the tool
// input for the event log and the session's last_detail field.
func extractDetail(ev *models.HookEvent) string {
	if ev.EventType() == models.EventUserPromptSubmit {
		return ""
	}

	switch ev.ToolName {
	case "Bash":
		return truncate(ev.ToolInputString("command"), detailBudget)
	case "Edit", "Write", "Read":
		return ev.ToolInputString("file_path")
	case "Grep", "Glob":
		return ev.ToolInputString("pattern")
	case "Task":
		return truncate(ev.ToolInputString("description"), detailBudget)
	case "WebSearch":
		return truncate(ev.ToolInputString("query"), detailBudget)
	case "WebFetch":
		return truncate(ev.ToolInputString("url"), detailBudget)
	}
	return ""
}
