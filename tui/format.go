package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/perchdev/perch/pkg/models"
)

var (
	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	waitingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	idleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	endedStyle    = lipgloss.NewStyle().Faint(true)
	priorityStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	faintStyle    = lipgloss.NewStyle().Faint(true)
)

// statusDot renders the colored status indicator for a session.
func statusDot(status models.Status) string {
	switch status {
	case models.StatusActive:
		return activeStyle.Render("●")
	case models.StatusWaiting:
		return waitingStyle.Render("●")
	case models.StatusPending:
		return pendingStyle.Render("●")
	case models.StatusIdle:
		return idleStyle.Render("●")
	case models.StatusEnded:
		return endedStyle.Render("○")
	default:
		return faintStyle.Render("·")
	}
}

// statusLabel renders the status column, including the permission counter
// when permissions are queued.
func statusLabel(sess *models.Session) string {
	label := string(sess.Status)
	if sess.Status == models.StatusWaiting && sess.PendingPermissions > 0 {
		label = fmt.Sprintf("waiting (%d)", sess.PendingPermissions)
	}
	if sess.Status == models.StatusPending && sess.PendingReason != "" {
		label = fmt.Sprintf("pending: %s", truncateText(sess.PendingReason, 24))
	}
	return label
}

// displayName picks the best human handle for a session: explicit name,
// project directory basename, then the raw id.
func displayName(sess *models.Session) string {
	if sess.Name != "" {
		return sess.Name
	}
	if sess.ProjectDir != "" {
		return filepath.Base(sess.ProjectDir)
	}
	if len(sess.ID) > 8 {
		return sess.ID[:8]
	}
	return sess.ID
}

// activityLine summarizes what a session last did.
func activityLine(sess *models.Session) string {
	switch {
	case sess.LastEvent == models.EventUserPromptSubmit && sess.LastPrompt != "":
		return truncateText("> "+sess.LastPrompt, 60)
	case sess.LastTool != "" && sess.LastDetail != "":
		return truncateText(sess.LastTool+": "+sess.LastDetail, 60)
	case sess.LastTool != "":
		return sess.LastTool
	case sess.LastDetail != "":
		return truncateText(sess.LastDetail, 60)
	default:
		return sess.LastEvent
	}
}

// timeAgo renders an elapsed duration in compact human form.
func timeAgo(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := now.Sub(t)
	switch {
	case d < time.Second:
		return "now"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

func truncateText(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
