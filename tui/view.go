package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color("12")).
			Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Bold(true)
	detailBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// View renders the dashboard.
func (m Model) View() string {
	if m.width > 0 && m.width < 40 {
		return "Terminal too small. Please resize."
	}

	var b strings.Builder

	title := "PERCH"
	if m.showEnded {
		title += " (including ended)"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	if len(m.sessions) == 0 {
		b.WriteString(faintStyle.Render("No sessions tracked.\n\nRun `perch setup` to install hooks, then start an agent."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderTable())
	}

	if m.showDetail {
		b.WriteString("\n")
		b.WriteString(m.renderDetail())
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errStyle.Render(truncateText(m.err.Error(), 80)))
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderTable() string {
	now := time.Now()
	var b strings.Builder

	header := fmt.Sprintf("  %-1s %-20s %-16s %-6s %-8s %s",
		" ", "SESSION", "STATUS", "AGE", "SOURCE", "ACTIVITY")
	b.WriteString(faintStyle.Render(header))
	b.WriteString("\n")

	for i, sess := range m.sessions {
		marker := " "
		if sess.IsPriority {
			marker = priorityStyle.Render("!")
		}

		line := fmt.Sprintf("%s %s %-20s %-16s %-6s %-8s %s",
			marker,
			statusDot(sess.Status),
			truncateText(displayName(sess), 20),
			statusLabel(sess),
			timeAgo(sess.LastActivity, now),
			truncateText(sourceLabel(sess.Source), 8),
			activityLine(sess),
		)

		if i == m.cursor {
			line = selectedStyle.Render("▸ " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) renderDetail() string {
	sess := m.selected()
	if sess == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s  %s\n", displayName(sess), faintStyle.Render(sess.ID)))
	if sess.ProjectDir != "" {
		b.WriteString(fmt.Sprintf("dir: %s\n", sess.ProjectDir))
	}
	if sess.Model != "" {
		b.WriteString(fmt.Sprintf("model: %s\n", sess.Model))
	}
	if sess.TmuxPane != "" {
		b.WriteString(fmt.Sprintf("pane: %s (%s:%s)\n", sess.TmuxPane, sess.TmuxSession, sess.TmuxWindow))
	}
	b.WriteString(fmt.Sprintf("prompts: %d  tools: %d\n", sess.PromptCount, sess.ToolCount))

	if m.detail.sessionID == sess.ID {
		if len(m.detail.events) > 0 {
			b.WriteString("\n")
			b.WriteString(faintStyle.Render("recent events"))
			b.WriteString("\n")
			for _, ev := range m.detail.events {
				line := ev.EventType
				if ev.ToolName != "" {
					line += " " + ev.ToolName
				}
				if ev.Detail != "" {
					line += ": " + ev.Detail
				}
				b.WriteString("  " + truncateText(line, 76) + "\n")
			}
		}
		if len(m.detail.transcript) > 0 {
			b.WriteString("\n")
			b.WriteString(faintStyle.Render("assistant"))
			b.WriteString("\n")
			for _, text := range m.detail.transcript {
				b.WriteString("  " + truncateText(text, 76) + "\n")
			}
		}
	}

	return detailBorder.Render(strings.TrimRight(b.String(), "\n"))
}

// sourceLabel compacts a source tag for the table column.
func sourceLabel(source string) string {
	return strings.TrimPrefix(source, "container:")
}
