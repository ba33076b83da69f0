// Package transcript parses Claude Code transcript JSONL files into chat
// messages for viewer detail panes.
package transcript

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strings"
)

// Message is one rendered chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Transcript entries wrap the message in an outer object; some older lines
// are the message itself.
type line struct {
	Message json.RawMessage `json:"message"`
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type message struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type block struct {
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	Name      string          `json:"name"`
	ID        string          `json:"id"`
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
}

// Parse reads transcript JSONL and returns user/assistant messages with tool
// blocks flattened to short markers. Malformed lines are skipped.
func Parse(r io.Reader) []Message {
	var messages []Message
	toolNames := make(map[string]string) // tool_use_id -> tool name

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var entry line
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}

		msg := message{Role: entry.Role, Content: entry.Content}
		if len(entry.Message) > 0 {
			var inner message
			if err := json.Unmarshal(entry.Message, &inner); err == nil {
				msg = inner
			}
		}

		if msg.Role != "user" && msg.Role != "assistant" {
			continue
		}

		content, fromTaskResult := flattenContent(msg.Content, toolNames)
		role := msg.Role
		// Task results come in user messages but are really assistant output.
		if fromTaskResult && role == "user" {
			role = "assistant"
		}

		if content != "" {
			messages = append(messages, Message{Role: role, Content: content})
		}
	}

	return messages
}

// ParseFile parses the transcript at path. A missing or unreadable file
// yields no messages.
func ParseFile(path string) []Message {
	if path == "" {
		return nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()
	return Parse(file)
}

// RecentAssistantText returns the last max assistant text messages from the
// transcript at path, for the TUI detail pane.
func RecentAssistantText(path string, max int) []string {
	var texts []string
	for _, msg := range ParseFile(path) {
		if msg.Role == "assistant" {
			texts = append(texts, msg.Content)
		}
	}
	if len(texts) > max {
		texts = texts[len(texts)-max:]
	}
	return texts
}

// flattenContent renders a message content value (plain string or block
// list) to display text. The second return reports whether any text came
// from a Task-style tool result.
func flattenContent(raw json.RawMessage, toolNames map[string]string) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return strings.TrimSpace(plain), false
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return "", false
	}

	var parts []string
	hasTaskResult := false
	for _, item := range items {
		var str string
		if err := json.Unmarshal(item, &str); err == nil {
			if s := strings.TrimSpace(str); s != "" {
				parts = append(parts, s)
			}
			continue
		}

		var b block
		if err := json.Unmarshal(item, &b); err != nil {
			continue
		}

		switch b.Type {
		case "text":
			if text := strings.TrimSpace(b.Text); text != "" {
				parts = append(parts, text)
			}
		case "tool_use":
			name := b.Name
			if name == "" {
				name = "unknown"
			}
			if b.ID != "" {
				toolNames[b.ID] = name
			}
			parts = append(parts, "[Tool: "+name+"]")
		case "tool_result":
			// Only Task-style results carry text worth surfacing inline.
			toolName := toolNames[b.ToolUseID]
			if toolName != "Task" && toolName != "ExitPlanMode" {
				continue
			}
			text, ok := flattenResult(b.Content)
			if ok {
				parts = append(parts, text)
				hasTaskResult = true
			}
		}
	}

	return strings.Join(parts, "\n"), hasTaskResult
}

func flattenResult(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		plain = strings.TrimSpace(plain)
		return plain, plain != ""
	}

	var blocks []block
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return "", false
	}

	var parts []string
	for _, b := range blocks {
		if b.Type != "text" {
			continue
		}
		if text := strings.TrimSpace(b.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n"), len(parts) > 0
}
