// Package hooks installs and removes the perch hook entries in Claude Code's
// settings.json.
package hooks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	perrors "github.com/perchdev/perch/errors"
	"github.com/perchdev/perch/pkg/paths"
)

// HookCommand is the shell command registered for every hook event.
const HookCommand = "perch hook"

// HookTimeoutSeconds bounds each hook invocation; the agent must never block
// on a wedged tracker.
const HookTimeoutSeconds = 5

// HookEvents lists the hook event names perch subscribes to.
// PermissionRequest drives the pending-permission counter.
var HookEvents = []string{
	"SessionStart",
	"UserPromptSubmit",
	"PreToolUse",
	"PostToolUse",
	"PermissionRequest",
	"Notification",
	"Stop",
	"SubagentStop",
	"SessionEnd",
}

// InstallResult reports what Install changed.
type InstallResult struct {
	Added      []string
	Skipped    []string
	BackupPath string
}

// Install merges perch hook entries into the Claude Code settings file,
// creating it when absent. Existing settings and unrelated hooks are
// preserved; a backup is written before any modification. Events already
// wired to perch are left alone.
func Install() (*InstallResult, error) {
	path := paths.ClaudeSettingsPath()

	settings, err := loadSettings(path)
	if err != nil {
		return nil, err
	}

	hooks, ok := settings["hooks"].(map[string]any)
	if !ok {
		hooks = make(map[string]any)
		settings["hooks"] = hooks
	}

	result := &InstallResult{}
	for _, event := range HookEvents {
		if hasPerchHook(hooks[event]) {
			result.Skipped = append(result.Skipped, event)
			continue
		}
		hook := map[string]any{
			"type":    "command",
			"command": HookCommand,
			"timeout": HookTimeoutSeconds,
		}
		if event == "PostToolUse" {
			// Fires on every tool call; runs without blocking the agent.
			hook["async"] = true
		}
		hooks[event] = appendMatcher(hooks[event], map[string]any{
			"matcher": "",
			"hooks":   []any{hook},
		})
		result.Added = append(result.Added, event)
	}

	if len(result.Added) == 0 {
		return result, nil
	}

	backup, err := backupSettings(path)
	if err != nil {
		return nil, err
	}
	result.BackupPath = backup

	if err := saveSettings(path, settings); err != nil {
		return nil, err
	}
	return result, nil
}

// Uninstall removes every perch hook entry from the settings file. Events
// with no remaining matchers are deleted from the hooks map.
func Uninstall() (int, error) {
	path := paths.ClaudeSettingsPath()

	settings, err := loadSettings(path)
	if err != nil {
		return 0, err
	}

	hooks, ok := settings["hooks"].(map[string]any)
	if !ok {
		return 0, nil
	}

	removed := 0
	for event, value := range hooks {
		matchers, ok := value.([]any)
		if !ok {
			continue
		}
		var kept []any
		for _, m := range matchers {
			if matcherIsPerch(m) {
				removed++
				continue
			}
			kept = append(kept, m)
		}
		if len(kept) == 0 {
			delete(hooks, event)
		} else {
			hooks[event] = kept
		}
	}

	if removed == 0 {
		return 0, nil
	}

	if _, err := backupSettings(path); err != nil {
		return 0, err
	}
	if err := saveSettings(path, settings); err != nil {
		return 0, err
	}
	return removed, nil
}

func loadSettings(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]any), nil
		}
		return nil, perrors.Wrap(err, perrors.ErrCodeSettingsInvalid, "read settings file")
	}

	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, perrors.Wrap(err, perrors.ErrCodeSettingsInvalid,
			fmt.Sprintf("settings file %s is not valid JSON", path))
	}
	if settings == nil {
		settings = make(map[string]any)
	}
	return settings, nil
}

func saveSettings(path string, settings map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return perrors.Wrap(err, perrors.ErrCodeConfigWrite, "create settings directory")
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return perrors.Wrap(err, perrors.ErrCodeConfigWrite, "marshal settings")
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return perrors.Wrap(err, perrors.ErrCodeConfigWrite, "write settings file")
	}
	return nil
}

// backupSettings copies the current settings file aside before a rewrite.
// No file means nothing to back up.
func backupSettings(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", perrors.Wrap(err, perrors.ErrCodeSettingsInvalid, "read settings for backup")
	}

	backup := fmt.Sprintf("%s.bak.%s", path, time.Now().Format("20060102-150405"))
	if err := os.WriteFile(backup, data, 0644); err != nil {
		return "", perrors.Wrap(err, perrors.ErrCodeConfigWrite, "write settings backup")
	}
	return backup, nil
}

// hasPerchHook reports whether any matcher for the event already runs the
// perch hook command.
func hasPerchHook(value any) bool {
	matchers, ok := value.([]any)
	if !ok {
		return false
	}
	for _, m := range matchers {
		if matcherIsPerch(m) {
			return true
		}
	}
	return false
}

func matcherIsPerch(matcher any) bool {
	entry, ok := matcher.(map[string]any)
	if !ok {
		return false
	}
	hookList, ok := entry["hooks"].([]any)
	if !ok {
		return false
	}
	for _, h := range hookList {
		hook, ok := h.(map[string]any)
		if !ok {
			continue
		}
		cmd, _ := hook["command"].(string)
		if strings.Contains(cmd, HookCommand) {
			return true
		}
	}
	return false
}

func appendMatcher(value any, matcher map[string]any) []any {
	matchers, _ := value.([]any)
	return append(matchers, matcher)
}
