// Package paths provides XDG-compliant path resolution for perch.
//
// Resolution order:
// 1. PERCH_HOME (portable root) → $PERCH_HOME/{config,state}
// 2. XDG env vars → $XDG_*_HOME/perch
// 3. Platform defaults → ~/.config/perch, ~/.local/state/perch
package paths

import (
	"os"
	"path/filepath"
)

// getConfigHome returns the base config home directory.
func getConfigHome() string {
	if perchHome := os.Getenv("PERCH_HOME"); perchHome != "" {
		return filepath.Join(perchHome, "config")
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config")
	}
	return ""
}

// getStateHome returns the base state home directory.
func getStateHome() string {
	if perchHome := os.Getenv("PERCH_HOME"); perchHome != "" {
		return filepath.Join(perchHome, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return xdgStateHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state")
	}
	return ""
}

// ConfigDir returns the perch configuration directory.
// Used for the bridge-dirs list file.
func ConfigDir() string {
	base := getConfigHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "perch")
}

// StateDir returns the perch state directory.
// Used for the tracking database, bridge offsets, and logs.
func StateDir() string {
	base := getStateHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "perch")
}

// LogDir returns the directory perch component log files are written to.
func LogDir() string {
	state := StateDir()
	if state == "" {
		return ""
	}
	return filepath.Join(state, "logs")
}

// DBPath returns the path to the tracking database.
func DBPath() string {
	state := StateDir()
	if state == "" {
		return ""
	}
	return filepath.Join(state, "tracking.db")
}

// BridgeOffsetsPath returns the path to the bridge watcher's offset file.
func BridgeOffsetsPath() string {
	state := StateDir()
	if state == "" {
		return ""
	}
	return filepath.Join(state, "bridge-offsets.yml")
}

// BridgeDirsPath returns the path to the bridge directory list file.
func BridgeDirsPath() string {
	cfg := ConfigDir()
	if cfg == "" {
		return ""
	}
	return filepath.Join(cfg, "bridge-dirs.yml")
}

// ClaudeSettingsPath returns the path to the Claude Code settings file the
// tracking hooks are installed into.
func ClaudeSettingsPath() string {
	if override := os.Getenv("PERCH_CLAUDE_SETTINGS"); override != "" {
		return override
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".claude", "settings.json")
}

// EnsureDirs creates all perch directories if they don't exist.
func EnsureDirs() error {
	dirs := []string{
		ConfigDir(),
		StateDir(),
		LogDir(),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
