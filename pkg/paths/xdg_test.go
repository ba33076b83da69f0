package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPerchHomeOverridesEverything(t *testing.T) {
	home := t.TempDir()
	t.Setenv("PERCH_HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "/should/not/be/used")
	t.Setenv("XDG_STATE_HOME", "/should/not/be/used")

	assert.Equal(t, filepath.Join(home, "config", "perch"), ConfigDir())
	assert.Equal(t, filepath.Join(home, "state", "perch"), StateDir())
	assert.Equal(t, filepath.Join(home, "state", "perch", "tracking.db"), DBPath())
	assert.Equal(t, filepath.Join(home, "state", "perch", "logs"), LogDir())
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("PERCH_HOME", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_STATE_HOME", "/xdg/state")

	assert.Equal(t, filepath.Join("/xdg/config", "perch"), ConfigDir())
	assert.Equal(t, filepath.Join("/xdg/state", "perch", "bridge-offsets.yml"), BridgeOffsetsPath())
	assert.Equal(t, filepath.Join("/xdg/config", "perch", "bridge-dirs.yml"), BridgeDirsPath())
}

func TestClaudeSettingsOverride(t *testing.T) {
	t.Setenv("PERCH_CLAUDE_SETTINGS", "/custom/settings.json")
	assert.Equal(t, "/custom/settings.json", ClaudeSettingsPath())
}

func TestEnsureDirs(t *testing.T) {
	t.Setenv("PERCH_HOME", t.TempDir())

	assert.NoError(t, EnsureDirs())
	assert.DirExists(t, ConfigDir())
	assert.DirExists(t, StateDir())
	assert.DirExists(t, LogDir())
}
