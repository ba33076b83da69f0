package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBridgeDirsMissingFile(t *testing.T) {
	dirs, err := loadBridgeDirs(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Empty(t, dirs)
}

func TestSaveAndLoadBridgeDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "bridge-dirs.yml")

	want := []string{"/home/user/proj-a", "/home/user/proj-b"}
	require.NoError(t, saveBridgeDirs(path, want))

	got, err := loadBridgeDirs(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadBridgeDirsInvalidYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge-dirs.yml")
	require.NoError(t, os.WriteFile(path, []byte("key: {nested: map}"), 0644))

	_, err := loadBridgeDirs(path)
	assert.Error(t, err)
}

func TestAddAndRemoveBridgeDir(t *testing.T) {
	t.Setenv("PERCH_HOME", t.TempDir())

	target := t.TempDir()

	added, err := AddBridgeDir(target)
	require.NoError(t, err)
	assert.True(t, added)

	// Adding again is a no-op.
	added, err = AddBridgeDir(target)
	require.NoError(t, err)
	assert.False(t, added)

	dirs, err := LoadBridgeDirs()
	require.NoError(t, err)
	assert.Equal(t, []string{target}, dirs)

	removed, err := RemoveBridgeDir(target)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = RemoveBridgeDir(target)
	require.NoError(t, err)
	assert.False(t, removed)

	dirs, err = LoadBridgeDirs()
	require.NoError(t, err)
	assert.Empty(t, dirs)
}

func TestBridgeDirListReflectsFileChanges(t *testing.T) {
	t.Setenv("PERCH_HOME", t.TempDir())

	list := BridgeDirList{}
	assert.Empty(t, list.Dirs())

	target := t.TempDir()
	_, err := AddBridgeDir(target)
	require.NoError(t, err)

	assert.Equal(t, []string{target}, list.Dirs())
}
