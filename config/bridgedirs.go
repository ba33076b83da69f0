// Package config manages perch's configuration surface: the list of
// directories scanned for container bridge files.
package config

import (
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	perrors "github.com/perchdev/perch/errors"
	"github.com/perchdev/perch/pkg/paths"
)

// LoadBridgeDirs loads the ordered, de-duplicated list of watched
// directories. A missing file is an empty list.
func LoadBridgeDirs() ([]string, error) {
	return loadBridgeDirs(paths.BridgeDirsPath())
}

func loadBridgeDirs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, perrors.Wrap(err, perrors.ErrCodeConfigInvalid, "read bridge dirs file")
	}

	var dirs []string
	if err := yaml.Unmarshal(data, &dirs); err != nil {
		return nil, perrors.Wrap(err, perrors.ErrCodeConfigInvalid, "parse bridge dirs file")
	}
	return dirs, nil
}

// SaveBridgeDirs writes the directory list back to the side file.
func SaveBridgeDirs(dirs []string) error {
	return saveBridgeDirs(paths.BridgeDirsPath(), dirs)
}

func saveBridgeDirs(path string, dirs []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return perrors.Wrap(err, perrors.ErrCodeConfigWrite, "create config directory")
	}
	data, err := yaml.Marshal(dirs)
	if err != nil {
		return perrors.Wrap(err, perrors.ErrCodeConfigWrite, "marshal bridge dirs")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return perrors.Wrap(err, perrors.ErrCodeConfigWrite, "write bridge dirs file")
	}
	return nil
}

// AddBridgeDir adds an absolute directory path to the list. Returns false
// when the path was already configured.
func AddBridgeDir(dir string) (bool, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return false, perrors.Wrap(err, perrors.ErrCodeInvalidInput, "resolve directory path")
	}

	dirs, err := LoadBridgeDirs()
	if err != nil {
		return false, err
	}
	if slices.Contains(dirs, abs) {
		return false, nil
	}
	dirs = append(dirs, abs)
	return true, SaveBridgeDirs(dirs)
}

// RemoveBridgeDir removes a directory from the list. Returns false when the
// path was not configured.
func RemoveBridgeDir(dir string) (bool, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return false, perrors.Wrap(err, perrors.ErrCodeInvalidInput, "resolve directory path")
	}

	dirs, err := LoadBridgeDirs()
	if err != nil {
		return false, err
	}
	idx := slices.Index(dirs, abs)
	if idx < 0 {
		return false, nil
	}
	dirs = slices.Delete(dirs, idx, idx+1)
	return true, SaveBridgeDirs(dirs)
}

// BridgeDirList adapts the side file to the bridge watcher's DirProvider.
// It re-reads the file on every call: the list is tiny and this keeps a
// long-running watcher current even without the fsnotify path.
type BridgeDirList struct{}

func (BridgeDirList) Dirs() []string {
	dirs, err := LoadBridgeDirs()
	if err != nil {
		return nil
	}
	return dirs
}

// StaticDirList is a fixed DirProvider for tests.
type StaticDirList []string

func (s StaticDirList) Dirs() []string { return s }
