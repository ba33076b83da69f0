// Package testutil provides shared helpers for perch tests.
package testutil

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/perchdev/perch/internal/store"
)

// OpenStore opens a fresh tracking database in a temp directory. The store
// is closed when the test finishes.
func OpenStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "tracking.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// SilentLogger returns a logger entry that discards all output.
func SilentLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}
