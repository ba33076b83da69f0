// Package logging provides pre-configured component loggers for perch.
//
// Nothing in the ingestion path may write to stdout or stderr during normal
// operation: hook invocations run inside Claude Code and their output is
// surfaced to the user. Logs therefore go to per-component files under the
// perch state directory, with stderr added only for debug or non-interactive
// runs.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/perchdev/perch/pkg/paths"
	"github.com/sirupsen/logrus"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex
)

// NewLogger creates and returns a pre-configured logger for a specific
// component. It uses a singleton pattern per component to avoid
// re-initializing.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	logger := logrus.New()

	levelStr := "info"
	if env := os.Getenv("PERCH_LOG_LEVEL"); env != "" {
		levelStr = env
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if os.Getenv("PERCH_LOG_FORMAT") == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	var writers []io.Writer

	if file := openLogFile(component); file != nil {
		writers = append(writers, file)
	}

	// Structured logs go to stderr only when debugging or when output is not
	// an interactive terminal (piped, CI). Interactive commands stay quiet.
	isDebug := os.Getenv("PERCH_DEBUG") == "1" || logger.GetLevel() == logrus.DebugLevel
	isInteractive := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	if isDebug || !isInteractive {
		writers = append(writers, os.Stderr)
	}

	switch len(writers) {
	case 0:
		logger.SetOutput(io.Discard)
	case 1:
		logger.SetOutput(writers[0])
	default:
		logger.SetOutput(io.MultiWriter(writers...))
	}

	entry := logger.WithField("component", component)
	loggers[component] = entry
	return entry
}

// LogFilePath returns the path of the current log file for a component.
func LogFilePath(component string) string {
	dir := paths.LogDir()
	if dir == "" {
		return ""
	}
	dateStr := time.Now().Format("2006-01-02")
	return filepath.Join(dir, fmt.Sprintf("%s-%s.log", component, dateStr))
}

func openLogFile(component string) io.Writer {
	path := LogFilePath(component)
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil
	}
	return file
}
