package command

import (
	"context"
	"os/exec"
)

// Executor creates exec.Cmd instances. This abstraction allows for dependency
// injection, enabling test-specific command creation logic (e.g., substituting
// a fake tmux binary) without modifying production code.
type Executor interface {
	// CommandContext creates a new context-aware exec.Cmd instance.
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

// RealExecutor is the production implementation of the Executor interface,
// which uses the standard os/exec package to create commands.
type RealExecutor struct{}

// CommandContext creates a standard context-aware exec.Cmd.
func (e *RealExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}
