// Package tmux wraps the tmux commands perch needs: resolving the pane a
// session runs in, enumerating live panes, and steering the user to a pane
// from a viewer.
package tmux

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/perchdev/perch/command"
)

type Client struct {
	builder *command.Builder
	socket  string // Socket name for a dedicated tmux server (uses -L flag)
}

func NewClient() (*Client, error) {
	if _, err := exec.LookPath("tmux"); err != nil {
		return nil, fmt.Errorf("tmux command not found in PATH: %w", err)
	}

	// Tests set PERCH_TMUX_SOCKET to isolate themselves from the user's
	// tmux server.
	socket := os.Getenv("PERCH_TMUX_SOCKET")

	return &Client{
		builder: command.NewBuilder(),
		socket:  socket,
	}, nil
}

// NewClientWithExecutor creates a client with a custom command executor.
// Used by tests to substitute canned tmux output.
func NewClientWithExecutor(exec command.Executor) *Client {
	return &Client{builder: command.NewBuilderWithExecutor(exec)}
}

func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	if c.socket != "" {
		args = append([]string{"-L", c.socket}, args...)
	}

	cmd, err := c.builder.Build(ctx, "tmux", args...)
	if err != nil {
		return "", fmt.Errorf("failed to build command: %w", err)
	}

	output, err := cmd.Output()
	if err != nil {
		cmdStr := "tmux " + strings.Join(args, " ")
		return string(output), fmt.Errorf("tmux command failed: `%s`: %w, output: %s", cmdStr, err, string(output))
	}

	return string(output), nil
}
