package command

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

const (
	// DefaultTimeout bounds every external command perch runs. Liveness
	// queries must never stall event ingestion, so this is seconds, not
	// minutes.
	DefaultTimeout = 2 * time.Second

	// MaxTimeout is the maximum allowed timeout
	MaxTimeout = 30 * time.Second
)

// Builder provides command construction with enforced timeouts.
type Builder struct {
	defaultTimeout time.Duration
	executor       Executor
}

// NewBuilder creates a new Builder instance with a RealExecutor.
func NewBuilder() *Builder {
	return NewBuilderWithExecutor(&RealExecutor{})
}

// NewBuilderWithExecutor creates a new Builder with a custom Executor.
func NewBuilderWithExecutor(exec Executor) *Builder {
	return &Builder{
		defaultTimeout: DefaultTimeout,
		executor:       exec,
	}
}

// Command represents a command configuration with a bounded lifetime.
type Command struct {
	ctx      context.Context
	cancel   context.CancelFunc
	name     string
	args     []string
	timeout  time.Duration
	executor Executor
}

// Build creates a new command with the builder's default timeout applied.
func (b *Builder) Build(ctx context.Context, name string, args ...string) (*Command, error) {
	if name == "" {
		return nil, fmt.Errorf("command name cannot be empty")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, b.defaultTimeout)
	return &Command{
		ctx:      timeoutCtx,
		cancel:   cancel,
		name:     name,
		args:     args,
		timeout:  b.defaultTimeout,
		executor: b.executor,
	}, nil
}

// WithTimeout sets a custom timeout for the command.
func (c *Command) WithTimeout(timeout time.Duration) *Command {
	if timeout > MaxTimeout {
		timeout = MaxTimeout
	}

	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	c.ctx = ctx
	c.cancel = cancel
	c.timeout = timeout
	return c
}

// Output runs the command and returns its combined output, releasing the
// timeout context when done.
func (c *Command) Output() ([]byte, error) {
	defer c.cancel()
	return c.Exec().CombinedOutput()
}

// Exec creates and returns an exec.Cmd.
func (c *Command) Exec() *exec.Cmd {
	return c.executor.CommandContext(c.ctx, c.name, c.args...)
}
