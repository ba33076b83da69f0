package tmux

import (
	"context"
	"os"
	"strings"
)

// PaneInfo describes the pane a session is attached to.
type PaneInfo struct {
	Pane    string // pane id, e.g. "%3"
	Window  string // window name
	Session string // session name (the liveness surface group)
}

// LivePane identifies one currently existing pane.
type LivePane struct {
	Session string
	Pane    string
}

// CurrentPane returns the pane id of the surrounding tmux pane, or "" when
// not running inside tmux.
func CurrentPane() string {
	return os.Getenv("TMUX_PANE")
}

// PaneInfo resolves the window and session names for a pane id. Lookup
// failures degrade to an info with only the pane id set: liveness metadata is
// best-effort and must never block ingestion.
func (c *Client) PaneInfo(ctx context.Context, pane string) PaneInfo {
	info := PaneInfo{Pane: pane}
	if pane == "" {
		return info
	}

	if out, err := c.run(ctx, "display-message", "-p", "-t", pane, "#W"); err == nil {
		info.Window = strings.TrimSpace(out)
	}
	if out, err := c.run(ctx, "display-message", "-p", "-t", pane, "#S"); err == nil {
		info.Session = strings.TrimSpace(out)
	}
	return info
}

// PaneExists reports whether a pane id currently exists.
func (c *Client) PaneExists(ctx context.Context, pane string) bool {
	_, err := c.run(ctx, "display-message", "-p", "-t", pane, "#D")
	return err == nil
}

// ListPanes enumerates every pane on the server as (session, pane id) pairs.
func (c *Client) ListPanes(ctx context.Context) ([]LivePane, error) {
	out, err := c.run(ctx, "list-panes", "-a", "-F", "#{session_name}\t#{pane_id}")
	if err != nil {
		return nil, err
	}

	var panes []LivePane
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			continue
		}
		panes = append(panes, LivePane{Session: parts[0], Pane: parts[1]})
	}
	return panes, nil
}

// JumpTo focuses the window and pane a session runs in.
func (c *Client) JumpTo(ctx context.Context, pane string) error {
	if _, err := c.run(ctx, "select-window", "-t", pane); err != nil {
		return err
	}
	_, err := c.run(ctx, "select-pane", "-t", pane)
	return err
}

// SendText types a message into a pane followed by Enter. The text is sent
// with -l so tmux does not interpret it as key names.
func (c *Client) SendText(ctx context.Context, pane, text string) error {
	if _, err := c.run(ctx, "send-keys", "-t", pane, "-l", text); err != nil {
		return err
	}
	_, err := c.run(ctx, "send-keys", "-t", pane, "Enter")
	return err
}
