package tmux

import (
	"context"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecutor substitutes printf for tmux so tests control the output.
type fakeExecutor struct {
	output string
	calls  [][]string
	fail   bool
}

func (f *fakeExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.fail {
		return exec.CommandContext(ctx, "false")
	}
	return exec.CommandContext(ctx, "printf", "%s", f.output)
}

func TestListPanes(t *testing.T) {
	fake := &fakeExecutor{output: "main\t%1\nmain\t%2\nscratch\t%7\n"}
	client := NewClientWithExecutor(fake)

	panes, err := client.ListPanes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []LivePane{
		{Session: "main", Pane: "%1"},
		{Session: "main", Pane: "%2"},
		{Session: "scratch", Pane: "%7"},
	}, panes)

	require.Len(t, fake.calls, 1)
	assert.Equal(t, "tmux", fake.calls[0][0])
	assert.Contains(t, strings.Join(fake.calls[0], " "), "list-panes -a")
}

func TestListPanesError(t *testing.T) {
	client := NewClientWithExecutor(&fakeExecutor{fail: true})

	_, err := client.ListPanes(context.Background())
	assert.Error(t, err)
}

func TestPaneInfoDegradesOnFailure(t *testing.T) {
	client := NewClientWithExecutor(&fakeExecutor{fail: true})

	info := client.PaneInfo(context.Background(), "%3")
	assert.Equal(t, PaneInfo{Pane: "%3"}, info)
}

func TestPaneInfoEmptyPane(t *testing.T) {
	fake := &fakeExecutor{output: "should not be called"}
	client := NewClientWithExecutor(fake)

	info := client.PaneInfo(context.Background(), "")
	assert.Equal(t, PaneInfo{}, info)
	assert.Empty(t, fake.calls)
}

func TestPaneExists(t *testing.T) {
	client := NewClientWithExecutor(&fakeExecutor{output: "%3"})
	assert.True(t, client.PaneExists(context.Background(), "%3"))

	client = NewClientWithExecutor(&fakeExecutor{fail: true})
	assert.False(t, client.PaneExists(context.Background(), "%3"))
}

func TestCurrentPane(t *testing.T) {
	t.Setenv("TMUX_PANE", "%42")
	assert.Equal(t, "%42", CurrentPane())

	t.Setenv("TMUX_PANE", "")
	assert.Equal(t, "", CurrentPane())
}

func TestSendTextUsesLiteralKeys(t *testing.T) {
	fake := &fakeExecutor{}
	client := NewClientWithExecutor(fake)

	require.NoError(t, client.SendText(context.Background(), "%1", "yes"))
	require.Len(t, fake.calls, 2)
	assert.Equal(t, []string{"tmux", "send-keys", "-t", "%1", "-l", "yes"}, fake.calls[0])
	assert.Equal(t, []string{"tmux", "send-keys", "-t", "%1", "Enter"}, fake.calls[1])
}
