package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the session dashboard.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Top       key.Binding
	Bottom    key.Binding
	Jump      key.Binding
	Detail    key.Binding
	Dismiss   key.Binding
	Priority  key.Binding
	ShowEnded key.Binding
	Refresh   key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// DefaultKeyMap is the default set of keybindings.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Top: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("g", "jump to top"),
	),
	Bottom: key.NewBinding(
		key.WithKeys("G"),
		key.WithHelp("G", "jump to bottom"),
	),
	Jump: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "jump to pane"),
	),
	Detail: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "toggle detail"),
	),
	Dismiss: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "dismiss"),
	),
	Priority: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "toggle priority"),
	),
	ShowEnded: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "show ended"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q/esc", "quit"),
	),
}

// ShortHelp returns keybindings to be shown in the compact help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Jump, k.Detail, k.Dismiss, k.Help, k.Quit}
}

// FullHelp returns keybindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Jump, k.Detail, k.Dismiss, k.Priority},
		{k.ShowEnded, k.Refresh, k.Help, k.Quit},
	}
}
