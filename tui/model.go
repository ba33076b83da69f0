// Package tui implements the interactive session dashboard.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/perchdev/perch/internal/store"
	"github.com/perchdev/perch/internal/transcript"
	"github.com/perchdev/perch/pkg/models"
	"github.com/perchdev/perch/pkg/tmux"
)

// refreshInterval is how often the dashboard re-reads the store. The store
// is written by other processes, so polling is the only change feed.
const refreshInterval = 2 * time.Second

// detailTranscriptLines is how many recent assistant messages the detail
// pane shows.
const detailTranscriptLines = 3

// Model is the dashboard's bubbletea model.
type Model struct {
	store *store.Store
	tmux  *tmux.Client

	sessions   []*models.Session
	cursor     int
	showEnded  bool
	showDetail bool
	detail     detailData

	keys   KeyMap
	help   help.Model
	width  int
	height int
	err    error

	// Jumping to a pane only makes sense when the dashboard itself runs
	// inside tmux.
	insideTmux bool
}

type detailData struct {
	sessionID  string
	events     []models.Event
	transcript []string
}

type sessionsMsg struct {
	sessions []*models.Session
	err      error
}

type detailMsg struct {
	data detailData
}

type tickMsg time.Time

type actionDoneMsg struct {
	err error
}

// New creates a dashboard over the given store. tmuxClient may be nil.
func New(st *store.Store, tmuxClient *tmux.Client) Model {
	return Model{
		store:      st,
		tmux:       tmuxClient,
		keys:       DefaultKeyMap,
		help:       help.New(),
		insideTmux: tmux.CurrentPane() != "",
	}
}

// Init loads the first session list and starts the refresh ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadSessions(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) loadSessions() tea.Cmd {
	showEnded := m.showEnded
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		sessions, err := m.store.ListSessions(ctx, showEnded)
		return sessionsMsg{sessions: sessions, err: err}
	}
}

func (m Model) loadDetail() tea.Cmd {
	sess := m.selected()
	if sess == nil {
		return nil
	}
	id := sess.ID
	transcriptPath := sess.TranscriptPath
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		events, _ := m.store.RecentEvents(ctx, id, 10)
		return detailMsg{data: detailData{
			sessionID:  id,
			events:     events,
			transcript: transcript.RecentAssistantText(transcriptPath, detailTranscriptLines),
		}}
	}
}

func (m Model) selected() *models.Session {
	if len(m.sessions) == 0 || m.cursor >= len(m.sessions) {
		return nil
	}
	return m.sessions[m.cursor]
}

// Update handles messages and updates the model accordingly.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		cmds := []tea.Cmd{m.loadSessions(), tick()}
		if m.showDetail {
			cmds = append(cmds, m.loadDetail())
		}
		return m, tea.Batch(cmds...)

	case sessionsMsg:
		m.err = msg.err
		if msg.err == nil {
			m.sessions = msg.sessions
			if m.cursor >= len(m.sessions) && len(m.sessions) > 0 {
				m.cursor = len(m.sessions) - 1
			}
		}
		return m, nil

	case detailMsg:
		m.detail = msg.data
		return m, nil

	case actionDoneMsg:
		m.err = msg.err
		return m, m.loadSessions()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, m.detailIfOpen()

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.sessions)-1 {
			m.cursor++
		}
		return m, m.detailIfOpen()

	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
		return m, m.detailIfOpen()

	case key.Matches(msg, m.keys.Bottom):
		if len(m.sessions) > 0 {
			m.cursor = len(m.sessions) - 1
		}
		return m, m.detailIfOpen()

	case key.Matches(msg, m.keys.Detail):
		m.showDetail = !m.showDetail
		if m.showDetail {
			return m, m.loadDetail()
		}
		m.detail = detailData{}
		return m, nil

	case key.Matches(msg, m.keys.ShowEnded):
		m.showEnded = !m.showEnded
		m.cursor = 0
		return m, m.loadSessions()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadSessions()

	case key.Matches(msg, m.keys.Jump):
		return m, m.jump()

	case key.Matches(msg, m.keys.Dismiss):
		return m, m.dismiss()

	case key.Matches(msg, m.keys.Priority):
		return m, m.togglePriority()
	}

	return m, nil
}

func (m Model) detailIfOpen() tea.Cmd {
	if m.showDetail {
		return m.loadDetail()
	}
	return nil
}

func (m Model) jump() tea.Cmd {
	sess := m.selected()
	if sess == nil || m.tmux == nil || !m.insideTmux || sess.TmuxPane == "" {
		return nil
	}
	pane := sess.TmuxPane
	client := m.tmux
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return actionDoneMsg{err: client.JumpTo(ctx, pane)}
	}
}

func (m Model) dismiss() tea.Cmd {
	sess := m.selected()
	if sess == nil {
		return nil
	}
	id := sess.ID
	st := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return actionDoneMsg{err: st.Dismiss(ctx, id)}
	}
}

func (m Model) togglePriority() tea.Cmd {
	sess := m.selected()
	if sess == nil {
		return nil
	}
	id := sess.ID
	next := !sess.IsPriority
	st := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return actionDoneMsg{err: st.SetPriority(ctx, id, next)}
	}
}
