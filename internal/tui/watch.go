// Package tui implements the watch view: a polling terminal dashboard of
// phases, TODOs, pending counts, and blockers. It uses bubbletea's Elm
// loop with a spinner between refreshes and a viewport for long trees.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwhitby/nextstep/internal/engine"
	"github.com/mwhitby/nextstep/internal/render"
)

// DefaultRefreshInterval is how often the watch view rescans the tree.
const DefaultRefreshInterval = 2 * time.Second

type refreshMsg struct {
	status engine.Status
	err    error
}

type tickMsg time.Time

// Model is the bubbletea model behind `nextstep watch`.
type Model struct {
	engine   *engine.Engine
	interval time.Duration

	spin     spinner.Model
	view     viewport.Model
	ready    bool
	status   engine.Status
	loaded   bool
	lastErr  error
	lastScan time.Time
}

// NewModel builds the watch model over an engine. A non-positive interval
// falls back to the default.
func NewModel(e *engine.Engine, interval time.Duration) Model {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))
	return Model{engine: e, interval: interval, spin: sp}
}

// Init kicks off the spinner, the first scan, and the refresh timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.refresh(), m.schedule())
}

func (m Model) refresh() tea.Cmd {
	return func() tea.Msg {
		st, err := m.engine.Status()
		return refreshMsg{status: st, err: err}
	}
}

func (m Model) schedule() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update advances the model. q and ctrl+c quit; everything else is
// timer-driven.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		if m.ready {
			var cmd tea.Cmd
			m.view, cmd = m.view.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		headerHeight := 2
		if !m.ready {
			m.view = viewport.New(msg.Width, msg.Height-headerHeight)
			m.ready = true
		} else {
			m.view.Width = msg.Width
			m.view.Height = msg.Height - headerHeight
		}
		m.view.SetContent(render.Status(m.status))
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.refresh(), m.schedule())

	case refreshMsg:
		m.lastErr = msg.err
		m.lastScan = time.Now()
		if msg.err == nil {
			m.status = msg.status
			m.loaded = true
		}
		if m.ready {
			m.view.SetContent(render.Status(m.status))
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the header line plus the scrollable status body.
func (m Model) View() string {
	header := m.spin.View() + " watching"
	if m.lastErr != nil {
		header += lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Render("  refresh failed: " + m.lastErr.Error())
	} else if !m.lastScan.IsZero() {
		header += lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Render("  " + m.lastScan.Format("15:04:05"))
	}
	body := render.Status(m.status)
	if !m.loaded {
		body = "loading..."
	}
	if m.ready {
		body = m.view.View()
	}
	hint := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Render("q to quit")
	return lipgloss.JoinVertical(lipgloss.Left, header, body, hint)
}

// Run starts the watch program and blocks until the user quits.
func Run(e *engine.Engine, interval time.Duration) error {
	_, err := tea.NewProgram(NewModel(e, interval), tea.WithAltScreen()).Run()
	return err
}
