package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/studiowebux/perfscope/internal/analytics"
	"github.com/studiowebux/perfscope/internal/clipboard"
	"github.com/studiowebux/perfscope/internal/collector"
	"github.com/studiowebux/perfscope/internal/render"
	"github.com/studiowebux/perfscope/internal/session"
)

const statusTimeout = 3 * time.Second

// RefreshFunc runs a new collection pass
type RefreshFunc func(ctx context.Context) (*collector.Report, error)

// Options configures the viewer
type Options struct {
	Render  render.Options
	Refresh RefreshFunc // nil disables the refresh key
}

// Model is the Bubble Tea model of the report viewer
type Model struct {
	session *session.AnalysisSession
	opts    Options

	keys    keyMap
	help    help.Model
	view    viewport.Model
	spinner spinner.Model

	width    int
	height   int
	ready    bool
	loading  bool
	showHelp bool

	statusMsg string
	errorMsg  string

	copy func(string) (clipboard.Method, error)
}

// Custom message types
type reportMsg struct {
	report *collector.Report
}

type errMsg struct {
	err error
}

type copiedMsg struct {
	count  int
	method clipboard.Method
}

type clearStatusMsg struct{}

// New creates a viewer over an analysis session
func New(s *session.AnalysisSession, opts Options) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = render.StyleWarning

	return Model{
		session: s,
		opts:    opts,
		keys:    defaultKeyMap(),
		help:    help.New(),
		view:    viewport.New(80, 20),
		spinner: sp,
		copy:    clipboard.Copy,
	}
}

// Init initializes the viewer
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.view.Width = msg.Width
		m.view.Height = max(1, msg.Height-2)
		m.ready = true
		m.refreshContent()
		return m, nil

	case reportMsg:
		m.loading = false
		m.errorMsg = ""
		m.session.Replace(msg.report)
		m.refreshContent()
		m.view.GotoTop()
		return m, m.setStatusMessage("Collected from " + msg.report.Source)

	case errMsg:
		m.loading = false
		m.errorMsg = msg.err.Error()
		return m, nil

	case copiedMsg:
		return m, m.setStatusMessage(fmt.Sprintf("Copied %d domains (%s)", msg.count, msg.method))

	case clearStatusMsg:
		m.statusMsg = ""
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
	case key.Matches(msg, m.keys.Next):
		if m.session.Next() {
			m.refreshContent()
		}
	case key.Matches(msg, m.keys.Prev):
		if m.session.Prev() {
			m.refreshContent()
		}
	case key.Matches(msg, m.keys.Top):
		m.view.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.view.GotoBottom()
	case key.Matches(msg, m.keys.Up):
		m.view.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.view.ScrollDown(1)
	case key.Matches(msg, m.keys.Copy):
		return m.copyDomains()
	case key.Matches(msg, m.keys.Refresh):
		if m.opts.Refresh == nil || m.loading {
			return nil
		}
		m.loading = true
		m.errorMsg = ""
		return tea.Batch(m.spinner.Tick, m.collect())
	}
	return nil
}

// collect runs the refresh function off the event loop
func (m *Model) collect() tea.Cmd {
	refresh := m.opts.Refresh
	return func() tea.Msg {
		report, err := refresh(context.Background())
		if err != nil {
			return errMsg{err: err}
		}
		return reportMsg{report: report}
	}
}

func (m *Model) copyDomains() tea.Cmd {
	r := m.session.Report()
	if r == nil {
		return nil
	}
	domains := analytics.DistinctDomains(r.ResourceData.Resources)
	copyFn := m.copy
	return func() tea.Msg {
		method, err := copyFn(strings.Join(domains, "\n"))
		if err != nil {
			return errMsg{err: err}
		}
		return copiedMsg{count: len(domains), method: method}
	}
}

// refreshContent re-renders the report around the current domain page,
// keeping the scroll position
func (m *Model) refreshContent() {
	offset := m.view.YOffset
	m.view.SetContent(render.Text(m.session, m.opts.Render))
	m.view.SetYOffset(offset)
}

func (m *Model) setStatusMessage(msg string) tea.Cmd {
	m.statusMsg = msg
	return tea.Tick(statusTimeout, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

// View renders the viewer
func (m *Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var footer string
	switch {
	case m.loading:
		footer = m.spinner.View() + " collecting..."
	case m.errorMsg != "":
		footer = render.StyleError.Render("Error: " + m.errorMsg)
	case m.statusMsg != "":
		footer = render.StyleSuccess.Render(m.statusMsg)
	default:
		c := m.session.Cursor()
		footer = render.StyleSubtle.Render(fmt.Sprintf("page %d/%d  %3.0f%%", c.CurrentPage, c.TotalPages, m.view.ScrollPercent()*100))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.view.View(),
		footer,
		m.help.View(m.keys),
	)
}
