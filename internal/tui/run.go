package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/studiowebux/perfscope/internal/session"
)

// Run starts the viewer and blocks until it quits
func Run(s *session.AnalysisSession, opts Options) error {
	m := New(s, opts)

	// Pass a pointer since Update uses a pointer receiver
	p := tea.NewProgram(&m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
