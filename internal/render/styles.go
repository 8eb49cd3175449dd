package render

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/studiowebux/perfscope/internal/timing"
)

// Adaptive color definitions for light/dark terminal support
var (
	colorGreen  = lipgloss.AdaptiveColor{Light: "#006400", Dark: "#00ff00"}
	colorRed    = lipgloss.AdaptiveColor{Light: "#8b0000", Dark: "#ff0000"}
	colorYellow = lipgloss.AdaptiveColor{Light: "#b8860b", Dark: "#ffff00"}
	colorGray   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "#008b8b", Dark: "#00ffff"}
)

// Style definitions
var (
	StyleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	StyleSection = lipgloss.NewStyle().
			Bold(true).
			Underline(true)

	StyleSuccess = lipgloss.NewStyle().
			Foreground(colorGreen)

	StyleError = lipgloss.NewStyle().
			Foreground(colorRed)

	StyleWarning = lipgloss.NewStyle().
			Foreground(colorYellow)

	StyleSubtle = lipgloss.NewStyle().
			Foreground(colorGray)

	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan).
			Padding(0, 1)

	styleCell = lipgloss.NewStyle().
			Padding(0, 1)
)

// statusStyle maps a metric rating to its color
func statusStyle(s timing.Status) lipgloss.Style {
	switch s {
	case timing.StatusGood:
		return StyleSuccess
	case timing.StatusBad:
		return StyleError
	default:
		return StyleWarning
	}
}
