package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Answer output styles. Muted provenance under a plain answer body
// keeps the terminal output readable without a full TUI.
var (
	answerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CDD6F4"))

	sourceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#06B6D4")).
			Bold(true)

	citationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086"))

	fallbackStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F9E2AF"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F38BA8")).
			Bold(true)
)
