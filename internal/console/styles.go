package console

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles for console output.
type Styles struct {
	Banner  lipgloss.Style
	Prompt  lipgloss.Style
	Tool    lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warn    lipgloss.Style
	Muted   lipgloss.Style
}

// DefaultStyles returns the default console styles.
func DefaultStyles() *Styles {
	return &Styles{
		Banner:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Prompt:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		Tool:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		Warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("178")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}
