package ui

import "github.com/charmbracelet/lipgloss"

// Theme holds the styles used on the console.
type Theme struct {
	Index   lipgloss.Style
	ID      lipgloss.Style
	Title   lipgloss.Style
	Author  lipgloss.Style
	Year    lipgloss.Style
	Keyword lipgloss.Style
	Label   lipgloss.Style
	Prompt  lipgloss.Style
	Default lipgloss.Style
	Message lipgloss.Style
	Warn    lipgloss.Style
	Error   lipgloss.Style
	Current lipgloss.Style
}

// DefaultTheme returns the stock palette.
func DefaultTheme() Theme {
	mauve := lipgloss.Color("#cba6f7")
	red := lipgloss.Color("#f38ba8")
	peach := lipgloss.Color("#fab387")
	yellow := lipgloss.Color("#f9e2af")
	green := lipgloss.Color("#a6e3a1")
	teal := lipgloss.Color("#94e2d5")
	lavender := lipgloss.Color("#b4befe")
	subtext := lipgloss.Color("#a6adc8")
	overlay := lipgloss.Color("#7f849c")

	return Theme{
		Index:   lipgloss.NewStyle().Foreground(overlay),
		ID:      lipgloss.NewStyle().Foreground(teal),
		Title:   lipgloss.NewStyle().Bold(true),
		Author:  lipgloss.NewStyle().Foreground(subtext),
		Year:    lipgloss.NewStyle().Foreground(yellow),
		Keyword: lipgloss.NewStyle().Foreground(lavender).Italic(true),
		Label:   lipgloss.NewStyle().Foreground(overlay),
		Prompt:  lipgloss.NewStyle().Bold(true).Foreground(mauve),
		Default: lipgloss.NewStyle().Underline(true),
		Message: lipgloss.NewStyle().Foreground(green),
		Warn:    lipgloss.NewStyle().Foreground(peach),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(red),
		Current: lipgloss.NewStyle().Bold(true).Foreground(mauve),
	}
}

// PlainTheme renders everything unstyled.
func PlainTheme() Theme {
	s := lipgloss.NewStyle()
	return Theme{s, s, s, s, s, s, s, s, s, s, s, s, s}
}
