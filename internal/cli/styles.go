package cli

import "github.com/charmbracelet/lipgloss"

// Color palette for consistent styling
var (
	ColorPrimary = lipgloss.Color("#7D56F4")
	ColorSuccess = lipgloss.Color("#50FA7B")
	ColorError   = lipgloss.Color("#FF5F87")
	ColorWarning = lipgloss.Color("#FFB86C")
	ColorMuted   = lipgloss.Color("#6C7086")
	ColorTextDim = lipgloss.Color("#A6ADC8")
)

// Reusable styles
var (
	StylePrompt = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	StyleWarning = lipgloss.NewStyle().
			Foreground(ColorWarning)

	StyleMuted = lipgloss.NewStyle().
			Foreground(ColorMuted)

	StyleReasoning = lipgloss.NewStyle().
			Foreground(ColorTextDim).
			Italic(true)

	StyleStatus = lipgloss.NewStyle().
			Foreground(ColorSuccess)
)
