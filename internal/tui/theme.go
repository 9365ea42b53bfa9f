package tui

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette for report and TUI output.
type Theme struct {
	TextPrimary lipgloss.Color
	TextDim     lipgloss.Color
	Border      lipgloss.Color

	Accent  lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	Running lipgloss.Color
}

// DefaultTheme is a dark palette in the Tokyo Night family.
var DefaultTheme = Theme{
	TextPrimary: lipgloss.Color("#c0caf5"),
	TextDim:     lipgloss.Color("#565f89"),
	Border:      lipgloss.Color("#414868"),

	Accent:  lipgloss.Color("#7aa2f7"),
	Success: lipgloss.Color("#9ece6a"),
	Warning: lipgloss.Color("#e0af68"),
	Error:   lipgloss.Color("#f7768e"),

	Running: lipgloss.Color("#e0af68"),
}

// Styles provides pre-configured lipgloss styles using the theme.
type Styles struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Dim    lipgloss.Style

	Pass    lipgloss.Style
	Fail    lipgloss.Style
	Abort   lipgloss.Style
	Running lipgloss.Style

	Box lipgloss.Style
}

// DefaultStyles builds the styles for the default theme.
func DefaultStyles() Styles {
	t := DefaultTheme
	return Styles{
		Title:  lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		Header: lipgloss.NewStyle().Foreground(t.TextPrimary).Bold(true),
		Dim:    lipgloss.NewStyle().Foreground(t.TextDim),

		Pass:    lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		Fail:    lipgloss.NewStyle().Foreground(t.Error).Bold(true),
		Abort:   lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		Running: lipgloss.NewStyle().Foreground(t.Running),

		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
	}
}
