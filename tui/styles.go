package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#7C3AED")
	green  = lipgloss.Color("#10B981")
	red    = lipgloss.Color("#EF4444")
	muted  = lipgloss.Color("#6B7280")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(accent).Padding(0, 1)
	tabStyle      = lipgloss.NewStyle().Foreground(muted).Padding(0, 1)
	activeTab     = lipgloss.NewStyle().Bold(true).Foreground(accent).Underline(true).Padding(0, 1)
	headerStyle   = lipgloss.NewStyle().Bold(true)
	helpStyle     = lipgloss.NewStyle().Foreground(muted)
	errorStyle    = lipgloss.NewStyle().Foreground(red).Bold(true)
	successStyle  = lipgloss.NewStyle().Foreground(green).Bold(true)
	upStyle       = lipgloss.NewStyle().Foreground(green)
	downStyle     = lipgloss.NewStyle().Foreground(red)
	selectedStyle = lipgloss.NewStyle().Foreground(accent).Bold(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1).
			Width(30)
	activeCardStyle = cardStyle.BorderForeground(accent)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1)
)

// signed picks the up or down style for v.
func signed(v float64) lipgloss.Style {
	if v < 0 {
		return downStyle
	}
	return upStyle
}
