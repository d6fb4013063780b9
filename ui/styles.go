package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorAlarm   = lipgloss.Color("#FF5555")
	colorCaution = lipgloss.Color("#F1FA8C")
	colorHealthy = lipgloss.Color("#50FA7B")
	colorFocus   = lipgloss.Color("#8BE9FD")
	colorAccent  = lipgloss.Color("#FF79C6")
	colorText    = lipgloss.Color("#F8F8F2")
	colorMuted   = lipgloss.Color("#6272A4")
	colorButton  = lipgloss.Color("#44475A")

	fieldBorder = lipgloss.RoundedBorder()

	panelStyle       = lipgloss.NewStyle().Border(fieldBorder).BorderForeground(colorMuted).Padding(0, 1)
	activePanelStyle = panelStyle.BorderForeground(colorFocus)
	sectionStyle     = lipgloss.NewStyle().Border(fieldBorder).BorderForeground(colorMuted).Padding(0, 1).MarginLeft(1)

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorFocus)
	labelStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	valueStyle    = lipgloss.NewStyle().Foreground(colorText)
	warnStyle     = lipgloss.NewStyle().Foreground(colorCaution).Bold(true)
	critStyle     = lipgloss.NewStyle().Foreground(colorAlarm).Bold(true)
	okStyle       = lipgloss.NewStyle().Foreground(colorHealthy).Bold(true)
	headerStyle   = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	selectedStyle = lipgloss.NewStyle().Background(colorButton).Foreground(colorText).Bold(true)
	buttonStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	helpStyle     = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)
	dimStyle      = lipgloss.NewStyle().Foreground(colorMuted)
)

// scoreStyle colours an anomaly score; the detector's boundary sits at 0.
func scoreStyle(score float64) lipgloss.Style {
	switch {
	case score > 0:
		return critStyle
	case score >= -0.05:
		return warnStyle
	default:
		return okStyle
	}
}
