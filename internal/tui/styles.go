package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent  = lipgloss.Color("211")
	colorMuted   = lipgloss.Color("245")
	colorDanger  = lipgloss.Color("203")
	colorOK      = lipgloss.Color("114")
	colorPending = lipgloss.Color("221")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)

	headerRowStyle = lipgloss.NewStyle().Bold(true).Foreground(colorMuted).Underline(true)

	cursorRowStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)

	selectedRowStyle = lipgloss.NewStyle().Foreground(colorAccent)

	statusStyle = lipgloss.NewStyle().Foreground(colorMuted)

	errorStyle = lipgloss.NewStyle().Foreground(colorDanger)

	pendingBadge = lipgloss.NewStyle().Foreground(colorPending)

	okBadge = lipgloss.NewStyle().Foreground(colorOK)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(1, 2)

	editedMark = lipgloss.NewStyle().Foreground(colorPending).Render("*")

	footerStyle = lipgloss.NewStyle().Foreground(colorMuted)
)
