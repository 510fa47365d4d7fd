package tui

import "github.com/charmbracelet/lipgloss"

const (
	colorGreen    = "#5fd787"
	colorBlue     = "#5f87ff"
	colorGrey     = "#767676"
	colorRed      = "#ff5f5f"
	colorGold     = "#ffd75f"
	colorSelectBg = "#303a5a"
	indentUnit    = "  "
)

var (
	captionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorBlue)).
			Bold(true)

	authorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGreen)).
			Bold(true)

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGold)).
			Bold(true)

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGrey))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGrey))

	reactedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorBlue)).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorRed))

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color(colorSelectBg))

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGrey)).
			Italic(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGrey))
)
