package ui

import "github.com/charmbracelet/lipgloss"

// Color palette - Earthy tones (lighter for dark backgrounds)
var (
	primaryColor   = lipgloss.Color("#E8C4A0") // Light warm beige
	secondaryColor = lipgloss.Color("#7EBB81") // Light forest green
	accentColor    = lipgloss.Color("#A8C9A4") // Soft sage green
	successColor   = lipgloss.Color("#B5D99C") // Bright sage
	mutedColor     = lipgloss.Color("#B8A890") // Light taupe
	fgColor        = lipgloss.Color("#F5F3ED") // Warm white
	highlightColor = lipgloss.Color("#F0DEB4") // Cream highlight
	dangerColor    = lipgloss.Color("#E07B7B")
	menuBgColor    = lipgloss.Color("#3B3A36")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			Padding(1, 2).
			Align(lipgloss.Center)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Italic(true).
			Align(lipgloss.Center)

	highlightStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	instructionStyle = lipgloss.NewStyle().
				Foreground(mutedColor).
				Italic(true).
				Margin(1, 0)

	headerStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	ownNameStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	otherNameStyle = lipgloss.NewStyle().
			Foreground(highlightColor).
			Bold(true)

	messageTextStyle = lipgloss.NewStyle().
				Foreground(fgColor)

	systemStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	fadingStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Faint(true).
			Strikethrough(true)

	triggerStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	menuItemStyle = lipgloss.NewStyle().
			Foreground(fgColor).
			Background(menuBgColor)

	menuSelectedStyle = lipgloss.NewStyle().
				Foreground(successColor).
				Background(menuBgColor).
				Bold(true)

	menuDangerStyle = lipgloss.NewStyle().
			Foreground(dangerColor).
			Background(menuBgColor).
			Bold(true)

	toggleOnStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	toggleOffStyle = lipgloss.NewStyle().
			Foreground(dangerColor).
			Bold(true)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(dangerColor).
			Bold(true)
)
