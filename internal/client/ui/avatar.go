package ui

import "github.com/charmbracelet/lipgloss"

// Badge colors, picked per username so a sender keeps one color
var badgeColors = []lipgloss.Color{
	"#7EBB81",
	"#E8C4A0",
	"#A8C9A4",
	"#C9A4C2",
	"#8FB3D9",
	"#D9B38F",
}

// renderAvatar draws the two-letter initials badge for username
func renderAvatar(username, initials string) string {
	sum := 0
	for _, r := range username {
		sum += int(r)
	}
	color := badgeColors[sum%len(badgeColors)]

	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#1E1E1E")).
		Background(color).
		Bold(true).
		Width(2).
		Render(initials)
}
