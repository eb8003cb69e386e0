package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var spinnerFrames = []rune("◐◓◑◒")

// updateLoading handles loading screen updates
func (m Model) updateLoading(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		return m.quit("")
	case "r":
		// Manual retry once automatic attempts are exhausted
		if m.err != nil && !m.waitingToRetry {
			m.reconnectAttempt = 0
			m.err = nil
			return m, tea.Batch(connectCmd(m.connMgr), tickCmd())
		}
	}
	return m, nil
}

// viewLoading renders the loading/connection screen
func (m Model) viewLoading() string {
	title := titleStyle.Render("WATCH ROOM CHAT")
	subtitle := subtitleStyle.Render(m.sess.Context.RoomType)

	dots := strings.Repeat(".", m.loadingDots)
	spinner := spinnerStyle.Render(string(spinnerFrames[m.loadingDots%len(spinnerFrames)]))

	loadingText := lipgloss.NewStyle().
		Foreground(mutedColor).
		Render("Joining as " + m.sess.Identity.Username + dots)

	var errorMsg string
	if m.err != nil {
		errorMsg = errorStyle.Render("\n\n✗ Connection failed: " + m.err.Error())
		switch {
		case m.waitingToRetry:
			errorMsg += mutedStyle.Render(fmt.Sprintf("\nRetrying (attempt %d of %d)", m.reconnectAttempt+1, m.maxReconnects))
		default:
			errorMsg += mutedStyle.Render("\nPress R to retry or ESC to quit")
		}
	}

	mainContent := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		subtitle,
		"\n\n",
		spinner+" "+loadingText,
		errorMsg,
	)

	instructions := instructionStyle.Render(
		mutedStyle.Render("Connecting to ") + highlightStyle.Render(m.serverURL) + "  •  " +
			mutedStyle.Render("ESC to quit"))

	centeredMain := lipgloss.Place(m.width, m.height-5, lipgloss.Center, lipgloss.Center, mainContent)
	bottomInstructions := lipgloss.Place(m.width, 3, lipgloss.Center, lipgloss.Bottom, instructions)

	return centeredMain + "\n" + bottomInstructions
}
