package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yourusername/watchroom-chat/internal/client/session"
)

// updateChat routes keys on the chat screen: menu first, then the name
// field, then the composer.
func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.sess.Menu != nil {
		return m.updateMenu(msg)
	}
	if m.sess.Surface == session.SurfaceNameEntry {
		return m.updateUsernameEntry(msg)
	}

	switch msg.String() {
	case "enter":
		effects := m.sess.SendChat(m.composer.Value())
		if effects == nil {
			return m, nil
		}
		m.composer.Reset()
		return m, m.runEffects(effects)

	case "ctrl+n":
		return m.beginRename()

	case "ctrl+t":
		effects, err := m.sess.ToggleChat()
		if err != nil {
			return m, nil
		}
		return m, m.runEffects(effects)

	case "ctrl+r":
		if !m.sess.Connected && !m.waitingToRetry {
			m.reconnectAttempt = 0
			return m, connectCmd(m.connMgr)
		}
		return m, nil

	case "up":
		m.moveSelection(-1)
		return m, nil

	case "down":
		m.moveSelection(1)
		return m, nil

	case "ctrl+o":
		return m.openMenuOnSelection()

	case "esc":
		m.selected = -1
		m.refresh(false)
		return m, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		return m, cmd
	}

	if m.sess.Composer.Disabled {
		return m, nil
	}
	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	return m, cmd
}

// updateMouse handles clicks on menu triggers, inside an open menu, and
// anywhere else (outside-click dismissal). Wheel events scroll.
func (m Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.MouseWheelUp, tea.MouseWheelDown:
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		return m, cmd
	case tea.MouseLeft:
	default:
		return m, nil
	}

	p := session.Point{X: msg.X, Y: msg.Y}

	if m.sess.Menu != nil && m.sess.Menu.Contains(p) {
		effects, _ := m.sess.Click(p)
		return m, m.runEffects(effects)
	}

	// A trigger opens (or replaces) the menu before any dismissal applies.
	if i, ok := m.entryAt(msg.Y); ok && msg.X == triggerColumn {
		first, _ := m.layout.span(i)
		entry := m.sess.Transcript.Entries()[i]
		if entry.HasMenu && first == msg.Y-headerHeight+m.transcript.YOffset {
			return m.openMenu(i, msg.Y)
		}
	}

	effects, _ := m.sess.Click(p)
	return m, m.runEffects(effects)
}

// entryAt maps a screen row onto a transcript entry index
func (m Model) entryAt(y int) (int, bool) {
	row := y - headerHeight
	if row < 0 || row >= m.transcript.Height {
		return 0, false
	}
	i, ok := m.layout.entryAt(row + m.transcript.YOffset)
	if !ok || i >= m.sess.Transcript.Len() {
		return 0, false
	}
	return i, true
}

func (m *Model) moveSelection(delta int) {
	n := m.sess.Transcript.Len()
	if n == 0 {
		m.selected = -1
		return
	}
	switch {
	case m.selected < 0 && delta < 0:
		m.selected = n - 1
	case m.selected < 0:
		m.selected = 0
	default:
		m.selected += delta
	}
	m.selected = max(0, min(m.selected, n-1))
	m.refresh(false)

	// Keep the selected entry on screen, first line preferred.
	first, last := m.layout.span(m.selected)
	if last >= m.transcript.YOffset+m.transcript.Height {
		m.transcript.SetYOffset(last - m.transcript.Height + 1)
	}
	if first < m.transcript.YOffset {
		m.transcript.SetYOffset(first)
	}
}

func (m *Model) clampSelection() {
	if m.selected >= m.sess.Transcript.Len() {
		m.selected = m.sess.Transcript.Len() - 1
	}
}

func (m Model) openMenuOnSelection() (tea.Model, tea.Cmd) {
	if m.selected < 0 || m.selected >= m.sess.Transcript.Len() {
		return m, nil
	}
	if !m.sess.Transcript.Entries()[m.selected].HasMenu {
		return m, nil
	}
	first, _ := m.layout.span(m.selected)
	if first < m.transcript.YOffset || first >= m.transcript.YOffset+m.transcript.Height {
		m.transcript.SetYOffset(first)
	}
	row := headerHeight + first - m.transcript.YOffset
	return m.openMenu(m.selected, row)
}

func (m Model) openMenu(i, row int) (tea.Model, tea.Cmd) {
	entry := m.sess.Transcript.Entries()[i]
	anchor := session.Rect{X: triggerColumn, Y: row, Width: 1, Height: 1}
	effects, err := m.sess.OpenMenu(anchor, entry.Message)
	if err != nil {
		m.log.Debug().Err(err).Msg("menu not opened")
		return m, nil
	}
	m.selected = i
	return m, m.runEffects(effects)
}

// viewChat renders the chat screen
func (m Model) viewChat() string {
	sections := []string{
		m.renderHeader(),
		m.transcript.View(),
		mutedStyle.Render(strings.Repeat("─", max(0, m.width))),
	}
	if m.sess.Surface == session.SurfaceNameEntry {
		sections = append(sections, m.viewUsernameEntry())
	} else {
		sections = append(sections, m.renderComposer())
	}
	sections = append(sections, m.renderStatusBar())

	screen := lipgloss.JoinVertical(lipgloss.Left, sections...)
	if m.sess.Menu != nil {
		screen = overlayMenu(screen, m.sess.Menu)
	}
	return screen
}

func (m Model) renderHeader() string {
	header := headerStyle.Render(m.sess.Header())

	status := toggleOnStyle.Render("●")
	if !m.sess.Connected {
		status = toggleOffStyle.Render("○")
	}
	header = status + " " + header

	if m.sess.Composer.HasToggle {
		toggle := toggleOffStyle.Render("[ ] chat off")
		if m.sess.Composer.ToggleChecked {
			toggle = toggleOnStyle.Render("[x] chat on")
		}
		header += "  " + toggle + mutedStyle.Render(" (ctrl+t)")
	}

	return lipgloss.NewStyle().Width(m.width).MaxHeight(1).Render(header)
}

func (m Model) renderComposer() string {
	view := m.composer.View()
	if m.sess.Composer.Disabled {
		view = mutedStyle.Render("> " + m.sess.Composer.Placeholder)
	}
	return lipgloss.NewStyle().Width(m.width).MaxHeight(1).Render(view)
}

func (m Model) renderStatusBar() string {
	var text string
	switch {
	case m.err != nil:
		text = errorStyle.Render(m.err.Error())
	case m.sess.Menu != nil && m.sess.Menu.Confirming:
		text = errorStyle.Render(m.sess.Menu.ConfirmPrompt()) + mutedStyle.Render("  y/n")
	case m.sess.Menu != nil:
		text = mutedStyle.Render("↑/↓ choose • enter apply • esc close")
	case m.waitingToRetry:
		text = mutedStyle.Render("Reconnecting...")
	case !m.sess.Connected:
		text = mutedStyle.Render("Offline • ctrl+r reconnect • ctrl+c quit")
	default:
		hints := "enter send • ctrl+n rename • ↑/↓ select"
		if m.sess.Context.IsAdmin {
			hints += " • ctrl+o moderate"
		}
		text = mutedStyle.Render(hints + " • ctrl+c quit")
	}
	return lipgloss.NewStyle().Width(m.width).MaxHeight(1).Render(text)
}
