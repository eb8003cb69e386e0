package ui

import (
	"errors"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yourusername/watchroom-chat/internal/client/session"
)

// beginRename swaps the composer for the name field, prefilled
func (m Model) beginRename() (tea.Model, tea.Cmd) {
	m.sess.BeginRename()
	m.nameInput.SetValue(m.sess.Identity.Username)
	m.nameInput.CursorEnd()
	m.err = nil
	m.refresh(false)
	return m, textinput.Blink
}

// updateUsernameEntry handles keys while the name field is shown
func (m Model) updateUsernameEntry(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.sess.CancelRename()
		m.err = nil
		m.refresh(false)
		return m, nil

	case "enter":
		effects, err := m.sess.Rename(m.nameInput.Value())
		if errors.Is(err, session.ErrSameUsername) {
			m.sess.CancelRename()
			m.err = nil
			m.refresh(false)
			return m, nil
		}
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.nameInput.Reset()
		return m, m.runEffects(effects)
	}

	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

// viewUsernameEntry renders the name field in place of the composer
func (m Model) viewUsernameEntry() string {
	hint := mutedStyle.Render("  enter to save • esc to cancel")
	return lipgloss.NewStyle().
		Width(m.width).
		MaxHeight(1).
		Render(m.nameInput.View() + hint)
}
