package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/yourusername/watchroom-chat/internal/client/session"
)

// updateMenu handles keys while the moderation menu is open
func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	menu := m.sess.Menu

	if menu.Confirming {
		switch msg.String() {
		case "y", "Y", "enter":
			effects, _ := m.sess.ConfirmBan(true)
			return m, m.runEffects(effects)
		case "n", "N", "esc":
			effects, _ := m.sess.ConfirmBan(false)
			return m, m.runEffects(effects)
		}
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		menu.Move(-1)
	case "down", "j":
		menu.Move(1)
	case "enter":
		effects, _ := m.sess.SelectMenuItem()
		return m, m.runEffects(effects)
	case "esc":
		m.sess.CloseMenu()
	}
	return m, nil
}

// menuLines renders the menu rows, each exactly MenuWidth cells wide
func menuLines(menu *session.Menu) []string {
	if menu.Confirming {
		return []string{
			menuDangerStyle.Render(fitCell(" Ban "+menu.Target.Username+"?", session.MenuWidth)),
			menuItemStyle.Render(fitCell(" [y] yes  [n] no", session.MenuWidth)),
		}
	}

	lines := make([]string, len(menu.Items))
	for i, item := range menu.Items {
		label := "  " + item.Label
		style := menuItemStyle
		if i == menu.Cursor {
			label = "› " + item.Label
			style = menuSelectedStyle
		}
		if item.Kind == session.ItemBan && i != menu.Cursor {
			style = menuDangerStyle
		}
		lines[i] = style.Render(fitCell(label, session.MenuWidth))
	}
	return lines
}

// overlayMenu draws the menu over screen at the menu's position
func overlayMenu(screen string, menu *session.Menu) string {
	rows := strings.Split(screen, "\n")
	for i, line := range menuLines(menu) {
		y := menu.Position.Y + i
		if y < 0 || y >= len(rows) {
			continue
		}
		rows[y] = overlayLine(rows[y], menu.Position.X, line)
	}
	return strings.Join(rows, "\n")
}

// overlayLine keeps the first x cells of base and puts cell after them. The
// rest of base is dropped.
func overlayLine(base string, x int, cell string) string {
	left := ansi.Truncate(base, x, "")
	if pad := x - ansi.StringWidth(left); pad > 0 {
		left += strings.Repeat(" ", pad)
	}
	return left + cell
}

// fitCell truncates or pads plain text to exactly width cells
func fitCell(s string, width int) string {
	s = ansi.Truncate(s, width, "…")
	if pad := width - ansi.StringWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}
