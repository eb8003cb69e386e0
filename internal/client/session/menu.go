package session

import (
	"errors"
	"fmt"

	"github.com/yourusername/watchroom-chat/internal/protocol"
)

// Fixed placement of the menu relative to its anchor, in terminal cells.
const (
	MenuOffsetX = 10
	MenuWidth   = 18
)

var (
	ErrNotAdmin       = errors.New("session: moderation requires admin rights")
	ErrMenuNotAllowed = errors.New("session: cannot moderate your own message")
	ErrNoMenu         = errors.New("session: no moderation menu is open")
)

// Rect is a screen rectangle in terminal cells
type Rect struct {
	X, Y          int
	Width, Height int
}

// Bottom is the first row below the rectangle
func (r Rect) Bottom() int { return r.Y + r.Height }

// Point is a screen position in terminal cells
type Point struct {
	X, Y int
}

// MenuItemKind names a moderation action offered by the menu
type MenuItemKind int

const (
	ItemMute MenuItemKind = iota
	ItemUnmute
	ItemBan
	ItemDelete
)

// MenuItem is one selectable line of the menu
type MenuItem struct {
	Kind  MenuItemKind
	Label string
}

// Menu is the admin popup for one message. At most one exists per session.
type Menu struct {
	Target     protocol.ChatMessage
	Position   Point
	Items      []MenuItem
	Cursor     int
	Confirming bool // waiting for the ban confirmation

	seq   int
	armed bool
}

// Seq identifies this menu instance
func (m *Menu) Seq() int { return m.seq }

// Armed reports whether outside clicks dismiss the menu yet
func (m *Menu) Armed() bool { return m.armed }

// ConfirmPrompt names the user about to be banned.
func (m *Menu) ConfirmPrompt() string {
	return fmt.Sprintf("Permanently ban '%s' from this session?", m.Target.Username)
}

// Height is the number of rows the menu occupies on screen.
func (m *Menu) Height() int {
	if m.Confirming {
		return 2
	}
	return len(m.Items)
}

// Bounds returns the menu's screen rectangle.
func (m *Menu) Bounds() Rect {
	return Rect{X: m.Position.X, Y: m.Position.Y, Width: MenuWidth, Height: m.Height()}
}

// Contains reports whether p falls inside the menu.
func (m *Menu) Contains(p Point) bool {
	b := m.Bounds()
	return p.X >= b.X && p.X < b.X+b.Width && p.Y >= b.Y && p.Y < b.Bottom()
}

// Move shifts the cursor, clamped to the item list.
func (m *Menu) Move(delta int) {
	m.Cursor += delta
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	if m.Cursor >= len(m.Items) {
		m.Cursor = len(m.Items) - 1
	}
}

func menuItems(mod ModerationState, msg protocol.ChatMessage) []MenuItem {
	var items []MenuItem
	if mod.IsMuted(msg.Username) {
		items = append(items, MenuItem{Kind: ItemUnmute, Label: "Unmute"})
	} else {
		items = append(items, MenuItem{Kind: ItemMute, Label: "Mute"})
	}
	// Unban lives outside this menu.
	if !mod.IsBanned(msg.Username) {
		items = append(items, MenuItem{Kind: ItemBan, Label: "Ban"})
	}
	if msg.ID != "" {
		items = append(items, MenuItem{Kind: ItemDelete, Label: "Delete message"})
	}
	return items
}

// OpenMenu replaces any open menu with one for msg, placed below anchor.
// Outside-click dismissal is armed on the next tick via the ArmDismiss effect.
func (s *Session) OpenMenu(anchor Rect, msg protocol.ChatMessage) ([]Effect, error) {
	if !s.Context.IsAdmin {
		return nil, ErrNotAdmin
	}
	if s.Identity.Owns(msg) {
		return nil, ErrMenuNotAllowed
	}

	s.Menu = nil
	s.menuSeq++

	x := anchor.X - MenuOffsetX
	if x < 0 {
		x = 0
	}
	s.Menu = &Menu{
		Target:   msg,
		Position: Point{X: x, Y: anchor.Bottom()},
		Items:    menuItems(s.Moderation, msg),
		seq:      s.menuSeq,
	}
	return []Effect{ArmDismiss{Seq: s.menuSeq}}, nil
}

// ArmMenuDismiss enables outside-click dismissal for menu seq. Stale seqs
// from menus already replaced are ignored.
func (s *Session) ArmMenuDismiss(seq int) {
	if s.Menu != nil && s.Menu.seq == seq {
		s.Menu.armed = true
	}
}

// CloseMenu removes the menu if one is open.
func (s *Session) CloseMenu() {
	s.Menu = nil
}

// Click handles a mouse click while a menu may be open. It reports whether
// the click was consumed by the menu.
func (s *Session) Click(p Point) ([]Effect, bool) {
	if s.Menu == nil {
		return nil, false
	}
	if !s.Menu.Contains(p) {
		if s.Menu.armed {
			s.Menu = nil
		}
		return nil, false
	}
	if s.Menu.Confirming {
		return nil, true
	}
	row := p.Y - s.Menu.Position.Y
	s.Menu.Cursor = row
	effects, _ := s.SelectMenuItem()
	return effects, true
}

// SelectMenuItem runs the item under the cursor. Ban first asks for
// confirmation; every other action emits its command and closes the menu.
func (s *Session) SelectMenuItem() ([]Effect, error) {
	if s.Menu == nil {
		return nil, ErrNoMenu
	}
	item := s.Menu.Items[s.Menu.Cursor]
	target := s.Menu.Target

	var cmd protocol.AdminActionPayload
	switch item.Kind {
	case ItemMute:
		cmd = s.ModerationCommand(protocol.ActionMuteUser, target)
	case ItemUnmute:
		cmd = s.ModerationCommand(protocol.ActionUnmuteUser, target)
	case ItemDelete:
		cmd = s.ModerationCommand(protocol.ActionDeleteMessage, target)
	case ItemBan:
		s.Menu.Confirming = true
		return nil, nil
	}

	s.Menu = nil
	return []Effect{Emit{Type: protocol.MsgAdminAction, Payload: cmd}}, nil
}

// ConfirmBan answers the ban confirmation. Declining closes the menu
// without sending anything.
func (s *Session) ConfirmBan(yes bool) ([]Effect, error) {
	if s.Menu == nil || !s.Menu.Confirming {
		return nil, ErrNoMenu
	}
	target := s.Menu.Target
	s.Menu = nil
	if !yes {
		return nil, nil
	}
	cmd := s.ModerationCommand(protocol.ActionBanUser, target)
	return []Effect{Emit{Type: protocol.MsgAdminAction, Payload: cmd}}, nil
}

// ModerationCommand builds the admin_action payload for action against msg.
// Only the fields the action needs are filled in.
func (s *Session) ModerationCommand(action protocol.Action, msg protocol.ChatMessage) protocol.AdminActionPayload {
	cmd := protocol.AdminActionPayload{
		Scope:     s.Context.scope(),
		Action:    action,
		RequestID: s.newID(),
	}
	switch action {
	case protocol.ActionMuteUser, protocol.ActionUnmuteUser:
		cmd.Username = msg.Username
	case protocol.ActionBanUser:
		cmd.Username = msg.Username
		cmd.SID = msg.SID
	case protocol.ActionDeleteMessage:
		cmd.MessageID = msg.ID
	}
	return cmd
}

// ToggleChat asks the server to flip the global chat switch.
func (s *Session) ToggleChat() ([]Effect, error) {
	if !s.Context.IsAdmin {
		return nil, ErrNotAdmin
	}
	cmd := s.ModerationCommand(protocol.ActionToggleChat, protocol.ChatMessage{})
	return []Effect{Emit{Type: protocol.MsgAdminAction, Payload: cmd}}, nil
}
