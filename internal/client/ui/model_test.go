package ui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/yourusername/watchroom-chat/internal/client/connection"
	"github.com/yourusername/watchroom-chat/internal/client/session"
	"github.com/yourusername/watchroom-chat/internal/client/storage"
	"github.com/yourusername/watchroom-chat/internal/protocol"
)

func newTestModel(t *testing.T, admin bool) (Model, storage.Store) {
	t.Helper()

	store := storage.NewFileStore(filepath.Join(t.TempDir(), "identity.yaml"), "k")
	sess := session.New(session.Context{SessionID: "s1", RoomType: "watch_room", IsAdmin: admin}, "user_1")
	m := NewModel(Options{
		Manager:   connection.NewManager("ws://127.0.0.1:1/ws", connection.Options{}),
		Session:   sess,
		Store:     store,
		ServerURL: "ws://127.0.0.1:1/ws",
	})
	m = step(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	return m, store
}

func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return model
}

func joinRoom(t *testing.T, m Model) Model {
	t.Helper()
	m = step(t, m, connectionEventMsg{event: connection.ConnectedEvent{}})
	return step(t, m, connectionEventMsg{event: connection.InitialStateEvent{
		ConnectionID: "sid-me",
		Username:     "alice",
		History: []protocol.ChatMessage{
			{ID: "m1", Username: "bob", Text: "hello there", SID: "sid-b"},
			{ID: "m2", Username: "alice", Text: "hi bob", SID: "sid-me"},
		},
		ChatEnabled: true,
	}})
}

func TestSnapshotRendersAndPersistsName(t *testing.T) {
	m, store := newTestModel(t, false)
	m = joinRoom(t, m)

	if m.viewState != ViewChat {
		t.Fatalf("expected chat view, got %v", m.viewState)
	}
	view := m.View()
	for _, want := range []string{"watch_room · alice", "hello there", "hi bob", "(you)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, triggerGlyph) {
		t.Error("viewers must not see menu triggers")
	}

	name, err := store.Load(context.Background())
	if err != nil || name != "alice" {
		t.Fatalf("stored name = %q, %v", name, err)
	}
}

func TestTriggerClickOpensMenuAndArmedOutsideClickCloses(t *testing.T) {
	m, _ := newTestModel(t, true)
	m = joinRoom(t, m)

	// Row 1 is bob's message; its trigger sits in triggerColumn.
	m = step(t, m, tea.MouseMsg{X: triggerColumn, Y: headerHeight, Type: tea.MouseLeft})
	if m.sess.Menu == nil || m.sess.Menu.Target.Username != "bob" {
		t.Fatalf("expected bob's menu, got %+v", m.sess.Menu)
	}
	if !strings.Contains(m.View(), "Mute") {
		t.Fatal("menu overlay not drawn")
	}

	// The opening click may be seen again before arming.
	m = step(t, m, tea.MouseMsg{X: 70, Y: 20, Type: tea.MouseLeft})
	if m.sess.Menu == nil {
		t.Fatal("unarmed menu should survive an outside click")
	}

	m = step(t, m, dismissArmedMsg{seq: m.sess.Menu.Seq()})
	m = step(t, m, tea.MouseMsg{X: 70, Y: 20, Type: tea.MouseLeft})
	if m.sess.Menu != nil {
		t.Fatal("armed menu should close on an outside click")
	}
}

func TestLongMessageWrapsAndKeepsClickTargets(t *testing.T) {
	m, _ := newTestModel(t, true)
	m = step(t, m, connectionEventMsg{event: connection.ConnectedEvent{}})

	long := strings.TrimSpace(strings.Repeat("the quick brown fox jumps over the lazy dog ", 5)) + " END"
	m = step(t, m, connectionEventMsg{event: connection.InitialStateEvent{
		ConnectionID: "sid-me",
		Username:     "alice",
		History: []protocol.ChatMessage{
			{ID: "m1", Username: "bob", Text: long, SID: "sid-b"},
			{ID: "m2", Username: "carol", Text: "short", SID: "sid-c"},
		},
		ChatEnabled: true,
	}})

	view := ansi.Strip(m.transcript.View())
	if !strings.Contains(strings.Join(strings.Fields(view), " "), long) {
		t.Fatalf("long message not shown in full:\n%s", view)
	}
	for _, line := range strings.Split(view, "\n") {
		if ansi.StringWidth(line) > 80 {
			t.Fatalf("line wider than the viewport: %q", line)
		}
	}

	first, last := m.layout.span(0)
	if last <= first {
		t.Fatalf("expected bob's message to wrap, got lines %d..%d", first, last)
	}

	// A continuation line has no trigger.
	m = step(t, m, tea.MouseMsg{X: triggerColumn, Y: headerHeight + last, Type: tea.MouseLeft})
	if m.sess.Menu != nil {
		t.Fatalf("continuation line opened a menu for %q", m.sess.Menu.Target.Username)
	}

	start, _ := m.layout.span(1)
	m = step(t, m, tea.MouseMsg{X: triggerColumn, Y: headerHeight + start, Type: tea.MouseLeft})
	if m.sess.Menu == nil || m.sess.Menu.Target.Username != "carol" {
		t.Fatalf("expected carol's menu, got %+v", m.sess.Menu)
	}
}

func TestBanConfirmationByKeys(t *testing.T) {
	m, _ := newTestModel(t, true)
	m = joinRoom(t, m)

	m = step(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.selected != 0 {
		t.Fatalf("selected = %d", m.selected)
	}
	m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	if m.sess.Menu == nil {
		t.Fatal("ctrl+o should open the menu on the selected entry")
	}

	m = step(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.sess.Menu.Confirming {
		t.Fatal("ban should ask for confirmation")
	}
	if !strings.Contains(m.View(), "Permanently ban 'bob'") {
		t.Fatal("confirmation prompt not shown")
	}

	m = step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	if m.sess.Menu != nil {
		t.Fatal("declining should close the menu")
	}
}

func TestDeletedEntryFadesThenGoes(t *testing.T) {
	m, _ := newTestModel(t, false)
	m = joinRoom(t, m)

	m = step(t, m, connectionEventMsg{event: connection.MessageDeletedEvent{ID: "m1"}})
	if !m.sess.Transcript.Entries()[0].Fading {
		t.Fatal("entry should be fading")
	}
	m = step(t, m, removeEntryMsg{id: "m1"})
	if m.sess.Transcript.Len() != 1 || strings.Contains(m.View(), "hello there") {
		t.Fatal("deleted entry still visible")
	}
}

func TestRenameByKeys(t *testing.T) {
	m, store := newTestModel(t, false)
	m = joinRoom(t, m)

	m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	if m.sess.Surface != session.SurfaceNameEntry {
		t.Fatal("ctrl+n should show the name field")
	}
	m.nameInput.SetValue("  carol ")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.sess.Identity.Username != "carol" || m.sess.Surface != session.SurfaceCompose {
		t.Fatalf("rename not applied: %+v", m.sess.Identity)
	}
	if name, _ := store.Load(context.Background()); name != "carol" {
		t.Fatalf("stored name = %q", name)
	}
	if !strings.Contains(m.View(), "watch_room · carol") {
		t.Fatal("header not updated")
	}
}

func TestForceDisconnectQuitsWithReason(t *testing.T) {
	m, store := newTestModel(t, false)
	m = joinRoom(t, m)

	next, cmd := m.Update(connectionEventMsg{event: connection.ForceDisconnectEvent{Reason: "banned"}})
	m = next.(Model)

	if m.ExitReason() != "banned" || !m.quitting {
		t.Fatalf("expected exit with reason, got %q", m.ExitReason())
	}
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if name, _ := store.Load(context.Background()); name != "" {
		t.Fatalf("identity should be cleared, got %q", name)
	}
}

func TestTransportDropSchedulesReconnect(t *testing.T) {
	m, _ := newTestModel(t, false)
	m = joinRoom(t, m)

	m = step(t, m, connectionEventMsg{event: connection.DisconnectedEvent{Reason: "gone", Error: context.DeadlineExceeded}})
	if !m.waitingToRetry || m.reconnectAttempt != 1 {
		t.Fatalf("expected a pending retry, got attempt=%d waiting=%v", m.reconnectAttempt, m.waitingToRetry)
	}
	if m.viewState != ViewChat {
		t.Fatal("a transport drop must not leave the chat screen")
	}
	if !strings.Contains(m.View(), "Disconnected: gone") {
		t.Fatal("disconnect notice missing")
	}
}
