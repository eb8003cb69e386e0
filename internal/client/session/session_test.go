package session

import (
	"errors"
	"testing"
	"time"

	"github.com/yourusername/watchroom-chat/internal/client/connection"
	"github.com/yourusername/watchroom-chat/internal/protocol"
)

func newTestSession(t *testing.T, username string, admin bool) *Session {
	t.Helper()

	s := New(Context{SessionID: "s1", RoomType: "vestibule", IsAdmin: admin}, username)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 20, 30, 0, 0, time.UTC) }
	s.newID = func() string { return "req-1" }
	s.Apply(connection.ConnectedEvent{})
	return s
}

func countScrolls(effects []Effect) int {
	n := 0
	for _, e := range effects {
		if _, ok := e.(ScrollToBottom); ok {
			n++
		}
	}
	return n
}

func findEmit(t *testing.T, effects []Effect) Emit {
	t.Helper()
	for _, e := range effects {
		if emit, ok := e.(Emit); ok {
			return emit
		}
	}
	t.Fatalf("no Emit in %#v", effects)
	return Emit{}
}

func TestResolveUsername(t *testing.T) {
	if got := ResolveUsername("stored", func(int) int { return 7 }); got != "stored" {
		t.Fatalf("stored name should win, got %q", got)
	}

	var bound int
	got := ResolveUsername("", func(n int) int { bound = n; return 42 })
	if got != "user_42" {
		t.Fatalf("unexpected synthesized name %q", got)
	}
	if bound != 10000 {
		t.Fatalf("expected random bound 10000, got %d", bound)
	}
}

func TestConnectedIssuesJoinAndPersists(t *testing.T) {
	s := New(Context{SessionID: "s1", RoomType: "watch_room"}, "alice")
	effects := s.Apply(connection.ConnectedEvent{})

	if len(effects) != 2 {
		t.Fatalf("expected persist + join, got %#v", effects)
	}
	if p, ok := effects[0].(Persist); !ok || p.Username != "alice" {
		t.Fatalf("expected Persist(alice), got %#v", effects[0])
	}
	join := findEmit(t, effects)
	payload, ok := join.Payload.(protocol.JoinPayload)
	if join.Type != protocol.MsgJoin || !ok {
		t.Fatalf("unexpected join %#v", join)
	}
	if payload.SessionID != "s1" || payload.RoomType != "watch_room" || payload.Username != "alice" {
		t.Fatalf("unexpected join payload %+v", payload)
	}
}

func TestRenderCreatesOneEntryPerCall(t *testing.T) {
	s := newTestSession(t, "alice", false)
	msg := protocol.ChatMessage{ID: "1", Username: "bob", Text: "hi"}

	s.Render(msg, false)
	s.Render(msg, false)
	s.Render(protocol.ChatMessage{Text: "no author"}, false)

	if s.Transcript.Len() != 2 {
		t.Fatalf("expected 2 entries (no dedup, anonymous dropped), got %d", s.Transcript.Len())
	}
}

func TestRenderOwnClassification(t *testing.T) {
	tests := []struct {
		name    string
		msg     protocol.ChatMessage
		connID  string
		wantOwn bool
	}{
		{"same username", protocol.ChatMessage{Username: "alice", Text: "x"}, "", true},
		{"different case", protocol.ChatMessage{Username: "Alice", Text: "x"}, "", false},
		{"trailing space", protocol.ChatMessage{Username: "alice ", Text: "x"}, "", false},
		{"other user", protocol.ChatMessage{Username: "bob", Text: "x"}, "", false},
		{"stale sid keeps username match", protocol.ChatMessage{Username: "alice", SID: "old", Text: "x"}, "new", true},
		{"foreign sid", protocol.ChatMessage{Username: "bob", SID: "old", Text: "x"}, "new", false},
		{"sid match", protocol.ChatMessage{Username: "renamed", SID: "me", Text: "x"}, "me", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, "alice", true)
			s.Identity.ConnectionID = tt.connID
			s.Render(tt.msg, false)

			entry := s.Transcript.Entries()[0]
			if entry.Own != tt.wantOwn {
				t.Fatalf("own = %v, want %v", entry.Own, tt.wantOwn)
			}
			if entry.HasMenu == tt.wantOwn {
				t.Fatalf("admin menu trigger should be present iff not own (own=%v, menu=%v)", entry.Own, entry.HasMenu)
			}
		})
	}
}

func TestReconnectKeepsOwnHistory(t *testing.T) {
	s := newTestSession(t, "alice", true)
	s.Apply(connection.InitialStateEvent{
		ConnectionID: "sid-new",
		ChatEnabled:  true,
		History:      []protocol.ChatMessage{{ID: "1", Username: "alice", SID: "sid-old", Text: "before the drop"}},
	})

	entry := s.Transcript.Entries()[0]
	if !entry.Own || entry.HasMenu {
		t.Fatalf("own history from an earlier connection: own=%v menu=%v", entry.Own, entry.HasMenu)
	}
	if _, err := s.OpenMenu(Rect{}, entry.Message); !errors.Is(err, ErrMenuNotAllowed) {
		t.Fatalf("expected ErrMenuNotAllowed, got %v", err)
	}
}

func TestRenderAvatarAndMenuTrigger(t *testing.T) {
	s := newTestSession(t, "alice", false)
	s.Render(protocol.ChatMessage{Username: "bob", Text: "x"}, false)
	s.Render(protocol.ChatMessage{Username: "é", Text: "x"}, false)

	entries := s.Transcript.Entries()
	if entries[0].Avatar != "BO" || entries[1].Avatar != "É" {
		t.Fatalf("unexpected avatars %q %q", entries[0].Avatar, entries[1].Avatar)
	}
	if entries[0].HasMenu {
		t.Fatal("non-admin viewers never get a menu trigger")
	}
}

func TestHistoryReplayScrollsOnce(t *testing.T) {
	s := newTestSession(t, "alice", false)

	snapshot := connection.InitialStateEvent{
		ConnectionID: "sid-a",
		ChatEnabled:  true,
		History: []protocol.ChatMessage{
			{ID: "1", Username: "bob", Text: "one"},
			{ID: "2", Username: "carol", Text: "two"},
			{ID: "3", Username: "alice", Text: "three"},
		},
	}
	replayEffects := s.Apply(snapshot)
	liveEffects := s.Apply(connection.NewMessageEvent{Message: protocol.ChatMessage{ID: "4", Username: "bob", Text: "four"}})

	if s.Transcript.Len() != 4 {
		t.Fatalf("expected 4 entries, got %d", s.Transcript.Len())
	}
	if n := countScrolls(replayEffects); n != 1 {
		t.Fatalf("expected one scroll after replay, got %d", n)
	}
	if n := countScrolls(liveEffects); n != 1 {
		t.Fatalf("expected one scroll for live message, got %d", n)
	}
}

func TestInitialStateReplacesTranscriptAndSyncsIdentity(t *testing.T) {
	s := newTestSession(t, "user_12", false)
	s.Render(protocol.ChatMessage{Username: "stale", Text: "old"}, false)

	effects := s.Apply(connection.InitialStateEvent{
		ConnectionID: "sid-a",
		Username:     "alice",
		ChatEnabled:  true,
		History:      []protocol.ChatMessage{{Username: "alice", Text: "mine"}},
		Moderation:   &protocol.ModerationList{Muted: []string{"bob"}},
	})

	if s.Transcript.Len() != 1 || !s.Transcript.Entries()[0].Own {
		t.Fatalf("expected one own entry after snapshot, got %+v", s.Transcript.Entries())
	}
	if s.Identity.ConnectionID != "sid-a" || s.Identity.Username != "alice" {
		t.Fatalf("identity not synced: %+v", s.Identity)
	}
	if p, ok := effects[0].(Persist); !ok || p.Username != "alice" {
		t.Fatalf("expected canonical name to be persisted, got %#v", effects)
	}
	if !s.Moderation.IsMuted("bob") {
		t.Fatal("moderation snapshot not adopted")
	}
	if s.Composer.Disabled {
		t.Fatal("composer should be enabled")
	}
}

func TestMutePrecedence(t *testing.T) {
	tests := []struct {
		name        string
		enabled     bool
		muted       []string
		wantDisable bool
		wantHint    string
	}{
		{"enabled and not muted", true, nil, false, PlaceholderNormal},
		{"globally disabled", false, nil, true, PlaceholderDisabled},
		{"muted while enabled", true, []string{"alice"}, true, PlaceholderMuted},
		{"muted while disabled", false, []string{"alice"}, true, PlaceholderMuted},
		{"someone else muted", true, []string{"bob"}, false, PlaceholderNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, "alice", false)
			s.Moderation = NewModerationState(tt.muted, nil)
			s.ApplyChatState(tt.enabled)

			if s.Composer.Disabled != tt.wantDisable || s.Composer.Placeholder != tt.wantHint {
				t.Fatalf("composer = %+v, want disabled=%v placeholder=%q", s.Composer, tt.wantDisable, tt.wantHint)
			}
		})
	}
}

func TestModerationUpdateMutesSelf(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		s := newTestSession(t, "alice", false)
		s.Apply(connection.ChatStateEvent{Enabled: enabled})

		s.Apply(connection.ModerationUpdateEvent{Muted: []string{"alice"}, Banned: []string{}})

		if !s.Composer.Disabled || s.Composer.Placeholder != PlaceholderMuted {
			t.Fatalf("enabled=%v: expected self-muted composer, got %+v", enabled, s.Composer)
		}
	}
}

func TestAdminToggleMirrorsChatState(t *testing.T) {
	s := newTestSession(t, "admin", true)
	s.Apply(connection.ChatStateEvent{Enabled: false})
	if s.Composer.ToggleChecked {
		t.Fatal("toggle should be unchecked when chat is disabled")
	}
	s.Apply(connection.ChatStateEvent{Enabled: true})
	if !s.Composer.ToggleChecked {
		t.Fatal("toggle should be checked when chat is enabled")
	}
}

func TestPersonalNotificationUsesTypedCode(t *testing.T) {
	s := newTestSession(t, "alice", false)
	s.Apply(connection.ChatStateEvent{Enabled: true})
	// The server muted us but the lists have not been pushed to this viewer's
	// state yet; only a typed code should trigger a re-evaluation.
	s.Moderation = NewModerationState([]string{"alice"}, nil)

	s.Apply(connection.PersonalNotificationEvent{Text: "You have been muted", Code: protocol.NotifyInfo})
	if s.Composer.Disabled {
		t.Fatal("informational notices must not touch the composer")
	}

	effects := s.Apply(connection.PersonalNotificationEvent{Text: "Heads up", Code: protocol.NotifyMuted})
	if !s.Composer.Disabled || s.Composer.Placeholder != PlaceholderMuted {
		t.Fatalf("expected composer re-evaluated, got %+v", s.Composer)
	}
	if countScrolls(effects) != 1 || s.Transcript.Len() != 2 {
		t.Fatal("personal notifications are rendered as system notices")
	}
}

func TestMessageDeletedFadesThenRemoves(t *testing.T) {
	s := newTestSession(t, "alice", false)
	s.Render(protocol.ChatMessage{ID: "m1", Username: "bob", Text: "x"}, false)
	s.Render(protocol.ChatMessage{ID: "m2", Username: "bob", Text: "y"}, false)

	effects := s.Apply(connection.MessageDeletedEvent{ID: "m1"})
	if len(effects) != 1 {
		t.Fatalf("expected a scheduled removal, got %#v", effects)
	}
	removal, ok := effects[0].(ScheduleRemoval)
	if !ok || removal.ID != "m1" || removal.After != DeleteFadeDuration {
		t.Fatalf("unexpected effect %#v", effects[0])
	}
	if !s.Transcript.Entries()[0].Fading {
		t.Fatal("entry should be fading")
	}

	s.RemoveEntry("m1")
	if s.Transcript.Len() != 1 || s.Transcript.Entries()[0].Message.ID != "m2" {
		t.Fatalf("unexpected transcript after removal: %+v", s.Transcript.Entries())
	}
}

func TestMessageDeletedUnknownIDIsNoop(t *testing.T) {
	s := newTestSession(t, "alice", false)
	s.Render(protocol.ChatMessage{ID: "m1", Username: "bob", Text: "x"}, false)

	if effects := s.Apply(connection.MessageDeletedEvent{ID: "ghost"}); effects != nil {
		t.Fatalf("expected no effects, got %#v", effects)
	}
	if effects := s.Apply(connection.MessageDeletedEvent{ID: ""}); effects != nil {
		t.Fatalf("expected no effects for empty id, got %#v", effects)
	}
	s.RemoveEntry("ghost")
	if s.Transcript.Len() != 1 || s.Transcript.Entries()[0].Fading {
		t.Fatal("transcript should be untouched")
	}
}

func TestForceDisconnectIsTerminal(t *testing.T) {
	s := newTestSession(t, "alice", false)
	effects := s.Apply(connection.ForceDisconnectEvent{Reason: "banned"})

	var cleared, terminated bool
	for _, e := range effects {
		switch e := e.(type) {
		case ClearIdentity:
			cleared = true
		case Terminate:
			terminated = e.Reason == "banned"
		}
	}
	if !cleared || !terminated {
		t.Fatalf("expected ClearIdentity and Terminate(banned), got %#v", effects)
	}
	last := s.Transcript.Entries()[s.Transcript.Len()-1]
	if last.Kind != EntrySystem || last.Text != "banned" {
		t.Fatalf("reason should be surfaced, got %+v", last)
	}
	if s.Identity.Username != "" {
		t.Fatal("identity should be cleared")
	}

	if got := s.Apply(connection.DisconnectedEvent{Reason: "closed"}); got != nil {
		t.Fatalf("events after termination must be ignored, got %#v", got)
	}
}

func TestTransportDisconnectDisablesComposer(t *testing.T) {
	s := newTestSession(t, "alice", false)
	s.Apply(connection.ChatStateEvent{Enabled: true})

	effects := s.Apply(connection.DisconnectedEvent{Reason: "network down"})
	if !s.Composer.Disabled || s.Connected {
		t.Fatalf("expected disabled composer, got %+v", s.Composer)
	}
	for _, e := range effects {
		if _, ok := e.(Terminate); ok {
			t.Fatal("transport disconnects are not terminal")
		}
	}
	last := s.Transcript.Entries()[s.Transcript.Len()-1]
	if last.Text != "Disconnected: network down" {
		t.Fatalf("unexpected notice %q", last.Text)
	}
	if s.SendChat("hello") != nil {
		t.Fatal("sending must not be possible while disconnected")
	}
}

func TestSendChat(t *testing.T) {
	s := newTestSession(t, "alice", false)
	s.Apply(connection.ChatStateEvent{Enabled: true})

	if s.SendChat("   ") != nil {
		t.Fatal("blank messages are not sent")
	}
	emit := findEmit(t, s.SendChat("  hello  "))
	payload := emit.Payload.(protocol.ChatMessagePayload)
	if emit.Type != protocol.MsgChatMessage || payload.Message != "hello" || payload.Username != "alice" {
		t.Fatalf("unexpected chat command %#v", emit)
	}

	s.Apply(connection.ChatStateEvent{Enabled: false})
	if s.SendChat("hello") != nil {
		t.Fatal("disabled composer must not send")
	}
}

func TestRename(t *testing.T) {
	s := newTestSession(t, "alice", false)
	s.BeginRename()
	if s.Surface != SurfaceNameEntry {
		t.Fatal("expected name-entry surface")
	}

	if _, err := s.Rename("   "); !errors.Is(err, ErrEmptyUsername) {
		t.Fatalf("expected ErrEmptyUsername, got %v", err)
	}
	if _, err := s.Rename(" alice "); !errors.Is(err, ErrSameUsername) {
		t.Fatalf("expected ErrSameUsername, got %v", err)
	}
	if s.Surface != SurfaceNameEntry {
		t.Fatal("rejected renames keep the name-entry surface")
	}

	effects, err := s.Rename("  Alicia ")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if s.Identity.Username != "Alicia" || s.Surface != SurfaceCompose {
		t.Fatalf("unexpected state after rename: %+v surface=%v", s.Identity, s.Surface)
	}
	if s.Header() != "vestibule · Alicia" {
		t.Fatalf("unexpected header %q", s.Header())
	}
	for _, e := range effects {
		if _, ok := e.(Emit); ok {
			t.Fatal("rename must not contact the server")
		}
	}
	if p, ok := effects[0].(Persist); !ok || p.Username != "Alicia" {
		t.Fatalf("expected Persist(Alicia), got %#v", effects)
	}
	last := s.Transcript.Entries()[s.Transcript.Len()-1]
	if last.Kind != EntrySystem {
		t.Fatal("rename should leave a system notice")
	}
}
