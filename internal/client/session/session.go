// Package session holds the client-side chat state and the handlers that
// move it forward. Handlers are plain methods over an explicit *Session:
// they mutate only that session and return the side effects the caller must
// run (sends, scrolling, storage, timers). Nothing here blocks or does I/O,
// so a single goroutine can drive a session without locks.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/watchroom-chat/internal/client/connection"
	"github.com/yourusername/watchroom-chat/internal/protocol"
)

// DeleteFadeDuration is how long a deleted entry fades before it is removed.
const DeleteFadeDuration = 300 * time.Millisecond

var (
	ErrEmptyUsername = errors.New("session: username must not be empty")
	ErrSameUsername  = errors.New("session: username unchanged")
)

// Surface is the input surface currently shown to the user
type Surface int

const (
	SurfaceCompose Surface = iota
	SurfaceNameEntry
)

// Session is the whole client state for one room.
type Session struct {
	Context     Context
	Identity    Identity
	Moderation  ModerationState
	ChatEnabled bool
	Connected   bool
	Terminated  bool
	Surface     Surface
	Transcript  Transcript
	Composer    Composer
	Menu        *Menu

	menuSeq int
	now     func() time.Time
	newID   func() string
}

// New creates a session for ctx with the given display name. The composer
// starts disabled until the server's snapshot arrives.
func New(ctx Context, username string) *Session {
	s := &Session{
		Context:     ctx,
		Identity:    Identity{Username: username},
		Moderation:  NewModerationState(nil, nil),
		ChatEnabled: true,
		Composer: Composer{
			Disabled:    true,
			Placeholder: PlaceholderNormal,
			HasToggle:   ctx.IsAdmin,
		},
		now:   time.Now,
		newID: uuid.NewString,
	}
	return s
}

// Header is the title line: room and current display name.
func (s *Session) Header() string {
	return fmt.Sprintf("%s · %s", s.Context.RoomType, s.Identity.Username)
}

// JoinCommand announces this client to the room. The name is persisted
// alongside the join.
func (s *Session) JoinCommand() []Effect {
	return []Effect{
		Persist{Username: s.Identity.Username},
		Emit{
			Type: protocol.MsgJoin,
			Payload: protocol.JoinPayload{
				Scope:    s.Context.scope(),
				Username: s.Identity.Username,
			},
		},
	}
}

// Apply runs the handler for one inbound event.
func (s *Session) Apply(event connection.Event) []Effect {
	if s.Terminated {
		return nil
	}

	switch e := event.(type) {
	case connection.ConnectedEvent:
		s.Connected = true
		return s.JoinCommand()

	case connection.InitialStateEvent:
		return s.applySnapshot(e)

	case connection.NewMessageEvent:
		return s.Render(e.Message, false)

	case connection.SystemMessageEvent:
		return s.RenderSystemNotice(e.Text)

	case connection.ChatStateEvent:
		s.ApplyChatState(e.Enabled)
		return nil

	case connection.MessageDeletedEvent:
		return s.fadeOut(e.ID)

	case connection.ModerationUpdateEvent:
		s.Moderation = NewModerationState(e.Muted, e.Banned)
		s.ApplyChatState(s.ChatEnabled)
		return nil

	case connection.PersonalNotificationEvent:
		effects := s.RenderSystemNotice(e.Text)
		if e.Code.AffectsComposer() {
			s.ApplyChatState(s.ChatEnabled)
		}
		return effects

	case connection.ForceDisconnectEvent:
		effects := s.RenderSystemNotice(e.Reason)
		s.Terminated = true
		s.Connected = false
		s.Identity.Username = ""
		s.Menu = nil
		return append(effects, ClearIdentity{}, Terminate{Reason: e.Reason})

	case connection.DisconnectedEvent:
		s.Connected = false
		s.Composer.Disabled = true
		return s.RenderSystemNotice("Disconnected: " + e.Reason)
	}
	return nil
}

func (s *Session) applySnapshot(e connection.InitialStateEvent) []Effect {
	var effects []Effect

	s.Identity.ConnectionID = e.ConnectionID
	if e.Username != "" && e.Username != s.Identity.Username {
		s.Identity.Username = e.Username
		effects = append(effects, Persist{Username: e.Username})
	}

	s.Transcript.reset()
	s.Menu = nil
	for _, msg := range e.History {
		s.Render(msg, true)
	}

	if e.Moderation != nil {
		s.Moderation = NewModerationState(e.Moderation.Muted, e.Moderation.Banned)
	}
	s.ApplyChatState(e.ChatEnabled)

	return append(effects, ScrollToBottom{})
}

// Render appends msg to the transcript. Messages without a username are
// dropped. During history replay no scroll is requested; the caller scrolls
// once after the batch.
func (s *Session) Render(msg protocol.ChatMessage, replay bool) []Effect {
	if msg.Username == "" {
		return nil
	}

	own := s.Identity.Owns(msg)
	s.Transcript.append(&Entry{
		Kind:    EntryMessage,
		Message: msg,
		Own:     own,
		Avatar:  AvatarInitials(msg.Username),
		HasMenu: s.Context.IsAdmin && !own,
		At:      s.now(),
	})

	if replay {
		return nil
	}
	return []Effect{ScrollToBottom{}}
}

// RenderSystemNotice appends a non-interactive notice and scrolls to it.
func (s *Session) RenderSystemNotice(text string) []Effect {
	s.Transcript.append(&Entry{
		Kind: EntrySystem,
		Text: text,
		At:   s.now(),
	})
	return []Effect{ScrollToBottom{}}
}

func (s *Session) fadeOut(id string) []Effect {
	i := s.Transcript.find(id)
	if i < 0 {
		return nil
	}
	entry := s.Transcript.entries[i]
	if entry.Fading {
		return nil
	}
	entry.Fading = true
	return []Effect{ScheduleRemoval{ID: id, After: DeleteFadeDuration}}
}

// RemoveEntry drops a faded entry. Unknown ids are ignored.
func (s *Session) RemoveEntry(id string) {
	if i := s.Transcript.find(id); i >= 0 {
		s.Transcript.remove(i)
	}
}

// SendChat posts text if there is something to send and the composer is
// enabled. It returns nil when nothing was sent.
func (s *Session) SendChat(text string) []Effect {
	text = strings.TrimSpace(text)
	if text == "" || s.Composer.Disabled || !s.Connected {
		return nil
	}
	return []Effect{Emit{
		Type: protocol.MsgChatMessage,
		Payload: protocol.ChatMessagePayload{
			Scope:    s.Context.scope(),
			Message:  text,
			Username: s.Identity.Username,
		},
	}}
}

// BeginRename shows the name-entry surface.
func (s *Session) BeginRename() {
	s.Surface = SurfaceNameEntry
}

// CancelRename returns to the composer without changing anything.
func (s *Session) CancelRename() {
	s.Surface = SurfaceCompose
}

// Rename changes the local display name. The server is not told: the new
// name is used from the next join on.
func (s *Session) Rename(name string) ([]Effect, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyUsername
	}
	if name == s.Identity.Username {
		return nil, ErrSameUsername
	}

	s.Identity.Username = name
	s.Surface = SurfaceCompose

	effects := []Effect{Persist{Username: name}}
	notice := fmt.Sprintf("You are now '%s'. The new name takes effect the next time you join.", name)
	return append(effects, s.RenderSystemNotice(notice)...), nil
}
