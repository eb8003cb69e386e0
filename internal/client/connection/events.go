package connection

import "github.com/yourusername/watchroom-chat/internal/protocol"

// Event represents events from the connection manager
type Event interface {
	isEvent()
}

// ConnectedEvent is sent when connection is established
type ConnectedEvent struct{}

func (ConnectedEvent) isEvent() {}

// DisconnectedEvent is sent when the transport is lost, whatever the cause
type DisconnectedEvent struct {
	Reason string
	Error  error
}

func (DisconnectedEvent) isEvent() {}

// InitialStateEvent is the snapshot sent after joining
type InitialStateEvent struct {
	ConnectionID string
	Username     string // empty when the server does not echo a canonical name
	History      []protocol.ChatMessage
	ChatEnabled  bool
	Moderation   *protocol.ModerationList
}

func (InitialStateEvent) isEvent() {}

// NewMessageEvent carries one live chat message
type NewMessageEvent struct {
	Message protocol.ChatMessage
}

func (NewMessageEvent) isEvent() {}

// SystemMessageEvent is a room-wide notice
type SystemMessageEvent struct {
	Text string
}

func (SystemMessageEvent) isEvent() {}

// ChatStateEvent is sent when an admin toggles the chat
type ChatStateEvent struct {
	Enabled bool
}

func (ChatStateEvent) isEvent() {}

// MessageDeletedEvent names a message a moderator removed
type MessageDeletedEvent struct {
	ID string
}

func (MessageDeletedEvent) isEvent() {}

// ModerationUpdateEvent replaces the muted/banned lists
type ModerationUpdateEvent struct {
	Muted  []string
	Banned []string
}

func (ModerationUpdateEvent) isEvent() {}

// PersonalNotificationEvent is addressed to this client only
type PersonalNotificationEvent struct {
	Text string
	Code protocol.NotificationCode
}

func (PersonalNotificationEvent) isEvent() {}

// ForceDisconnectEvent is terminal: the server removed us from the room
type ForceDisconnectEvent struct {
	Reason string
}

func (ForceDisconnectEvent) isEvent() {}
