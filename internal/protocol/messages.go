package protocol //handles communication protocol between the chat client and the room server
// WebSocket message types and payloads
import (
	"encoding/json"
	"errors"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Client -> Server
	MsgJoin        MessageType = "join"
	MsgChatMessage MessageType = "chat_message"
	MsgAdminAction MessageType = "admin_action"

	// Server -> Client
	MsgInitialState         MessageType = "initial_state"
	MsgNewMessage           MessageType = "new_message"
	MsgSystemMessage        MessageType = "system_message"
	MsgChatStateChange      MessageType = "chat_state_change"
	MsgMessageDeleted       MessageType = "message_deleted"
	MsgUserListUpdate       MessageType = "user_list_update" // moderation lists, not presence
	MsgPersonalNotification MessageType = "personal_notification"
	MsgForceDisconnect      MessageType = "force_disconnect"
)

// Action names carried by admin_action
type Action string

const (
	ActionMuteUser      Action = "mute_user"
	ActionUnmuteUser    Action = "unmute_user"
	ActionBanUser       Action = "ban_user"
	ActionDeleteMessage Action = "delete_message"
	ActionToggleChat    Action = "toggle_chat"
)

// NotificationCode tells the client whether a personal notification changes
// what it is allowed to do.
type NotificationCode string

const (
	NotifyInfo    NotificationCode = "info"
	NotifyMuted   NotificationCode = "muted"
	NotifyUnmuted NotificationCode = "unmuted"
)

// AffectsComposer reports whether the notification changes send permissions.
func (c NotificationCode) AffectsComposer() bool {
	return c == NotifyMuted || c == NotifyUnmuted
}

// ErrMissingType is returned when an inbound frame has no type
var ErrMissingType = errors.New("protocol: missing message type")

// Message is the wrapper for all WebSocket messages
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Scope identifies the room every outbound message is addressed to
type Scope struct {
	SessionID string `json:"session_id"`
	RoomType  string `json:"room_type"`
}

// JoinPayload is sent when the client wants to join the room
type JoinPayload struct {
	Scope
	Username string `json:"username"`
}

// ChatMessagePayload is sent when the user posts a message
type ChatMessagePayload struct {
	Scope
	Message  string `json:"message"`
	Username string `json:"username"`
}

// AdminActionPayload carries a moderation command. Which optional fields are
// set depends on the action.
type AdminActionPayload struct {
	Scope
	Action    Action `json:"action"`
	Username  string `json:"username,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	SID       string `json:"sid,omitempty"`
	RequestID string `json:"request_id,omitempty"` // log correlation only, never acknowledged
}

// ChatMessage is a single rendered chat line. ID and SID are optional.
type ChatMessage struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
	Text     string `json:"text"`
	SID      string `json:"sid,omitempty"`
}

// RoomState is the subset of room state the chat cares about
type RoomState struct {
	ChatEnabled *bool `json:"chat_enabled,omitempty"`
}

// Enabled defaults to true when the server omits the flag
func (s RoomState) Enabled() bool {
	return s.ChatEnabled == nil || *s.ChatEnabled
}

// ModerationList is the muted/banned snapshot pushed by the server
type ModerationList struct {
	Muted  []string `json:"muted"`
	Banned []string `json:"banned"`
}

// InitialStatePayload is sent right after a successful join
type InitialStatePayload struct {
	MySID       string          `json:"my_sid"`
	MyUsername  string          `json:"my_username,omitempty"`
	ChatHistory []ChatMessage   `json:"chat_history"`
	State       RoomState       `json:"state"`
	Moderation  *ModerationList `json:"moderation,omitempty"`
}

// SystemMessagePayload is a room-wide notice
type SystemMessagePayload struct {
	Text string `json:"text"`
}

// ChatStatePayload announces the global chat switch
type ChatStatePayload struct {
	ChatEnabled bool `json:"chat_enabled"`
}

// MessageDeletedPayload names a message removed by a moderator
type MessageDeletedPayload struct {
	ID string `json:"id"`
}

// PersonalNotificationPayload is addressed to this client only
type PersonalNotificationPayload struct {
	Text string           `json:"text"`
	Code NotificationCode `json:"code,omitempty"`
}

// ForceDisconnectPayload ends the session for this client
type ForceDisconnectPayload struct {
	Reason string `json:"reason"`
}

// EncodeMessage encodes a message with its payload
func EncodeMessage(msgType MessageType, payload interface{}) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	msg := Message{
		Type:    msgType,
		Payload: payloadBytes,
	}

	return json.Marshal(msg)
}

// DecodeMessage decodes a message
func DecodeMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" {
		return nil, ErrMissingType
	}
	return &msg, nil
}
