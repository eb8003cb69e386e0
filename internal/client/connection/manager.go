package connection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/yourusername/watchroom-chat/internal/metrics"
	"github.com/yourusername/watchroom-chat/internal/protocol"
)

// ErrNotConnected is returned by Send when there is no live connection
var ErrNotConnected = errors.New("connection: not connected")

const reasonClientClosed = "client closed the connection"

// Options tunes the manager's transport behaviour
type Options struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	Logger           *zerolog.Logger
}

// Manager manages the WebSocket connection to the server
type Manager struct {
	serverURL     string
	opts          Options
	log           zerolog.Logger
	conn          *websocket.Conn
	eventCallback func(Event)
	connected     bool
	mu            sync.RWMutex
	writeMu       sync.Mutex
	done          chan struct{}
}

// NewManager creates a new connection manager
func NewManager(serverURL string, opts Options) *Manager {
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 10 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Manager{
		serverURL: serverURL,
		opts:      opts,
		log:       logger,
		connected: false,
		done:      make(chan struct{}),
	}
}

// OnEvent sets the callback for events. The callback runs on the read
// goroutine, one event at a time, in arrival order.
func (m *Manager) OnEvent(callback func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventCallback = callback
}

// Connect establishes a WebSocket connection to the server
func (m *Manager) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: m.opts.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, m.serverURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", m.serverURL, err)
	}

	m.mu.Lock()
	m.conn = conn
	m.connected = true
	// Fresh done channel per connection so a later Connect works
	m.done = make(chan struct{})
	done := m.done
	m.mu.Unlock()

	metrics.Connected.Set(1)
	m.log.Info().Str("url", m.serverURL).Msg("connected")

	m.sendEvent(ConnectedEvent{})
	go m.readPump(conn, done)

	return nil
}

// Disconnect closes the WebSocket connection
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return
	}

	m.connected = false

	select {
	case <-m.done:
	default:
		close(m.done)
	}

	if m.conn != nil {
		m.writeMu.Lock()
		_ = m.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, reasonClientClosed),
			time.Now().Add(time.Second))
		m.writeMu.Unlock()
		m.conn.Close()
	}
}

// IsConnected returns whether the manager is connected
func (m *Manager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// Send writes one message. Delivery is fire-and-forget: a nil error only
// means the frame reached the socket.
func (m *Manager) Send(msgType protocol.MessageType, payload interface{}) error {
	m.mu.RLock()
	conn, connected := m.conn, m.connected
	m.mu.RUnlock()

	if !connected || conn == nil {
		return ErrNotConnected
	}

	msg, err := protocol.EncodeMessage(msgType, payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msgType, err)
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(m.opts.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		return fmt.Errorf("write %s: %w", msgType, err)
	}
	metrics.CommandsTotal.WithLabelValues(string(msgType)).Inc()
	return nil
}

// readPump reads messages from the WebSocket connection
func (m *Manager) readPump(conn *websocket.Conn, done chan struct{}) {
	var readErr error
	defer func() {
		m.mu.Lock()
		if m.conn == conn {
			m.connected = false
		}
		m.mu.Unlock()
		conn.Close()
		metrics.Connected.Set(0)

		reason := closeReason(readErr)
		select {
		case <-done:
			reason = reasonClientClosed
			readErr = nil
		default:
		}
		m.sendEvent(DisconnectedEvent{Reason: reason, Error: readErr})
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.log.Warn().Err(err).Msg("websocket read error")
			}
			readErr = err
			return
		}

		m.handleMessage(message)
	}
}

// handleMessage processes incoming messages
func (m *Manager) handleMessage(data []byte) {
	msg, err := protocol.DecodeMessage(data)
	if err != nil {
		metrics.DecodeErrors.Inc()
		m.log.Warn().Err(err).Msg("dropping undecodable frame")
		return
	}

	event, err := decodeEvent(msg)
	if err != nil {
		metrics.DecodeErrors.Inc()
		m.log.Warn().Err(err).Str("event", string(msg.Type)).Msg("dropping malformed payload")
		return
	}
	if event == nil {
		m.log.Debug().Str("event", string(msg.Type)).Msg("unhandled message type")
		return
	}

	metrics.EventsTotal.WithLabelValues(string(msg.Type)).Inc()
	m.sendEvent(event)
}

// decodeEvent maps a wire message onto a typed event. Unknown types yield
// a nil event and no error.
func decodeEvent(msg *protocol.Message) (Event, error) {
	switch msg.Type {
	case protocol.MsgInitialState:
		var payload protocol.InitialStatePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, fmt.Errorf("initial state: %w", err)
		}
		return InitialStateEvent{
			ConnectionID: payload.MySID,
			Username:     payload.MyUsername,
			History:      payload.ChatHistory,
			ChatEnabled:  payload.State.Enabled(),
			Moderation:   payload.Moderation,
		}, nil

	case protocol.MsgNewMessage:
		var payload protocol.ChatMessage
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, fmt.Errorf("new message: %w", err)
		}
		return NewMessageEvent{Message: payload}, nil

	case protocol.MsgSystemMessage:
		var payload protocol.SystemMessagePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, fmt.Errorf("system message: %w", err)
		}
		return SystemMessageEvent{Text: payload.Text}, nil

	case protocol.MsgChatStateChange:
		var payload protocol.ChatStatePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, fmt.Errorf("chat state: %w", err)
		}
		return ChatStateEvent{Enabled: payload.ChatEnabled}, nil

	case protocol.MsgMessageDeleted:
		var payload protocol.MessageDeletedPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, fmt.Errorf("message deleted: %w", err)
		}
		return MessageDeletedEvent{ID: payload.ID}, nil

	case protocol.MsgUserListUpdate:
		var payload protocol.ModerationList
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, fmt.Errorf("user list update: %w", err)
		}
		return ModerationUpdateEvent{Muted: payload.Muted, Banned: payload.Banned}, nil

	case protocol.MsgPersonalNotification:
		var payload protocol.PersonalNotificationPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, fmt.Errorf("personal notification: %w", err)
		}
		code := payload.Code
		if code == "" {
			code = protocol.NotifyInfo
		}
		return PersonalNotificationEvent{Text: payload.Text, Code: code}, nil

	case protocol.MsgForceDisconnect:
		var payload protocol.ForceDisconnectPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, fmt.Errorf("force disconnect: %w", err)
		}
		return ForceDisconnectEvent{Reason: payload.Reason}, nil

	default:
		return nil, nil
	}
}

func closeReason(err error) string {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		if closeErr.Text != "" {
			return closeErr.Text
		}
		return fmt.Sprintf("connection closed (code %d)", closeErr.Code)
	}
	if err != nil {
		return err.Error()
	}
	return "connection closed"
}

// sendEvent sends an event to the callback if set
func (m *Manager) sendEvent(event Event) {
	m.mu.RLock()
	callback := m.eventCallback
	m.mu.RUnlock()

	if callback != nil {
		callback(event)
	}
}
