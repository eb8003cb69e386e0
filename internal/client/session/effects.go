package session

import (
	"time"

	"github.com/yourusername/watchroom-chat/internal/protocol"
)

// Effect is a side effect requested by a handler. The session never performs
// I/O itself; whoever drives it executes effects in order.
type Effect interface {
	isEffect()
}

// Emit sends one fire-and-forget message to the server.
type Emit struct {
	Type    protocol.MessageType
	Payload interface{}
}

func (Emit) isEffect() {}

// ScrollToBottom brings the newest transcript entry into view.
type ScrollToBottom struct{}

func (ScrollToBottom) isEffect() {}

// ScheduleRemoval asks for RemoveEntry(ID) to be called once the fade-out
// transition has run.
type ScheduleRemoval struct {
	ID    string
	After time.Duration
}

func (ScheduleRemoval) isEffect() {}

// ArmDismiss asks for ArmMenuDismiss(Seq) on the next tick.
type ArmDismiss struct {
	Seq int
}

func (ArmDismiss) isEffect() {}

// Persist stores the display name.
type Persist struct {
	Username string
}

func (Persist) isEffect() {}

// ClearIdentity wipes the stored display name.
type ClearIdentity struct{}

func (ClearIdentity) isEffect() {}

// Terminate leaves the chat for good. No retry follows.
type Terminate struct {
	Reason string
}

func (Terminate) isEffect() {}
