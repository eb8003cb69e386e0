package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yourusername/watchroom-chat/internal/client/connection"
)

// connectionSuccessMsg is sent when connection is established
type connectionSuccessMsg struct{}

// connectionErrorMsg is sent when connection fails
type connectionErrorMsg struct {
	err error
}

// connectionEventMsg wraps events from the connection manager
type connectionEventMsg struct {
	event connection.Event
}

// retryMsg fires when the reconnect delay has passed
type retryMsg struct{}

// removeEntryMsg fires once a deleted entry has faded out
type removeEntryMsg struct {
	id string
}

// dismissArmedMsg arms outside-click dismissal for menu seq
type dismissArmedMsg struct {
	seq int
}

// tickMsg is sent periodically for animations
type tickMsg time.Time

// connectCmd attempts to connect with the shared manager. Events, including
// ConnectedEvent, arrive separately through the event channel.
func connectCmd(mgr *connection.Manager) tea.Cmd {
	return func() tea.Msg {
		if err := mgr.Connect(context.Background()); err != nil {
			return connectionErrorMsg{err: err}
		}
		return connectionSuccessMsg{}
	}
}

// listenForEventsCmd waits for the next connection event. Exactly one is
// outstanding at a time so events reach Update in arrival order.
func listenForEventsCmd(events <-chan connection.Event) tea.Cmd {
	return func() tea.Msg {
		return connectionEventMsg{event: <-events}
	}
}

// retryConnectCmd waits out the backoff for the given attempt
func retryConnectCmd(attempt int) tea.Cmd {
	return tea.Tick(connection.RetryDelay(attempt), func(time.Time) tea.Msg {
		return retryMsg{}
	})
}

func removalCmd(id string, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return removeEntryMsg{id: id}
	})
}

// armDismissCmd is delivered after the current update, so the click that
// opened a menu never closes it.
func armDismissCmd(seq int) tea.Cmd {
	return func() tea.Msg {
		return dismissArmedMsg{seq: seq}
	}
}

// tickCmd returns a command that sends tick messages for animations
func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
