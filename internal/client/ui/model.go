package ui

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/yourusername/watchroom-chat/internal/client/connection"
	"github.com/yourusername/watchroom-chat/internal/client/session"
	"github.com/yourusername/watchroom-chat/internal/client/storage"
)

// ViewState represents the current view in the TUI
type ViewState int

const (
	ViewLoading ViewState = iota
	ViewChat
)

// Screen rows around the transcript viewport
const (
	headerHeight = 1
	footerHeight = 3 // separator, composer, status bar
)

// Options wires the model to its collaborators
type Options struct {
	Manager       *connection.Manager
	Session       *session.Session
	Store         storage.Store
	Logger        *zerolog.Logger
	ServerURL     string
	MaxReconnects int
}

// Model is the main Bubble Tea model
type Model struct {
	viewState ViewState
	connMgr   *connection.Manager   // Single connection manager, reused throughout session
	eventChan chan connection.Event // Channel for connection events
	sess      *session.Session
	store     storage.Store
	log       *zerolog.Logger

	composer   textinput.Model
	nameInput  textinput.Model
	transcript viewport.Model
	selected   int // transcript entry under the keyboard cursor, -1 for none
	layout     transcriptLayout

	width  int
	height int
	err    error

	// Loading screen
	loadingDots      int
	serverURL        string
	reconnectAttempt int
	maxReconnects    int
	waitingToRetry   bool

	quitting   bool
	exitReason string
}

// NewModel creates a new Bubble Tea model around one session and one
// connection manager.
func NewModel(opts Options) Model {
	eventChan := make(chan connection.Event, 64)

	// Set up event callback - when server sends events, push to channel
	opts.Manager.OnEvent(func(event connection.Event) {
		eventChan <- event
	})

	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if opts.MaxReconnects <= 0 {
		opts.MaxReconnects = 5
	}

	composer := textinput.New()
	composer.Prompt = "> "
	composer.CharLimit = 500
	composer.Placeholder = opts.Session.Composer.Placeholder

	nameInput := textinput.New()
	nameInput.Prompt = "Name: "
	nameInput.CharLimit = 40

	return Model{
		viewState:     ViewLoading,
		connMgr:       opts.Manager,
		eventChan:     eventChan,
		sess:          opts.Session,
		store:         opts.Store,
		log:           logger,
		composer:      composer,
		nameInput:     nameInput,
		transcript:    viewport.New(80, 24-headerHeight-footerHeight),
		selected:      -1,
		width:         80,
		height:        24,
		serverURL:     opts.ServerURL,
		maxReconnects: opts.MaxReconnects,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		connectCmd(m.connMgr),
		tickCmd(),
		listenForEventsCmd(m.eventChan),
	)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.composer.Width = msg.Width - 4
		m.nameInput.Width = msg.Width - 8
		m.transcript.Width = msg.Width
		m.transcript.Height = max(1, msg.Height-headerHeight-footerHeight)
		m.refresh(false)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit("")
		}
		switch m.viewState {
		case ViewLoading:
			return m.updateLoading(msg)
		case ViewChat:
			return m.updateChat(msg)
		}

	case tea.MouseMsg:
		if m.viewState == ViewChat {
			return m.updateMouse(msg)
		}

	case connectionSuccessMsg:
		m.reconnectAttempt = 0
		m.waitingToRetry = false
		m.err = nil
		m.viewState = ViewChat
		return m, nil

	case connectionErrorMsg:
		m.err = msg.err
		m.log.Warn().Err(msg.err).Int("attempt", m.reconnectAttempt+1).Msg("connect failed")
		return m.scheduleReconnect()

	case retryMsg:
		m.waitingToRetry = false
		if m.quitting || m.sess.Terminated {
			return m, nil
		}
		return m, connectCmd(m.connMgr)

	case connectionEventMsg:
		return m.handleConnectionEvent(msg.event)

	case removeEntryMsg:
		m.sess.RemoveEntry(msg.id)
		m.clampSelection()
		m.refresh(false)
		return m, nil

	case dismissArmedMsg:
		m.sess.ArmMenuDismiss(msg.seq)
		return m, nil

	case tickMsg:
		if m.viewState == ViewLoading {
			m.loadingDots = (m.loadingDots + 1) % 4
			return m, tickCmd()
		}
		return m, nil
	}

	return m, nil
}

// View renders the current view
func (m Model) View() string {
	switch m.viewState {
	case ViewLoading:
		return m.viewLoading()
	case ViewChat:
		return m.viewChat()
	}
	return ""
}

// ExitReason is the server's reason when the session was ended remotely,
// empty when the user quit.
func (m Model) ExitReason() string {
	return m.exitReason
}

// Disconnect safely disconnects the connection manager
func (m *Model) Disconnect() {
	if m.connMgr != nil {
		m.connMgr.Disconnect()
	}
}

func (m Model) quit(reason string) (tea.Model, tea.Cmd) {
	m.quitting = true
	m.exitReason = reason
	m.Disconnect()
	return m, tea.Quit
}

func (m Model) scheduleReconnect() (tea.Model, tea.Cmd) {
	if m.quitting || m.sess.Terminated {
		return m, nil
	}
	m.reconnectAttempt++
	if m.reconnectAttempt >= m.maxReconnects {
		m.waitingToRetry = false
		return m, nil
	}
	m.waitingToRetry = true
	cmds := []tea.Cmd{retryConnectCmd(m.reconnectAttempt)}
	if m.viewState == ViewLoading {
		cmds = append(cmds, tickCmd())
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleConnectionEvent(event connection.Event) (tea.Model, tea.Cmd) {
	effects := m.sess.Apply(event)
	cmd := m.runEffects(effects)
	next := listenForEventsCmd(m.eventChan)

	switch e := event.(type) {
	case connection.ConnectedEvent:
		m.viewState = ViewChat
		m.reconnectAttempt = 0
		m.err = nil

	case connection.InitialStateEvent:
		m.selected = -1

	case connection.DisconnectedEvent:
		if e.Error == nil || m.quitting || m.sess.Terminated {
			return m, tea.Batch(cmd, next)
		}
		m.log.Warn().Str("reason", e.Reason).Msg("connection lost")
		m2, retry := m.scheduleReconnect()
		return m2, tea.Batch(cmd, retry, next)
	}

	if m.quitting {
		return m, cmd
	}
	return m, tea.Batch(cmd, next)
}
