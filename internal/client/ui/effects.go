package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yourusername/watchroom-chat/internal/client/session"
	"github.com/yourusername/watchroom-chat/internal/protocol"
)

// runEffects executes what the session asked for, in order, then redraws
// the transcript.
func (m *Model) runEffects(effects []session.Effect) tea.Cmd {
	var cmds []tea.Cmd
	scroll := false

	for _, effect := range effects {
		switch e := effect.(type) {
		case session.Emit:
			m.send(e)

		case session.ScrollToBottom:
			scroll = true

		case session.ScheduleRemoval:
			cmds = append(cmds, removalCmd(e.ID, e.After))

		case session.ArmDismiss:
			cmds = append(cmds, armDismissCmd(e.Seq))

		case session.Persist:
			if m.store == nil {
				continue
			}
			if err := m.store.Save(context.Background(), e.Username); err != nil {
				m.log.Warn().Err(err).Msg("failed to persist username")
			}

		case session.ClearIdentity:
			if m.store == nil {
				continue
			}
			if err := m.store.Clear(context.Background()); err != nil {
				m.log.Warn().Err(err).Msg("failed to clear username")
			}

		case session.Terminate:
			m.log.Info().Str("reason", e.Reason).Msg("removed from room")
			m.quitting = true
			m.exitReason = e.Reason
			m.Disconnect()
			cmds = append(cmds, tea.Quit)
		}
	}

	m.refresh(scroll)
	return tea.Batch(cmds...)
}

// send is fire-and-forget: failures are logged, never retried.
func (m *Model) send(e session.Emit) {
	if err := m.connMgr.Send(e.Type, e.Payload); err != nil {
		m.log.Warn().Err(err).Str("event", string(e.Type)).Msg("send failed")
		return
	}

	cmd, ok := e.Payload.(protocol.AdminActionPayload)
	if !ok {
		m.log.Debug().Str("event", string(e.Type)).Msg("sent")
		return
	}
	m.log.Info().
		Str("event", string(e.Type)).
		Str("action", string(cmd.Action)).
		Str("request_id", cmd.RequestID).
		Str("session_id", cmd.SessionID).
		Str("room_type", cmd.RoomType).
		Str("message_id", cmd.MessageID).
		Msg("sent moderation command")
}

// refresh mirrors session state into the widgets
func (m *Model) refresh(scroll bool) {
	m.composer.Placeholder = m.sess.Composer.Placeholder
	if m.sess.Composer.Disabled || m.sess.Surface != session.SurfaceCompose {
		m.composer.Blur()
	} else {
		m.composer.Focus()
	}
	if m.sess.Surface == session.SurfaceNameEntry {
		m.nameInput.Focus()
	} else {
		m.nameInput.Blur()
	}

	content, layout := renderTranscript(&m.sess.Transcript, m.transcript.Width, m.selected)
	m.layout = layout
	m.transcript.SetContent(content)
	if scroll {
		m.transcript.GotoBottom()
	}
}
