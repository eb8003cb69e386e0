package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/yourusername/watchroom-chat/internal/client/connection"
	"github.com/yourusername/watchroom-chat/internal/client/session"
	"github.com/yourusername/watchroom-chat/internal/client/storage"
	"github.com/yourusername/watchroom-chat/internal/protocol"
)

var (
	ErrUnknownAction = errors.New("client: unknown moderation action")
	ErrMissingTarget = errors.New("client: moderation action needs a target")
)

// RemovedError is returned when the server ends the session for good.
type RemovedError struct {
	Reason string
}

func (e *RemovedError) Error() string {
	return "removed from room: " + e.Reason
}

// ParseAction maps a command-line verb onto a moderation action. There is
// no unban: the protocol has no such action.
func ParseAction(verb string) (protocol.Action, error) {
	switch verb {
	case "mute":
		return protocol.ActionMuteUser, nil
	case "unmute":
		return protocol.ActionUnmuteUser, nil
	case "ban":
		return protocol.ActionBanUser, nil
	case "delete":
		return protocol.ActionDeleteMessage, nil
	case "toggle":
		return protocol.ActionToggleChat, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, verb)
	}
}

// Runner drives a session without a terminal UI: events are applied on the
// calling goroutine and transcript lines are written to out.
type Runner struct {
	mgr           *connection.Manager
	sess          *session.Session
	store         storage.Store
	log           *zerolog.Logger
	out           io.Writer
	events        chan connection.Event
	removals      chan string
	printed       map[*session.Entry]bool
	MaxReconnects int
}

// NewRunner attaches a runner to mgr. The manager must not be shared with a
// UI model.
func NewRunner(mgr *connection.Manager, sess *session.Session, store storage.Store, logger *zerolog.Logger, out io.Writer) *Runner {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	r := &Runner{
		mgr:           mgr,
		sess:          sess,
		store:         store,
		log:           logger,
		out:           out,
		events:        make(chan connection.Event, 64),
		removals:      make(chan string, 16),
		printed:       make(map[*session.Entry]bool),
		MaxReconnects: 5,
	}
	mgr.OnEvent(func(event connection.Event) {
		r.events <- event
	})
	return r
}

// Tail joins the room and prints the transcript until ctx ends or the
// server removes this client. Transport drops are retried with backoff.
func (r *Runner) Tail(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := r.mgr.Connect(ctx); err != nil {
		return err
	}
	defer r.mgr.Disconnect()

	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return nil

		case id := <-r.removals:
			r.sess.RemoveEntry(id)

		case event := <-r.events:
			if err := r.apply(ctx, event); err != nil {
				return err
			}

			switch e := event.(type) {
			case connection.InitialStateEvent:
				attempt = 0
			case connection.DisconnectedEvent:
				if e.Error == nil {
					return nil
				}
				if err := r.reconnect(ctx, &attempt); err != nil {
					return err
				}
			}
		}
	}
}

// Moderate joins, waits for the room snapshot, sends one admin command and
// leaves. The command is fire-and-forget; no outcome is awaited.
func (r *Runner) Moderate(ctx context.Context, action protocol.Action, target string) error {
	if !r.sess.Context.IsAdmin {
		return session.ErrNotAdmin
	}
	if target == "" && action != protocol.ActionToggleChat {
		return ErrMissingTarget
	}

	if err := r.mgr.Connect(ctx); err != nil {
		return err
	}
	defer r.mgr.Disconnect()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for room snapshot: %w", ctx.Err())

		case event := <-r.events:
			if err := r.apply(ctx, event); err != nil {
				return err
			}

			switch e := event.(type) {
			case connection.DisconnectedEvent:
				return fmt.Errorf("connection lost before joining: %s", e.Reason)
			case connection.InitialStateEvent:
				msg := r.targetMessage(action, target)
				if action == protocol.ActionBanUser && msg.SID == "" {
					r.log.Warn().Str("username", target).Msg("no connection id in history for ban target")
					fmt.Fprintf(r.out, "warning: %s has no message in the room history; the server may ignore this ban\n", target)
				}
				cmd := r.sess.ModerationCommand(action, msg)
				if err := r.mgr.Send(protocol.MsgAdminAction, cmd); err != nil {
					return fmt.Errorf("send %s: %w", action, err)
				}
				r.log.Info().
					Str("action", string(action)).
					Str("request_id", cmd.RequestID).
					Str("session_id", cmd.SessionID).
					Str("room_type", cmd.RoomType).
					Msg("sent moderation command")
				fmt.Fprintf(r.out, "sent %s (request %s)\n", action, cmd.RequestID)
				return nil
			}
		}
	}
}

// targetMessage stands in for the message a menu would have been opened on.
// For bans the newest known connection id of the user is attached.
func (r *Runner) targetMessage(action protocol.Action, target string) protocol.ChatMessage {
	if action == protocol.ActionDeleteMessage {
		return protocol.ChatMessage{ID: target}
	}
	msg := protocol.ChatMessage{Username: target}
	entries := r.sess.Transcript.Entries()
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.Kind == session.EntryMessage && e.Message.Username == target && e.Message.SID != "" {
			msg.SID = e.Message.SID
			break
		}
	}
	return msg
}

func (r *Runner) reconnect(ctx context.Context, attempt *int) error {
	for {
		*attempt++
		if *attempt >= r.MaxReconnects {
			return fmt.Errorf("giving up after %d reconnect attempts", *attempt)
		}

		delay := connection.RetryDelay(*attempt)
		r.log.Warn().Int("attempt", *attempt).Dur("delay", delay).Msg("reconnecting")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}

		err := r.mgr.Connect(ctx)
		if err == nil {
			return nil
		}
		r.log.Warn().Err(err).Msg("reconnect failed")
	}
}

// apply runs one event through the session, executes its effects and prints
// whatever became visible. Pending removals are abandoned once ctx ends.
func (r *Runner) apply(ctx context.Context, event connection.Event) error {
	effects := r.sess.Apply(event)
	r.flush()

	for _, effect := range effects {
		switch e := effect.(type) {
		case session.Emit:
			if err := r.mgr.Send(e.Type, e.Payload); err != nil {
				r.log.Warn().Err(err).Str("event", string(e.Type)).Msg("send failed")
			}

		case session.ScheduleRemoval:
			fmt.Fprintf(r.out, "~ message %s deleted\n", e.ID)
			id := e.ID
			time.AfterFunc(e.After, func() {
				select {
				case r.removals <- id:
				case <-ctx.Done():
				}
			})

		case session.Persist:
			if r.store != nil {
				if err := r.store.Save(context.Background(), e.Username); err != nil {
					r.log.Warn().Err(err).Msg("failed to persist username")
				}
			}

		case session.ClearIdentity:
			if r.store != nil {
				if err := r.store.Clear(context.Background()); err != nil {
					r.log.Warn().Err(err).Msg("failed to clear username")
				}
			}

		case session.Terminate:
			return &RemovedError{Reason: e.Reason}
		}
	}
	return nil
}

// flush prints entries not printed before, in transcript order.
func (r *Runner) flush() {
	seen := make(map[*session.Entry]bool, r.sess.Transcript.Len())
	for _, e := range r.sess.Transcript.Entries() {
		seen[e] = true
		if r.printed[e] {
			continue
		}
		fmt.Fprintln(r.out, FormatEntry(e))
	}
	r.printed = seen
}

// FormatEntry renders an entry as one plain text line.
func FormatEntry(e *session.Entry) string {
	if e.Kind == session.EntrySystem {
		return "* " + e.Text
	}
	own := ""
	if e.Own {
		own = " (you)"
	}
	return fmt.Sprintf("%s [%s] %s%s: %s", e.At.Format("15:04"), e.Avatar, e.Message.Username, own, e.Message.Text)
}
