package ui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/yourusername/watchroom-chat/internal/client/session"
)

// Columns of a transcript line: selection marker, then the menu trigger.
const (
	triggerColumn = 1
	triggerGlyph  = "⋮"
)

// entryIndent is the width of the marker and trigger columns plus a space.
// Wrapped continuation lines start there.
const entryIndent = 3

// renderEntry draws one transcript entry wrapped to width cells. The first
// line carries the selection marker and the menu trigger.
func renderEntry(e *session.Entry, width int, selected bool) []string {
	marker := " "
	if selected {
		marker = cursorStyle.Render("›")
	}

	trigger := " "
	var body string
	switch e.Kind {
	case session.EntrySystem:
		body = systemStyle.Render("* " + oneLine(e.Text))

	default:
		if e.HasMenu {
			trigger = triggerStyle.Render(triggerGlyph)
		}

		name := otherNameStyle.Render(e.Message.Username)
		if e.Own {
			name = ownNameStyle.Render(e.Message.Username) + mutedStyle.Render(" (you)")
		}

		body = mutedStyle.Render(e.At.Format("15:04")) + " " +
			renderAvatar(e.Message.Username, e.Avatar) + " " +
			name + mutedStyle.Render(": ") + messageTextStyle.Render(oneLine(e.Message.Text))
		if e.Fading {
			body = fadingStyle.Render(ansi.Strip(body))
		}
	}

	if avail := width - entryIndent; avail > 0 {
		body = ansi.Wrap(body, avail, "")
	}

	lines := strings.Split(body, "\n")
	lines[0] = marker + trigger + " " + lines[0]
	pad := strings.Repeat(" ", entryIndent)
	for i := 1; i < len(lines); i++ {
		lines[i] = pad + lines[i]
	}
	return lines
}

// transcriptLayout maps viewport lines back onto transcript entries.
type transcriptLayout struct {
	starts []int // first line of each entry
	owners []int // entry index of each line
}

// entryAt returns the entry drawn on content line n
func (l transcriptLayout) entryAt(n int) (int, bool) {
	if n < 0 || n >= len(l.owners) {
		return 0, false
	}
	return l.owners[n], true
}

// span returns the first and last content line of entry i
func (l transcriptLayout) span(i int) (first, last int) {
	if i < 0 || i >= len(l.starts) {
		return 0, 0
	}
	first = l.starts[i]
	last = len(l.owners) - 1
	if i+1 < len(l.starts) {
		last = l.starts[i+1] - 1
	}
	return first, last
}

// renderTranscript builds the viewport content for the whole transcript
// along with its line layout.
func renderTranscript(t *session.Transcript, width, selected int) (string, transcriptLayout) {
	entries := t.Entries()
	if len(entries) == 0 {
		return mutedStyle.Render("   No messages yet."), transcriptLayout{}
	}

	var (
		lines  []string
		layout transcriptLayout
	)
	for i, e := range entries {
		layout.starts = append(layout.starts, len(lines))
		for _, line := range renderEntry(e, width, i == selected) {
			lines = append(lines, line)
			layout.owners = append(layout.owners, i)
		}
	}
	return strings.Join(lines, "\n"), layout
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
