package session

import (
	"time"

	"github.com/yourusername/watchroom-chat/internal/protocol"
)

// EntryKind distinguishes chat lines from system notices
type EntryKind int

const (
	EntryMessage EntryKind = iota
	EntrySystem
)

// Entry is one visible line of the transcript
type Entry struct {
	Kind    EntryKind
	Message protocol.ChatMessage // EntryMessage only
	Text    string               // EntrySystem only
	Own     bool
	Avatar  string
	HasMenu bool
	Fading  bool
	At      time.Time
}

// Transcript is the append-only list of what the user sees. Entries are
// never deduplicated; only RemoveEntry takes anything out.
type Transcript struct {
	entries []*Entry
}

// Entries returns the visible entries in arrival order.
func (t *Transcript) Entries() []*Entry {
	return t.entries
}

// Len returns the number of visible entries.
func (t *Transcript) Len() int {
	return len(t.entries)
}

func (t *Transcript) append(e *Entry) {
	t.entries = append(t.entries, e)
}

func (t *Transcript) reset() {
	t.entries = nil
}

// find returns the first message entry carrying id, or -1.
func (t *Transcript) find(id string) int {
	if id == "" {
		return -1
	}
	for i, e := range t.entries {
		if e.Kind == EntryMessage && e.Message.ID == id {
			return i
		}
	}
	return -1
}

func (t *Transcript) remove(i int) {
	t.entries = append(t.entries[:i], t.entries[i+1:]...)
}
