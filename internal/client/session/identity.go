package session

import (
	"fmt"
	"strings"

	"github.com/yourusername/watchroom-chat/internal/protocol"
)

// Context is what the host supplies once at startup. It never changes.
type Context struct {
	SessionID string
	RoomType  string
	IsAdmin   bool
}

func (c Context) scope() protocol.Scope {
	return protocol.Scope{SessionID: c.SessionID, RoomType: c.RoomType}
}

// Identity is who this client is in the room.
type Identity struct {
	ConnectionID string // assigned by the server in the initial snapshot
	Username     string
}

// Owns reports whether msg was written by this client: the username matches
// exactly, or the message carries this connection's id. A stale id from an
// earlier connection never overrides a username match.
func (id Identity) Owns(msg protocol.ChatMessage) bool {
	if msg.Username == id.Username {
		return true
	}
	return msg.SID != "" && msg.SID == id.ConnectionID
}

// ResolveUsername returns the stored name, or synthesizes user_<0..9999>.
func ResolveUsername(stored string, intn func(n int) int) string {
	if stored != "" {
		return stored
	}
	return fmt.Sprintf("user_%d", intn(10000))
}

// AvatarInitials is the uppercased first two characters of a username.
func AvatarInitials(username string) string {
	runes := []rune(username)
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return strings.ToUpper(string(runes))
}
