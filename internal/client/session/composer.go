package session

// Placeholder texts shown in the composer, one per cause.
const (
	PlaceholderNormal   = "Type a message..."
	PlaceholderDisabled = "Chat is disabled."
	PlaceholderMuted    = "You have been muted."
)

// Composer is the message input plus its send control.
type Composer struct {
	Disabled    bool
	Placeholder string
	// HasToggle is set for admins, who get the chat on/off switch.
	HasToggle     bool
	ToggleChecked bool
}

// ModerationState is the server's muted/banned snapshot. It is only ever
// replaced as a whole.
type ModerationState struct {
	Muted  map[string]struct{}
	Banned map[string]struct{}
}

// NewModerationState builds a snapshot from the wire lists.
func NewModerationState(muted, banned []string) ModerationState {
	return ModerationState{
		Muted:  toSet(muted),
		Banned: toSet(banned),
	}
}

// IsMuted checks exact membership; no case folding or trimming.
func (m ModerationState) IsMuted(username string) bool {
	_, ok := m.Muted[username]
	return ok
}

// IsBanned checks exact membership; no case folding or trimming.
func (m ModerationState) IsBanned(username string) bool {
	_, ok := m.Banned[username]
	return ok
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// ApplyChatState reflects the global switch and self-mute into the composer.
// Self-mute wins over the global switch.
func (s *Session) ApplyChatState(enabled bool) {
	s.ChatEnabled = enabled

	muted := s.Moderation.IsMuted(s.Identity.Username)
	switch {
	case muted:
		s.Composer.Disabled = true
		s.Composer.Placeholder = PlaceholderMuted
	case !enabled:
		s.Composer.Disabled = true
		s.Composer.Placeholder = PlaceholderDisabled
	default:
		s.Composer.Disabled = false
		s.Composer.Placeholder = PlaceholderNormal
	}

	if s.Composer.HasToggle {
		s.Composer.ToggleChecked = enabled
	}
}
