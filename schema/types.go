package schema

import "time"

// SessionID identifies a shell session (one SSH connection, one browser session or the
// local terminal).
type SessionID string

// OwnerID identifies whose persisted preferences a session uses.
type OwnerID string

// ThemeName identifies a UI theme.
type ThemeName string

// Language is a BCP 47 base language code such as "en" or "es".
type Language string

// EffectMode is the presentation style used while a command's output plays back.
type EffectMode int

const (
	// ModeNormal is the baseline presentation.
	ModeNormal EffectMode = iota
	// ModeHack is the dramatic presentation with alarms, rumbles and a theme override.
	ModeHack
	// ModeUndertale is the musical presentation with slower, melodic pacing.
	ModeUndertale
)

// String returns the lower-case mode name.
func (m EffectMode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeHack:
		return "hack"
	case ModeUndertale:
		return "undertale"
	default:
		return "unknown"
	}
}

// CommandResult is what a command handler produces.
type CommandResult struct {
	Output      []string
	ClearScreen bool
}

// HistoryEntry is a command whose output finished playing. Entries are never mutated
// after they are appended.
type HistoryEntry struct {
	Command   string
	Output    []string
	Timestamp time.Time
}

// Clone returns a deep copy of the entry.
func (h HistoryEntry) Clone() HistoryEntry {
	out := h
	out.Output = append([]string(nil), h.Output...)
	return out
}
