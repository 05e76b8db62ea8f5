package input

import "strings"

// DefaultHistoryMax bounds the input history.
const DefaultHistoryMax = 200

// History is the submitted-command list with a browse cursor. A cursor of -1 means
// not browsing.
type History struct {
	entries []string
	max     int
	cursor  int
}

// NewHistory returns an empty history holding at most max entries.
func NewHistory(max int) *History {
	if max <= 0 {
		max = DefaultHistoryMax
	}
	return &History{max: max, cursor: -1}
}

// Append records entry unless it is blank or repeats the previous entry. Browsing
// is reset either way.
func (h *History) Append(entry string) bool {
	h.cursor = -1
	if strings.TrimSpace(entry) == "" {
		return false
	}
	if len(h.entries) > 0 && h.entries[len(h.entries)-1] == entry {
		return false
	}
	h.entries = append(h.entries, entry)
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
	return true
}

// Entries returns a copy, oldest first.
func (h *History) Entries() []string {
	return append([]string(nil), h.entries...)
}

// Cursor returns the browse position, -1 when not browsing.
func (h *History) Cursor() int {
	return h.cursor
}

// Reset stops browsing.
func (h *History) Reset() {
	h.cursor = -1
}

// Prev moves to the previous (older) entry. It reports false when history is empty.
func (h *History) Prev() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	switch {
	case h.cursor == -1:
		h.cursor = len(h.entries) - 1
	case h.cursor > 0:
		h.cursor--
	}
	return h.entries[h.cursor], true
}

// Next moves to the next (newer) entry. Past the newest entry browsing stops and
// the empty string is returned. It reports false when not browsing.
func (h *History) Next() (string, bool) {
	if h.cursor == -1 {
		return "", false
	}
	if h.cursor < len(h.entries)-1 {
		h.cursor++
		return h.entries[h.cursor], true
	}
	h.cursor = -1
	return "", true
}
