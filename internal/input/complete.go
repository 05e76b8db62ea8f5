package input

import "strings"

// Completion is the autocomplete list for the current buffer.
type Completion struct {
	Candidates  []string
	Highlighted int
	Visible     bool
}

// Candidates returns the names that start with the buffer's command word, in names
// order. A buffer that already holds arguments, or is blank, has no candidates.
func Candidates(buffer string, names []string) []string {
	prefix := strings.ToLower(strings.TrimLeft(buffer, " \t"))
	if prefix == "" || strings.ContainsAny(prefix, " \t") {
		return nil
	}
	var out []string
	for _, name := range names {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out
}
