package command

import (
	"strings"
)

// Command represents a parsed shell input line.
type Command struct {
	Name string
	Args []string
	Raw  string
}

// Parse splits a line on runs of whitespace. The first token, lower-cased, is the
// command name and the rest are its arguments. There is no quoting or escaping.
func Parse(input string) Command {
	raw := strings.TrimSpace(input)
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return Command{Raw: raw}
	}
	args := []string{}
	if len(fields) > 1 {
		args = fields[1:]
	}
	return Command{
		Name: strings.ToLower(fields[0]),
		Args: args,
		Raw:  raw,
	}
}

// Remainder returns the raw text after the command name, with inner spacing preserved.
func (c Command) Remainder() string {
	i := 0
	for i < len(c.Raw) && !isSpace(c.Raw[i]) {
		i++
	}
	return strings.TrimSpace(c.Raw[i:])
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
