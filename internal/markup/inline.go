// Package markup parses the inline markup command output may carry (**bold**,
// *italic*, `code` and [text](url)) and renders it as plain text or sanitized HTML.
// Terminal hosts style the parsed spans themselves.
package markup

import "strings"

// Span represents a styled slice of text.
type Span struct {
	Text   string
	Bold   bool
	Italic bool
	Code   bool
	Link   string
}

// ParseInline parses a line of inline markup into spans. Unclosed markers are kept
// literally; a backslash escapes the next byte.
func ParseInline(input string) []Span {
	if input == "" {
		return nil
	}
	var spans []Span
	var buf strings.Builder
	bold := false
	italic := false
	code := false

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		spans = append(spans, Span{
			Text:   buf.String(),
			Bold:   bold,
			Italic: italic,
			Code:   code,
		})
		buf.Reset()
	}

	for i := 0; i < len(input); {
		ch := input[i]
		if ch == '\\' && i+1 < len(input) {
			buf.WriteByte(input[i+1])
			i += 2
			continue
		}
		if ch == '`' {
			if code {
				flush()
				code = false
				i++
				continue
			}
			if hasClosing(input[i+1:], "`") {
				flush()
				code = true
				i++
				continue
			}
		}
		if !code && ch == '[' {
			if text, url, n, ok := parseLink(input[i:]); ok {
				flush()
				spans = append(spans, Span{Text: text, Bold: bold, Italic: italic, Link: url})
				i += n
				continue
			}
		}
		if !code && ch == '*' {
			if strings.HasPrefix(input[i:], "**") {
				if bold {
					flush()
					bold = false
					i += 2
					continue
				}
				if hasClosing(input[i+2:], "**") {
					flush()
					bold = true
					i += 2
					continue
				}
				buf.WriteString("**")
				i += 2
				continue
			}
			if italic {
				flush()
				italic = false
				i++
				continue
			}
			if hasClosing(input[i+1:], "*") {
				flush()
				italic = true
				i++
				continue
			}
		}
		buf.WriteByte(ch)
		i++
	}
	flush()
	return spans
}

// parseLink matches "[text](url)" at the start of s.
func parseLink(s string) (text, url string, n int, ok bool) {
	closeText := strings.IndexByte(s, ']')
	if closeText <= 1 || closeText+1 >= len(s) || s[closeText+1] != '(' {
		return "", "", 0, false
	}
	rest := s[closeText+2:]
	closeURL := strings.IndexByte(rest, ')')
	if closeURL <= 0 {
		return "", "", 0, false
	}
	text = s[1:closeText]
	url = strings.TrimSpace(rest[:closeURL])
	if url == "" || strings.ContainsAny(url, " \t") || strings.ContainsAny(text, "[") {
		return "", "", 0, false
	}
	return text, url, closeText + 2 + closeURL + 1, true
}

func hasClosing(remaining, marker string) bool {
	if remaining == "" || marker == "" {
		return false
	}
	return strings.Contains(remaining, marker)
}

// Plain returns the visible text of a line: control characters stripped, markup
// removed, links shown as their text.
func Plain(line string) string {
	spans := ParseInline(StripControl(line))
	if len(spans) == 0 {
		return ""
	}
	var b strings.Builder
	for _, span := range spans {
		b.WriteString(span.Text)
	}
	return b.String()
}

var escaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
)

// Escape quotes markup characters so text renders literally.
func Escape(text string) string {
	return escaper.Replace(text)
}
