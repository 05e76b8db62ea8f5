package schema

// EchoMarker prefixes the echoed prompt line ("$ about") appended before command output.
const EchoMarker = "\x1a"

// ErrorMarker prefixes localized error lines (unknown command, handler failure).
const ErrorMarker = "\x1f"

// HelpMarker prefixes help listing lines ("name  description").
const HelpMarker = "\x16"

// StripMarker removes a leading line marker, returning the marker and the rest.
func StripMarker(line string) (string, string) {
	if line == "" {
		return "", ""
	}
	switch line[:1] {
	case EchoMarker, ErrorMarker, HelpMarker:
		return line[:1], line[1:]
	}
	return "", line
}
