package sshserver

import (
	"strings"
	"testing"

	"pkt.systems/termfolio/schema"
)

func plainLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, sanitizeOutputLine(line))
	}
	return out
}

func TestClassifyLineMarkers(t *testing.T) {
	cases := map[string]lineKind{
		"plain":                    lineNormal,
		schema.EchoMarker + "help": lineEcho,
		schema.ErrorMarker + "bad": lineError,
		schema.HelpMarker + "x":    lineHelp,
		"":                         lineNormal,
	}
	for raw, want := range cases {
		if got := classifyLine(raw).kind; got != want {
			t.Fatalf("classify %q: expected %v, got %v", raw, want, got)
		}
	}
}

func TestRenderErrorLineStripsMarker(t *testing.T) {
	theme := themeForName("outrun")
	lines := renderLines(schema.ErrorMarker+"command not found: foo", 80, theme, DefaultPrompt)
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d", len(lines))
	}
	if strings.Contains(lines[0], schema.ErrorMarker) {
		t.Fatalf("error marker should be stripped: %q", lines[0])
	}
	if !strings.Contains(lines[0], ansiFgRGB(theme.ErrorFG)) {
		t.Fatalf("expected error color in %q", lines[0])
	}
	if got := sanitizeOutputLine(lines[0]); got != "command not found: foo" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestRenderEchoLineShowsPrompt(t *testing.T) {
	theme := themeForName("gruvbox")
	lines := renderLines(schema.EchoMarker+`cat \*`, 80, theme, "$ ")
	if got := sanitizeOutputLine(lines[0]); got != "$ cat *" {
		t.Fatalf("unexpected echo line %q", got)
	}
	if !strings.Contains(lines[0], ansiFgRGB(theme.EchoFG)) {
		t.Fatalf("expected echo color")
	}
}

func TestRenderMarkupStyles(t *testing.T) {
	theme := themeForName("tokyo-midnight")
	line := renderLines("**bold** and `code`", 80, theme, DefaultPrompt)[0]
	if !strings.Contains(line, ansiBold+ansiFgRGB(theme.BoldFG)) {
		t.Fatalf("expected bold span color in %q", line)
	}
	if !strings.Contains(line, ansiFgRGB(theme.CodeFG)) {
		t.Fatalf("expected code color in %q", line)
	}
	if got := sanitizeOutputLine(line); got != "bold and code" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestRenderLinkShowsTarget(t *testing.T) {
	theme := themeForName("outrun")
	line := renderLines("[site](https://example.com)", 80, theme, DefaultPrompt)[0]
	if got := sanitizeOutputLine(line); got != "site <https://example.com>" {
		t.Fatalf("unexpected link text %q", got)
	}
	if !strings.Contains(line, ansiUnderline) {
		t.Fatalf("expected underlined link")
	}
	same := renderLines("[https://example.com](https://example.com)", 80, theme, DefaultPrompt)[0]
	if got := sanitizeOutputLine(same); got != "https://example.com" {
		t.Fatalf("expected bare link without repeated target, got %q", got)
	}
}

func TestRenderLinesWrapWithinWidth(t *testing.T) {
	theme := themeForName("outrun")
	lines := renderLines("contact, like **walls** and "+strings.Repeat("a", 25), 10, theme, DefaultPrompt)
	if len(lines) < 3 {
		t.Fatalf("expected wrapped lines, got %d", len(lines))
	}
	for i, line := range lines {
		if got := visibleWidth(line); got > 10 {
			t.Fatalf("line %d width %d exceeds limit", i, got)
		}
	}
	joined := strings.Join(plainLines(lines), "\n")
	if strings.Contains(joined, "lik\ne") {
		t.Fatalf("expected word wrap on spaces, got %q", joined)
	}
}

func TestRenderKeepsInnerSpaceRuns(t *testing.T) {
	theme := themeForName("outrun")
	line := renderLines("█  █    █", 80, theme, DefaultPrompt)[0]
	if got := sanitizeOutputLine(line); got != "█  █    █" {
		t.Fatalf("expected spacing preserved, got %q", got)
	}
}

func TestRenderEmptyLine(t *testing.T) {
	theme := themeForName("outrun")
	lines := renderLines("", 80, theme, DefaultPrompt)
	if len(lines) != 1 || lines[0] != "" {
		t.Fatalf("expected one blank row, got %q", lines)
	}
}

func TestRenderLiveLineIsLiteral(t *testing.T) {
	theme := themeForName("outrun")
	lines := renderLiveLines("a *b", 80, theme)
	if got := sanitizeOutputLine(lines[0]); got != "a *b" {
		t.Fatalf("expected literal live text, got %q", got)
	}
}

func TestRenderTitleBarFullWidth(t *testing.T) {
	theme := themeForName(schema.HackTheme)
	line := renderTitleBar("termfolio", "hack", 40, theme)
	if got := visibleWidth(line); got != 40 {
		t.Fatalf("expected width 40, got %d", got)
	}
	if !strings.Contains(line, ansiBgRGB(theme.BarBG)) {
		t.Fatalf("expected bar background")
	}
	if !strings.HasSuffix(line, ansiReset) {
		t.Fatalf("expected bar to reset styles")
	}
	narrow := renderTitleBar("termfolio", "tokyo-midnight", 12, theme)
	if strings.Contains(sanitizeOutputLine(narrow), "tokyo") {
		t.Fatalf("expected status dropped when it does not fit: %q", narrow)
	}
}

func TestSanitizeOutputLineStripsAnsiAndControl(t *testing.T) {
	got := sanitizeOutputLine("\x1b[2Jhello\rworld\x1b[0m")
	if got != "helloworld" {
		t.Fatalf("unexpected sanitize result: %q", got)
	}
}

func TestUnknownThemeFallsBack(t *testing.T) {
	if themeForName("nope").Name != schema.DefaultTheme {
		t.Fatalf("expected default theme fallback")
	}
	if themeForName(schema.HackTheme).Name != schema.HackTheme {
		t.Fatalf("expected hack theme to be drawable")
	}
}
