package markup

import (
	"strings"
	"testing"

	"pkt.systems/termfolio/schema"
)

func TestHTMLFormatting(t *testing.T) {
	got := HTML("**bold** *it* `code`")
	for _, want := range []string{"<strong>bold</strong>", "<em>it</em>", "<code>code</code>"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in %q", want, got)
		}
	}
}

func TestHTMLEscapesRawTags(t *testing.T) {
	got := HTML(`<script>alert(1)</script><img src=x onerror=alert(1)>`)
	if strings.Contains(got, "<script") || strings.Contains(got, "<img") {
		t.Fatalf("raw html survived: %q", got)
	}
}

func TestHTMLLinks(t *testing.T) {
	got := HTML("[home](https://example.com)")
	if !strings.Contains(got, `href="https://example.com"`) || !strings.Contains(got, ">home</a>") {
		t.Fatalf("expected anchor, got %q", got)
	}
	if !strings.Contains(got, "nofollow") {
		t.Fatalf("expected nofollow, got %q", got)
	}
}

func TestHTMLDropsScriptURLs(t *testing.T) {
	got := HTML("[x](javascript:alert)")
	if strings.Contains(got, "javascript") {
		t.Fatalf("script url survived: %q", got)
	}
	if !strings.Contains(got, "x") {
		t.Fatalf("expected link text kept, got %q", got)
	}
}

func TestHTMLMarkerClasses(t *testing.T) {
	cases := map[string]string{
		schema.EchoMarker + "$ about":        `class="echo"`,
		schema.ErrorMarker + "not found":     `class="error"`,
		schema.HelpMarker + "**help** lists": `class="help"`,
	}
	for line, want := range cases {
		if got := HTML(line); !strings.Contains(got, want) {
			t.Fatalf("HTML(%q) = %q, want %s", line, got, want)
		}
	}
}
