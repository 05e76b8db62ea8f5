package markup

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"pkt.systems/termfolio/schema"
)

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("strong", "em", "code")
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("span")
	p.AllowStandardURLs()
	p.AllowURLSchemes("http", "https", "mailto")
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// HTML renders a line as sanitized HTML. Line markers select a wrapping span class.
func HTML(line string) string {
	marker, line := schema.StripMarker(line)
	class := ""
	switch marker {
	case schema.EchoMarker:
		class = "echo"
	case schema.ErrorMarker:
		class = "error"
	case schema.HelpMarker:
		class = "help"
	}
	var b strings.Builder
	if class != "" {
		b.WriteString(`<span class="` + class + `">`)
	}
	for _, span := range ParseInline(StripControl(line)) {
		text := html.EscapeString(span.Text)
		if span.Code {
			text = "<code>" + text + "</code>"
		}
		if span.Italic {
			text = "<em>" + text + "</em>"
		}
		if span.Bold {
			text = "<strong>" + text + "</strong>"
		}
		if span.Link != "" {
			text = `<a href="` + html.EscapeString(span.Link) + `">` + text + "</a>"
		}
		b.WriteString(text)
	}
	if class != "" {
		b.WriteString("</span>")
	}
	return policy.Sanitize(b.String())
}
