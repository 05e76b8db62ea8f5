package sshserver

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"pkt.systems/termfolio/internal/markup"
	"pkt.systems/termfolio/schema"
)

type lineKind int

const (
	lineNormal lineKind = iota
	lineEcho
	lineError
	lineHelp
)

type lineInfo struct {
	text string
	kind lineKind
}

func classifyLine(raw string) lineInfo {
	marker, text := schema.StripMarker(raw)
	switch marker {
	case schema.EchoMarker:
		return lineInfo{text: text, kind: lineEcho}
	case schema.ErrorMarker:
		return lineInfo{text: text, kind: lineError}
	case schema.HelpMarker:
		return lineInfo{text: text, kind: lineHelp}
	}
	return lineInfo{text: text, kind: lineNormal}
}

// renderLines turns one output line into terminal rows no wider than width.
func renderLines(raw string, width int, theme tuiTheme, prompt string) []string {
	if width <= 0 {
		return []string{""}
	}
	info := classifyLine(raw)
	switch info.kind {
	case lineEcho:
		return renderMarkupLines(markup.Escape(prompt)+info.text, width, markupStyle{
			baseFG: &theme.EchoFG,
			boldFG: &theme.BoldFG,
			codeFG: &theme.CodeFG,
			linkFG: &theme.LinkFG,
			metaFG: &theme.MetaFG,
		})
	case lineError:
		return renderMarkupLines(info.text, width, markupStyle{
			baseBold: true,
			baseFG:   &theme.ErrorFG,
			codeFG:   &theme.CodeFG,
			linkFG:   &theme.LinkFG,
			metaFG:   &theme.MetaFG,
		})
	case lineHelp:
		return renderMarkupLines(info.text, width, markupStyle{
			baseFG: &theme.TextFG,
			boldFG: &theme.HelpFG,
			codeFG: &theme.CodeFG,
			linkFG: &theme.LinkFG,
			metaFG: &theme.MetaFG,
		})
	default:
		return renderMarkupLines(info.text, width, markupStyle{
			baseFG: &theme.TextFG,
			boldFG: &theme.BoldFG,
			codeFG: &theme.CodeFG,
			linkFG: &theme.LinkFG,
			metaFG: &theme.MetaFG,
		})
	}
}

// renderLiveLines draws the partially revealed line. It is already plain text.
func renderLiveLines(text string, width int, theme tuiTheme) []string {
	return wrapStyledLines(text, width, ansiFgRGB(theme.TextFG))
}

type markupStyle struct {
	baseItalic bool
	baseBold   bool
	baseFG     *rgb
	boldFG     *rgb
	codeFG     *rgb
	linkFG     *rgb
	metaFG     *rgb
}

type styledSpan struct {
	text  string
	style string
}

func (s markupStyle) base() string {
	out := ""
	if s.baseItalic {
		out += ansiItalic
	}
	if s.baseBold {
		out += ansiBold
	}
	if s.baseFG != nil {
		out += ansiFgRGB(*s.baseFG)
	}
	return out
}

// styleSpans maps parsed markup to ANSI styled text. Links show their target after
// the text unless the text already is the target.
func (s markupStyle) styleSpans(spans []markup.Span) []styledSpan {
	base := s.base()
	out := make([]styledSpan, 0, len(spans))
	for _, span := range spans {
		if span.Text == "" {
			continue
		}
		style := base
		if span.Code && s.codeFG != nil {
			style += ansiFgRGB(*s.codeFG)
		}
		if span.Bold {
			style += ansiBold
			if s.boldFG != nil {
				style += ansiFgRGB(*s.boldFG)
			}
		}
		if span.Italic {
			style += ansiItalic
		}
		if span.Link != "" {
			style += ansiUnderline
			if s.linkFG != nil {
				style += ansiFgRGB(*s.linkFG)
			}
		}
		out = append(out, styledSpan{text: span.Text, style: style})
		if span.Link != "" && span.Link != span.Text {
			meta := base + ansiDim
			if s.metaFG != nil {
				meta += ansiFgRGB(*s.metaFG)
			}
			out = append(out, styledSpan{text: " <" + span.Link + ">", style: meta})
		}
	}
	return out
}

func renderMarkupLines(text string, width int, style markupStyle) []string {
	if width <= 0 {
		return []string{""}
	}
	spans := style.styleSpans(markup.ParseInline(sanitizeOutputLine(text)))
	if len(spans) == 0 {
		return []string{""}
	}

	lines := make([]string, 0, 4)
	var b strings.Builder
	visible := 0
	currentStyle := ""
	suppressLeadingSpace := false

	applyStyle := func(styleCode string) {
		if styleCode == currentStyle && b.Len() > 0 {
			return
		}
		if styleCode == "" && b.Len() == 0 {
			currentStyle = ""
			return
		}
		b.WriteString(ansiReset)
		b.WriteString(styleCode)
		currentStyle = styleCode
	}

	flushLine := func(wrapped bool) {
		if b.Len() == 0 {
			return
		}
		line := trimANSIToWidth(b.String(), width)
		lines = append(lines, line+ansiReset)
		b.Reset()
		visible = 0
		currentStyle = ""
		suppressLeadingSpace = wrapped
	}

	for _, span := range spans {
		for _, token := range tokenizeText(span.text) {
			tokenLen := utf8.RuneCountInString(token.text)
			if token.space {
				if visible == 0 && suppressLeadingSpace {
					continue
				}
				if visible+tokenLen > width {
					flushLine(true)
					continue
				}
				applyStyle(span.style)
				b.WriteString(token.text)
				visible += tokenLen
				continue
			}
			if tokenLen > width {
				if visible > 0 {
					flushLine(true)
				}
				runes := []rune(token.text)
				for start := 0; start < len(runes); start += width {
					end := min(start+width, len(runes))
					applyStyle(span.style)
					b.WriteString(string(runes[start:end]))
					visible += end - start
					if visible >= width {
						flushLine(true)
					}
				}
				continue
			}
			if visible+tokenLen > width && visible > 0 {
				flushLine(true)
			}
			applyStyle(span.style)
			b.WriteString(token.text)
			visible += tokenLen
			suppressLeadingSpace = false
		}
	}
	flushLine(false)
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

type textToken struct {
	text  string
	space bool
}

// tokenizeText splits text into words and runs of spaces. Space runs keep their
// length so aligned output (QR codes, help columns) survives.
func tokenizeText(text string) []textToken {
	if text == "" {
		return nil
	}
	var tokens []textToken
	var buf strings.Builder
	inSpace := false
	flush := func() {
		if buf.Len() == 0 {
			return
		}
		tokens = append(tokens, textToken{text: buf.String(), space: inSpace})
		buf.Reset()
	}
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !inSpace {
				flush()
				inSpace = true
			}
			buf.WriteRune(' ')
			continue
		}
		if inSpace {
			flush()
			inSpace = false
		}
		buf.WriteRune(r)
	}
	flush()
	return tokens
}

func wrapPlainLines(text string, width int) []string {
	if width <= 0 {
		return []string{""}
	}
	sanitized := sanitizeOutputLine(text)
	if sanitized == "" {
		return []string{""}
	}
	lines := make([]string, 0, 4)
	var b strings.Builder
	visible := 0
	suppressLeadingSpace := false
	flush := func(wrapped bool) {
		if b.Len() == 0 {
			return
		}
		lines = append(lines, trimToWidth(b.String(), width))
		b.Reset()
		visible = 0
		suppressLeadingSpace = wrapped
	}
	for _, token := range tokenizeText(sanitized) {
		tokenLen := utf8.RuneCountInString(token.text)
		if token.space {
			if visible == 0 && suppressLeadingSpace {
				continue
			}
			if visible+tokenLen > width {
				flush(true)
				continue
			}
			b.WriteString(token.text)
			visible += tokenLen
			continue
		}
		if tokenLen > width {
			if visible > 0 {
				flush(true)
			}
			runes := []rune(token.text)
			for start := 0; start < len(runes); start += width {
				end := min(start+width, len(runes))
				b.WriteString(string(runes[start:end]))
				visible += end - start
				if visible >= width {
					flush(true)
				}
			}
			continue
		}
		if visible+tokenLen > width && visible > 0 {
			flush(true)
		}
		b.WriteString(token.text)
		visible += tokenLen
		suppressLeadingSpace = false
	}
	flush(false)
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

func wrapStyledLines(text string, width int, style string) []string {
	lines := wrapPlainLines(text, width)
	styled := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			styled = append(styled, line)
			continue
		}
		styled = append(styled, style+line+ansiReset)
	}
	return styled
}

// renderTitleBar draws the top bar: the title on the left, status on the right.
func renderTitleBar(title, status string, width int, theme tuiTheme) string {
	if width <= 0 {
		return ""
	}
	barStyle := ansiBgRGB(theme.BarBG) + ansiFgRGB(theme.BarFG)
	left := " " + sanitizeOutputLine(title) + " "
	right := " " + sanitizeOutputLine(status) + " "
	leftWidth := utf8.RuneCountInString(left)
	rightWidth := utf8.RuneCountInString(right)
	if leftWidth+rightWidth > width {
		right = ""
		rightWidth = 0
	}
	var b strings.Builder
	b.WriteString(barStyle)
	b.WriteString(ansiBold + ansiFgRGB(theme.BarAccentFG))
	b.WriteString(trimToWidth(left, width))
	b.WriteString(ansiReset + barStyle)
	if pad := width - leftWidth - rightWidth; pad > 0 {
		b.WriteString(strings.Repeat(" ", pad))
	}
	b.WriteString(right)
	return trimANSIToWidth(b.String(), width) + ansiReset
}

func sanitizeOutputLine(text string) string {
	return markup.StripControl(text)
}

func visibleWidth(text string) int {
	width := 0
	for i := 0; i < len(text); {
		if text[i] == 0x1b {
			i = markup.SkipEscape(text, i+1)
			continue
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		if size == 0 {
			break
		}
		i += size
		width++
	}
	return width
}

func trimANSIToWidth(text string, width int) string {
	if width <= 0 {
		return ""
	}
	var b strings.Builder
	visible := 0
	for i := 0; i < len(text); {
		if text[i] == 0x1b {
			start := i
			i = markup.SkipEscape(text, i+1)
			b.WriteString(text[start:i])
			continue
		}
		if visible >= width {
			break
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		if size == 0 {
			break
		}
		b.WriteRune(r)
		i += size
		visible++
	}
	return b.String()
}

func trimToWidth(value string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= width {
		return value
	}
	return string(runes[:width])
}
