package sshserver

import (
	"strings"
	"unicode/utf8"
)

// renderChoices draws the completion candidates as one bar. The window of visible
// candidates follows the highlighted one and windowStart carries it between frames.
func renderChoices(choices []string, highlighted int, width int, theme tuiTheme, windowStart int) (string, int) {
	if width <= 0 {
		width = 80
	}
	barStyle := ansiBgRGB(theme.ChoiceBG) + ansiFgRGB(theme.ChoiceFG)
	hiStyle := ansiBgRGB(theme.ChoiceHiBG) + ansiFgRGB(theme.ChoiceHiFG) + ansiBold
	indicatorStyle := barStyle + ansiBold

	labels := make([]string, 0, len(choices))
	widths := make([]int, 0, len(choices))
	total := 0
	for _, choice := range choices {
		label := " " + truncateName(choice, 16) + " "
		labels = append(labels, label)
		w := utf8.RuneCountInString(label)
		widths = append(widths, w)
		total += w
	}
	if highlighted < 0 || highlighted >= len(choices) {
		highlighted = 0
	}

	window := choiceWindow{start: 0, end: len(choices)}
	if total > width {
		window = windowFromStart(widths, windowStart, width)
		if highlighted < window.start {
			window = windowFromStart(widths, highlighted, width)
		} else if highlighted >= window.end {
			window = windowEndingAt(widths, highlighted, width)
		}
	}

	var b strings.Builder
	b.WriteString(barStyle)
	if window.leftHidden {
		b.WriteString(indicatorStyle + "<" + barStyle)
	}
	for i := window.start; i < window.end; i++ {
		if i == highlighted {
			b.WriteString(hiStyle + labels[i] + barStyle)
			continue
		}
		b.WriteString(labels[i])
	}
	line := b.String()
	limit := width
	if window.rightHidden {
		limit = width - 1
	}
	if visible := visibleWidth(line); visible > limit {
		line = trimANSIToWidth(line, limit)
	} else if visible < limit {
		line += strings.Repeat(" ", limit-visible)
	}
	if window.rightHidden {
		line += indicatorStyle + ">" + barStyle
	}
	return trimANSIToWidth(line, width) + ansiReset, window.start
}

type choiceWindow struct {
	start       int
	end         int
	leftHidden  bool
	rightHidden bool
}

func windowFromStart(widths []int, start int, width int) choiceWindow {
	n := len(widths)
	if n == 0 {
		return choiceWindow{}
	}
	start = clampIndex(start, n)
	w := choiceWindow{start: start, leftHidden: start > 0}
	// Indicators take a column each; settle after they appear.
	for i := 0; i < 3; i++ {
		w.end = fitForward(widths, start, available(width, w))
		w.rightHidden = w.end < n
	}
	return w
}

func windowEndingAt(widths []int, last int, width int) choiceWindow {
	n := len(widths)
	if n == 0 {
		return choiceWindow{}
	}
	end := clampIndex(last, n) + 1
	w := choiceWindow{end: end, rightHidden: end < n}
	for i := 0; i < 3; i++ {
		w.start = fitBackward(widths, end, available(width, w))
		w.leftHidden = w.start > 0
	}
	return w
}

func available(width int, w choiceWindow) int {
	if w.leftHidden {
		width--
	}
	if w.rightHidden {
		width--
	}
	if width < 1 {
		width = 1
	}
	return width
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func fitForward(widths []int, start int, avail int) int {
	n := len(widths)
	if start >= n {
		return n
	}
	sum := 0
	end := start
	for i := start; i < n; i++ {
		if sum+widths[i] > avail {
			break
		}
		sum += widths[i]
		end = i + 1
	}
	if end == start {
		end = start + 1
	}
	return end
}

func fitBackward(widths []int, end int, avail int) int {
	if end < 1 {
		return 0
	}
	sum := 0
	start := end
	for i := end - 1; i >= 0; i-- {
		if sum+widths[i] > avail {
			break
		}
		sum += widths[i]
		start = i
	}
	if start == end {
		start = end - 1
	}
	return start
}

func truncateName(name string, limit int) string {
	runes := []rune(name)
	if limit <= 0 || len(runes) <= limit {
		return name
	}
	if limit <= 1 {
		return string(runes[:limit])
	}
	return string(runes[:limit-1]) + "…"
}
