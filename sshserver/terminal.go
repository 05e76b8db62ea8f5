package sshserver

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/termfolio/internal/shell"
	"pkt.systems/termfolio/schema"
)

// Size is a terminal size in cells.
type Size struct {
	Width  int
	Height int
}

// DefaultScrollback bounds the output lines a terminal keeps for scrolling.
const DefaultScrollback = 2000

// DefaultPrompt is shown before the input buffer.
const DefaultPrompt = "$ "

var spinnerFrames = []rune{'|', '/', '-', '\\'}

var spinnerInterval = 120 * time.Millisecond

// Terminal draws a shell widget on an ANSI terminal. It implements the widget's
// display interfaces; those methods only record state and request a redraw, and the
// Run loop does the drawing.
type Terminal struct {
	out    *syncWriter
	screen *screen
	prompt string
	title  string

	mu          sync.Mutex
	width       int
	height      int
	lines       []string
	live        string
	themeName   schema.ThemeName
	input       shell.InputState
	scroll      int
	choiceStart int
	spinnerIdx  int
	scrollback  int

	redrawCh chan struct{}
}

// NewTerminal returns a terminal writing to out.
func NewTerminal(out io.Writer, prompt, title string) *Terminal {
	if prompt == "" {
		prompt = DefaultPrompt
	}
	if title == "" {
		title = "termfolio"
	}
	w := &syncWriter{w: out}
	return &Terminal{
		out:        w,
		screen:     newScreen(w),
		prompt:     prompt,
		title:      title,
		width:      80,
		height:     24,
		themeName:  schema.DefaultTheme,
		scrollback: DefaultScrollback,
		redrawCh:   make(chan struct{}, 1),
	}
}

// Writer returns the terminal's output, serialized with frame writes. Audio sinks
// that ring the bell write here.
func (t *Terminal) Writer() io.Writer {
	return t.out
}

// SetSize records the terminal size.
func (t *Terminal) SetSize(width, height int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if width > 0 {
		t.width = width
	}
	if height > 0 {
		t.height = height
	}
	t.requestRedraw()
}

// AppendLine adds a completed output line.
func (t *Terminal) AppendLine(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if over := len(t.lines) - t.scrollback; over > 0 {
		t.lines = append([]string(nil), t.lines[over:]...)
	}
	t.requestRedraw()
}

// ClearAll removes every output line.
func (t *Terminal) ClearAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = nil
	t.live = ""
	t.scroll = 0
	t.requestRedraw()
}

// ScrollToBottom jumps to the newest output. Without force a reader scrolled up
// keeps their position.
func (t *Terminal) ScrollToBottom(force bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if force {
		t.scroll = 0
	}
	t.requestRedraw()
}

// SetLiveLine shows the partially revealed line.
func (t *Terminal) SetLiveLine(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.live = text
	t.requestRedraw()
}

// ApplyTheme switches the color theme.
func (t *Terminal) ApplyTheme(name schema.ThemeName) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.themeName = name
	t.requestRedraw()
}

// ShowInput records the prompt state.
func (t *Terminal) ShowInput(state shell.InputState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.input = state
	t.requestRedraw()
}

func (t *Terminal) requestRedraw() {
	select {
	case t.redrawCh <- struct{}{}:
	default:
	}
}

// Run drives w from the keys read from in until in ends, ctx is done or the user
// presses ctrl-d on an empty line.
func (t *Terminal) Run(ctx context.Context, w *shell.Widget, in io.Reader, resize <-chan Size) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := pslog.Ctx(ctx)
	t.screen.EnterAltScreen()
	defer t.screen.ExitAltScreen()

	w.Start()
	t.render(log)
	log.Info("terminal session start", "width", t.width, "height", t.height)

	keys := make(chan key, 16)
	go readKeys(in, keys)

	spinnerTicker := time.NewTicker(spinnerInterval)
	defer spinnerTicker.Stop()

	dirty := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case k, ok := <-keys:
			if !ok {
				log.Info("terminal session end", "reason", "input closed")
				return nil
			}
			if t.handleKey(w, k) {
				log.Info("terminal session end", "reason", "ctrl-d")
				return nil
			}
			dirty = true
		case size, ok := <-resize:
			if !ok {
				resize = nil
				break
			}
			t.SetSize(size.Width, size.Height)
			log.Debug("terminal resize", "width", size.Width, "height", size.Height)
		case <-spinnerTicker.C:
			t.mu.Lock()
			if t.input.Busy {
				t.spinnerIdx = (t.spinnerIdx + 1) % len(spinnerFrames)
				dirty = true
			}
			t.mu.Unlock()
		case <-t.redrawCh:
			dirty = true
		}
		if dirty {
			t.render(log)
			dirty = false
		}
	}
}

// handleKey maps a decoded key to a widget action. It reports whether the session
// should end.
func (t *Terminal) handleKey(w *shell.Widget, k key) bool {
	var action shell.Key
	switch k.kind {
	case keyCtrlD:
		t.mu.Lock()
		empty := t.input.Buffer == ""
		t.mu.Unlock()
		if empty {
			return true
		}
		action = shell.Key{Kind: shell.KeyDelete}
	case keyCtrlC:
		action = shell.Key{Kind: shell.KeyInterrupt}
	case keyCtrlL:
		action = shell.Key{Kind: shell.KeyClearScreen}
	case keyEnter, keyCtrlJ:
		t.scrollTo(0)
		action = shell.Key{Kind: shell.KeyEnter}
	case keyTab:
		action = shell.Key{Kind: shell.KeyTab}
	case keyShiftTab:
		t.mu.Lock()
		visible := t.input.Completion.Visible
		t.mu.Unlock()
		if !visible {
			return false
		}
		action = shell.Key{Kind: shell.KeyUp}
	case keyUp:
		action = shell.Key{Kind: shell.KeyUp}
	case keyDown:
		action = shell.Key{Kind: shell.KeyDown}
	case keyEscape:
		action = shell.Key{Kind: shell.KeyEscape}
	case keyBackspace:
		action = shell.Key{Kind: shell.KeyBackspace}
	case keyDelete:
		action = shell.Key{Kind: shell.KeyDelete}
	case keyLeft:
		action = shell.Key{Kind: shell.KeyLeft}
	case keyRight:
		action = shell.Key{Kind: shell.KeyRight}
	case keyHome, keyCtrlA:
		action = shell.Key{Kind: shell.KeyHome}
	case keyEnd, keyCtrlE:
		action = shell.Key{Kind: shell.KeyEnd}
	case keyAltB:
		action = shell.Key{Kind: shell.KeyWordLeft}
	case keyAltF:
		action = shell.Key{Kind: shell.KeyWordRight}
	case keyCtrlW:
		action = shell.Key{Kind: shell.KeyDeleteWord}
	case keyCtrlU:
		action = shell.Key{Kind: shell.KeyKillStart}
	case keyCtrlK:
		action = shell.Key{Kind: shell.KeyKillEnd}
	case keyPageUp:
		t.scrollBy(1)
		return false
	case keyPageDown:
		t.scrollBy(-1)
		return false
	case keyRune:
		action = shell.Key{Kind: shell.KeyRune, Rune: k.r}
	default:
		return false
	}
	w.HandleKey(action)
	return false
}

func (t *Terminal) scrollBy(pages int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	page := t.height - 4
	if page < 1 {
		page = 1
	}
	t.scroll += pages * page
	if t.scroll < 0 {
		t.scroll = 0
	}
	t.requestRedraw()
}

func (t *Terminal) scrollTo(offset int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scroll = offset
}

func (t *Terminal) render(log pslog.Logger) {
	t.mu.Lock()
	lines, row, col := t.frameLocked()
	t.mu.Unlock()
	if err := t.screen.Render(lines, row, col); err != nil {
		log.Warn("terminal render failed", "err", err)
	}
}

// frameLocked lays out the title bar, the output viewport, the completion bar and
// the input lines.
func (t *Terminal) frameLocked() ([]string, int, int) {
	width := t.width
	height := t.height
	theme := themeForName(t.themeName)
	frame := make([]string, 0, height)
	frame = append(frame, renderTitleBar(t.title, string(t.themeName), width, theme))

	prefix := t.promptPrefix()
	inputLines, cursorRow, cursorCol := renderInputLines(stylePromptPrefix(prefix, theme), t.input.Buffer, t.input.Cursor, width)

	var choiceLine string
	comp := t.input.Completion
	if comp.Visible && len(comp.Candidates) > 0 {
		choiceLine, t.choiceStart = renderChoices(comp.Candidates, comp.Highlighted, width, theme, t.choiceStart)
	} else {
		t.choiceStart = 0
	}

	viewHeight := height - 1 - len(inputLines)
	if choiceLine != "" {
		viewHeight--
	}
	frame = append(frame, t.viewportLocked(width, viewHeight, theme)...)
	if choiceLine != "" {
		frame = append(frame, choiceLine)
	}
	frame = append(frame, inputLines...)
	cursorRow = len(frame) - len(inputLines) + cursorRow
	return frame, cursorRow, cursorCol
}

func (t *Terminal) viewportLocked(width, height int, theme tuiTheme) []string {
	if height <= 0 {
		return nil
	}
	var flattened []string
	for _, raw := range t.lines {
		flattened = append(flattened, renderLines(raw, width, theme, t.prompt)...)
	}
	if t.live != "" {
		flattened = append(flattened, renderLiveLines(t.live, width, theme)...)
	}
	maxScroll := len(flattened) - height
	if maxScroll < 0 {
		maxScroll = 0
	}
	if t.scroll > maxScroll {
		t.scroll = maxScroll
	}
	end := len(flattened) - t.scroll
	start := end - height
	if start < 0 {
		start = 0
	}
	rendered := append([]string(nil), flattened[start:end]...)
	for len(rendered) < height {
		rendered = append(rendered, "")
	}
	return rendered
}

func (t *Terminal) promptPrefix() string {
	if t.input.Busy {
		return fmt.Sprintf("%c ", spinnerFrames[t.spinnerIdx])
	}
	return t.prompt
}

func stylePromptPrefix(prefix string, theme tuiTheme) string {
	trimmed := strings.TrimRight(prefix, " ")
	if trimmed == "" {
		return prefix
	}
	rest := prefix[len(trimmed):]
	for _, frame := range spinnerFrames {
		if trimmed == string(frame) {
			return ansiFgRGB(theme.SpinnerFG) + trimmed + ansiReset + rest
		}
	}
	return ansiBold + ansiFgRGB(theme.PromptFG) + trimmed + ansiReset + rest
}

func renderInputLines(prefix, input string, cursor, width int) ([]string, int, int) {
	inputRunes := []rune(input)
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(inputRunes) {
		cursor = len(inputRunes)
	}
	prefixWidth := visibleWidth(prefix)
	if width <= 0 {
		width = prefixWidth + len(inputRunes) + 1
	}
	prefixVisible := prefix
	if prefixWidth > width {
		prefixVisible = trimANSIToWidth(prefix, width)
		prefixWidth = visibleWidth(prefixVisible)
	}
	indent := strings.Repeat(" ", prefixWidth)
	available := width - prefixWidth
	if available < 1 {
		available = 1
	}

	lines := []string{}
	lineRunes := make([]rune, 0, available)
	row := 0
	col := 0
	cursorRow := 1
	cursorCol := prefixWidth + 1
	cursorSet := false

	flushLine := func() {
		lead := prefixVisible
		if row > 0 {
			lead = indent
		}
		lines = append(lines, lead+string(lineRunes))
		row++
		lineRunes = lineRunes[:0]
		col = 0
	}

	for i, r := range inputRunes {
		if col >= available {
			flushLine()
		}
		if !cursorSet && i == cursor {
			cursorRow = row + 1
			cursorCol = prefixWidth + col + 1
			cursorSet = true
		}
		lineRunes = append(lineRunes, r)
		col++
	}
	if !cursorSet {
		if col >= available {
			flushLine()
		}
		cursorRow = row + 1
		cursorCol = prefixWidth + col + 1
	}
	flushLine()
	if cursorCol > width {
		cursorCol = width
	}
	return lines, cursorRow, cursorCol
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
