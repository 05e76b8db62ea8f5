package httpapi

import (
	"sync"
	"time"

	"pkt.systems/termfolio/internal/audio"
	"pkt.systems/termfolio/internal/markup"
	"pkt.systems/termfolio/internal/shell"
	"pkt.systems/termfolio/schema"
)

// streamDisplay is the widget surface of a browser session. It keeps enough state
// to build a snapshot and publishes every change to the hub. Widget callbacks arrive
// with the widget lock held; nothing here calls back into the widget.
type streamDisplay struct {
	id       schema.SessionID
	hub      *Hub
	prompt   string
	maxLines int

	mu    sync.Mutex
	lines []LinePayload
	live  string
	theme schema.ThemeName
	input InputPayload
}

func newStreamDisplay(id schema.SessionID, hub *Hub, prompt string, maxLines int) *streamDisplay {
	if maxLines <= 0 {
		maxLines = defaultUIMaxBufferLines
	}
	return &streamDisplay{
		id:       id,
		hub:      hub,
		prompt:   prompt,
		maxLines: maxLines,
		theme:    schema.DefaultTheme,
	}
}

// renderLine converts a raw output line to sanitized HTML. Echo lines get the prompt.
func (d *streamDisplay) renderLine(raw string) LinePayload {
	marker, text := schema.StripMarker(raw)
	if marker == schema.EchoMarker {
		raw = marker + markup.Escape(d.prompt) + text
	}
	return LinePayload{HTML: markup.HTML(raw), Kind: lineKind(marker)}
}

func lineKind(marker string) string {
	switch marker {
	case schema.EchoMarker:
		return "echo"
	case schema.ErrorMarker:
		return "error"
	case schema.HelpMarker:
		return "help"
	}
	return ""
}

func (d *streamDisplay) AppendLine(raw string) {
	line := d.renderLine(raw)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines = append(d.lines, line)
	if over := len(d.lines) - d.maxLines; over > 0 {
		d.lines = append([]LinePayload(nil), d.lines[over:]...)
	}
	d.hub.Publish(d.id, StreamEvent{Type: EventLine, HTML: line.HTML, Kind: line.Kind})
}

func (d *streamDisplay) ClearAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines = nil
	d.live = ""
	d.hub.Publish(d.id, StreamEvent{Type: EventClear})
}

func (d *streamDisplay) ScrollToBottom(force bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hub.Notify(d.id, StreamEvent{Type: EventScroll, Force: force})
}

func (d *streamDisplay) SetLiveLine(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.live == text {
		return
	}
	d.live = text
	d.hub.Notify(d.id, StreamEvent{Type: EventLive, Text: text})
}

func (d *streamDisplay) ApplyTheme(name schema.ThemeName) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.theme = name
	d.hub.Publish(d.id, StreamEvent{Type: EventTheme, Theme: name})
}

func (d *streamDisplay) ShowInput(state shell.InputState) {
	payload := inputPayload(state)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.input = payload
	d.hub.Notify(d.id, StreamEvent{Type: EventInput, Input: &payload})
}

func inputPayload(state shell.InputState) InputPayload {
	payload := InputPayload{
		Buffer:      state.Buffer,
		Cursor:      state.Cursor,
		Highlighted: state.Completion.Highlighted,
		Completing:  state.Completion.Visible,
		Busy:        state.Busy,
	}
	if state.Completion.Visible {
		payload.Candidates = append([]string(nil), state.Completion.Candidates...)
	}
	return payload
}

func (d *streamDisplay) snapshotLocked(lang schema.Language) *SnapshotPayload {
	return &SnapshotPayload{
		Lines:    append([]LinePayload{}, d.lines...),
		Live:     d.live,
		Theme:    d.theme,
		Input:    d.input,
		Prompt:   d.prompt,
		Language: lang,
	}
}

// attach subscribes a stream. A client that resumes within the replay window gets
// the missed events followed by the current live line and prompt; anyone else gets
// a snapshot. Both happen under the display lock so no event is lost or doubled.
func (d *streamDisplay) attach(lastID uint64, lang schema.Language) ([]StreamEvent, <-chan StreamEvent, func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := time.Now()
	var initial []StreamEvent
	if lastID > 0 {
		if replay, ok := d.hub.Replay(d.id, lastID); ok {
			input := d.input
			initial = append(replay,
				StreamEvent{Type: EventLive, Text: d.live, Timestamp: now},
				StreamEvent{Type: EventInput, Input: &input, Timestamp: now},
			)
		}
	}
	if initial == nil {
		// The snapshot carries the current seq so a later resume replays only what
		// came after it.
		initial = []StreamEvent{{Seq: d.hub.Seq(d.id), Type: EventSnapshot, Snapshot: d.snapshotLocked(lang), Timestamp: now}}
	}
	ch, unsub := d.hub.Subscribe(d.id)
	return initial, ch, unsub
}

// toneSink forwards voices to the browser, which synthesizes them with Web Audio.
type toneSink struct {
	id  schema.SessionID
	hub *Hub
}

func (s toneSink) Start(v audio.Voice) {
	s.hub.Notify(s.id, StreamEvent{Type: EventTone, Tone: &TonePayload{
		ID:         v.ID,
		Wave:       string(v.Wave),
		FreqStart:  v.FreqStart,
		FreqEnd:    v.FreqEnd,
		Gain:       v.Gain,
		DelayMS:    v.Delay.Milliseconds(),
		DurationMS: v.Duration.Milliseconds(),
	}})
}

func (s toneSink) Stop(id uint64) {
	s.hub.Notify(s.id, StreamEvent{Type: EventToneStop, ToneID: id})
}
