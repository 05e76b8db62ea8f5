package httpapi

import (
	"context"
	"sync"
	"time"

	"pkt.systems/termfolio/internal/logx"
	"pkt.systems/termfolio/schema"
)

// Stream event types.
const (
	EventSnapshot = "snapshot"
	EventLine     = "line"
	EventClear    = "clear"
	EventScroll   = "scroll"
	EventLive     = "live"
	EventTheme    = "theme"
	EventInput    = "input"
	EventTone     = "tone"
	EventToneStop = "tone_stop"
)

// StreamEvent is sent to SSE clients.
type StreamEvent struct {
	Seq       uint64           `json:"seq"`
	Type      string           `json:"type"`
	HTML      string           `json:"html,omitempty"`
	Kind      string           `json:"kind,omitempty"`
	Text      string           `json:"text,omitempty"`
	Force     bool             `json:"force,omitempty"`
	Theme     schema.ThemeName `json:"theme,omitempty"`
	Input     *InputPayload    `json:"input,omitempty"`
	Tone      *TonePayload     `json:"tone,omitempty"`
	ToneID    uint64           `json:"tone_id,omitempty"`
	Snapshot  *SnapshotPayload `json:"snapshot,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// LinePayload is one rendered display line.
type LinePayload struct {
	HTML string `json:"html"`
	Kind string `json:"kind,omitempty"`
}

// InputPayload mirrors the prompt state.
type InputPayload struct {
	Buffer      string   `json:"buffer"`
	Cursor      int      `json:"cursor"`
	Candidates  []string `json:"candidates,omitempty"`
	Highlighted int      `json:"highlighted"`
	Completing  bool     `json:"completing"`
	Busy        bool     `json:"busy"`
}

// TonePayload describes a voice for the browser synthesizer.
type TonePayload struct {
	ID         uint64  `json:"id"`
	Wave       string  `json:"wave"`
	FreqStart  float64 `json:"freq_start"`
	FreqEnd    float64 `json:"freq_end"`
	Gain       float64 `json:"gain"`
	DelayMS    int64   `json:"delay_ms"`
	DurationMS int64   `json:"duration_ms"`
}

// SnapshotPayload seeds client state on connect.
type SnapshotPayload struct {
	Lines    []LinePayload    `json:"lines"`
	Live     string           `json:"live,omitempty"`
	Theme    schema.ThemeName `json:"theme"`
	Input    InputPayload     `json:"input"`
	Prompt   string           `json:"prompt"`
	Language schema.Language  `json:"language"`
}

// Hub broadcasts events per session. Durable events are kept for replay; ephemeral
// ones (live text, prompt state, tones) only reach current subscribers.
type Hub struct {
	mu          sync.Mutex
	sessions    map[schema.SessionID]*sessionHub
	historySize int
}

// NewHub constructs a hub with the given history size.
func NewHub(historySize int) *Hub {
	if historySize <= 0 {
		historySize = defaultReplayEvents
	}
	return &Hub{
		sessions:    make(map[schema.SessionID]*sessionHub),
		historySize: historySize,
	}
}

// Subscribe registers a subscriber for a session.
func (h *Hub) Subscribe(id schema.SessionID) (<-chan StreamEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sh := h.getOrCreateLocked(id)
	ch := make(chan StreamEvent, 256)
	sh.subs[ch] = struct{}{}
	log := logx.WithSession(logx.Ctx(context.Background()), id)
	log.Debug("hub subscribe", "subs", len(sh.subs), "history", len(sh.history))
	unsub := func() {
		h.mu.Lock()
		if _, ok := sh.subs[ch]; ok {
			delete(sh.subs, ch)
			close(ch)
		}
		remaining := len(sh.subs)
		h.mu.Unlock()
		log.Debug("hub unsubscribe", "subs", remaining)
	}
	return ch, unsub
}

// Subscribers reports how many streams watch a session.
func (h *Hub) Subscribers(id schema.SessionID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sh := h.sessions[id]; sh != nil {
		return len(sh.subs)
	}
	return 0
}

// Seq returns the last sequence number issued for a session.
func (h *Hub) Seq(id schema.SessionID) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sh := h.sessions[id]; sh != nil {
		return sh.seq
	}
	return 0
}

// Replay returns durable events after the provided seq. complete is false when
// history no longer reaches back that far.
func (h *Hub) Replay(id schema.SessionID, after uint64) (events []StreamEvent, complete bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sh := h.sessions[id]
	if sh == nil || after > sh.seq || after < sh.trimmed {
		return nil, false
	}
	events = make([]StreamEvent, 0, len(sh.history))
	for _, event := range sh.history {
		if event.Seq > after {
			events = append(events, event)
		}
	}
	logx.WithSession(logx.Ctx(context.Background()), id).Debug("hub replay", "after", after, "count", len(events))
	return events, true
}

// Drop closes every subscriber of a session and discards its history. Sequence
// numbers keep counting so stale Last-Event-IDs never replay into a new shell.
func (h *Hub) Drop(id schema.SessionID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sh := h.sessions[id]; sh != nil {
		sh.closeSubsLocked()
		sh.history = nil
		// Nothing up to and including the next event may be replayed.
		sh.trimmed = sh.seq + 1
	}
}

// Forget drops a session and removes it entirely.
func (h *Hub) Forget(id schema.SessionID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sh := h.sessions[id]; sh != nil {
		sh.closeSubsLocked()
		delete(h.sessions, id)
	}
}

// Publish sends a durable event.
func (h *Hub) Publish(id schema.SessionID, event StreamEvent) {
	h.publish(id, event, true)
}

// Notify sends an ephemeral event.
func (h *Hub) Notify(id schema.SessionID, event StreamEvent) {
	h.publish(id, event, false)
}

func (h *Hub) publish(id schema.SessionID, event StreamEvent, durable bool) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	h.mu.Lock()
	sh := h.getOrCreateLocked(id)
	sh.seq++
	event.Seq = sh.seq
	if durable {
		sh.history = append(sh.history, event)
		if over := len(sh.history) - h.historySize; over > 0 {
			sh.trimmed = sh.history[over-1].Seq
			sh.history = append([]StreamEvent(nil), sh.history[over:]...)
		}
	}
	dropped := 0
	for sub := range sh.subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	h.mu.Unlock()

	if dropped > 0 {
		logx.WithSession(logx.Ctx(context.Background()), id).Warn("hub event dropped", "type", event.Type, "dropped", dropped)
	}
}

func (h *Hub) getOrCreateLocked(id schema.SessionID) *sessionHub {
	sh := h.sessions[id]
	if sh == nil {
		sh = &sessionHub{
			subs: make(map[chan StreamEvent]struct{}),
		}
		h.sessions[id] = sh
	}
	return sh
}

type sessionHub struct {
	seq     uint64
	trimmed uint64
	history []StreamEvent
	subs    map[chan StreamEvent]struct{}
}

func (sh *sessionHub) closeSubsLocked() {
	for ch := range sh.subs {
		delete(sh.subs, ch)
		close(ch)
	}
}
