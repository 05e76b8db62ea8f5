package audio

import (
	"io"
	"sync"
	"time"

	"pkt.systems/termfolio/internal/clock"
)

// Sink produces sound for voices. Start and Stop must not block.
type Sink interface {
	Start(v Voice)
	Stop(id uint64)
}

// NullSink discards every voice. It stands in when the host has no audio.
type NullSink struct{}

func (NullSink) Start(Voice)  {}
func (NullSink) Stop(uint64) {}

// BellSink rings the terminal bell for alarm-class voices, at most once per interval.
type BellSink struct {
	w        io.Writer
	clock    clock.Clock
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

// DefaultBellInterval is the minimum time between two bells.
const DefaultBellInterval = 750 * time.Millisecond

// NewBellSink returns a bell sink writing to w.
func NewBellSink(w io.Writer, clk clock.Clock, interval time.Duration) *BellSink {
	if clk == nil {
		clk = clock.Real()
	}
	if interval <= 0 {
		interval = DefaultBellInterval
	}
	return &BellSink{w: w, clock: clk, interval: interval}
}

// Start rings the bell if v is an alarm and the throttle allows it.
func (s *BellSink) Start(v Voice) {
	if s == nil || s.w == nil || v.Class != ClassAlarm {
		return
	}
	s.mu.Lock()
	now := s.clock.Now()
	if !s.last.IsZero() && now.Sub(s.last) < s.interval {
		s.mu.Unlock()
		return
	}
	s.last = now
	s.mu.Unlock()
	_, _ = io.WriteString(s.w, "\a")
}

// Stop is a no-op; the bell cannot be silenced.
func (s *BellSink) Stop(uint64) {}
