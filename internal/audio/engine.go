// Package audio synthesizes short feedback tones. A tone is a set of voices; every
// voice is tracked by the engine and by the scope it was started in, released by its
// own timer when it finishes and force-released by StopAll or scope cancellation.
package audio

import (
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/termfolio/internal/clock"
	"pkt.systems/termfolio/internal/scope"
)

// Engine starts and tracks voices on a sink.
type Engine struct {
	sink Sink
	log  pslog.Logger
	root *scope.Scope

	mu     sync.Mutex
	nextID uint64
	active map[uint64]*voice
}

type voice struct {
	engine *Engine
	id     uint64
	once   sync.Once
	// sc holds the voice's release timer and tracks the voice itself.
	sc *scope.Scope
}

// NewEngine returns an engine on sink. A nil sink is treated as NullSink.
func NewEngine(clk clock.Clock, sink Sink, logger pslog.Logger) *Engine {
	if sink == nil {
		sink = NullSink{}
	}
	return &Engine{
		sink:   sink,
		log:    logger,
		root:   scope.New(clk, nil),
		active: make(map[uint64]*voice),
	}
}

// Play starts t in sc. A nil scope uses the engine's own scope.
func (e *Engine) Play(sc *scope.Scope, t Tone) {
	if e == nil {
		return
	}
	if sc == nil {
		sc = e.root
	}
	for _, v := range Voices(t) {
		e.start(sc, v)
	}
}

func (e *Engine) start(sc *scope.Scope, v Voice) {
	if sc.Cancelled() {
		return
	}
	e.mu.Lock()
	e.nextID++
	v.ID = e.nextID
	h := &voice{engine: e, id: v.ID}
	e.active[v.ID] = h
	e.mu.Unlock()

	h.sc = sc.Child()
	if _, ok := h.sc.Track(h); !ok {
		e.forget(h.id)
		return
	}
	e.safeStart(v)
	if !h.sc.AfterFunc(v.Lifetime(), h.Release) {
		h.Release()
	}
}

// Release stops the voice once and drops its release timer.
func (h *voice) Release() {
	released := false
	h.once.Do(func() {
		released = true
		if h.engine.forget(h.id) {
			h.engine.safeStop(h.id)
		}
	})
	if released && h.sc != nil {
		h.sc.Cancel()
	}
}

func (e *Engine) forget(id uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.active[id]; !ok {
		return false
	}
	delete(e.active, id)
	return true
}

// StopAll releases every active voice. It is safe to call at any time.
func (e *Engine) StopAll() {
	if e == nil {
		return
	}
	e.mu.Lock()
	voices := make([]*voice, 0, len(e.active))
	for _, v := range e.active {
		voices = append(voices, v)
	}
	e.mu.Unlock()
	for _, v := range voices {
		v.Release()
	}
}

// Active returns the number of voices currently sounding.
func (e *Engine) Active() int {
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.active)
}

// Close stops every voice and cancels the engine's own scope.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.StopAll()
	e.root.Cancel()
}

func (e *Engine) safeStart(v Voice) {
	defer e.recoverSink("start")
	e.sink.Start(v)
}

func (e *Engine) safeStop(id uint64) {
	defer e.recoverSink("stop")
	e.sink.Stop(id)
}

func (e *Engine) recoverSink(op string) {
	if r := recover(); r != nil && e.log != nil {
		e.log.Debug("audio sink panic", "op", op, "panic", r)
	}
}
