package httpapi

import (
	"pkt.systems/termfolio/internal/audio"
	"pkt.systems/termfolio/internal/clock"
	"pkt.systems/termfolio/internal/logx"
	"pkt.systems/termfolio/internal/persist"
	"pkt.systems/termfolio/internal/shell"
)

// webShell is the widget of one browser session and what it renders to.
type webShell struct {
	widget  *shell.Widget
	display *streamDisplay
	engine  *audio.Engine
	hub     *Hub
	sess    *session
}

// newShell builds and starts the shell for a session.
func (s *Server) newShell(sess *session) *webShell {
	ctx := logx.ContextWithOwnerSessionLogger(sess.ctx, logx.Ctx(s.baseContext()), sess.owner, sess.id)
	log := logx.Ctx(ctx)

	display := newStreamDisplay(sess.id, s.hub, s.cfg.Prompt, s.cfg.UIMaxBufferLines)
	clk := s.clock
	if clk == nil {
		clk = clock.Real()
	}
	var sink audio.Sink = audio.NullSink{}
	if s.cfg.Tones {
		sink = toneSink{id: sess.id, hub: s.hub}
	}
	engine := audio.NewEngine(clk, sink, log)

	var store persist.KV = persist.NewMemory()
	if s.store != nil {
		store = s.store.Bind(sess.owner)
	}
	widget := shell.New(shell.Config{
		Display:  display,
		Resolver: s.resolver,
		Catalog:  s.catalog,
		Audio:    engine,
		Profiles: s.profiles,
		Store:    store,
		Clock:    clk,
		Language: sess.lang,
		Context:  ctx,
		Dispatch: s.dispatch,
		Logger:   log,
	})
	widget.Start()
	log.Info("web shell started", "lang", widget.Language(), "theme", widget.Theme())
	return &webShell{widget: widget, display: display, engine: engine, hub: s.hub, sess: sess}
}

// watched reports whether any stream is attached.
func (w *webShell) watched() bool {
	return w.hub.Subscribers(w.sess.id) > 0
}

func (w *webShell) close() {
	w.widget.Close()
	w.engine.Close()
	w.hub.Drop(w.sess.id)
	logx.WithOwnerSession(w.sess.ctx, w.sess.owner, w.sess.id).Info("web shell closed")
}
