package shell

import (
	"pkt.systems/termfolio/internal/persist"
	"pkt.systems/termfolio/schema"
)

// session is the view of the widget handed to command handlers. Handlers run without
// the widget lock, so every method takes it.
type session struct {
	w *Widget
}

func (s session) Language() schema.Language {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	return s.w.lang
}

func (s session) SetLanguage(lang schema.Language) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if s.w.closed {
		return
	}
	s.w.lang = lang
	s.w.store.Set(persist.KeyLanguage, string(lang))
	s.w.log.Info("shell language changed", "lang", lang)
}

func (s session) Theme() schema.ThemeName {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	return s.w.theme
}

func (s session) SetTheme(name schema.ThemeName) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if s.w.closed {
		return
	}
	s.w.setThemeLocked(name)
}

func (s session) InputHistory() []string {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	return s.w.ctrl.History().Entries()
}

// themer lets the effect machine drive the theme surface. The machine is only called
// with the widget lock held, so these methods do not lock.
type themer struct {
	w *Widget
}

func (t themer) ActiveTheme() schema.ThemeName {
	return t.w.theme
}

func (t themer) ShowTheme(name schema.ThemeName) {
	t.w.showThemeLocked(name)
}
