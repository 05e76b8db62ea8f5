// Package shell is the interactive command shell widget. A Widget owns the display,
// the permanent history, the input controller and the effect machine, and runs every
// command through the resolver and the typewriter player.
//
// All state is guarded by one mutex. Timer callbacks from playback, audio and effects
// run through scopes guarded by the same mutex, so the widget behaves as a single
// cooperative thread. Only command resolution runs outside the lock.
package shell

import (
	"context"
	"strings"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/termfolio/internal/audio"
	"pkt.systems/termfolio/internal/clock"
	"pkt.systems/termfolio/internal/command"
	"pkt.systems/termfolio/internal/effect"
	"pkt.systems/termfolio/internal/i18n"
	"pkt.systems/termfolio/internal/input"
	"pkt.systems/termfolio/internal/markup"
	"pkt.systems/termfolio/internal/persist"
	"pkt.systems/termfolio/internal/playback"
	"pkt.systems/termfolio/internal/scope"
	"pkt.systems/termfolio/internal/sessionprefs"
	"pkt.systems/termfolio/schema"
)

// Display is the surface a widget renders to. Methods are called with the widget
// lock held and must not call back into the widget.
type Display interface {
	AppendLine(line string)
	ClearAll()
	ScrollToBottom(force bool)
}

// ThemeSurface is implemented by displays that can show themes.
type ThemeSurface interface {
	ApplyTheme(name schema.ThemeName)
}

// InputView is implemented by displays that draw the prompt.
type InputView interface {
	ShowInput(state InputState)
}

// InputState is what a prompt needs to draw.
type InputState struct {
	Buffer     string
	Cursor     int
	Completion input.Completion
	Busy       bool
}

// DefaultHistoryMax bounds the input history.
const DefaultHistoryMax = input.DefaultHistoryMax

// Config wires a Widget.
type Config struct {
	Display  Display
	Resolver *command.Resolver
	Catalog  *i18n.Catalog

	// Audio must not be shared between widgets: StopAll silences every voice of
	// the engine.
	Audio    *audio.Engine
	Profiles effect.Profiles

	// Store holds the persisted language, theme and hack marker of the session owner.
	Store      persist.KV
	Clock      clock.Clock
	Language   schema.Language
	Theme      schema.ThemeName
	HistoryMax int
	Rand       func() float64

	// Context is the parent of every handler context. Cancelled by Close.
	Context context.Context

	// Dispatch runs command resolution. Defaults to a new goroutine per command.
	Dispatch func(job func())
	Logger   pslog.Logger
}

// Widget is one shell instance.
type Widget struct {
	mu sync.Mutex

	display  Display
	themes   ThemeSurface
	view     InputView
	resolver *command.Resolver
	catalog  *i18n.Catalog
	audio    *audio.Engine
	store    persist.KV
	clock    clock.Clock
	dispatch func(job func())
	log      pslog.Logger
	ctx      context.Context
	cancel   context.CancelFunc

	root    *scope.Scope
	current *scope.Scope
	player  *playback.Player
	playing *playback.Handle
	effects *effect.Machine
	ctrl    *input.Controller

	history []schema.HistoryEntry
	lang    schema.Language
	theme   schema.ThemeName
	shown   schema.ThemeName
	busy    bool
	seq     uint64
	started bool
	closed  bool
}

// New constructs a widget. Persisted language and theme override the configured
// defaults.
func New(cfg Config) *Widget {
	if cfg.Display == nil {
		cfg.Display = discardDisplay{}
	}
	if cfg.Catalog == nil {
		cfg.Catalog = i18n.MustDefault()
	}
	if cfg.Resolver == nil {
		cfg.Resolver = command.NewResolver(command.ResolverConfig{
			Registry: command.NewDefaultRegistry(command.Deps{Catalog: cfg.Catalog}),
			Catalog:  cfg.Catalog,
		})
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Store == nil {
		cfg.Store = persist.NewMemory()
	}
	if cfg.Profiles == nil {
		cfg.Profiles = effect.DefaultProfiles()
	}
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	if cfg.Dispatch == nil {
		cfg.Dispatch = func(job func()) { go job() }
	}
	if cfg.Logger == nil {
		cfg.Logger = pslog.Ctx(cfg.Context)
	}
	if cfg.Audio == nil {
		cfg.Audio = audio.NewEngine(cfg.Clock, audio.NullSink{}, cfg.Logger)
	}

	w := &Widget{
		display:  cfg.Display,
		resolver: cfg.Resolver,
		catalog:  cfg.Catalog,
		audio:    cfg.Audio,
		store:    cfg.Store,
		clock:    cfg.Clock,
		dispatch: cfg.Dispatch,
		log:      cfg.Logger,
	}
	w.ctx, w.cancel = context.WithCancel(cfg.Context)
	if themes, ok := cfg.Display.(ThemeSurface); ok {
		w.themes = themes
	}
	if view, ok := cfg.Display.(InputView); ok {
		w.view = view
	}
	w.root = scope.New(cfg.Clock, &w.mu)
	w.player = playback.NewPlayer(playback.Config{
		Output:   cfg.Display,
		Audio:    cfg.Audio,
		Profiles: cfg.Profiles,
		Rand:     cfg.Rand,
	})
	w.effects = effect.NewMachine(effect.Config{
		Profiles: cfg.Profiles,
		Store:    cfg.Store,
		Themes:   themer{w: w},
		Audio:    cfg.Audio,
		Root:     w.root,
		Logger:   cfg.Logger,
	})
	w.ctrl = input.NewController(w.resolver.Registry().Names, cfg.HistoryMax)

	w.lang = w.initialLanguage(cfg.Language)
	w.theme = w.initialTheme(cfg.Theme)
	return w
}

func (w *Widget) initialLanguage(fallback schema.Language) schema.Language {
	if value, ok := w.store.Get(persist.KeyLanguage); ok {
		if lang, valid := schema.NormalizeLanguage(value); valid && w.catalog.Supports(lang) {
			return lang
		}
	}
	if lang, valid := schema.NormalizeLanguage(string(fallback)); valid && w.catalog.Supports(lang) {
		return lang
	}
	return schema.DefaultLanguage
}

func (w *Widget) initialTheme(fallback schema.ThemeName) schema.ThemeName {
	if value, ok := w.store.Get(persist.KeyTheme); ok {
		if name, valid := schema.NormalizeThemeName(value); valid {
			return name
		}
	}
	if name, valid := schema.NormalizeThemeName(string(fallback)); valid {
		return name
	}
	return schema.DefaultTheme
}

// Start shows the theme, recovers a theme left overridden by an interrupted session
// and plays the welcome banner. Calls after the first are no-ops.
func (w *Widget) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || w.started {
		return
	}
	w.started = true
	if w.effects.Recover() {
		w.log.Info("shell recovered theme after interrupted effect")
	} else {
		w.showThemeLocked(w.theme)
	}
	banner := w.catalog.Bundle(w.lang).Lines("welcome.banner")
	w.busy = true
	sc := w.root.Child()
	w.current = sc
	w.playing = w.player.Play(sc, banner, schema.ModeNormal, func(lines []string) {
		w.history = append(w.history, schema.HistoryEntry{Output: lines, Timestamp: w.clock.Now()})
		w.finishLocked()
	})
	w.showInputLocked()
}

// Submit runs line as if it had been typed and entered.
func (w *Widget) Submit(line string) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.ctrl.History().Append(line)
	w.ctrl.Reset()
	job := w.submitLocked(line)
	w.showInputLocked()
	w.mu.Unlock()
	if job != nil {
		w.dispatch(job)
	}
}

// HandleKey applies one input action.
func (w *Widget) HandleKey(key Key) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	job := w.handleKeyLocked(key)
	w.showInputLocked()
	w.mu.Unlock()
	if job != nil {
		w.dispatch(job)
	}
}

func (w *Widget) handleKeyLocked(key Key) func() {
	var outcome input.Outcome
	switch key.Kind {
	case KeyRune:
		outcome = w.ctrl.Insert(key.Rune)
	case KeyBackspace:
		outcome = w.ctrl.Edit((*input.Editor).Backspace)
	case KeyDelete:
		outcome = w.ctrl.Edit((*input.Editor).Delete)
	case KeyLeft:
		outcome = w.ctrl.Edit((*input.Editor).MoveLeft)
	case KeyRight:
		outcome = w.ctrl.Edit((*input.Editor).MoveRight)
	case KeyHome:
		outcome = w.ctrl.Edit((*input.Editor).MoveStart)
	case KeyEnd:
		outcome = w.ctrl.Edit((*input.Editor).MoveEnd)
	case KeyWordLeft:
		outcome = w.ctrl.Edit((*input.Editor).MoveWordLeft)
	case KeyWordRight:
		outcome = w.ctrl.Edit((*input.Editor).MoveWordRight)
	case KeyDeleteWord:
		outcome = w.ctrl.Edit((*input.Editor).DeleteWordBackward)
	case KeyKillStart:
		outcome = w.ctrl.Edit((*input.Editor).KillLineStart)
	case KeyKillEnd:
		outcome = w.ctrl.Edit((*input.Editor).KillLineEnd)
	case KeyTab:
		outcome = w.ctrl.Tab()
	case KeyUp:
		outcome = w.ctrl.Up()
	case KeyDown:
		outcome = w.ctrl.Down()
	case KeyEscape:
		outcome = w.ctrl.Escape()
	case KeySelect:
		outcome = w.ctrl.Select(key.Index)
	case KeyEnter:
		line, result := w.ctrl.Enter()
		if result == input.Submitted {
			return w.submitLocked(line)
		}
		outcome = result
	case KeyInterrupt:
		w.interruptLocked()
		w.ctrl.Reset()
		return nil
	case KeyClearScreen:
		w.interruptLocked()
		w.clearLocked()
		return nil
	}
	w.feedbackLocked(outcome)
	return nil
}

func (w *Widget) feedbackLocked(outcome input.Outcome) {
	switch outcome {
	case input.Edited, input.Dismissed:
		w.audio.Play(w.root, audio.Tone{Kind: audio.Key})
	case input.Completed, input.Listed:
		w.audio.Play(w.root, audio.Tone{Kind: audio.Tab})
	case input.Browsed, input.Highlighted:
		w.audio.Play(w.root, audio.Tone{Kind: audio.History})
	}
}

// submitLocked stops the previous command and starts line. It returns the resolve
// job to run once the lock is released, or nil when the line completed synchronously.
func (w *Widget) submitLocked(line string) func() {
	w.interruptLocked()
	raw := strings.TrimSpace(line)
	w.display.AppendLine(schema.EchoMarker + markup.Escape(raw))
	w.display.ScrollToBottom(true)

	if raw == "" {
		w.display.AppendLine("")
		w.history = append(w.history, schema.HistoryEntry{Output: []string{""}, Timestamp: w.clock.Now()})
		return nil
	}
	cmd := command.Parse(raw)
	if cmd.Name == "clear" {
		w.clearLocked()
		w.log.Debug("shell clear")
		return nil
	}

	w.seq++
	seq := w.seq
	w.busy = true
	sc := w.root.Child()
	w.current = sc
	w.audio.Play(sc, audio.Tone{Kind: audio.Enter})
	lang := w.lang
	ctx := sessionprefs.WithContext(w.ctx, session{w: w})
	return func() {
		result := w.resolver.Resolve(ctx, raw, lang)
		w.deliver(seq, sc, cmd, raw, result)
	}
}

func (w *Widget) deliver(seq uint64, sc *scope.Scope, cmd command.Command, raw string, result schema.CommandResult) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || seq != w.seq || sc.Cancelled() {
		w.log.Debug("shell result dropped", "command", cmd.Name, "seq", seq)
		return
	}
	if result.ClearScreen {
		w.clearLocked()
		w.showInputLocked()
		return
	}
	mode := effect.Select(cmd.Name, raw)
	w.effects.Enter(mode, sc)
	w.playing = w.player.Play(sc, result.Output, mode, func(lines []string) {
		w.history = append(w.history, schema.HistoryEntry{Command: raw, Output: lines, Timestamp: w.clock.Now()})
		w.effects.Complete()
		w.finishLocked()
	})
	w.showInputLocked()
}

func (w *Widget) finishLocked() {
	w.playing = nil
	if w.current != nil {
		w.current.Cancel()
		w.current = nil
	}
	w.busy = false
	w.showInputLocked()
}

// interruptLocked cancels whatever the previous command still has running: its
// playback, its timers and every voice. An interrupted effect completes as if the
// playback had finished, so a hack theme is restored on schedule.
func (w *Widget) interruptLocked() {
	w.seq++
	if w.playing != nil {
		w.playing.Cancel()
		w.playing = nil
	}
	if w.current != nil {
		w.current.Cancel()
		w.current = nil
	}
	w.audio.StopAll()
	if w.effects.Mode() != schema.ModeNormal {
		w.effects.Complete()
	}
	w.busy = false
}

func (w *Widget) clearLocked() {
	w.display.ClearAll()
	w.history = nil
	w.ctrl.Reset()
	w.effects.Clear()
	w.busy = false
}

// Clear is the clear command: it cancels the running command, empties the display and
// history, resets input and reverts any effect theme at once.
func (w *Widget) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.interruptLocked()
	w.clearLocked()
	w.showInputLocked()
}

// Close cancels everything the widget started. It is idempotent.
func (w *Widget) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	w.seq++
	if w.playing != nil {
		w.playing.Cancel()
		w.playing = nil
	}
	w.root.Cancel()
	w.audio.StopAll()
	w.cancel()
	w.log.Debug("shell closed")
}

// History returns copies of the permanent history entries.
func (w *Widget) History() []schema.HistoryEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]schema.HistoryEntry, len(w.history))
	for i, entry := range w.history {
		out[i] = entry.Clone()
	}
	return out
}

// Input returns the prompt state.
func (w *Widget) Input() InputState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.inputStateLocked()
}

// Busy reports whether a command is resolving or playing.
func (w *Widget) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.busy
}

// Playback returns the state of the running playback, if any.
func (w *Widget) Playback() playback.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.playing.State()
}

// Language returns the session language.
func (w *Widget) Language() schema.Language {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lang
}

// Theme returns the theme the user picked, ignoring temporary overrides.
func (w *Widget) Theme() schema.ThemeName {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.theme
}

// ShownTheme returns the theme currently on display.
func (w *Widget) ShownTheme() schema.ThemeName {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.shown
}

// Mode returns the active effect mode.
func (w *Widget) Mode() schema.EffectMode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.effects.Mode()
}

// Pending returns the timers and tracked resources the widget still owns.
func (w *Widget) Pending() (timers, resources int) {
	return w.root.Counts()
}

func (w *Widget) setThemeLocked(name schema.ThemeName) {
	w.theme = name
	w.store.Set(persist.KeyTheme, string(name))
	if w.effects.Overridden() {
		// Restored when the override ends.
		w.store.Set(persist.KeyHackPreviousTheme, string(name))
		return
	}
	w.showThemeLocked(name)
}

func (w *Widget) showThemeLocked(name schema.ThemeName) {
	w.shown = name
	if w.themes != nil {
		w.themes.ApplyTheme(name)
	}
}

func (w *Widget) inputStateLocked() InputState {
	return InputState{
		Buffer:     w.ctrl.Buffer(),
		Cursor:     w.ctrl.Cursor(),
		Completion: w.ctrl.Completion(),
		Busy:       w.busy,
	}
}

func (w *Widget) showInputLocked() {
	if w.view != nil && !w.closed {
		w.view.ShowInput(w.inputStateLocked())
	}
}

type discardDisplay struct{}

func (discardDisplay) AppendLine(string)   {}
func (discardDisplay) ClearAll()           {}
func (discardDisplay) ScrollToBottom(bool) {}
