// Package playback reveals command output one character at a time. Every timer and
// voice a playback starts lives in its own scope, so Cancel tears all of it down at
// once.
package playback

import (
	"math/rand/v2"
	"strings"
	"time"

	"pkt.systems/termfolio/internal/audio"
	"pkt.systems/termfolio/internal/effect"
	"pkt.systems/termfolio/internal/markup"
	"pkt.systems/termfolio/internal/scope"
	"pkt.systems/termfolio/schema"
)

// Output receives completed lines.
type Output interface {
	AppendLine(line string)
	ScrollToBottom(force bool)
}

// LiveLine shows the partially revealed line. Outputs without it only see whole lines.
type LiveLine interface {
	SetLiveLine(text string)
}

// State is a snapshot of a playback.
type State struct {
	Queue     []string
	LineIndex int
	CharIndex int
	Active    bool
}

// Player starts playbacks on one output.
type Player struct {
	out      Output
	live     LiveLine
	audio    *audio.Engine
	profiles effect.Profiles
	rand     func() float64
}

// Config wires a Player.
type Config struct {
	Output   Output
	Audio    *audio.Engine
	Profiles effect.Profiles
	// Rand returns values in [0, 1). Defaults to math/rand/v2.
	Rand func() float64
}

// NewPlayer returns a player.
func NewPlayer(cfg Config) *Player {
	p := &Player{
		out:      cfg.Output,
		audio:    cfg.Audio,
		profiles: cfg.Profiles,
		rand:     cfg.Rand,
	}
	if live, ok := cfg.Output.(LiveLine); ok {
		p.live = live
	}
	if p.profiles == nil {
		p.profiles = effect.DefaultProfiles()
	}
	if p.rand == nil {
		p.rand = rand.Float64
	}
	return p
}

// Handle controls one playback. It is not safe for concurrent use: callers hold the
// guard of the scope the playback was started in.
type Handle struct {
	player  *Player
	sc      *scope.Scope
	profile effect.Profile
	onDone  func([]string)

	queue     []string
	lineIndex int
	charIndex int
	plain     []rune
	partial   bool
	done      bool
}

// Play starts revealing lines in a child of parent using mode's profile. onDone runs
// once with the lines after the last one is appended; it never runs after Cancel.
func (p *Player) Play(parent *scope.Scope, lines []string, mode schema.EffectMode, onDone func([]string)) *Handle {
	h := &Handle{
		player:  p,
		sc:      parent.Child(),
		profile: p.profiles.For(mode),
		onDone:  onDone,
		queue:   append([]string(nil), lines...),
	}
	if !h.sc.AfterFunc(0, h.startLine) {
		h.done = true
	}
	return h
}

// Cancel stops every timer and voice the playback started and discards the partial
// line. It is idempotent and a no-op after completion.
func (h *Handle) Cancel() {
	if h == nil || h.done {
		return
	}
	h.done = true
	h.sc.Cancel()
	if h.partial {
		h.setLive("")
	}
}

// Done reports whether the playback completed or was cancelled.
func (h *Handle) Done() bool {
	return h == nil || h.done
}

// State returns a snapshot.
func (h *Handle) State() State {
	if h == nil {
		return State{}
	}
	return State{
		Queue:     append([]string(nil), h.queue...),
		LineIndex: h.lineIndex,
		CharIndex: h.charIndex,
		Active:    !h.done,
	}
}

// Pending returns the timers and voices still owned by the playback.
func (h *Handle) Pending() (timers, resources int) {
	return h.sc.Counts()
}

func (h *Handle) startLine() {
	if h.lineIndex >= len(h.queue) {
		h.finish()
		return
	}
	line := h.queue[h.lineIndex]
	_, body := schema.StripMarker(line)
	h.plain = []rune(markup.Plain(body))
	h.charIndex = 0
	if h.isMilestone(line) {
		h.player.audio.Play(h.sc, audio.Tone{Kind: audio.Rumble, Intensity: h.profile.MilestoneIntensity})
	}
	if len(h.plain) == 0 {
		h.completeLine()
		return
	}
	h.scheduleChar()
}

func (h *Handle) scheduleChar() {
	h.sc.AfterFunc(h.charDelay(), h.revealChar)
}

func (h *Handle) revealChar() {
	h.charIndex++
	h.partial = true
	h.setLive(string(h.plain[:h.charIndex]))
	h.player.audio.Play(h.sc, audio.Tone{Kind: audio.Tick, Timbre: h.profile.Timbre})
	h.maybeBurst()
	if h.charIndex >= len(h.plain) {
		h.completeLine()
		return
	}
	h.scheduleChar()
}

func (h *Handle) completeLine() {
	if h.partial {
		h.setLive("")
		h.partial = false
	}
	h.player.out.AppendLine(h.queue[h.lineIndex])
	h.player.out.ScrollToBottom(false)
	h.lineIndex++
	h.charIndex = 0
	if h.lineIndex >= len(h.queue) {
		h.finish()
		return
	}
	pause := h.profile.LinePause
	if pause <= 0 {
		pause = effect.DefaultLinePause
	}
	h.sc.AfterFunc(pause, h.startLine)
}

func (h *Handle) finish() {
	if h.done {
		return
	}
	h.done = true
	h.sc.Cancel()
	if h.onDone != nil {
		h.onDone(append([]string(nil), h.queue...))
	}
}

func (h *Handle) maybeBurst() {
	if h.profile.BurstChance <= 0 || h.player.rand() >= h.profile.BurstChance {
		return
	}
	if h.player.rand() < h.profile.AlarmShare {
		h.player.audio.Play(h.sc, audio.Tone{Kind: audio.Alarm})
		return
	}
	h.player.audio.Play(h.sc, audio.Tone{Kind: audio.Rumble, Intensity: h.profile.BurstIntensity})
}

func (h *Handle) isMilestone(line string) bool {
	for _, marker := range h.profile.MilestoneMarkers {
		if marker != "" && strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

func (h *Handle) charDelay() time.Duration {
	lo, hi := h.profile.CharDelayMin, h.profile.CharDelayMax
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(h.player.rand()*float64(hi-lo))
}

func (h *Handle) setLive(text string) {
	if h.player.live != nil {
		h.player.live.SetLiveLine(text)
	}
}
