package playback

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"pkt.systems/termfolio/internal/audio"
	"pkt.systems/termfolio/internal/clock"
	"pkt.systems/termfolio/internal/effect"
	"pkt.systems/termfolio/internal/scope"
	"pkt.systems/termfolio/schema"
)

type recordingOutput struct {
	lines []string
	live  []string
}

func (r *recordingOutput) AppendLine(line string) { r.lines = append(r.lines, line) }
func (r *recordingOutput) ScrollToBottom(bool)    {}
func (r *recordingOutput) SetLiveLine(text string) {
	r.live = append(r.live, text)
}

type countingSink struct {
	mu      sync.Mutex
	started []audio.Voice
}

func (s *countingSink) Start(v audio.Voice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = append(s.started, v)
}

func (s *countingSink) Stop(uint64) {}

func (s *countingSink) count(class audio.Class) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.started {
		if v.Class == class {
			n++
		}
	}
	return n
}

type fixture struct {
	clock  *clock.Fake
	root   *scope.Scope
	out    *recordingOutput
	sink   *countingSink
	engine *audio.Engine
	player *Player
}

func newFixture(rnd func() float64) *fixture {
	clk := clock.NewFake(time.Unix(0, 0))
	f := &fixture{
		clock: clk,
		root:  scope.New(clk, nil),
		out:   &recordingOutput{},
		sink:  &countingSink{},
	}
	f.engine = audio.NewEngine(clk, f.sink, nil)
	f.player = NewPlayer(Config{Output: f.out, Audio: f.engine, Rand: rnd})
	return f
}

func zero() float64 { return 0 }
func high() float64 { return 0.999 }

// drain advances the fake clock until nothing is pending.
func (f *fixture) drain(t *testing.T) {
	t.Helper()
	for i := 0; i < 10000; i++ {
		d, ok := f.clock.NextIn()
		if !ok {
			return
		}
		f.clock.Advance(d)
	}
	t.Fatalf("clock did not drain")
}

func TestPlaysLinesInOrder(t *testing.T) {
	f := newFixture(zero)
	var done [][]string
	lines := []string{"ab", "", "**c**"}
	h := f.player.Play(f.root, lines, schema.ModeNormal, func(out []string) { done = append(done, out) })

	f.clock.Advance(0)
	f.clock.Advance(15 * time.Millisecond)
	if diff := cmp.Diff([]string{"a"}, f.out.live); diff != "" {
		t.Fatalf("live (-want +got):\n%s", diff)
	}
	if len(f.out.lines) != 0 {
		t.Fatalf("line appended before it finished")
	}
	f.drain(t)

	if diff := cmp.Diff(lines, f.out.lines); diff != "" {
		t.Fatalf("appended (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "ab", "", "c", ""}, f.out.live); diff != "" {
		t.Fatalf("live (-want +got):\n%s", diff)
	}
	if len(done) != 1 {
		t.Fatalf("expected onDone once, got %d", len(done))
	}
	if diff := cmp.Diff(lines, done[0]); diff != "" {
		t.Fatalf("onDone lines (-want +got):\n%s", diff)
	}
	if !h.Done() || h.State().Active {
		t.Fatalf("expected playback done")
	}
	if got := f.sink.count(audio.ClassTick); got != 3 {
		t.Fatalf("expected one tick per character, got %d", got)
	}
}

func TestTimingFollowsProfile(t *testing.T) {
	f := newFixture(zero)
	completed := false
	f.player.Play(f.root, []string{"ab", "c"}, schema.ModeUndertale, func([]string) { completed = true })
	// 2 chars at 60ms, 200ms pause, 1 char at 60ms.
	f.clock.Advance(0)
	f.clock.Advance(60*time.Millisecond*3 + effect.DefaultLinePause - time.Millisecond)
	if completed {
		t.Fatalf("completed early")
	}
	f.clock.Advance(time.Millisecond)
	if !completed {
		t.Fatalf("expected completion at exact schedule")
	}
}

func TestJitterStaysInRange(t *testing.T) {
	f := newFixture(high)
	h := f.player.Play(f.root, []string{"x"}, schema.ModeNormal, nil)
	f.clock.Advance(0)
	d, ok := f.clock.NextIn()
	if !ok {
		t.Fatalf("expected char timer")
	}
	if d < 15*time.Millisecond || d >= 30*time.Millisecond {
		t.Fatalf("delay %v outside [15ms,30ms)", d)
	}
	h.Cancel()
}

func TestCancelMidStreamLeavesNothing(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFixture(func() float64 { return 0.01 })
	lines := []string{"Initializing...", "[!] Bypassing firewall...", "ACCESS GRANTED", "bye"}
	completed := false
	h := f.player.Play(f.root, lines, schema.ModeHack, func([]string) { completed = true })
	f.clock.Advance(0)
	// Into the second line, after its milestone rumble.
	for len(f.out.lines) < 1 {
		d, _ := f.clock.NextIn()
		f.clock.Advance(d)
	}
	f.clock.Advance(effect.DefaultLinePause + 100*time.Millisecond)
	if f.engine.Active() == 0 {
		t.Fatalf("expected voices sounding mid-stream")
	}
	if f.sink.count(audio.ClassAlarm) == 0 {
		t.Fatalf("expected hack bursts or milestone rumble")
	}

	h.Cancel()
	timers, resources := h.Pending()
	if timers != 0 || resources != 0 {
		t.Fatalf("leaked %d timers and %d resources", timers, resources)
	}
	if f.engine.Active() != 0 {
		t.Fatalf("leaked %d voices", f.engine.Active())
	}
	if f.clock.Pending() != 0 {
		t.Fatalf("leaked %d clock timers", f.clock.Pending())
	}
	if diff := cmp.Diff([]string{lines[0]}, f.out.lines); diff != "" {
		t.Fatalf("partial line appended (-want +got):\n%s", diff)
	}
	if last := f.out.live[len(f.out.live)-1]; last != "" {
		t.Fatalf("expected live line cleared, got %q", last)
	}
	appended := len(f.out.lines)
	f.clock.Advance(time.Minute)
	if completed || len(f.out.lines) != appended {
		t.Fatalf("callback ran after cancel")
	}
	h.Cancel()
}

func TestCancelAfterCompletionIsNoop(t *testing.T) {
	f := newFixture(zero)
	calls := 0
	h := f.player.Play(f.root, []string{"hi"}, schema.ModeNormal, func([]string) { calls++ })
	f.drain(t)
	live := len(f.out.live)
	h.Cancel()
	h.Cancel()
	if calls != 1 || len(f.out.live) != live {
		t.Fatalf("cancel after completion had effects")
	}
}

func TestEmptyOutputCompletes(t *testing.T) {
	f := newFixture(zero)
	var got []string
	called := false
	f.player.Play(f.root, nil, schema.ModeNormal, func(lines []string) {
		called = true
		got = lines
	})
	f.clock.Advance(0)
	if !called || len(got) != 0 {
		t.Fatalf("expected immediate completion with no lines, called=%v got=%v", called, got)
	}
}

func TestParentCancelStopsPlayback(t *testing.T) {
	f := newFixture(zero)
	completed := false
	h := f.player.Play(f.root, []string{strings.Repeat("x", 50)}, schema.ModeNormal, func([]string) { completed = true })
	f.clock.Advance(100 * time.Millisecond)
	f.root.Cancel()
	f.clock.Advance(time.Minute)
	if completed {
		t.Fatalf("completed after parent cancel")
	}
	if timers, resources := h.Pending(); timers != 0 || resources != 0 {
		t.Fatalf("leaked %d timers %d resources", timers, resources)
	}
}

func TestMarkersAndMarkupAreNotTyped(t *testing.T) {
	f := newFixture(zero)
	f.player.Play(f.root, []string{schema.HelpMarker + "**help**  [x](https://e.x)"}, schema.ModeNormal, nil)
	f.drain(t)
	want := "help  x"
	found := false
	for _, live := range f.out.live {
		if live == want {
			found = true
		}
		if strings.Contains(live, "*") || strings.Contains(live, schema.HelpMarker) {
			t.Fatalf("markup leaked into live text %q", live)
		}
	}
	if !found {
		t.Fatalf("expected live text %q, got %v", want, f.out.live)
	}
}
