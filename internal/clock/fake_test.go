package clock

import (
	"testing"
	"time"
)

func TestFakeFiresInDueOrder(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	var order []int
	c.AfterFunc(30*time.Millisecond, func() { order = append(order, 3) })
	c.AfterFunc(10*time.Millisecond, func() { order = append(order, 1) })
	c.AfterFunc(10*time.Millisecond, func() { order = append(order, 2) })

	c.Advance(20 * time.Millisecond)
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("unexpected order after 20ms: %v", order)
	}
	c.Advance(10 * time.Millisecond)
	if len(order) != 3 || order[2] != 3 {
		t.Fatalf("unexpected order after 30ms: %v", order)
	}
	if c.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", c.Pending())
	}
}

func TestFakeRunsTimersScheduledDuringAdvance(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	fired := 0
	var chain func()
	chain = func() {
		fired++
		if fired < 5 {
			c.AfterFunc(10*time.Millisecond, chain)
		}
	}
	c.AfterFunc(10*time.Millisecond, chain)
	c.Advance(time.Second)
	if fired != 5 {
		t.Fatalf("expected chained timers to fire 5 times, got %d", fired)
	}
	if got := c.Now(); !got.Equal(time.Unix(1, 0)) {
		t.Fatalf("expected clock at 1s, got %v", got)
	}
}

func TestFakeStop(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	fired := false
	timer := c.AfterFunc(time.Millisecond, func() { fired = true })
	if !timer.Stop() {
		t.Fatalf("expected first stop to report true")
	}
	if timer.Stop() {
		t.Fatalf("expected second stop to report false")
	}
	c.Advance(time.Second)
	if fired {
		t.Fatalf("stopped timer fired")
	}
}

func TestFakeNextIn(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	if _, ok := c.NextIn(); ok {
		t.Fatalf("expected no pending timer")
	}
	c.AfterFunc(40*time.Millisecond, func() {})
	c.AfterFunc(15*time.Millisecond, func() {})
	d, ok := c.NextIn()
	if !ok || d != 15*time.Millisecond {
		t.Fatalf("expected 15ms, got %v %v", d, ok)
	}
}
