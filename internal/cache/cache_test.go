package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"pkt.systems/termfolio/schema"
)

type fakeSource struct {
	mu       sync.Mutex
	calls    map[string]int
	fail     map[string]error
	skills   []schema.Skill
	gate     chan struct{}
	started  chan struct{}
	inflight atomic.Int32
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		calls:  map[string]int{},
		fail:   map[string]error{},
		skills: []schema.Skill{{Name: "Go"}},
	}
}

func (f *fakeSource) enter(name string) error {
	f.mu.Lock()
	f.calls[name]++
	err := f.fail[name]
	gate := f.gate
	started := f.started
	f.mu.Unlock()
	if gate != nil && name == SlotSkills {
		f.inflight.Add(1)
		if started != nil {
			started <- struct{}{}
		}
		<-gate
	}
	return err
}

func (f *fakeSource) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeSource) Profile(context.Context) (schema.Profile, error) {
	if err := f.enter(SlotProfile); err != nil {
		return schema.Profile{}, err
	}
	return schema.Profile{Name: "Ada"}, nil
}

func (f *fakeSource) Skills(context.Context) ([]schema.Skill, error) {
	if err := f.enter(SlotSkills); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]schema.Skill(nil), f.skills...), nil
}

func (f *fakeSource) Projects(context.Context) ([]schema.Project, error) {
	return []schema.Project{{Name: "termfolio"}}, f.enter(SlotProjects)
}

func (f *fakeSource) Experiences(context.Context) ([]schema.Experience, error) {
	return []schema.Experience{}, f.enter(SlotExperience)
}

func (f *fakeSource) Education(context.Context) ([]schema.Education, error) {
	return []schema.Education{{Institution: "Uni"}}, f.enter(SlotEducation)
}

func TestEnsureLoadedFillsOnce(t *testing.T) {
	src := newFakeSource()
	c := New(src, nil)
	ctx := context.Background()
	if err := c.EnsureLoaded(ctx); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := c.EnsureLoaded(ctx); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	for _, name := range []string{SlotProfile, SlotSkills, SlotProjects, SlotExperience, SlotEducation} {
		if src.count(name) != 1 {
			t.Fatalf("expected one fetch for %s, got %d", name, src.count(name))
		}
	}
	profile, ok := c.Profile()
	if !ok || profile.Name != "Ada" {
		t.Fatalf("unexpected profile %+v ok=%v", profile, ok)
	}
	experience, ok := c.Experiences()
	if !ok || len(experience) != 0 {
		t.Fatalf("expected set but empty experience, got %v ok=%v", experience, ok)
	}
}

func TestFailedSlotStaysUnset(t *testing.T) {
	src := newFakeSource()
	src.fail[SlotProjects] = errors.New("backend down")
	c := New(src, nil)
	err := c.EnsureLoaded(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := c.Projects(); ok {
		t.Fatalf("expected projects unset")
	}
	status := c.Status()
	if status[SlotProjects] || !status[SlotSkills] {
		t.Fatalf("unexpected status %v", status)
	}
	src.mu.Lock()
	delete(src.fail, SlotProjects)
	src.mu.Unlock()
	if err := c.EnsureLoaded(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if src.count(SlotSkills) != 1 || src.count(SlotProjects) != 2 {
		t.Fatalf("expected only the failed slot refetched")
	}
}

func TestRefreshRepopulatesAllSlots(t *testing.T) {
	src := newFakeSource()
	c := New(src, nil)
	ctx := context.Background()
	if err := c.EnsureLoaded(ctx); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	src.mu.Lock()
	src.skills = []schema.Skill{{Name: "Rust"}}
	src.mu.Unlock()
	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	for name, set := range c.Status() {
		if !set {
			t.Fatalf("expected %s set after refresh", name)
		}
		if src.count(name) != 2 {
			t.Fatalf("expected %s fetched twice, got %d", name, src.count(name))
		}
	}
	skills, _ := c.Skills()
	if len(skills) != 1 || skills[0].Name != "Rust" {
		t.Fatalf("expected refreshed skills, got %+v", skills)
	}
}

func TestInvalidateAllClears(t *testing.T) {
	c := New(newFakeSource(), nil)
	if err := c.EnsureLoaded(context.Background()); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	c.InvalidateAll()
	for name, set := range c.Status() {
		if set {
			t.Fatalf("expected %s unset", name)
		}
	}
}

func TestConcurrentFetchesShareOneCall(t *testing.T) {
	src := newFakeSource()
	src.gate = make(chan struct{})
	src.started = make(chan struct{}, 4)
	c := New(src, nil)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.EnsureLoaded(context.Background())
		}()
	}
	<-src.started
	close(src.gate)
	wg.Wait()
	// Late callers that missed the shared call find the slot set.
	if got := src.count(SlotSkills); got != 1 {
		t.Fatalf("expected one skills fetch, got %d", got)
	}
	if _, ok := c.Skills(); !ok {
		t.Fatalf("expected skills set")
	}
}

func TestInvalidateDiscardsInflightFetch(t *testing.T) {
	src := newFakeSource()
	src.gate = make(chan struct{})
	src.started = make(chan struct{}, 1)
	c := New(src, nil)
	done := make(chan struct{})
	go func() {
		_ = c.EnsureLoaded(context.Background())
		close(done)
	}()
	<-src.started
	c.InvalidateAll()
	close(src.gate)
	<-done
	if _, ok := c.Skills(); ok {
		t.Fatalf("expected stale fetch discarded")
	}
	if _, ok := c.Profile(); ok {
		t.Fatalf("expected profile discarded or unset after invalidate")
	}
}
