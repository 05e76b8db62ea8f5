// Package scope tracks the timers and sound-producing resources started on behalf of
// one unit of work so they can be torn down together.
//
// A Scope is created with a guard lock shared with its owner. Timer callbacks run
// with the guard held and only if the timer is still tracked, so once Cancel returns
// (called by the owner with the guard held) no callback scheduled through the scope
// can run.
package scope

import (
	"sync"
	"time"

	"pkt.systems/termfolio/internal/clock"
)

// Resource is something that must be released when its scope is cancelled.
type Resource interface {
	Release()
}

// ResourceFunc adapts a function to Resource.
type ResourceFunc func()

// Release calls f.
func (f ResourceFunc) Release() { f() }

// Scope is a cancellation token list: pending timers, live resources and child scopes.
type Scope struct {
	clock  clock.Clock
	guard  sync.Locker
	parent *Scope

	mu        sync.Mutex
	closed    bool
	timers    map[*pending]struct{}
	resources map[*tracked]struct{}
	children  map[*Scope]struct{}
}

type pending struct {
	timer clock.Timer
}

type tracked struct {
	res Resource
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

// New returns a root scope. guard serializes timer callbacks with the owner's state;
// nil disables serialization.
func New(c clock.Clock, guard sync.Locker) *Scope {
	if c == nil {
		c = clock.Real()
	}
	if guard == nil {
		guard = noopLocker{}
	}
	return &Scope{
		clock:     c,
		guard:     guard,
		timers:    make(map[*pending]struct{}),
		resources: make(map[*tracked]struct{}),
		children:  make(map[*Scope]struct{}),
	}
}

// Clock returns the scope's clock.
func (s *Scope) Clock() clock.Clock {
	return s.clock
}

// Child returns a scope that is cancelled together with s. A child of a cancelled
// scope starts out cancelled.
func (s *Scope) Child() *Scope {
	child := New(s.clock, s.guard)
	child.parent = s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		child.closed = true
		return child
	}
	s.children[child] = struct{}{}
	return child
}

// AfterFunc schedules f after d. It reports false, scheduling nothing, when the scope
// is already cancelled.
func (s *Scope) AfterFunc(d time.Duration, f func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	p := &pending{}
	s.timers[p] = struct{}{}
	p.timer = s.clock.AfterFunc(d, func() { s.fire(p, f) })
	return true
}

func (s *Scope) fire(p *pending, f func()) {
	s.guard.Lock()
	defer s.guard.Unlock()
	s.mu.Lock()
	_, ok := s.timers[p]
	delete(s.timers, p)
	s.mu.Unlock()
	if !ok {
		return
	}
	f()
}

// Track registers r for release on Cancel. The returned untrack func removes r
// without releasing it. When the scope is already cancelled Track reports false and
// the caller owns the release.
func (s *Scope) Track(r Resource) (func(), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return func() {}, false
	}
	t := &tracked{res: r}
	s.resources[t] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.resources, t)
		s.mu.Unlock()
	}, true
}

// Cancel stops every pending timer, releases every tracked resource and cancels every
// child scope. It is idempotent. Owners call it with the guard held.
func (s *Scope) Cancel() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	timers := make([]*pending, 0, len(s.timers))
	for p := range s.timers {
		timers = append(timers, p)
	}
	resources := make([]*tracked, 0, len(s.resources))
	for r := range s.resources {
		resources = append(resources, r)
	}
	children := make([]*Scope, 0, len(s.children))
	for c := range s.children {
		children = append(children, c)
	}
	s.timers = make(map[*pending]struct{})
	s.resources = make(map[*tracked]struct{})
	s.children = make(map[*Scope]struct{})
	s.mu.Unlock()

	for _, c := range children {
		c.Cancel()
	}
	for _, p := range timers {
		if p.timer != nil {
			p.timer.Stop()
		}
	}
	for _, r := range resources {
		r.res.Release()
	}
	if s.parent != nil {
		s.parent.removeChild(s)
	}
}

func (s *Scope) removeChild(child *Scope) {
	s.mu.Lock()
	delete(s.children, child)
	s.mu.Unlock()
}

// Cancelled reports whether Cancel has been called.
func (s *Scope) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Counts returns the number of pending timers and live resources in s and its
// children.
func (s *Scope) Counts() (timers, resources int) {
	s.mu.Lock()
	timers = len(s.timers)
	resources = len(s.resources)
	children := make([]*Scope, 0, len(s.children))
	for c := range s.children {
		children = append(children, c)
	}
	s.mu.Unlock()
	for _, c := range children {
		t, r := c.Counts()
		timers += t
		resources += r
	}
	return timers, resources
}
