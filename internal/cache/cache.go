// Package cache memoizes portfolio records across commands. Each of the five slots is
// unset until a fetch succeeds and stays set until InvalidateAll.
package cache

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"pkt.systems/pslog"
	"pkt.systems/termfolio/internal/portfolio"
	"pkt.systems/termfolio/schema"
)

// Slot names.
const (
	SlotProfile    = "profile"
	SlotSkills     = "skills"
	SlotProjects   = "projects"
	SlotExperience = "experience"
	SlotEducation  = "education"
)

type slot[T any] struct {
	name  string
	fetch func(context.Context) (T, error)

	mu    sync.RWMutex
	value T
	set   bool
	gen   uint64
}

func (s *slot[T]) get() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.set
}

func (s *slot[T]) generation() (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen, s.set
}

func (s *slot[T]) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	s.value = zero
	s.set = false
	s.gen++
}

// store writes v only if no invalidation happened since gen was read.
func (s *slot[T]) store(gen uint64, v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.value = v
	s.set = true
	return true
}

// Cache is the domain cache.
type Cache struct {
	group singleflight.Group
	log   pslog.Logger

	profile    *slot[schema.Profile]
	skills     *slot[[]schema.Skill]
	projects   *slot[[]schema.Project]
	experience *slot[[]schema.Experience]
	education  *slot[[]schema.Education]
}

// New returns an empty cache over src.
func New(src portfolio.Source, logger pslog.Logger) *Cache {
	return &Cache{
		log:        logger,
		profile:    &slot[schema.Profile]{name: SlotProfile, fetch: src.Profile},
		skills:     &slot[[]schema.Skill]{name: SlotSkills, fetch: src.Skills},
		projects:   &slot[[]schema.Project]{name: SlotProjects, fetch: src.Projects},
		experience: &slot[[]schema.Experience]{name: SlotExperience, fetch: src.Experiences},
		education:  &slot[[]schema.Education]{name: SlotEducation, fetch: src.Education},
	}
}

// EnsureLoaded fetches every unset slot concurrently. Failed slots stay unset; the
// first failure is returned for diagnostics and has already been logged.
func (c *Cache) EnsureLoaded(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return load(ctx, c, c.profile) })
	g.Go(func() error { return load(ctx, c, c.skills) })
	g.Go(func() error { return load(ctx, c, c.projects) })
	g.Go(func() error { return load(ctx, c, c.experience) })
	g.Go(func() error { return load(ctx, c, c.education) })
	return g.Wait()
}

func load[T any](ctx context.Context, c *Cache, s *slot[T]) error {
	gen, set := s.generation()
	if set {
		return nil
	}
	key := fmt.Sprintf("%s#%d", s.name, gen)
	_, err, shared := c.group.Do(key, func() (any, error) {
		if g, set := s.generation(); set && g == gen {
			return nil, nil
		}
		v, err := s.fetch(ctx)
		if err != nil {
			return nil, err
		}
		if !s.store(gen, v) {
			c.logger(ctx).Debug("cache fill discarded", "slot", s.name)
		}
		return nil, nil
	})
	if err != nil {
		if !shared {
			c.logger(ctx).Warn("cache fill failed", "slot", s.name, "err", err)
		}
		return fmt.Errorf("%s: %w", s.name, err)
	}
	c.logger(ctx).Trace("cache fill ok", "slot", s.name, "shared", shared)
	return nil
}

// InvalidateAll clears every slot. Fetches already in flight are discarded.
func (c *Cache) InvalidateAll() {
	c.profile.invalidate()
	c.skills.invalidate()
	c.projects.invalidate()
	c.experience.invalidate()
	c.education.invalidate()
	if c.log != nil {
		c.log.Debug("cache invalidated")
	}
}

// Refresh clears every slot and loads them again.
func (c *Cache) Refresh(ctx context.Context) error {
	c.InvalidateAll()
	return c.EnsureLoaded(ctx)
}

func (c *Cache) Profile() (schema.Profile, bool)          { return c.profile.get() }
func (c *Cache) Skills() ([]schema.Skill, bool)           { return c.skills.get() }
func (c *Cache) Projects() ([]schema.Project, bool)       { return c.projects.get() }
func (c *Cache) Experiences() ([]schema.Experience, bool) { return c.experience.get() }
func (c *Cache) Education() ([]schema.Education, bool)    { return c.education.get() }

// Status reports which slots are set.
func (c *Cache) Status() map[string]bool {
	_, profile := c.profile.get()
	_, skills := c.skills.get()
	_, projects := c.projects.get()
	_, experience := c.experience.get()
	_, education := c.education.get()
	return map[string]bool{
		SlotProfile:    profile,
		SlotSkills:     skills,
		SlotProjects:   projects,
		SlotExperience: experience,
		SlotEducation:  education,
	}
}

func (c *Cache) logger(ctx context.Context) pslog.Logger {
	if c.log != nil {
		return c.log
	}
	return pslog.Ctx(ctx)
}
