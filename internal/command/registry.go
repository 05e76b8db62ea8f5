package command

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"pkt.systems/termfolio/internal/i18n"
	"pkt.systems/termfolio/schema"
)

// Request is what a handler receives for one invocation.
type Request struct {
	Name string
	Args []string
	Raw  string
	Lang schema.Language
	T    *i18n.Bundle
}

// Handler produces the output of a command. Handlers may block; the resolver calls
// them off the shell's lock.
type Handler func(ctx context.Context, req Request) (schema.CommandResult, error)

// Info describes a registered command.
type Info struct {
	// Hidden commands are resolvable but not listed by help or completion.
	Hidden bool
}

type entry struct {
	name    string
	handler Handler
	info    Info
}

// Registry maps command names to handlers.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	order   []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a handler under name. Names are unique, non-empty, lowercase and
// contain no whitespace.
func (r *Registry) Register(name string, handler Handler, info Info) error {
	if err := validateName(name); err != nil {
		return err
	}
	if handler == nil {
		return fmt.Errorf("register %q: nil handler", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("register %q: %w", name, schema.ErrDuplicateCommand)
	}
	r.entries[name] = entry{name: name, handler: handler, info: info}
	r.order = append(r.order, name)
	return nil
}

// MustRegister is Register that panics on error. Used for the built-in table.
func (r *Registry) MustRegister(name string, handler Handler, info Info) {
	if err := r.Register(name, handler, info); err != nil {
		panic(err)
	}
}

func validateName(name string) error {
	if name == "" || name != strings.ToLower(name) || strings.ContainsFunc(name, isSpaceRune) {
		return fmt.Errorf("register %q: %w", name, schema.ErrInvalidCommandName)
	}
	return nil
}

func isSpaceRune(r rune) bool {
	return r < 0x80 && isSpace(byte(r))
}

// Lookup finds a handler by name, case-insensitively.
func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return e.handler, true
}

// Info returns the metadata of a registered command.
func (r *Registry) Info(name string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[strings.ToLower(name)]
	return e.info, ok
}

// Names returns every registered name in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Visible returns the names that are not hidden, in registration order.
func (r *Registry) Visible() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.order))
	for _, name := range r.order {
		if !r.entries[name].info.Hidden {
			out = append(out, name)
		}
	}
	return out
}
