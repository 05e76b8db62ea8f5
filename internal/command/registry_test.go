package command

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pkt.systems/termfolio/schema"
)

func noop(context.Context, Request) (schema.CommandResult, error) {
	return schema.CommandResult{}, nil
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("about", noop, Info{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := reg.Register("about", noop, Info{})
	if !errors.Is(err, schema.ErrDuplicateCommand) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestRegistryRejectsInvalidNames(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"", "About", "two words"} {
		if err := reg.Register(name, noop, Info{}); !errors.Is(err, schema.ErrInvalidCommandName) {
			t.Fatalf("expected invalid name error for %q, got %v", name, err)
		}
	}
	if err := reg.Register("nil", nil, Info{}); err == nil {
		t.Fatalf("expected nil handler to be rejected")
	}
}

func TestRegistryLookupIsCaseInsensitive(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("skills", noop, Info{})
	if _, ok := reg.Lookup("SKILLS"); !ok {
		t.Fatalf("expected case-insensitive lookup")
	}
	if _, ok := reg.Lookup("skill"); ok {
		t.Fatalf("expected no prefix lookup")
	}
}

func TestRegistryOrderAndVisibility(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("help", noop, Info{})
	reg.MustRegister("hack", noop, Info{Hidden: true})
	reg.MustRegister("history", noop, Info{})
	if diff := cmp.Diff([]string{"help", "hack", "history"}, reg.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"help", "history"}, reg.Visible()); diff != "" {
		t.Fatalf("visible mismatch (-want +got):\n%s", diff)
	}
	info, ok := reg.Info("HACK")
	if !ok || !info.Hidden {
		t.Fatalf("expected hidden info, got %+v %v", info, ok)
	}
}

func TestDefaultRegistryTable(t *testing.T) {
	reg := NewDefaultRegistry(Deps{})
	want := []string{
		"help", "about", "whoami", "skills", "projects", "experience", "education", "contact",
		"ls", "cat", "clear", "refresh", "lang", "theme", "history", "date", "echo",
		"matrix", "undertale", "coffee", "sudo", "hack", "konami", "pokemon", "pizza",
		"vim", "42", "debug", "emoji", "rm",
	}
	if diff := cmp.Diff(want, reg.Names()); diff != "" {
		t.Fatalf("command table mismatch (-want +got):\n%s", diff)
	}
}
