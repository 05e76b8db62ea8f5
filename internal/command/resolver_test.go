package command

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pkt.systems/pslog"
	"pkt.systems/termfolio/schema"
)

func newCaptureContext(t *testing.T) (context.Context, *logCapture) {
	t.Helper()
	capture := newLogCapture(t)
	logger := pslog.NewWithOptions(capture, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		VerboseFields: true,
		MinLevel:      pslog.DebugLevel,
	})
	return pslog.ContextWithLogger(context.Background(), logger), capture
}

func newResolverWith(name string, handler Handler) *Resolver {
	reg := NewRegistry()
	reg.MustRegister(name, handler, Info{})
	return NewResolver(ResolverConfig{Registry: reg})
}

func TestResolveEmptyInput(t *testing.T) {
	called := false
	resolver := newResolverWith("x", func(context.Context, Request) (schema.CommandResult, error) {
		called = true
		return schema.CommandResult{}, nil
	})
	result := resolver.Resolve(context.Background(), "   ", "en")
	if diff := cmp.Diff([]string{""}, result.Output); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
	if result.ClearScreen || called {
		t.Fatalf("empty input must have no side effects")
	}
}

func TestResolveUnknownCommand(t *testing.T) {
	resolver := NewResolver(ResolverConfig{})
	result := resolver.Resolve(context.Background(), "Foo*bar baz", "en")
	want := []string{
		schema.ErrorMarker + `Command not found: Foo\*bar`,
		"Type `help` to see the available commands.",
	}
	if diff := cmp.Diff(want, result.Output); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveUnknownCommandLocalized(t *testing.T) {
	resolver := NewResolver(ResolverConfig{})
	result := resolver.Resolve(context.Background(), "nope", "es")
	if len(result.Output) != 2 || result.Output[0] != schema.ErrorMarker+"Comando no encontrado: nope" {
		t.Fatalf("expected spanish error, got %q", result.Output)
	}
}

func TestResolveLookupIsCaseInsensitive(t *testing.T) {
	resolver := newResolverWith("ping", func(_ context.Context, req Request) (schema.CommandResult, error) {
		return schema.CommandResult{Output: []string{req.Name}}, nil
	})
	result := resolver.Resolve(context.Background(), "PING", "en")
	if diff := cmp.Diff([]string{"ping"}, result.Output); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveHandlerErrorIsLocalizedAndLogged(t *testing.T) {
	ctx, capture := newCaptureContext(t)
	resolver := newResolverWith("boom", func(context.Context, Request) (schema.CommandResult, error) {
		return schema.CommandResult{}, errors.New("backend down")
	})
	result := resolver.Resolve(ctx, "boom", "en")
	want := []string{schema.ErrorMarker + "Something went wrong while running that command. Please try again."}
	if diff := cmp.Diff(want, result.Output); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
	entry, ok := findEntry(capture.Entries(), "warn", "command resolve failed")
	if !ok {
		t.Fatalf("expected warn log for failed handler")
	}
	if entry.Fields["command"] != "boom" {
		t.Fatalf("expected command field, got %+v", entry.Fields)
	}
}

func TestResolveHandlerPanicIsContained(t *testing.T) {
	ctx, capture := newCaptureContext(t)
	resolver := newResolverWith("panic", func(context.Context, Request) (schema.CommandResult, error) {
		panic("kaboom")
	})
	result := resolver.Resolve(ctx, "panic", "en")
	if len(result.Output) != 1 || result.Output[0] != schema.ErrorMarker+"Something went wrong while running that command. Please try again." {
		t.Fatalf("expected generic error, got %q", result.Output)
	}
	if _, ok := findEntry(capture.Entries(), "warn", "command resolve failed"); !ok {
		t.Fatalf("expected warn log for panicking handler")
	}
}

func TestResolveNormalizesNilOutput(t *testing.T) {
	resolver := newResolverWith("quiet", func(context.Context, Request) (schema.CommandResult, error) {
		return schema.CommandResult{}, nil
	})
	result := resolver.Resolve(context.Background(), "quiet", "en")
	if result.Output == nil || len(result.Output) != 0 {
		t.Fatalf("expected empty non-nil output, got %#v", result.Output)
	}
}

func TestResolvePassesRequest(t *testing.T) {
	var got Request
	resolver := newResolverWith("show", func(_ context.Context, req Request) (schema.CommandResult, error) {
		got = req
		return schema.CommandResult{}, nil
	})
	resolver.Resolve(context.Background(), " show  a b ", "fr")
	if got.Name != "show" || got.Raw != "show  a b" {
		t.Fatalf("unexpected request %+v", got)
	}
	if diff := cmp.Diff([]string{"a", "b"}, got.Args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
	if got.Lang != schema.DefaultLanguage || got.T == nil {
		t.Fatalf("expected unsupported language to fall back to english, got %q", got.Lang)
	}
}

func TestResolveAuditLog(t *testing.T) {
	ctx, capture := newCaptureContext(t)
	resolver := NewResolver(ResolverConfig{Registry: NewDefaultRegistry(Deps{})})
	resolver.Resolve(ctx, "echo hi", "en")

	entries := capture.Entries()
	if !hasAuditCommand(entries, "echo hi") {
		t.Fatalf("expected audit log for command, got %d entries", len(entries))
	}
}

func TestResolveAuditLogDisabled(t *testing.T) {
	ctx, capture := newCaptureContext(t)
	resolver := NewResolver(ResolverConfig{Registry: NewDefaultRegistry(Deps{}), DisableAuditLogging: true})
	resolver.Resolve(ctx, "echo hi", "en")

	if hasAuditCommand(capture.Entries(), "echo hi") {
		t.Fatalf("did not expect audit log when disabled")
	}
}

type logEntry struct {
	Level   string
	Message string
	Fields  map[string]any
	Raw     string
}

type logCapture struct {
	t     *testing.T
	mu    sync.Mutex
	buf   bytes.Buffer
	lines []string
}

func newLogCapture(t *testing.T) *logCapture {
	t.Helper()
	return &logCapture{t: t}
}

func (c *logCapture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = c.buf.Write(p)
	for {
		data := c.buf.Bytes()
		idx := bytes.IndexByte(data, '\n')
		if idx == -1 {
			break
		}
		line := string(data[:idx])
		c.lines = append(c.lines, line)
		c.buf.Next(idx + 1)
	}
	return len(p), nil
}

func (c *logCapture) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.buf.Len() > 0 {
		c.lines = append(c.lines, c.buf.String())
		c.buf.Reset()
	}
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *logCapture) Entries() []logEntry {
	lines := c.Lines()
	entries := make([]logEntry, 0, len(lines))
	for _, line := range lines {
		entries = append(entries, parseLogEntry(line))
	}
	return entries
}

func parseLogEntry(line string) logEntry {
	payload := map[string]any{}
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		return logEntry{Raw: line}
	}
	level := ""
	if value, ok := payload["level"].(string); ok {
		level = value
	} else if value, ok := payload["lvl"].(string); ok {
		level = value
	}
	message := ""
	if value, ok := payload["message"].(string); ok {
		message = value
	} else if value, ok := payload["msg"].(string); ok {
		message = value
	}
	return logEntry{Level: level, Message: message, Fields: payload, Raw: line}
}

func hasAuditCommand(entries []logEntry, command string) bool {
	for _, entry := range entries {
		if entry.Level != "debug" || entry.Message != "audit command" {
			continue
		}
		if entry.Fields == nil {
			continue
		}
		if entry.Fields["input"] != command {
			continue
		}
		return true
	}
	return false
}

func findEntry(entries []logEntry, level, message string) (logEntry, bool) {
	for _, entry := range entries {
		if strings.HasPrefix(entry.Level, level) && entry.Message == message {
			return entry, true
		}
	}
	return logEntry{}, false
}
