package httpapi

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type sessionTestKey struct{}

type steppedNow struct {
	now time.Time
}

func (s *steppedNow) Now() time.Time { return s.now }

func newTestStore(t *testing.T, ttl time.Duration, path string) (*sessionStore, *steppedNow) {
	t.Helper()
	clk := &steppedNow{now: time.Unix(1700000000, 0)}
	store := newSessionStore(ttl, "")
	store.now = clk.Now
	if path != "" {
		store.path = path
		if err := store.load(); err != nil {
			t.Fatalf("load: %v", err)
		}
	}
	return store, clk
}

func TestSessionStoreCreateGetDelete(t *testing.T) {
	store := newSessionStore(time.Hour, "")
	token, sess := store.create("es")
	if token == "" {
		t.Fatalf("expected token")
	}
	if sess.lang != "es" || !strings.HasPrefix(string(sess.owner), "web-") || sess.id == "" {
		t.Fatalf("unexpected session %+v", sess)
	}
	if sess.ctx == nil {
		t.Fatalf("expected session context")
	}
	if got, ok := store.get(token); !ok || got != sess {
		t.Fatalf("expected session to be found")
	}
	store.delete(token)
	if _, ok := store.get(token); ok {
		t.Fatalf("expected session to be deleted")
	}
	select {
	case <-sess.ctx.Done():
	default:
		t.Fatalf("expected session context to be canceled")
	}
	if _, ok := sess.acquire(time.Now(), func(*session) *webShell { return &webShell{} }); ok {
		t.Fatalf("expected closed session to refuse a shell")
	}
}

func TestSessionStoreDefaultsLanguage(t *testing.T) {
	store := newSessionStore(time.Hour, "")
	_, sess := store.create("")
	if sess.lang != "en" {
		t.Fatalf("expected default language, got %q", sess.lang)
	}
}

func TestSessionStoreExpiration(t *testing.T) {
	store, clk := newTestStore(t, time.Minute, "")
	var closed []string
	store.onClose = func(s *session) { closed = append(closed, string(s.id)) }
	token, sess := store.create("en")
	clk.now = clk.now.Add(2 * time.Minute)
	if _, ok := store.get(token); ok {
		t.Fatalf("expected expired session")
	}
	select {
	case <-sess.ctx.Done():
	default:
		t.Fatalf("expected session context to be canceled")
	}
	if len(closed) != 1 || closed[0] != string(sess.id) {
		t.Fatalf("expected close hook for expired session, got %v", closed)
	}
}

func TestSessionStoreSweepDropsExpired(t *testing.T) {
	store, clk := newTestStore(t, time.Minute, "")
	store.create("en")
	clk.now = clk.now.Add(30 * time.Second)
	keep, _ := store.create("en")
	clk.now = clk.now.Add(45 * time.Second)

	expired, released := store.sweep(time.Hour)
	if expired != 1 || released != 0 {
		t.Fatalf("expected 1 expired 0 released, got %d %d", expired, released)
	}
	if store.count() != 1 {
		t.Fatalf("expected one session left, got %d", store.count())
	}
	if _, ok := store.get(keep); !ok {
		t.Fatalf("expected newer session kept")
	}
}

func TestSessionStoreBaseContext(t *testing.T) {
	store := newSessionStore(time.Hour, "")
	_, before := store.create("en")
	baseKey := sessionTestKey{}
	base := context.WithValue(context.Background(), baseKey, "value")
	store.setBaseContext(base)
	_, sess := store.create("en")
	if got := sess.ctx.Value(baseKey); got != "value" {
		t.Fatalf("expected base context value, got %v", got)
	}
	if got := before.ctx.Value(baseKey); got != "value" {
		t.Fatalf("expected existing session re-parented, got %v", got)
	}
}

func TestSessionStorePersistsSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	store := newSessionStore(time.Hour, path)
	token, sess := store.create("es")

	loaded := newSessionStore(time.Hour, path)
	got, ok := loaded.get(token)
	if !ok {
		t.Fatalf("expected session to be loaded")
	}
	if got.id != sess.id || got.owner != sess.owner || got.lang != "es" {
		t.Fatalf("expected identity to survive, got %+v", got)
	}
}

func TestSessionStorePersistsExpiration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	store, clk := newTestStore(t, time.Minute, path)
	token, _ := store.create("en")
	clk.now = clk.now.Add(2 * time.Minute)
	if _, ok := store.get(token); ok {
		t.Fatalf("expected session to expire")
	}
	loaded := newSessionStore(time.Hour, path)
	if _, ok := loaded.get(token); ok {
		t.Fatalf("expected expired session to be removed from persistence")
	}
}
