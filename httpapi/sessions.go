package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pkt.systems/termfolio/internal/logx"
	"pkt.systems/termfolio/schema"
)

// session is one anonymous browser visitor. The shell is built on first use and may
// be released while idle; the session and its preferences outlive it.
type session struct {
	id        schema.SessionID
	owner     schema.OwnerID
	lang      schema.Language
	expiresAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc

	mu       sync.Mutex
	shell    *webShell
	lastSeen time.Time
	closed   bool
}

// acquire returns the session shell, building it with build when there is none.
func (s *session) acquire(now time.Time, build func(*session) *webShell) (*webShell, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false
	}
	s.lastSeen = now
	if s.shell == nil {
		s.shell = build(s)
	}
	return s.shell, true
}

// releaseIdle closes the shell when it has been unused for longer than idle.
func (s *session) releaseIdle(now time.Time, idle time.Duration) bool {
	s.mu.Lock()
	sh := s.shell
	if sh == nil || now.Sub(s.lastSeen) < idle || sh.watched() {
		s.mu.Unlock()
		return false
	}
	s.shell = nil
	s.mu.Unlock()
	sh.close()
	return true
}

func (s *session) close() {
	s.mu.Lock()
	sh := s.shell
	s.shell = nil
	s.closed = true
	s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	if sh != nil {
		sh.close()
	}
}

type sessionStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	baseCtx context.Context
	items   map[string]*session
	path    string
	now     func() time.Time
	onClose func(*session)
}

func newSessionStore(ttl time.Duration, path string) *sessionStore {
	store := &sessionStore{
		ttl:     ttl,
		baseCtx: context.TODO(),
		items:   make(map[string]*session),
		path:    strings.TrimSpace(path),
		now:     time.Now,
	}
	if store.path != "" {
		if err := store.load(); err != nil {
			logx.Ctx(context.Background()).Warn("session store load failed", "err", err)
		}
	}
	return store
}

func (s *sessionStore) create(lang schema.Language) (string, *session) {
	token := randomToken(32)
	entry := s.newSession("", lang, s.now().Add(s.ttl))
	s.mu.Lock()
	s.items[token] = entry
	s.mu.Unlock()
	s.persist()
	logx.WithOwnerSession(context.Background(), entry.owner, entry.id).Info("session created", "lang", lang, "expires", entry.expiresAt.Format(time.RFC3339))
	return token, entry
}

func (s *sessionStore) get(token string) (*session, bool) {
	if token == "" {
		return nil, false
	}
	s.mu.Lock()
	entry, ok := s.items[token]
	if !ok {
		s.mu.Unlock()
		return nil, false
	}
	if s.now().After(entry.expiresAt) {
		delete(s.items, token)
		s.mu.Unlock()
		s.closeEntry(entry)
		logx.WithOwnerSession(context.Background(), entry.owner, entry.id).Info("session expired")
		s.persist()
		return nil, false
	}
	s.mu.Unlock()
	return entry, true
}

func (s *sessionStore) delete(token string) {
	s.mu.Lock()
	entry, ok := s.items[token]
	if ok {
		delete(s.items, token)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	s.closeEntry(entry)
	logx.WithOwnerSession(context.Background(), entry.owner, entry.id).Info("session deleted")
	s.persist()
}

func (s *sessionStore) closeEntry(entry *session) {
	entry.close()
	if s.onClose != nil {
		s.onClose(entry)
	}
}

func (s *sessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// sweep drops expired sessions and releases shells idle for longer than idle.
func (s *sessionStore) sweep(idle time.Duration) (expired, released int) {
	now := s.now()
	s.mu.Lock()
	var gone []*session
	live := make([]*session, 0, len(s.items))
	for token, entry := range s.items {
		if now.After(entry.expiresAt) {
			delete(s.items, token)
			gone = append(gone, entry)
			continue
		}
		live = append(live, entry)
	}
	s.mu.Unlock()

	for _, entry := range gone {
		s.closeEntry(entry)
	}
	for _, entry := range live {
		if entry.releaseIdle(now, idle) {
			released++
		}
	}
	if len(gone) > 0 {
		s.persist()
	}
	return len(gone), released
}

// janitor sweeps until ctx is done.
func (s *sessionStore) janitor(ctx context.Context, interval, idle time.Duration) {
	log := logx.Ctx(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, released := s.sweep(idle)
			if expired > 0 || released > 0 {
				log.Debug("session sweep done", "expired", expired, "released", released, "sessions", s.count())
			}
		}
	}
}

// setBaseContext re-parents every session. Shells bound to the old context are
// closed and rebuilt on next use.
func (s *sessionStore) setBaseContext(ctx context.Context) {
	if ctx == nil {
		return
	}
	s.mu.Lock()
	s.baseCtx = ctx
	var stale []*webShell
	for _, entry := range s.items {
		if entry.cancel != nil {
			entry.cancel()
		}
		entry.mu.Lock()
		if entry.shell != nil {
			stale = append(stale, entry.shell)
			entry.shell = nil
		}
		entry.ctx, entry.cancel = context.WithCancel(ctx)
		entry.mu.Unlock()
	}
	s.mu.Unlock()
	for _, sh := range stale {
		sh.close()
	}
	logx.Ctx(ctx).Debug("session base context set")
}

func (s *sessionStore) baseContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.baseCtx != nil {
		return s.baseCtx
	}
	return context.TODO()
}

// closeAll closes every session without forgetting it, so persisted tokens survive
// a restart.
func (s *sessionStore) closeAll() {
	s.mu.Lock()
	entries := make([]*session, 0, len(s.items))
	for _, entry := range s.items {
		entries = append(entries, entry)
	}
	s.mu.Unlock()
	for _, entry := range entries {
		entry.mu.Lock()
		sh := entry.shell
		entry.shell = nil
		entry.mu.Unlock()
		if sh != nil {
			sh.close()
		}
	}
}

func randomToken(size int) string {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

type sessionRecord struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	Language  string    `json:"language,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

type sessionFile struct {
	Version  int             `json:"version"`
	Sessions []sessionRecord `json:"sessions"`
}

// ownerForSession names the preference owner of a web session.
func ownerForSession(id schema.SessionID) schema.OwnerID {
	return schema.OwnerID("web-" + string(id))
}

func (s *sessionStore) newSession(id schema.SessionID, lang schema.Language, expiresAt time.Time) *session {
	if strings.TrimSpace(string(id)) == "" {
		id = schema.SessionID(uuid.NewString())
	}
	if lang == "" {
		lang = schema.DefaultLanguage
	}
	ctx, cancel := context.WithCancel(s.baseContext())
	return &session{
		id:        id,
		owner:     ownerForSession(id),
		lang:      lang,
		expiresAt: expiresAt,
		ctx:       ctx,
		cancel:    cancel,
		lastSeen:  s.now(),
	}
}

func (s *sessionStore) load() error {
	path := s.path
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var file sessionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return err
	}
	now := s.now()
	entries := make(map[string]*session)
	for _, record := range file.Sessions {
		if strings.TrimSpace(record.Token) == "" {
			continue
		}
		if strings.TrimSpace(record.SessionID) == "" {
			continue
		}
		if now.After(record.ExpiresAt) {
			continue
		}
		lang, _ := schema.NormalizeLanguage(record.Language)
		entries[record.Token] = s.newSession(schema.SessionID(record.SessionID), lang, record.ExpiresAt)
	}
	s.mu.Lock()
	s.items = entries
	s.mu.Unlock()
	if len(file.Sessions) != len(entries) {
		s.persist()
	}
	logx.Ctx(context.Background()).Info("session store loaded", "sessions", len(entries))
	return nil
}

func (s *sessionStore) persist() {
	if s.path == "" {
		return
	}
	records := s.snapshot()
	if err := writeSessionFile(s.path, records); err != nil {
		logx.Ctx(context.Background()).Warn("session store save failed", "err", err)
	}
}

func (s *sessionStore) snapshot() []sessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]sessionRecord, 0, len(s.items))
	for token, entry := range s.items {
		records = append(records, sessionRecord{
			Token:     token,
			SessionID: string(entry.id),
			Language:  string(entry.lang),
			ExpiresAt: entry.expiresAt,
		})
	}
	return records
}

func writeSessionFile(path string, records []sessionRecord) error {
	payload := sessionFile{Version: 1, Sessions: records}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "sessions-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
