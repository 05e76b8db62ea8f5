package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pkt.systems/termfolio/internal/clock"
	"pkt.systems/termfolio/internal/command"
	"pkt.systems/termfolio/internal/effect"
	"pkt.systems/termfolio/internal/i18n"
	"pkt.systems/termfolio/internal/logx"
	"pkt.systems/termfolio/internal/markup"
	"pkt.systems/termfolio/internal/persist"
	"pkt.systems/termfolio/internal/shell"
	"pkt.systems/termfolio/internal/version"
	"pkt.systems/termfolio/schema"
)

// ContentStatus reports which portfolio content is loaded.
type ContentStatus interface {
	Status() map[string]bool
}

// Options wires the shell dependencies of a Server.
type Options struct {
	Resolver *command.Resolver
	Catalog  *i18n.Catalog
	// Store persists preferences per session owner. Nil keeps them in memory.
	Store    *persist.Store
	Profiles effect.Profiles
	Content  ContentStatus
	Hub      *Hub
	Clock    clock.Clock
	// Dispatch runs command resolution. Nil starts a goroutine per command.
	Dispatch func(job func())
}

// Server serves the web shell and its API.
type Server struct {
	cfg      Config
	resolver *command.Resolver
	catalog  *i18n.Catalog
	store    *persist.Store
	profiles effect.Profiles
	content  ContentStatus
	clock    clock.Clock
	dispatch func(job func())
	sessions *sessionStore
	hub      *Hub
	basePath string
	baseHref string
}

const maxKeysPerRequest = 256

var (
	errSessionClosed = errors.New("session closed")
	errJSONRequired  = errors.New("content type must be application/json")
	errTooManyKeys   = fmt.Errorf("at most %d keys per request", maxKeysPerRequest)
)

// NewServer constructs an HTTP server.
func NewServer(cfg Config, opts Options) *Server {
	cfg = cfg.withDefaults()
	if opts.Catalog == nil {
		opts.Catalog = i18n.MustDefault()
	}
	if opts.Resolver == nil {
		opts.Resolver = command.NewResolver(command.ResolverConfig{
			Registry: command.NewDefaultRegistry(command.Deps{Catalog: opts.Catalog}),
			Catalog:  opts.Catalog,
		})
	}
	if opts.Hub == nil {
		opts.Hub = NewHub(cfg.ReplayEvents)
	}
	s := &Server{
		cfg:      cfg,
		resolver: opts.Resolver,
		catalog:  opts.Catalog,
		store:    opts.Store,
		profiles: opts.Profiles,
		content:  opts.Content,
		clock:    opts.Clock,
		dispatch: opts.Dispatch,
		sessions: newSessionStore(cfg.sessionTTL(), cfg.SessionStorePath),
		hub:      opts.Hub,
		basePath: normalizeBasePath(cfg.BasePath),
		baseHref: buildBaseHref(cfg.BaseURL, cfg.BasePath),
	}
	hub := s.hub
	s.sessions.onClose = func(sess *session) { hub.Forget(sess.id) }
	return s
}

// SetBaseContext sets the parent context for session lifetimes and sweeps expired
// sessions and idle shells until it is done.
func (s *Server) SetBaseContext(ctx context.Context) {
	if s == nil || ctx == nil {
		return
	}
	s.sessions.setBaseContext(ctx)
	go s.sessions.janitor(ctx, sweepInterval, s.cfg.IdleTimeout)
}

// Close stops every session shell. Sessions themselves remain valid.
func (s *Server) Close() {
	s.sessions.closeAll()
}

func (s *Server) baseContext() context.Context {
	return s.sessions.baseContext()
}

// Handler returns an http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.Handle("/assets/", http.StripPrefix("/assets/", http.FileServer(http.FS(assetsFS))))

	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/session", s.withSession(s.handleSession))
	mux.HandleFunc("/api/reset", s.handleReset)
	mux.HandleFunc("/api/input", s.withSession(s.handleInput))
	mux.HandleFunc("/api/keys", s.withSession(s.handleKeys))
	mux.HandleFunc("/api/history", s.withSession(s.handleHistory))
	mux.HandleFunc("/api/stream", s.withSession(s.handleStream))

	handler := withRequestLogging(mux, s.lookupSession)
	if s.basePath == "" {
		return handler
	}
	prefix := s.basePath
	root := http.NewServeMux()
	root.Handle(prefix+"/", http.StripPrefix(prefix, handler))
	root.HandleFunc(prefix, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != prefix {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, prefix+"/", http.StatusTemporaryRedirect)
	})
	return root
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess := s.ensureSession(w, r)
	data, err := fs.ReadFile(assetsFS, "index.html")
	if err != nil {
		http.Error(w, "index not found", http.StatusInternalServerError)
		return
	}
	stat, err := fs.Stat(assetsFS, "index.html")
	if err != nil {
		http.Error(w, "index not found", http.StatusInternalServerError)
		return
	}
	data = applyBaseHref(data, s.baseHref)
	data = applyUIMaxBufferLines(data, s.cfg.UIMaxBufferLines)
	data = bytes.ReplaceAll(data, []byte(titlePlaceholder), []byte(html.EscapeString(s.cfg.Title)))
	data = bytes.ReplaceAll(data, []byte(langPlaceholder), []byte(html.EscapeString(string(sess.lang))))
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, "index.html", stat.ModTime(), bytes.NewReader(data))
}

const (
	baseHrefPlaceholder         = "<!-- BASE_HREF -->"
	uiMaxBufferLinesPlaceholder = "UI_MAX_BUFFER_LINES"
	titlePlaceholder            = "{{TITLE}}"
	langPlaceholder             = "{{LANG}}"
)

func applyBaseHref(data []byte, baseHref string) []byte {
	replacement := ""
	if strings.TrimSpace(baseHref) != "" {
		replacement = fmt.Sprintf(`<base href="%s" />`, html.EscapeString(baseHref))
	}
	return bytes.ReplaceAll(data, []byte(baseHrefPlaceholder), []byte(replacement))
}

func applyUIMaxBufferLines(data []byte, maxLines int) []byte {
	if maxLines <= 0 {
		maxLines = defaultUIMaxBufferLines
	}
	replacement := []byte(strconv.Itoa(maxLines))
	return bytes.ReplaceAll(data, []byte(uiMaxBufferLinesPlaceholder), replacement)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	content := map[string]bool{}
	if s.content != nil {
		content = s.content.Status()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": s.sessions.count(),
		"content":  content,
		"version":  version.Current(),
	})
}

type sessionResponse struct {
	SessionID schema.SessionID   `json:"session_id"`
	Language  schema.Language    `json:"language"`
	Languages []schema.Language  `json:"languages"`
	Theme     schema.ThemeName   `json:"theme"`
	Shown     schema.ThemeName   `json:"shown_theme"`
	Themes    []schema.ThemeName `json:"themes"`
	Mode      string             `json:"mode"`
	Input     InputPayload       `json:"input"`
	Tones     bool               `json:"tones"`
	Prompt    string             `json:"prompt"`
	Title     string             `json:"title"`
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request, sess *session, sh *webShell) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	widget := sh.widget
	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID: sess.id,
		Language:  widget.Language(),
		Languages: s.catalog.Languages(),
		Theme:     widget.Theme(),
		Shown:     widget.ShownTheme(),
		Themes:    schema.AvailableThemes(),
		Mode:      widget.Mode().String(),
		Input:     inputPayload(widget.Input()),
		Tones:     s.cfg.Tones,
		Prompt:    s.cfg.Prompt,
		Title:     s.cfg.Title,
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context()).With("remote", clientIP(r))
	if token := s.sessionToken(r); token != "" {
		if entry, ok := s.sessions.get(token); ok {
			log = logx.WithOwnerSession(r.Context(), entry.owner, entry.id).With("remote", clientIP(r))
		}
		s.sessions.delete(token)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	log.Info("http session reset")
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request, sess *session, sh *webShell) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	if !isJSONRequest(r) {
		writeError(w, http.StatusUnsupportedMediaType, errJSONRequired)
		return
	}
	var payload struct {
		Line string `json:"line"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http input decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sh.widget.Submit(payload.Line)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"input": inputPayload(sh.widget.Input()),
	})
	log.Debug("http input accepted", "len", len(payload.Line))
}

type keyRequest struct {
	Kind  string `json:"kind"`
	Text  string `json:"text,omitempty"`
	Index int    `json:"index,omitempty"`
}

var keyKinds = map[string]shell.KeyKind{
	"rune":        shell.KeyRune,
	"enter":       shell.KeyEnter,
	"tab":         shell.KeyTab,
	"up":          shell.KeyUp,
	"down":        shell.KeyDown,
	"escape":      shell.KeyEscape,
	"backspace":   shell.KeyBackspace,
	"delete":      shell.KeyDelete,
	"left":        shell.KeyLeft,
	"right":       shell.KeyRight,
	"home":        shell.KeyHome,
	"end":         shell.KeyEnd,
	"word_left":   shell.KeyWordLeft,
	"word_right":  shell.KeyWordRight,
	"delete_word": shell.KeyDeleteWord,
	"kill_start":  shell.KeyKillStart,
	"kill_end":    shell.KeyKillEnd,
	"select":      shell.KeySelect,
	"interrupt":   shell.KeyInterrupt,
	"clear":       shell.KeyClearScreen,
}

// decodeKeys expands a key request into widget keys. Rune requests carry text and
// produce one key per rune.
func decodeKeys(requests []keyRequest) ([]shell.Key, error) {
	keys := make([]shell.Key, 0, len(requests))
	for _, req := range requests {
		kind, ok := keyKinds[strings.ToLower(strings.TrimSpace(req.Kind))]
		if !ok {
			return nil, fmt.Errorf("%w: unknown key %q", schema.ErrInvalidRequest, req.Kind)
		}
		if kind == shell.KeyRune {
			for _, r := range req.Text {
				keys = append(keys, shell.Key{Kind: shell.KeyRune, Rune: r})
			}
		} else {
			keys = append(keys, shell.Key{Kind: kind, Index: req.Index})
		}
		if len(keys) > maxKeysPerRequest {
			return nil, errTooManyKeys
		}
	}
	return keys, nil
}

func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request, sess *session, sh *webShell) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.Ctx(r.Context())
	if !isJSONRequest(r) {
		writeError(w, http.StatusUnsupportedMediaType, errJSONRequired)
		return
	}
	var payload struct {
		Keys []keyRequest `json:"keys"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http keys decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	keys, err := decodeKeys(payload.Keys)
	if err != nil {
		log.Warn("http keys rejected", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	for _, key := range keys {
		sh.widget.HandleKey(key)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"input": inputPayload(sh.widget.Input()),
	})
	log.Trace("http keys applied", "keys", len(keys))
}

type historyEntry struct {
	Command   string    `json:"command"`
	Output    []string  `json:"output"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, sess *session, sh *webShell) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	entries := sh.widget.History()
	limit := parseInt(r.URL.Query().Get("limit"), len(entries))
	if limit >= 0 && limit < len(entries) {
		entries = entries[len(entries)-limit:]
	}
	out := make([]historyEntry, 0, len(entries))
	for _, entry := range entries {
		lines := make([]string, len(entry.Output))
		for i, line := range entry.Output {
			lines[i] = markup.Plain(line)
		}
		out = append(out, historyEntry{Command: entry.Command, Output: lines, Timestamp: entry.Timestamp})
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": out})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request, sess *session, sh *webShell) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("stream unsupported"))
		return
	}
	log := logx.Ctx(r.Context())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	lastID := parseUint(r.Header.Get("Last-Event-ID"))
	initial, ch, unsubscribe := sh.display.attach(lastID, sh.widget.Language())
	defer unsubscribe()
	for _, event := range initial {
		_ = writeSSEvent(w, event)
	}
	flusher.Flush()

	notify := r.Context().Done()
	log.Info("http stream opened", "last_id", lastID, "initial", len(initial), "snapshot", initial[0].Type == EventSnapshot)
	for {
		select {
		case <-notify:
			log.Info("http stream closed")
			return
		case event, ok := <-ch:
			if !ok {
				log.Info("http stream ended", "reason", "shell closed")
				return
			}
			_ = writeSSEvent(w, event)
			flusher.Flush()
		}
	}
}

// withSession resolves the visitor's session, creating one when the cookie is
// missing or stale, and hands over its running shell.
func (s *Server) withSession(next func(http.ResponseWriter, *http.Request, *session, *webShell)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := s.ensureSession(w, r)
		sh, ok := entry.acquire(s.sessions.now(), s.newShell)
		if !ok {
			writeError(w, http.StatusGone, errSessionClosed)
			return
		}
		log := logx.Ctx(r.Context()).With("remote", clientIP(r))
		ctx := logx.ContextWithOwnerSessionLogger(r.Context(), log, entry.owner, entry.id)
		next(w, r.WithContext(ctx), entry, sh)
	}
}

func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) *session {
	if entry, ok := s.sessions.get(s.sessionToken(r)); ok {
		return entry
	}
	token, entry := s.sessions.create(s.requestLanguage(r))
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https"),
		Expires:  entry.expiresAt,
	})
	// Lets the request log attribute the new session.
	r.AddCookie(&http.Cookie{Name: s.cfg.SessionCookie, Value: token})
	return entry
}

// requestLanguage negotiates the session language. A lang query parameter wins over
// Accept-Language.
func (s *Server) requestLanguage(r *http.Request) schema.Language {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		if normalized, ok := schema.NormalizeLanguage(lang); ok && s.catalog.Supports(normalized) {
			return normalized
		}
	}
	return s.catalog.Match(r.Header.Get("Accept-Language"))
}

func (s *Server) sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(s.cfg.SessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (s *Server) lookupSession(r *http.Request) (schema.OwnerID, schema.SessionID) {
	if s == nil || r == nil {
		return "", ""
	}
	entry, ok := s.sessions.get(s.sessionToken(r))
	if !ok {
		return "", ""
	}
	return entry.owner, entry.id
}

func isJSONRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

func decodeJSON(body io.Reader, target any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeSSEvent(w http.ResponseWriter, event StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if event.Seq > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", event.Seq)
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", strings.TrimSpace(string(data)))
	return nil
}

func parseUint(value string) uint64 {
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
