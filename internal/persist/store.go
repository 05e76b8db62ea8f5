package persist

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"pkt.systems/pslog"
	"pkt.systems/termfolio/schema"
)

// Persisted preference keys.
const (
	KeyLanguage          = "language"
	KeyTheme             = "theme"
	KeyHackPreviousTheme = "hack_previous_theme"
)

// KV is a string key/value store bound to one owner.
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// Store persists per-owner preference maps to disk, one JSON file per owner.
type Store struct {
	dir string
	log pslog.Logger
	mu  sync.Mutex
}

// NewStore constructs a persistent store at the given directory.
func NewStore(dir string) (*Store, error) {
	return NewStoreWithLogger(dir, nil)
}

// NewStoreWithLogger constructs a persistent store with logging.
func NewStoreWithLogger(dir string, logger pslog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("state directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("state_dir", dir)
	}
	return &Store{dir: dir, log: logger}, nil
}

// Load reads an owner's preferences from disk.
func (s *Store) Load(owner schema.OwnerID) (map[string]string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(owner)
}

func (s *Store) loadLocked(owner schema.OwnerID) (map[string]string, bool, error) {
	path := s.pathForOwner(owner)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if s.log != nil {
				s.log.Debug("prefs load miss", "owner", owner)
			}
			return map[string]string{}, false, nil
		}
		if s.log != nil {
			s.log.Warn("prefs load failed", "owner", owner, "err", err)
		}
		return nil, false, err
	}
	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		if s.log != nil {
			s.log.Warn("prefs load failed", "owner", owner, "err", err)
		}
		return nil, false, err
	}
	if s.log != nil {
		s.log.Debug("prefs load ok", "owner", owner, "keys", len(values))
	}
	return values, true, nil
}

// Save replaces an owner's preferences on disk.
func (s *Store) Save(owner schema.OwnerID, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(owner, values)
}

// Update applies fn to the owner's current preferences and saves the result.
func (s *Store) Update(owner schema.OwnerID, fn func(values map[string]string)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, _, err := s.loadLocked(owner)
	if err != nil {
		// Unreadable prefs are replaced.
		values = map[string]string{}
	}
	fn(values)
	return s.saveLocked(owner, values)
}

func (s *Store) saveLocked(owner schema.OwnerID, values map[string]string) error {
	path := s.pathForOwner(owner)
	fail := func(err error) error {
		if s.log != nil {
			s.log.Warn("prefs save failed", "owner", owner, "err", err)
		}
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fail(err)
	}
	if values == nil {
		values = map[string]string{}
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fail(err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "prefs-*.json")
	if err != nil {
		return fail(err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fail(err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		return fail(err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fail(err)
	}
	if s.log != nil {
		s.log.Trace("prefs save ok", "owner", owner, "keys", len(values))
	}
	return nil
}

// Bind returns a KV view of one owner's preferences. Write failures are logged.
func (s *Store) Bind(owner schema.OwnerID) KV {
	return &ownerKV{store: s, owner: owner}
}

type ownerKV struct {
	store *Store
	owner schema.OwnerID
}

func (o *ownerKV) Get(key string) (string, bool) {
	values, _, err := o.store.Load(o.owner)
	if err != nil {
		return "", false
	}
	v, ok := values[key]
	return v, ok
}

func (o *ownerKV) Set(key, value string) {
	_ = o.store.Update(o.owner, func(values map[string]string) {
		values[key] = value
	})
}

func (o *ownerKV) Delete(key string) {
	_ = o.store.Update(o.owner, func(values map[string]string) {
		delete(values, key)
	})
}

func (s *Store) pathForOwner(owner schema.OwnerID) string {
	name := sanitize(string(owner))
	if name == "" {
		name = "anonymous"
	}
	return filepath.Join(s.dir, name+".json")
}

func sanitize(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		if r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	return b.String()
}
