package httpapi

import "time"

// Config defines HTTP host and UI settings.
type Config struct {
	Addr            string
	SessionCookie   string
	SessionTTLHours int
	// SessionStorePath keeps session tokens across restarts when set.
	SessionStorePath string
	// IdleTimeout closes the shell of a session nobody is watching. The session
	// itself survives and gets a fresh shell on its next request.
	IdleTimeout time.Duration
	BaseURL     string
	BasePath    string
	Prompt      string
	Title       string
	// ReplayEvents bounds the per-session event history used for reconnect replay.
	ReplayEvents int
	// UIMaxBufferLines bounds the lines kept by the browser and by snapshots.
	UIMaxBufferLines int
	// Tones streams audio voices to the browser.
	Tones bool
}

const (
	defaultSessionCookie    = "termfolio_session"
	defaultSessionTTL       = 30 * 24 * time.Hour
	defaultIdleTimeout      = 30 * time.Minute
	defaultReplayEvents     = 1000
	defaultUIMaxBufferLines = 2000
	defaultPrompt           = "$ "
	defaultTitle            = "termfolio"
	sweepInterval           = time.Minute
	shutdownTimeout         = 5 * time.Second
)

func (c Config) withDefaults() Config {
	if c.SessionCookie == "" {
		c.SessionCookie = defaultSessionCookie
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = defaultIdleTimeout
	}
	if c.ReplayEvents <= 0 {
		c.ReplayEvents = defaultReplayEvents
	}
	if c.UIMaxBufferLines <= 0 {
		c.UIMaxBufferLines = defaultUIMaxBufferLines
	}
	if c.Prompt == "" {
		c.Prompt = defaultPrompt
	}
	if c.Title == "" {
		c.Title = defaultTitle
	}
	return c
}

func (c Config) sessionTTL() time.Duration {
	ttl := time.Duration(c.SessionTTLHours) * time.Hour
	if ttl <= 0 {
		return defaultSessionTTL
	}
	return ttl
}
