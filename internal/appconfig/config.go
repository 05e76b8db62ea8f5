package appconfig

import (
	"os"
	"path/filepath"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	StateDir      string        `mapstructure:"state_dir" yaml:"state_dir"`
	Content       ContentConfig `mapstructure:"content" yaml:"content"`
	HTTP          HTTPConfig    `mapstructure:"http" yaml:"http"`
	SSH           SSHConfig     `mapstructure:"ssh" yaml:"ssh"`
	Effects       EffectsConfig `mapstructure:"effects" yaml:"effects"`
	Logging       LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// ContentConfig selects where portfolio content comes from. File and URL are
// mutually exclusive; with neither set the built-in sample is served.
type ContentConfig struct {
	File                string `mapstructure:"file" yaml:"file"`
	URL                 string `mapstructure:"url" yaml:"url"`
	Watch               bool   `mapstructure:"watch" yaml:"watch"`
	WatchDebounceMS     int    `mapstructure:"watch_debounce_ms" yaml:"watch_debounce_ms"`
	FetchTimeoutSeconds int    `mapstructure:"fetch_timeout_seconds" yaml:"fetch_timeout_seconds"`
}

// HTTPConfig configures the web host.
type HTTPConfig struct {
	Enabled            bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr               string `mapstructure:"addr" yaml:"addr"`
	SessionCookie      string `mapstructure:"session_cookie" yaml:"session_cookie"`
	SessionTTLHours    int    `mapstructure:"session_ttl_hours" yaml:"session_ttl_hours"`
	SessionStorePath   string `mapstructure:"session_store_path" yaml:"session_store_path"`
	IdleTimeoutMinutes int    `mapstructure:"idle_timeout_minutes" yaml:"idle_timeout_minutes"`
	BaseURL            string `mapstructure:"base_url" yaml:"base_url"`
	BasePath           string `mapstructure:"base_path" yaml:"base_path"`
	Prompt             string `mapstructure:"prompt" yaml:"prompt"`
	Title              string `mapstructure:"title" yaml:"title"`
	ReplayEvents       int    `mapstructure:"replay_events" yaml:"replay_events"`
	UIMaxBufferLines   int    `mapstructure:"ui_max_buffer_lines" yaml:"ui_max_buffer_lines"`
	Tones              bool   `mapstructure:"tones" yaml:"tones"`
}

// SSHConfig configures the SSH host.
type SSHConfig struct {
	Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr           string `mapstructure:"addr" yaml:"addr"`
	HostKeyPath    string `mapstructure:"host_key_path" yaml:"host_key_path"`
	Prompt         string `mapstructure:"prompt" yaml:"prompt"`
	Title          string `mapstructure:"title" yaml:"title"`
	BellIntervalMS int    `mapstructure:"bell_interval_ms" yaml:"bell_interval_ms"`
}

// EffectsConfig tunes playback per effect mode. Zero values keep the built-in timing.
type EffectsConfig struct {
	Normal    TuningConfig `mapstructure:"normal" yaml:"normal"`
	Hack      TuningConfig `mapstructure:"hack" yaml:"hack"`
	Undertale TuningConfig `mapstructure:"undertale" yaml:"undertale"`
}

// TuningConfig overrides one effect profile.
type TuningConfig struct {
	CharDelayMinMS int     `mapstructure:"char_delay_min_ms" yaml:"char_delay_min_ms"`
	CharDelayMaxMS int     `mapstructure:"char_delay_max_ms" yaml:"char_delay_max_ms"`
	LinePauseMS    int     `mapstructure:"line_pause_ms" yaml:"line_pause_ms"`
	BurstChance    float64 `mapstructure:"burst_chance" yaml:"burst_chance"`
	AlarmShare     float64 `mapstructure:"alarm_share" yaml:"alarm_share"`
	RestoreDelayMS int     `mapstructure:"restore_delay_ms" yaml:"restore_delay_ms"`
}

// LoggingConfig controls audit logging behavior.
type LoggingConfig struct {
	DisableAuditTrails bool `mapstructure:"disable_audit_trails" yaml:"disable_audit_trails"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	root := filepath.Join(home, ".termfolio")
	return Config{
		ConfigVersion: CurrentConfigVersion,
		StateDir:      filepath.Join(root, "state"),
		Content: ContentConfig{
			File:                "",
			URL:                 "",
			Watch:               true,
			WatchDebounceMS:     250,
			FetchTimeoutSeconds: 10,
		},
		HTTP: HTTPConfig{
			Enabled:            true,
			Addr:               ":8080",
			SessionCookie:      "termfolio_session",
			SessionTTLHours:    720,
			SessionStorePath:   filepath.Join(root, "state", "http", "sessions.json"),
			IdleTimeoutMinutes: 30,
			BaseURL:            "",
			BasePath:           "",
			Prompt:             "$ ",
			Title:              "termfolio",
			ReplayEvents:       1000,
			UIMaxBufferLines:   2000,
			Tones:              true,
		},
		SSH: SSHConfig{
			Enabled:        true,
			Addr:           ":2222",
			HostKeyPath:    filepath.Join(root, "ssh_host_key"),
			Prompt:         "$ ",
			Title:          "termfolio",
			BellIntervalMS: 500,
		},
		Logging: LoggingConfig{
			DisableAuditTrails: false,
		},
	}, nil
}

// PrefsDir is where per-visitor preferences are stored.
func (c Config) PrefsDir() string {
	return filepath.Join(c.StateDir, "prefs")
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".termfolio", "config.yaml"), nil
}
