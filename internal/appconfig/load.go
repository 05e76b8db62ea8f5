package appconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the provided path. If path is empty, uses DefaultConfigPath.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("state_dir", cfg.StateDir)
	v.SetDefault("content.file", cfg.Content.File)
	v.SetDefault("content.url", cfg.Content.URL)
	v.SetDefault("content.watch", cfg.Content.Watch)
	v.SetDefault("content.watch_debounce_ms", cfg.Content.WatchDebounceMS)
	v.SetDefault("content.fetch_timeout_seconds", cfg.Content.FetchTimeoutSeconds)
	v.SetDefault("http.enabled", cfg.HTTP.Enabled)
	v.SetDefault("http.addr", cfg.HTTP.Addr)
	v.SetDefault("http.session_cookie", cfg.HTTP.SessionCookie)
	v.SetDefault("http.session_ttl_hours", cfg.HTTP.SessionTTLHours)
	v.SetDefault("http.session_store_path", cfg.HTTP.SessionStorePath)
	v.SetDefault("http.idle_timeout_minutes", cfg.HTTP.IdleTimeoutMinutes)
	v.SetDefault("http.base_url", cfg.HTTP.BaseURL)
	v.SetDefault("http.base_path", cfg.HTTP.BasePath)
	v.SetDefault("http.prompt", cfg.HTTP.Prompt)
	v.SetDefault("http.title", cfg.HTTP.Title)
	v.SetDefault("http.replay_events", cfg.HTTP.ReplayEvents)
	v.SetDefault("http.ui_max_buffer_lines", cfg.HTTP.UIMaxBufferLines)
	v.SetDefault("http.tones", cfg.HTTP.Tones)
	v.SetDefault("ssh.enabled", cfg.SSH.Enabled)
	v.SetDefault("ssh.addr", cfg.SSH.Addr)
	v.SetDefault("ssh.host_key_path", cfg.SSH.HostKeyPath)
	v.SetDefault("ssh.prompt", cfg.SSH.Prompt)
	v.SetDefault("ssh.title", cfg.SSH.Title)
	v.SetDefault("ssh.bell_interval_ms", cfg.SSH.BellIntervalMS)
	v.SetDefault("logging.disable_audit_trails", cfg.Logging.DisableAuditTrails)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		if !v.IsSet("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks a loaded configuration for settings that cannot work together.
func Validate(cfg Config) error {
	if !cfg.HTTP.Enabled && !cfg.SSH.Enabled {
		return errors.New("at least one of http.enabled and ssh.enabled must be true")
	}
	if err := validateContentConfig(cfg.Content); err != nil {
		return err
	}
	if err := validateHTTPConfig(cfg.HTTP); err != nil {
		return err
	}
	for name, tuning := range map[string]TuningConfig{
		"normal":    cfg.Effects.Normal,
		"hack":      cfg.Effects.Hack,
		"undertale": cfg.Effects.Undertale,
	} {
		if err := validateTuning(tuning); err != nil {
			return fmt.Errorf("effects.%s: %w", name, err)
		}
	}
	return nil
}

func validateContentConfig(cfg ContentConfig) error {
	file := strings.TrimSpace(cfg.File)
	rawURL := strings.TrimSpace(cfg.URL)
	if file != "" && rawURL != "" {
		return fmt.Errorf("content.file and content.url are mutually exclusive")
	}
	if rawURL != "" {
		parsed, err := url.Parse(rawURL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return fmt.Errorf("content.url must be an http(s) URL (e.g. https://example.com/api)")
		}
	}
	if cfg.WatchDebounceMS < 0 || cfg.FetchTimeoutSeconds < 0 {
		return fmt.Errorf("content timings must not be negative")
	}
	return nil
}

func validateHTTPConfig(cfg HTTPConfig) error {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL != "" {
		parsed, err := url.Parse(baseURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("http.base_url must include scheme and host (e.g. https://example.com)")
		}
	}
	basePath := strings.TrimSpace(cfg.BasePath)
	if basePath != "" {
		if strings.Contains(basePath, "://") {
			return fmt.Errorf("http.base_path must be a path prefix, not a URL")
		}
		if strings.ContainsAny(basePath, "?#") {
			return fmt.Errorf("http.base_path must not include query or fragment")
		}
	}
	return nil
}

func validateTuning(t TuningConfig) error {
	if t.CharDelayMinMS < 0 || t.CharDelayMaxMS < 0 || t.LinePauseMS < 0 || t.RestoreDelayMS < 0 {
		return errors.New("delays must not be negative")
	}
	if t.CharDelayMinMS > 0 && t.CharDelayMaxMS > 0 && t.CharDelayMaxMS < t.CharDelayMinMS {
		return errors.New("char_delay_max_ms must not be below char_delay_min_ms")
	}
	if t.BurstChance < 0 || t.BurstChance > 1 || t.AlarmShare < 0 || t.AlarmShare > 1 {
		return errors.New("burst_chance and alarm_share must be between 0 and 1")
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.StateDir = expandEnv(cfg.StateDir)
	cfg.Content.File = expandEnv(cfg.Content.File)
	cfg.HTTP.SessionStorePath = expandEnv(cfg.HTTP.SessionStorePath)
	cfg.SSH.HostKeyPath = expandEnv(cfg.SSH.HostKeyPath)
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := lookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

func lookupEnv(key string) (string, bool) {
	if val, ok := os.LookupEnv(key); ok {
		return val, true
	}
	switch key {
	case "UID":
		return fmt.Sprintf("%d", os.Getuid()), true
	case "GID":
		return fmt.Sprintf("%d", os.Getgid()), true
	}
	return "", false
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
