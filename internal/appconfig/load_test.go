package appconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadRejectsUnsupportedConfigVersion(t *testing.T) {
	path := writeConfig(t, `
config_version: 3
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unsupported config_version") {
		t.Fatalf("expected config_version error, got %v", err)
	}
}

func TestLoadRequiresConfigVersion(t *testing.T) {
	path := writeConfig(t, `
http:
  addr: ":9000"
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "config_version is required") {
		t.Fatalf("expected config_version error, got %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" || cfg.SSH.Addr != ":2222" {
		t.Fatalf("expected default addresses, got %q %q", cfg.HTTP.Addr, cfg.SSH.Addr)
	}
}

func TestLoadOverridesAndTuning(t *testing.T) {
	t.Setenv("FOLIO_DIR", "/srv/folio")
	path := writeConfig(t, `
config_version: 1
content:
  file: $FOLIO_DIR/portfolio.yaml
http:
  addr: ":9000"
  tones: false
ssh:
  enabled: false
effects:
  hack:
    char_delay_min_ms: 5
    char_delay_max_ms: 9
    burst_chance: 0.5
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Content.File != "/srv/folio/portfolio.yaml" {
		t.Fatalf("expected expanded content file, got %q", cfg.Content.File)
	}
	if cfg.HTTP.Addr != ":9000" || cfg.HTTP.Tones || cfg.SSH.Enabled {
		t.Fatalf("unexpected overrides %+v %+v", cfg.HTTP, cfg.SSH)
	}
	if cfg.HTTP.SessionCookie != "termfolio_session" {
		t.Fatalf("expected default cookie kept, got %q", cfg.HTTP.SessionCookie)
	}
	if cfg.Effects.Hack.CharDelayMinMS != 5 || cfg.Effects.Hack.CharDelayMaxMS != 9 || cfg.Effects.Hack.BurstChance != 0.5 {
		t.Fatalf("unexpected hack tuning %+v", cfg.Effects.Hack)
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "base url",
			body: "http:\n  base_url: example.com\n",
			want: "http.base_url",
		},
		{
			name: "file and url",
			body: "content:\n  file: /a.yaml\n  url: https://example.com\n",
			want: "mutually exclusive",
		},
		{
			name: "content url scheme",
			body: "content:\n  url: ftp://example.com\n",
			want: "content.url",
		},
		{
			name: "no hosts",
			body: "http:\n  enabled: false\nssh:\n  enabled: false\n",
			want: "at least one",
		},
		{
			name: "delay order",
			body: "effects:\n  normal:\n    char_delay_min_ms: 40\n    char_delay_max_ms: 10\n",
			want: "effects.normal",
		},
		{
			name: "chance range",
			body: "effects:\n  hack:\n    alarm_share: 2\n",
			want: "effects.hack",
		},
	}
	for _, tc := range tests {
		path := writeConfig(t, "config_version: 1\n"+tc.body)
		if _, err := Load(path); err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected error containing %q, got %v", tc.name, tc.want, err)
		}
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("FOO", "bar")
	value := expandEnv("$FOO/$UID/$GID/$MISSING")
	if !strings.HasPrefix(value, "bar/") {
		t.Fatalf("expected env expansion, got %q", value)
	}
	if strings.Contains(value, "$UID") || strings.Contains(value, "$GID") {
		t.Fatalf("expected UID/GID expansion, got %q", value)
	}
	if !strings.HasSuffix(value, "/$MISSING") {
		t.Fatalf("expected missing vars to remain, got %q", value)
	}
}

func TestWriteDefaultRespectsOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	written, err := WriteDefault(path, false)
	if err != nil {
		t.Fatalf("write default: %v", err)
	}
	if written != path {
		t.Fatalf("expected path %q, got %q", path, written)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("expected written default to load: %v", err)
	}
	if _, err := WriteDefault(path, false); err == nil {
		t.Fatalf("expected error when config exists")
	}
	if _, err := WriteDefault(path, true); err != nil {
		t.Fatalf("expected overwrite to succeed: %v", err)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
