package i18n

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"pkt.systems/termfolio/schema"
)

func TestEmbeddedLocalesShareKeys(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	en := c.Bundle("en")
	es := c.Bundle("es")
	if es.Language() != "es" {
		t.Fatalf("expected es bundle, got %q", es.Language())
	}
	var missing []string
	for key := range en.messages {
		if _, ok := es.messages[key]; !ok {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	if len(missing) > 0 {
		t.Fatalf("es is missing keys: %v", missing)
	}
}

func TestLanguagesEnglishFirst(t *testing.T) {
	c := MustDefault()
	got := c.Languages()
	if diff := cmp.Diff([]schema.Language{"en", "es"}, got); diff != "" {
		t.Fatalf("languages (-want +got):\n%s", diff)
	}
}

func TestTranslateWithFallback(t *testing.T) {
	c, err := Parse(map[schema.Language][]byte{
		"en": []byte("greet: \"Hello %s\"\nonly_en: \"english\"\nlist:\n  - one\n  - two\n"),
		"es": []byte("greet: \"Hola %s\"\n"),
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	es := c.Bundle("es")
	if got := es.T("greet", "Ana"); got != "Hola Ana" {
		t.Fatalf("unexpected greeting %q", got)
	}
	if got := es.T("only_en"); got != "english" {
		t.Fatalf("expected english fallback, got %q", got)
	}
	if got := es.T("missing.key"); got != "missing.key" {
		t.Fatalf("expected key echo, got %q", got)
	}
	if diff := cmp.Diff([]string{"one", "two"}, es.Lines("list")); diff != "" {
		t.Fatalf("lines (-want +got):\n%s", diff)
	}
	if c.Bundle("fr").Language() != "en" {
		t.Fatalf("expected unsupported language to use English")
	}
}

func TestParseRequiresEnglish(t *testing.T) {
	if _, err := Parse(map[schema.Language][]byte{"es": []byte("a: b\n")}); err == nil {
		t.Fatalf("expected error without English")
	}
}

func TestMatch(t *testing.T) {
	c := MustDefault()
	cases := []struct {
		prefs []string
		want  schema.Language
	}{
		{nil, "en"},
		{[]string{"es-AR,es;q=0.9,en;q=0.8"}, "es"},
		{[]string{"fr-FR,fr;q=0.9"}, "en"},
		{[]string{"es_ES.UTF-8"}, "es"},
		{[]string{"C.UTF-8"}, "en"},
		{[]string{"", "es"}, "es"},
	}
	for _, tc := range cases {
		if got := c.Match(tc.prefs...); got != tc.want {
			t.Fatalf("Match(%v) = %q, want %q", tc.prefs, got, tc.want)
		}
	}
}

func TestHackMilestonesPresent(t *testing.T) {
	c := MustDefault()
	for _, lang := range c.Languages() {
		found := 0
		for _, line := range c.Bundle(lang).Lines("eggs.hack") {
			if len(line) >= 3 && line[:3] == "[!]" {
				found++
			}
		}
		if found == 0 {
			t.Fatalf("%s hack output has no milestone lines", lang)
		}
	}
}
