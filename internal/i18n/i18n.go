// Package i18n holds the translation bundles used for command output and negotiates
// the session language.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"pkt.systems/termfolio/schema"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Bundle is one language's messages. Missing keys fall back to English and then to
// the key itself.
type Bundle struct {
	lang     schema.Language
	messages map[string][]string
	fallback *Bundle
}

// Catalog is the set of available bundles.
type Catalog struct {
	bundles map[schema.Language]*Bundle
	langs   []schema.Language
	matcher language.Matcher
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the catalog built from the embedded locales.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Load()
	})
	return defaultCatalog, defaultErr
}

// MustDefault returns Default or panics. The embedded locales are fixed at build time.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Load parses the embedded locale files.
func Load() (*Catalog, error) {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, err
	}
	files := map[schema.Language][]byte{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".yaml" {
			continue
		}
		data, err := localeFS.ReadFile(path.Join("locales", name))
		if err != nil {
			return nil, err
		}
		files[schema.Language(strings.TrimSuffix(name, ".yaml"))] = data
	}
	return Parse(files)
}

// Parse builds a catalog from YAML documents keyed by language. English is required.
func Parse(files map[schema.Language][]byte) (*Catalog, error) {
	if _, ok := files[schema.DefaultLanguage]; !ok {
		return nil, fmt.Errorf("locale %q is required", schema.DefaultLanguage)
	}
	c := &Catalog{bundles: map[schema.Language]*Bundle{}}
	for lang, data := range files {
		var root map[string]any
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("locale %s: %w", lang, err)
		}
		messages := map[string][]string{}
		if err := flatten("", root, messages); err != nil {
			return nil, fmt.Errorf("locale %s: %w", lang, err)
		}
		c.bundles[lang] = &Bundle{lang: lang, messages: messages}
		c.langs = append(c.langs, lang)
	}
	sort.Slice(c.langs, func(i, j int) bool {
		if c.langs[i] == schema.DefaultLanguage {
			return true
		}
		if c.langs[j] == schema.DefaultLanguage {
			return false
		}
		return c.langs[i] < c.langs[j]
	})
	en := c.bundles[schema.DefaultLanguage]
	tags := make([]language.Tag, 0, len(c.langs))
	for _, lang := range c.langs {
		if b := c.bundles[lang]; b != en {
			b.fallback = en
		}
		tags = append(tags, language.Make(string(lang)))
	}
	c.matcher = language.NewMatcher(tags)
	return c, nil
}

func flatten(prefix string, node map[string]any, out map[string][]string) error {
	for key, value := range node {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch v := value.(type) {
		case string:
			out[full] = []string{v}
		case []any:
			lines := make([]string, 0, len(v))
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					if item == nil {
						s = ""
					} else {
						return fmt.Errorf("key %s: list items must be strings", full)
					}
				}
				lines = append(lines, s)
			}
			out[full] = lines
		case map[string]any:
			if err := flatten(full, v, out); err != nil {
				return err
			}
		case nil:
			out[full] = []string{""}
		default:
			out[full] = []string{fmt.Sprint(v)}
		}
	}
	return nil
}

// Languages returns the supported languages, English first.
func (c *Catalog) Languages() []schema.Language {
	return append([]schema.Language(nil), c.langs...)
}

// Supports reports whether lang has a bundle.
func (c *Catalog) Supports(lang schema.Language) bool {
	_, ok := c.bundles[lang]
	return ok
}

// Bundle returns the bundle for lang, or English when unsupported.
func (c *Catalog) Bundle(lang schema.Language) *Bundle {
	if b, ok := c.bundles[lang]; ok {
		return b
	}
	return c.bundles[schema.DefaultLanguage]
}

// Match picks the best supported language for an Accept-Language header or a
// locale string such as "es_ES.UTF-8".
func (c *Catalog) Match(preferences ...string) schema.Language {
	var tags []language.Tag
	for _, pref := range preferences {
		pref = strings.TrimSpace(pref)
		if pref == "" {
			continue
		}
		if strings.ContainsAny(pref, ",;") {
			if parsed, _, err := language.ParseAcceptLanguage(pref); err == nil {
				tags = append(tags, parsed...)
			}
			continue
		}
		if lang, ok := schema.NormalizeLanguage(localeBase(pref)); ok {
			tags = append(tags, language.Make(string(lang)))
		}
	}
	if len(tags) == 0 {
		return schema.DefaultLanguage
	}
	_, idx, conf := c.matcher.Match(tags...)
	if conf == language.No || idx < 0 || idx >= len(c.langs) {
		return schema.DefaultLanguage
	}
	return c.langs[idx]
}

func localeBase(value string) string {
	if i := strings.IndexAny(value, ".@"); i >= 0 {
		value = value[:i]
	}
	return value
}

// Language returns the bundle's language.
func (b *Bundle) Language() schema.Language {
	return b.lang
}

// Has reports whether key is defined in this bundle or its fallback.
func (b *Bundle) Has(key string) bool {
	_, ok := b.lookup(key)
	return ok
}

// T returns the first line of key formatted with args.
func (b *Bundle) T(key string, args ...any) string {
	lines, ok := b.lookup(key)
	if !ok || len(lines) == 0 {
		return key
	}
	return format(lines[0], args)
}

// Lines returns every line of key, each formatted with args.
func (b *Bundle) Lines(key string, args ...any) []string {
	lines, ok := b.lookup(key)
	if !ok {
		return []string{key}
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = format(line, args)
	}
	return out
}

func (b *Bundle) lookup(key string) ([]string, bool) {
	if b == nil {
		return nil, false
	}
	if lines, ok := b.messages[key]; ok {
		return lines, true
	}
	if b.fallback != nil {
		return b.fallback.lookup(key)
	}
	return nil, false
}

func format(line string, args []any) string {
	if len(args) == 0 || !strings.Contains(line, "%") {
		return line
	}
	return fmt.Sprintf(line, args...)
}
