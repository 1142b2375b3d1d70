// Package i18n provides translated UI strings and locale date formats.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

// DefaultLanguage is used whenever a key or language is missing.
const DefaultLanguage = "en"

//go:embed locales/*.yaml
var localeFS embed.FS

// Bundle holds the messages of every supported language.
type Bundle struct {
	messages map[string]map[string]string
	langs    []string
	tags     []language.Tag
	matcher  language.Matcher
}

var (
	defaultBundle *Bundle
	defaultOnce   sync.Once
)

// Default returns the bundle built from the embedded locale files.
func Default() *Bundle {
	defaultOnce.Do(func() {
		b, err := Load()
		if err != nil {
			klog.Errorf("load embedded locales: %v", err)
			b = &Bundle{messages: map[string]map[string]string{DefaultLanguage: {}}, langs: []string{DefaultLanguage}}
			b.buildMatcher()
		}
		defaultBundle = b
	})
	return defaultBundle
}

// Load parses the embedded locale files.
func Load() (*Bundle, error) {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, err
	}
	b := &Bundle{messages: make(map[string]map[string]string)}
	for _, e := range entries {
		data, err := localeFS.ReadFile(path.Join("locales", e.Name()))
		if err != nil {
			return nil, err
		}
		lang := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		if err := b.Add(lang, data); err != nil {
			return nil, fmt.Errorf("locale %s: %w", lang, err)
		}
	}
	if _, ok := b.messages[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("locale %s missing", DefaultLanguage)
	}
	return b, nil
}

// Add merges a YAML message tree into lang.
func (b *Bundle) Add(lang string, data []byte) error {
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return err
	}
	msgs := b.messages[lang]
	if msgs == nil {
		msgs = make(map[string]string)
		b.messages[lang] = msgs
		b.langs = append(b.langs, lang)
		sort.Slice(b.langs, func(i, j int) bool {
			a, c := b.langs[i], b.langs[j]
			// the default language leads the list
			if (a == DefaultLanguage) != (c == DefaultLanguage) {
				return a == DefaultLanguage
			}
			return a < c
		})
	}
	flatten("", tree, msgs)
	b.buildMatcher()
	return nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case nil:
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

func (b *Bundle) buildMatcher() {
	b.tags = make([]language.Tag, 0, len(b.langs))
	for _, l := range b.langs {
		b.tags = append(b.tags, language.Make(l))
	}
	b.matcher = language.NewMatcher(b.tags)
}

// Languages lists the supported language codes, default first.
func (b *Bundle) Languages() []string {
	out := make([]string, len(b.langs))
	copy(out, b.langs)
	return out
}

// Supported reports whether lang has its own messages.
func (b *Bundle) Supported(lang string) bool {
	_, ok := b.messages[lang]
	return ok
}

// Lookup returns the message for key in lang without any fallback.
func (b *Bundle) Lookup(lang, key string) (string, bool) {
	s, ok := b.messages[lang][key]
	return s, ok
}

// Match resolves a language code, BCP 47 tag or language name ("french",
// "Français") to a supported language. ok is false when nothing matched
// and the default language was returned.
func (b *Bundle) Match(s string) (lang string, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultLanguage, false
	}
	lower := strings.ToLower(s)
	for _, l := range b.langs {
		if lower == l ||
			strings.EqualFold(s, b.messages[l]["language.english"]) ||
			strings.EqualFold(s, b.messages[l]["language.native"]) {
			return l, true
		}
	}
	for i, tag := range b.tags {
		if strings.EqualFold(s, display.English.Languages().Name(tag)) {
			return b.langs[i], true
		}
	}
	tag, err := language.Parse(s)
	if err != nil {
		return DefaultLanguage, false
	}
	_, idx, conf := b.matcher.Match(tag)
	if conf == language.No {
		return DefaultLanguage, false
	}
	return b.langs[idx], true
}

// Translator returns a translator for lang; unsupported languages fall back
// to the default language.
func (b *Bundle) Translator(lang string) *Translator {
	if !b.Supported(lang) {
		lang, _ = b.Match(lang)
	}
	return &Translator{bundle: b, lang: lang}
}

// Language is a supported language with its display names.
type Language struct {
	Code    string `json:"code"`
	Native  string `json:"native"`
	English string `json:"english"`
}

// Catalog lists every supported language.
func (b *Bundle) Catalog() []Language {
	out := make([]Language, 0, len(b.langs))
	for _, l := range b.langs {
		native := b.messages[l]["language.native"]
		if native == "" {
			native = display.Self.Name(language.Make(l))
		}
		if native == "" {
			native = l
		}
		out = append(out, Language{Code: l, Native: native, English: b.messages[l]["language.english"]})
	}
	return out
}
