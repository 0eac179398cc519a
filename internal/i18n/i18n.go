package i18n

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

type Bundle struct {
	dict      map[string]map[string]string
	fallback  string
	supported []string
	matcher   language.Matcher
}

// Load reads flat "<lang>.json" catalogs from fsys. The fallback catalog is mandatory.
func Load(fsys fs.FS, fallback string, supported []string) (*Bundle, error) {
	if len(supported) == 0 {
		supported = []string{"no", "en"}
	}
	b := &Bundle{
		dict:     map[string]map[string]string{},
		fallback: fallback,
	}
	// fallback first so the matcher defaults to it
	ordered := []string{fallback}
	for _, l := range supported {
		if l != fallback {
			ordered = append(ordered, l)
		}
	}
	tags := make([]language.Tag, 0, len(ordered))
	for _, l := range ordered {
		raw, err := fs.ReadFile(fsys, l+".json")
		if err != nil {
			// allow missing file for non-default locales
			if l == fallback {
				return nil, fmt.Errorf("load locale %s: %w", l, err)
			}
			continue
		}
		var m map[string]string
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", l, err)
		}
		b.dict[l] = m
		b.supported = append(b.supported, l)
		tags = append(tags, language.Make(l))
	}
	b.matcher = language.NewMatcher(tags)
	return b, nil
}

// Supported returns the loaded locales, fallback first.
func (b *Bundle) Supported() []string {
	out := make([]string, len(b.supported))
	copy(out, b.supported)
	return out
}

// Fallback returns the configured fallback language.
func (b *Bundle) Fallback() string { return b.fallback }

// T returns translation for key in lang, falling back to default and finally key.
func (b *Bundle) T(lang, key string) string {
	if lang != "" {
		if m, ok := b.dict[lang]; ok {
			if v, ok := m[key]; ok {
				return v
			}
		}
	}
	if m, ok := b.dict[b.fallback]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}

// Has reports whether lang's own catalog carries a non-empty value for key.
func (b *Bundle) Has(lang, key string) bool {
	m, ok := b.dict[lang]
	if !ok {
		return false
	}
	return strings.TrimSpace(m[key]) != ""
}

// Missing lists "lang:key" pairs for keys absent (or blank) in any loaded catalog.
func (b *Bundle) Missing(keys []string) []string {
	var out []string
	for _, l := range b.supported {
		for _, k := range keys {
			if !b.Has(l, k) {
				out = append(out, l+":"+k)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Keys returns the sorted keys of the fallback catalog.
func (b *Bundle) Keys() []string {
	m := b.dict[b.fallback]
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Resolve chooses best language from Accept-Language header.
func (b *Bundle) Resolve(acceptLang string) string {
	if strings.TrimSpace(acceptLang) == "" || len(b.supported) == 0 {
		return b.fallback
	}
	prefs, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(prefs) == 0 {
		return b.fallback
	}
	_, idx, conf := b.matcher.Match(prefs...)
	if conf == language.No || idx < 0 || idx >= len(b.supported) {
		return b.fallback
	}
	return b.supported[idx]
}
