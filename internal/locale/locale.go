// Package locale implements path-prefix locale routing ("as-needed" prefixes):
// the default locale is served unprefixed, every other locale lives under
// "/<lang>".
package locale

import "strings"

const (
	Norwegian = "no"
	English   = "en"

	// Default is served without a path prefix.
	Default = Norwegian
)

// Supported lists the locales the site renders, default first.
var Supported = []string{Norwegian, English}

// IsSupported reports whether lang is one of Supported.
func IsSupported(lang string) bool {
	for _, l := range Supported {
		if l == lang {
			return true
		}
	}
	return false
}

// Split strips a leading locale segment from p.
// rest always starts with "/". prefixed reports whether a locale segment was present.
func Split(p string) (lang, rest string, prefixed bool) {
	if p == "" {
		p = "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	seg := p[1:]
	tail := ""
	if i := strings.IndexByte(seg, '/'); i != -1 {
		tail = seg[i:]
		seg = seg[:i]
	}
	if !IsSupported(strings.ToLower(seg)) {
		return Default, p, false
	}
	if tail == "" {
		tail = "/"
	}
	return strings.ToLower(seg), tail, true
}

// Path builds the canonical path of rest for lang. The default locale stays unprefixed.
func Path(lang, rest string) string {
	if rest == "" {
		rest = "/"
	}
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	if lang == Default || !IsSupported(lang) {
		return rest
	}
	if rest == "/" {
		return "/" + lang
	}
	return "/" + lang + rest
}

// Switch rewrites p to the target locale, keeping the non-locale suffix.
// The result is always explicitly prefixed, e.g. "/no/about" -> "/en/about".
// The locale middleware later redirects a default-locale prefix to its canonical form.
func Switch(p, target string) string {
	if !IsSupported(target) {
		target = Default
	}
	_, rest, _ := Split(p)
	if rest == "/" {
		return "/" + target
	}
	return "/" + target + rest
}

// Anchor returns the locale home path with a fragment, e.g. "/en#kontakt".
func Anchor(lang, fragment string) string {
	fragment = strings.TrimPrefix(fragment, "#")
	home := Path(lang, "/")
	if fragment == "" {
		return home
	}
	return home + "#" + fragment
}
