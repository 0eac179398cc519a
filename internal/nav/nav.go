// Package nav builds the header navigation, language switcher and breadcrumbs.
package nav

import (
	"path"
	"strings"

	"github.com/rjvillar/lmstudio-musikkservice-site/internal/locale"
)

// Item represents a top-level navigation entry pointing at a home page section.
type Item struct {
	Anchor   string // section id on the home page, e.g. "tjenester"
	LabelKey string // i18n key, e.g. "nav.services"
}

// RenderedItem is a view model for templates.
type RenderedItem struct {
	Href     string
	Anchor   string
	LabelKey string
}

// Language is one entry of the language switcher.
type Language struct {
	Code     string
	LabelKey string
	Href     string
	Active   bool
}

// Crumb represents a breadcrumb entry. If LabelKey is empty, use Label.
type Crumb struct {
	Href     string
	LabelKey string
	Label    string
	Active   bool
}

// Main is the primary navigation definition, in page order.
var Main = []Item{
	{Anchor: "tjenester", LabelKey: "nav.services"},
	{Anchor: "om-oss", LabelKey: "nav.about"},
	{Anchor: "musikk", LabelKey: "nav.music"},
	{Anchor: "galleri", LabelKey: "nav.gallery"},
	{Anchor: "ansatte", LabelKey: "nav.team"},
	{Anchor: "kontakt", LabelKey: "nav.contact"},
}

// LabelKeys lists every i18n key the navigation chrome needs.
func LabelKeys() []string {
	keys := make([]string, 0, len(Main)+len(locale.Supported)+1)
	keys = append(keys, "nav.home")
	for _, it := range Main {
		keys = append(keys, it.LabelKey)
	}
	for _, l := range locale.Supported {
		keys = append(keys, languageKey(l))
	}
	return keys
}

// Build renders navigation items for lang. Hrefs point at the locale's home
// page so they work from any page.
func Build(lang string) []RenderedItem {
	items := make([]RenderedItem, 0, len(Main))
	for _, it := range Main {
		items = append(items, RenderedItem{
			Href:     locale.Anchor(lang, it.Anchor),
			Anchor:   it.Anchor,
			LabelKey: it.LabelKey,
		})
	}
	return items
}

// Languages renders the switcher for the page at currentPath.
func Languages(currentPath, current string) []Language {
	out := make([]Language, 0, len(locale.Supported))
	for _, l := range locale.Supported {
		out = append(out, Language{
			Code:     l,
			LabelKey: languageKey(l),
			Href:     locale.Switch(currentPath, l),
			Active:   l == current,
		})
	}
	return out
}

func languageKey(lang string) string { return "lang." + lang }

// Breadcrumbs builds Home -> page entries for currentPath (locale prefix already stripped).
func Breadcrumbs(lang, currentPath string) []Crumb {
	if currentPath == "" {
		currentPath = "/"
	}
	crumbs := []Crumb{{Href: locale.Path(lang, "/"), LabelKey: "nav.home", Active: currentPath == "/"}}
	if currentPath == "/" {
		return crumbs
	}
	clean := path.Clean(currentPath)
	parts := strings.Split(strings.TrimPrefix(clean, "/"), "/")
	href := ""
	for i, p := range parts {
		if p == "" {
			continue
		}
		href += "/" + p
		crumbs = append(crumbs, Crumb{
			Href:   locale.Path(lang, href),
			Label:  titleFromSegment(p),
			Active: i == len(parts)-1,
		})
	}
	return crumbs
}

func titleFromSegment(seg string) string {
	if seg == "" {
		return seg
	}
	s := strings.ReplaceAll(seg, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	r := []rune(s)
	r[0] = toUpper(r[0])
	return string(r)
}

func toUpper(r rune) rune {
	// ASCII only is sufficient for slugs here
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}
