package content

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"
)

// Page is a localized markdown page rendered to sanitized HTML.
type Page struct {
	Slug      string
	Lang      string
	Title     string
	Summary   string
	Body      template.HTML
	UpdatedAt time.Time
}

type pageFrontMatter struct {
	Title     string `yaml:"title"`
	Summary   string `yaml:"summary"`
	UpdatedAt string `yaml:"updated_at"`
}

type pageCacheEntry struct {
	page    Page
	expires time.Time
}

const (
	defaultPageTTL = 5 * time.Minute
	excerptRunes   = 160
)

// Pages loads "<lang>/<slug>.md" files from fsys.
type Pages struct {
	fsys     fs.FS
	fallback string
	md       goldmark.Markdown
	policy   *bluemonday.Policy
	ttl      time.Duration

	mu    sync.RWMutex
	items map[string]pageCacheEntry
}

// NewPages constructs a page loader. ttl <= 0 uses the default cache duration.
func NewPages(fsys fs.FS, fallback string, ttl time.Duration) *Pages {
	if ttl <= 0 {
		ttl = defaultPageTTL
	}
	return &Pages{
		fsys:     fsys,
		fallback: fallback,
		md:       goldmark.New(goldmark.WithExtensions(extension.GFM, extension.Typographer)),
		policy:   bluemonday.UGCPolicy(),
		ttl:      ttl,
		items:    map[string]pageCacheEntry{},
	}
}

// Get returns the page for slug in lang, falling back to the fallback language.
func (p *Pages) Get(slug, lang string) (Page, error) {
	slug = sanitizeSlug(slug)
	if slug == "" {
		return Page{}, ErrNotFound
	}
	key := lang + "|" + slug
	if page, ok := p.cached(key); ok {
		return page, nil
	}
	priority := []string{lang}
	if lang != p.fallback {
		priority = append(priority, p.fallback)
	}
	for _, candidate := range priority {
		page, err := p.read(slug, candidate)
		if err == nil {
			p.store(key, page)
			return page, nil
		}
		if errors.Is(err, ErrNotFound) {
			continue
		}
		// parse issues stop early
		return Page{}, err
	}
	return Page{}, ErrNotFound
}

// Slugs lists the page slugs available for lang.
func (p *Pages) Slugs(lang string) ([]string, error) {
	entries, err := fs.ReadDir(p.fsys, lang)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), ".md"))
	}
	return out, nil
}

func (p *Pages) read(slug, lang string) (Page, error) {
	file := path.Join(lang, slug+".md")
	data, err := fs.ReadFile(p.fsys, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Page{}, ErrNotFound
		}
		return Page{}, err
	}
	fm, body := splitFrontMatter(string(data))
	front := pageFrontMatter{}
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
			return Page{}, fmt.Errorf("content: parse front matter %s: %w", file, err)
		}
	}
	var buf bytes.Buffer
	if err := p.md.Convert([]byte(body), &buf); err != nil {
		return Page{}, fmt.Errorf("content: render %s: %w", file, err)
	}
	safe := p.policy.SanitizeBytes(buf.Bytes())

	page := Page{
		Slug:      slug,
		Lang:      lang,
		Title:     strings.TrimSpace(front.Title),
		Summary:   strings.TrimSpace(front.Summary),
		Body:      template.HTML(safe),
		UpdatedAt: parseDate(front.UpdatedAt),
	}
	if page.Title == "" {
		page.Title = prettifySlug(slug)
	}
	if page.Summary == "" {
		page.Summary = Excerpt(string(safe), excerptRunes)
	}
	return page, nil
}

func (p *Pages) cached(key string) (Page, bool) {
	now := time.Now()
	p.mu.RLock()
	entry, ok := p.items[key]
	p.mu.RUnlock()
	if !ok || now.After(entry.expires) {
		return Page{}, false
	}
	return entry.page, true
}

func (p *Pages) store(key string, page Page) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items[key] = pageCacheEntry{page: page, expires: time.Now().Add(p.ttl)}
}

// Excerpt extracts plain text from an HTML fragment and trims it to limit runes on a word boundary.
func Excerpt(fragment string, limit int) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var sb strings.Builder
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			sb.Write(z.Text())
			sb.WriteByte(' ')
		}
	}
	text := strings.Join(strings.Fields(sb.String()), " ")
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:limit])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

func splitFrontMatter(input string) (string, string) {
	input = strings.TrimLeft(input, "\ufeff")
	lines := strings.Split(input, "\n")
	if strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			fm := strings.Join(lines[1:i], "\n")
			body := strings.Join(lines[i+1:], "\n")
			return fm, strings.TrimLeft(body, "\n\r")
		}
	}
	return "", input
}

func parseDate(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006/01/02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func prettifySlug(slug string) string {
	parts := strings.Split(slug, "-")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}

func sanitizeSlug(slug string) string {
	slug = strings.TrimSpace(strings.ToLower(slug))
	slug = strings.Trim(slug, "/")
	if slug == "" || strings.Contains(slug, "..") || strings.ContainsAny(slug, `/\`) {
		return ""
	}
	return slug
}
