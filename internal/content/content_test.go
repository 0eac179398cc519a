package content

import (
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	site "github.com/rjvillar/lmstudio-musikkservice-site"
)

const minimalDoc = `
business:
  name: Test
services:
  - id: salg
    title: { no: Salg, en: Sales }
gallery_categories:
  - key: studio
    label: Studio
gallery:
  - id: g1
    src: /a.jpg
    category: studio
`

func TestParseMinimal(t *testing.T) {
	s, err := Parse([]byte(minimalDoc))
	require.NoError(t, err)
	require.Len(t, s.Services(), 1)
	assert.Equal(t, "Sales", s.Services()[0].Title.In("en", "no"))
	assert.Equal(t, "Salg", s.Services()[0].Title.In("de", "no"))
	assert.Equal(t, "Studio", s.CategoryLabel("studio", "en", "no"), "scalar applies to every language")
	assert.Equal(t, "unknown", s.CategoryLabel("unknown", "en", "no"))
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	tests := map[string]string{
		"duplicate service id": `
business: {name: X}
services:
  - id: a
  - id: a
`,
		"missing id": `
business: {name: X}
services:
  - title: nope
`,
		"no services": `
business: {name: X}
`,
		"unknown category": `
business: {name: X}
services: [{id: a}]
gallery:
  - id: g1
    category: nowhere
`,
		"missing business name": `
services: [{id: a}]
`,
		"malformed": `services: [`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	s, err := Parse([]byte(minimalDoc))
	require.NoError(t, err)
	services := s.Services()
	services[0].ID = "changed"
	services[0].Title["no"] = "Endret"
	assert.Equal(t, "salg", s.Services()[0].ID)
	assert.Equal(t, "Salg", s.Services()[0].Title.In("no", "no"))

	cats := s.GalleryCategories()
	cats[0].Label[""] = "Endret"
	assert.Equal(t, "Studio", s.CategoryLabel("studio", "no", "no"))

	b := s.Business()
	b.Tagline = Localized{"no": "x"}
	assert.Empty(t, s.Business().Tagline.In("no", "no"))
}

func TestEmbeddedSiteContentLoads(t *testing.T) {
	fsys, err := site.Sub("content")
	require.NoError(t, err)
	s, err := Load(fsys, "site.yaml")
	require.NoError(t, err)

	assert.Equal(t, "LM Studio & Musikkservice", s.Business().Name)
	assert.Len(t, s.Services(), 8)
	assert.Len(t, s.Employees(), 2)
	assert.Len(t, s.Albums(), 3)
	assert.NotEmpty(t, s.StoryImages())
	for _, svc := range s.Services() {
		assert.NotEmpty(t, svc.Title.In("en", "no"), svc.ID)
		assert.NotEmpty(t, svc.Title.In("no", "no"), svc.ID)
	}
	assert.Equal(t, "Alle", s.CategoryLabel("all", "no", "no"))
}

func pagesFS() fstest.MapFS {
	return fstest.MapFS{
		"no/privacy.md": {Data: []byte("---\ntitle: Personvern\nupdated_at: 2025-01-15\n---\n\n## Hei\n\nVi lagrer **lite**.<script>alert(1)</script>\n")},
		"en/privacy.md": {Data: []byte("\ufeff---\ntitle: Privacy\nsummary: Short.\n---\nWe store little.\n")},
		"no/om-oss.md":  {Data: []byte("Ingen front matter her.")},
	}
}

func TestPagesGetRendersAndSanitizes(t *testing.T) {
	p := NewPages(pagesFS(), "no", time.Minute)
	page, err := p.Get("privacy", "no")
	require.NoError(t, err)
	assert.Equal(t, "Personvern", page.Title)
	assert.Contains(t, string(page.Body), "<strong>lite</strong>")
	assert.NotContains(t, string(page.Body), "<script>")
	assert.Equal(t, 2025, page.UpdatedAt.Year())
	assert.True(t, strings.HasPrefix(page.Summary, "Hei"), page.Summary)

	en, err := p.Get("privacy", "en")
	require.NoError(t, err)
	assert.Equal(t, "Privacy", en.Title)
	assert.Equal(t, "Short.", en.Summary)
}

func TestPagesFallBackToDefaultLanguage(t *testing.T) {
	p := NewPages(pagesFS(), "no", time.Minute)
	page, err := p.Get("om-oss", "en")
	require.NoError(t, err)
	assert.Equal(t, "no", page.Lang)
	assert.Equal(t, "Om Oss", page.Title)
}

func TestPagesRejectUnknownAndUnsafeSlugs(t *testing.T) {
	p := NewPages(pagesFS(), "no", time.Minute)
	for _, slug := range []string{"missing", "../site", "a/b", "", `..\x`} {
		_, err := p.Get(slug, "no")
		assert.ErrorIs(t, err, ErrNotFound, slug)
	}
}

func TestPagesSlugs(t *testing.T) {
	p := NewPages(pagesFS(), "no", 0)
	slugs, err := p.Slugs("no")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"privacy", "om-oss"}, slugs)

	none, err := p.Slugs("de")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "Hello world", Excerpt("<p>Hello <b>world</b></p>", 0))
	assert.Equal(t, "one two…", Excerpt("<p>one two three</p>", 9))
}
