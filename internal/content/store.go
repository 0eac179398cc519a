package content

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when a content resource cannot be located.
var ErrNotFound = errors.New("content: not found")

// Localized holds per-language variants of a string. A plain YAML scalar
// applies to every language.
type Localized map[string]string

// UnmarshalYAML accepts either a scalar or a lang->text mapping.
func (l *Localized) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*l = Localized{"": value.Value}
		return nil
	}
	m := map[string]string{}
	if err := value.Decode(&m); err != nil {
		return err
	}
	*l = Localized(m)
	return nil
}

// In returns the text for lang, then fallback, then the language-neutral value.
func (l Localized) In(lang, fallback string) string {
	if v := strings.TrimSpace(l[lang]); v != "" {
		return v
	}
	if v := strings.TrimSpace(l[fallback]); v != "" {
		return v
	}
	return strings.TrimSpace(l[""])
}

func (l Localized) clone() Localized { return maps.Clone(l) }

func cloneAll[T any](items []T, clone func(T) T) []T {
	if items == nil {
		return nil
	}
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = clone(it)
	}
	return out
}

// Service is one offering shown in the services section.
type Service struct {
	ID          string    `yaml:"id"`
	Title       Localized `yaml:"title"`
	Description Localized `yaml:"description"`
	Icon        string    `yaml:"icon"`
	Image       string    `yaml:"image"`
}

// Employee is a team member bio.
type Employee struct {
	ID    string    `yaml:"id"`
	Name  string    `yaml:"name"`
	Role  Localized `yaml:"role"`
	Bio   Localized `yaml:"bio"`
	Image string    `yaml:"image"`
	Phone string    `yaml:"phone"`
	Email string    `yaml:"email"`
}

// GalleryImage is one gallery picture. Category is the grouping key.
type GalleryImage struct {
	ID       string    `yaml:"id"`
	Src      string    `yaml:"src"`
	Alt      Localized `yaml:"alt"`
	Category string    `yaml:"category"`
}

// GalleryCategory labels a gallery grouping key.
type GalleryCategory struct {
	Key   string    `yaml:"key"`
	Label Localized `yaml:"label"`
}

// Album is a release from the studio catalog.
type Album struct {
	ID          string    `yaml:"id"`
	Title       string    `yaml:"title"`
	Artist      string    `yaml:"artist"`
	Year        string    `yaml:"year"`
	CoverImage  string    `yaml:"cover_image"`
	ExternalURL string    `yaml:"external_url"`
	Description Localized `yaml:"description"`
}

// ContactInfo is the business' address and reachability.
type ContactInfo struct {
	Address         string    `yaml:"address"`
	PostalCode      string    `yaml:"postal_code"`
	City            string    `yaml:"city"`
	Country         Localized `yaml:"country"`
	Phone           string    `yaml:"phone"`
	AdditionalPhone string    `yaml:"additional_phone"`
	Email           string    `yaml:"email"`
	OrgNumber       string    `yaml:"org_number"`
	MapsURL         string    `yaml:"maps_url"`
	MapsQuery       string    `yaml:"maps_query"`
	MapsEmbedURL    string    `yaml:"maps_embed_url"`
}

// ValueProp is one pillar in the about section.
type ValueProp struct {
	Title       Localized `yaml:"title"`
	Description Localized `yaml:"description"`
}

// Business carries the company copy used across sections.
type Business struct {
	Name             string      `yaml:"name"`
	Tagline          Localized   `yaml:"tagline"`
	ShortDescription Localized   `yaml:"short_description"`
	LongDescription  Localized   `yaml:"long_description"`
	Since            int         `yaml:"since"`
	ValueProps       []ValueProp `yaml:"value_props"`
}

// OpeningHours describes visiting arrangements.
type OpeningHours struct {
	Note         Localized `yaml:"note"`
	Description  Localized `yaml:"description"`
	Availability Localized `yaml:"availability"`
}

// Music configures the music catalog section.
type Music struct {
	CTAURL string `yaml:"cta_url"`
}

type document struct {
	Business          Business          `yaml:"business"`
	Contact           ContactInfo       `yaml:"contact"`
	OpeningHours      OpeningHours      `yaml:"opening_hours"`
	Services          []Service         `yaml:"services"`
	Employees         []Employee        `yaml:"employees"`
	GalleryCategories []GalleryCategory `yaml:"gallery_categories"`
	Gallery           []GalleryImage    `yaml:"gallery"`
	Albums            []Album           `yaml:"albums"`
	Music             Music             `yaml:"music"`
	StoryImages       []string          `yaml:"story_images"`
}

// Store is the read-only content loaded at startup.
type Store struct {
	doc        document
	categories map[string]GalleryCategory
}

// Load parses and validates the YAML content document at path inside fsys.
func Load(fsys fs.FS, path string) (*Store, error) {
	raw, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("content: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse validates a YAML content document.
func Parse(raw []byte) (*Store, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("content: parse: %w", err)
	}
	if err := validate(doc); err != nil {
		return nil, err
	}
	s := &Store{doc: doc, categories: map[string]GalleryCategory{}}
	for _, c := range doc.GalleryCategories {
		s.categories[c.Key] = c
	}
	return s, nil
}

func validate(doc document) error {
	var errs []error
	if strings.TrimSpace(doc.Business.Name) == "" {
		errs = append(errs, errors.New("content: business.name is required"))
	}
	if len(doc.Services) == 0 {
		errs = append(errs, errors.New("content: at least one service is required"))
	}
	check := func(list string, ids []string) {
		seen := map[string]struct{}{}
		for i, id := range ids {
			if strings.TrimSpace(id) == "" {
				errs = append(errs, fmt.Errorf("content: %s[%d]: missing id", list, i))
				continue
			}
			if _, dup := seen[id]; dup {
				errs = append(errs, fmt.Errorf("content: %s: duplicate id %q", list, id))
				continue
			}
			seen[id] = struct{}{}
		}
	}
	check("services", collect(doc.Services, func(s Service) string { return s.ID }))
	check("employees", collect(doc.Employees, func(e Employee) string { return e.ID }))
	check("gallery", collect(doc.Gallery, func(g GalleryImage) string { return g.ID }))
	check("albums", collect(doc.Albums, func(a Album) string { return a.ID }))
	check("gallery_categories", collect(doc.GalleryCategories, func(c GalleryCategory) string { return c.Key }))

	known := map[string]struct{}{}
	for _, c := range doc.GalleryCategories {
		known[c.Key] = struct{}{}
	}
	for _, img := range doc.Gallery {
		if _, ok := known[img.Category]; !ok {
			errs = append(errs, fmt.Errorf("content: gallery %q: unknown category %q", img.ID, img.Category))
		}
	}
	return errors.Join(errs...)
}

func collect[T any](items []T, id func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}

// Accessors return deep copies; callers may modify the results freely.

// Business returns the company copy.
func (s *Store) Business() Business {
	b := s.doc.Business
	b.Tagline = b.Tagline.clone()
	b.ShortDescription = b.ShortDescription.clone()
	b.LongDescription = b.LongDescription.clone()
	b.ValueProps = cloneAll(b.ValueProps, func(v ValueProp) ValueProp {
		v.Title = v.Title.clone()
		v.Description = v.Description.clone()
		return v
	})
	return b
}

// Contact returns the address and reachability details.
func (s *Store) Contact() ContactInfo {
	c := s.doc.Contact
	c.Country = c.Country.clone()
	return c
}

// OpeningHours returns the visiting arrangements.
func (s *Store) OpeningHours() OpeningHours {
	oh := s.doc.OpeningHours
	oh.Note = oh.Note.clone()
	oh.Description = oh.Description.clone()
	oh.Availability = oh.Availability.clone()
	return oh
}

// Music returns the music section settings.
func (s *Store) Music() Music { return s.doc.Music }

// Services returns the offerings in document order.
func (s *Store) Services() []Service {
	return cloneAll(s.doc.Services, func(v Service) Service {
		v.Title = v.Title.clone()
		v.Description = v.Description.clone()
		return v
	})
}

// Employees returns the team in document order.
func (s *Store) Employees() []Employee {
	return cloneAll(s.doc.Employees, func(v Employee) Employee {
		v.Role = v.Role.clone()
		v.Bio = v.Bio.clone()
		return v
	})
}

// Gallery returns every gallery image in document order.
func (s *Store) Gallery() []GalleryImage {
	return cloneAll(s.doc.Gallery, func(v GalleryImage) GalleryImage {
		v.Alt = v.Alt.clone()
		return v
	})
}

// Albums returns the studio catalog in document order.
func (s *Store) Albums() []Album {
	return cloneAll(s.doc.Albums, func(v Album) Album {
		v.Description = v.Description.clone()
		return v
	})
}

// StoryImages returns the about-section slideshow paths.
func (s *Store) StoryImages() []string {
	return append([]string(nil), s.doc.StoryImages...)
}

// GalleryCategories returns the declared categories in document order.
func (s *Store) GalleryCategories() []GalleryCategory {
	return cloneAll(s.doc.GalleryCategories, func(v GalleryCategory) GalleryCategory {
		v.Label = v.Label.clone()
		return v
	})
}

// CategoryLabel returns the localized label for a category key, or the key itself.
func (s *Store) CategoryLabel(key, lang, fallback string) string {
	if c, ok := s.categories[key]; ok {
		if v := c.Label.In(lang, fallback); v != "" {
			return v
		}
	}
	return key
}
