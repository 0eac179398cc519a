package handlers

import (
	"html/template"
	"math/rand/v2"
	"net/url"
	"time"

	"github.com/rjvillar/lmstudio-musikkservice-site/internal/contact"
	"github.com/rjvillar/lmstudio-musikkservice-site/internal/content"
	"github.com/rjvillar/lmstudio-musikkservice-site/internal/format"
	"github.com/rjvillar/lmstudio-musikkservice-site/internal/gallery"
	"github.com/rjvillar/lmstudio-musikkservice-site/internal/locale"
)

// HomeData is the view model for the single-page home layout.
type HomeData struct {
	Hero     HeroData
	Services []ServiceView
	About    AboutData
	Music    MusicData
	Gallery  GalleryData
	Team     []EmployeeView
	Contact  ContactFormData
	Map      MapData
}

type HeroData struct {
	Title    string
	Tagline  string
	Lead     string
	CTAHref  string
	Since    int
	Years    int
	Services int
}

type ServiceView struct {
	ID          string
	Title       string
	Description string
	Icon        string
	Image       string
}

type ValuePropView struct {
	Title       string
	Description string
}

type AboutData struct {
	Body       string
	ValueProps []ValuePropView
	Slideshows []gallery.Slideshow
	Hours      string
	HoursNote  string
}

type AlbumView struct {
	ID          string
	Title       string
	Artist      string
	Year        string
	Cover       string
	Href        string
	Description string
}

type MusicData struct {
	Albums []AlbumView
	CTAURL string
}

type EmployeeView struct {
	ID        string
	Name      string
	Role      string
	Bio       string
	Image     string
	Phone     string
	PhoneHref template.URL
	Email     string
	EmailHref string
}

// GalleryImageView is one rendered gallery tile.
type GalleryImageView struct {
	ID       string
	Src      string
	Alt      string
	Category string
	Label    string
}

// CategoryTab is one gallery filter button.
type CategoryTab struct {
	Key    string
	Label  string
	Href   string
	Active bool
}

// GalleryData feeds both the gallery section and its htmx fragment.
type GalleryData struct {
	Category     string
	Tabs         []CategoryTab
	Images       []GalleryImageView
	Rotating     bool
	PollHref     string
	PollInterval time.Duration
}

// ContactFormData carries form values and the outcome of the last submission.
type ContactFormData struct {
	Action         string
	Values         contact.Form
	Errors         map[string]string
	Status         contact.Status
	Message        string
	RequireConsent bool
	CSRFToken      string
}

// MapData configures the embedded map.
type MapData struct {
	EmbedURL string
	LinkURL  string
}

// HomeOptions carries request-independent knobs for BuildHomeData.
type HomeOptions struct {
	Now             time.Time
	GalleryInterval time.Duration
	MapsAPIKey      string
	RequireConsent  bool
	Rand            *rand.Rand
}

// BuildHomeData assembles every section for lang.
func BuildHomeData(store *content.Store, lang, fallback string, opts HomeOptions) *HomeData {
	b := store.Business()
	oh := store.OpeningHours()
	h := &HomeData{
		Hero: HeroData{
			Title:    b.Name,
			Tagline:  b.Tagline.In(lang, fallback),
			Lead:     b.ShortDescription.In(lang, fallback),
			CTAHref:  locale.Anchor(lang, "kontakt"),
			Since:    b.Since,
			Years:    format.YearsSince(b.Since, opts.Now),
			Services: len(store.Services()),
		},
		About: AboutData{
			Body:       b.LongDescription.In(lang, fallback),
			Slideshows: gallery.Slideshows(store.StoryImages(), 2, opts.Rand),
			Hours:      oh.Description.In(lang, fallback),
			HoursNote:  oh.Availability.In(lang, fallback),
		},
		Music:   MusicData{CTAURL: store.Music().CTAURL},
		Gallery: BuildGalleryData(store, lang, fallback, gallery.All, opts.Now, opts.GalleryInterval),
		Contact: ContactFormData{
			Action:         locale.Path(lang, "/contact"),
			Status:         contact.StatusIdle,
			RequireConsent: opts.RequireConsent,
		},
		Map: BuildMapData(store.Contact(), opts.MapsAPIKey),
	}
	for _, s := range store.Services() {
		h.Services = append(h.Services, ServiceView{
			ID:          s.ID,
			Title:       s.Title.In(lang, fallback),
			Description: s.Description.In(lang, fallback),
			Icon:        s.Icon,
			Image:       s.Image,
		})
	}
	for _, vp := range b.ValueProps {
		h.About.ValueProps = append(h.About.ValueProps, ValuePropView{
			Title:       vp.Title.In(lang, fallback),
			Description: vp.Description.In(lang, fallback),
		})
	}
	for _, a := range store.Albums() {
		h.Music.Albums = append(h.Music.Albums, AlbumView{
			ID:          a.ID,
			Title:       a.Title,
			Artist:      a.Artist,
			Year:        a.Year,
			Cover:       a.CoverImage,
			Href:        a.ExternalURL,
			Description: a.Description.In(lang, fallback),
		})
	}
	for _, e := range store.Employees() {
		h.Team = append(h.Team, EmployeeView{
			ID:        e.ID,
			Name:      e.Name,
			Role:      e.Role.In(lang, fallback),
			Bio:       e.Bio.In(lang, fallback),
			Image:     e.Image,
			Phone:     e.Phone,
			PhoneHref: template.URL(format.TelHref(e.Phone)),
			Email:     e.Email,
			EmailHref: format.MailtoHref(e.Email),
		})
	}
	return h
}

// BuildGalleryData computes the gallery state for category at now.
func BuildGalleryData(store *content.Store, lang, fallback, category string, now time.Time, interval time.Duration) GalleryData {
	if interval <= 0 {
		interval = gallery.DefaultInterval
	}
	images := store.Gallery()
	v := gallery.Build(images, category, now, interval)
	d := GalleryData{
		Category:     v.Category,
		Rotating:     v.Rotating,
		PollHref:     galleryHref(lang, gallery.All),
		PollInterval: interval,
	}
	d.Tabs = append(d.Tabs, CategoryTab{
		Key:    gallery.All,
		Label:  store.CategoryLabel(gallery.All, lang, fallback),
		Href:   galleryHref(lang, gallery.All),
		Active: v.Category == gallery.All,
	})
	for _, key := range v.Categories {
		d.Tabs = append(d.Tabs, CategoryTab{
			Key:    key,
			Label:  store.CategoryLabel(key, lang, fallback),
			Href:   galleryHref(lang, key),
			Active: v.Category == key,
		})
	}
	for _, img := range v.Images {
		d.Images = append(d.Images, GalleryImageView{
			ID:       img.ID,
			Src:      img.Src,
			Alt:      img.Alt.In(lang, fallback),
			Category: img.Category,
			Label:    store.CategoryLabel(img.Category, lang, fallback),
		})
	}
	return d
}

// BuildMapData prefers the Maps Embed API when a key is configured.
func BuildMapData(c content.ContactInfo, apiKey string) MapData {
	m := MapData{EmbedURL: c.MapsEmbedURL, LinkURL: c.MapsURL}
	if apiKey != "" && c.MapsQuery != "" {
		q := url.Values{"key": {apiKey}, "q": {c.MapsQuery}}
		m.EmbedURL = "https://www.google.com/maps/embed/v1/place?" + q.Encode()
	}
	return m
}

func galleryHref(lang, category string) string {
	return locale.Path(lang, "/gallery") + "?" + url.Values{"category": {category}}.Encode()
}

func homeHref(lang string) string { return locale.Path(lang, "/") }
