package handlers

import (
	"html/template"
	"time"

	"github.com/rjvillar/lmstudio-musikkservice-site/internal/content"
	"github.com/rjvillar/lmstudio-musikkservice-site/internal/format"
	"github.com/rjvillar/lmstudio-musikkservice-site/internal/locale"
	"github.com/rjvillar/lmstudio-musikkservice-site/internal/nav"
)

// PageData is the view model every full page renders with the shared layout.
type PageData struct {
	Title       string
	Description string
	Lang        string
	Path        string
	HomeHref    string
	ContactHref string
	PrivacyHref string
	Nav         []nav.RenderedItem
	Languages   []nav.Language
	Breadcrumbs []nav.Crumb
	CSRFToken   string
	Year        int

	Brand   BrandData
	Contact ContactInfoView

	// Optional per-page view model payloads
	Home     *HomeData
	Page     *PageView
	NotFound bool
}

// BrandData is the business identity shown in header and footer.
type BrandData struct {
	Name    string
	Tagline string
	Short   string
	Hours   string
	Since   int
}

// ContactInfoView is ContactInfo resolved for one language.
type ContactInfoView struct {
	Address             string
	PostalCode          string
	City                string
	Country             string
	Phone               string
	PhoneHref           template.URL
	AdditionalPhone     string
	AdditionalPhoneHref template.URL
	Email               string
	EmailHref           string
	OrgNumber           string
	MapsURL             string
}

// PageView is a rendered markdown page.
type PageView struct {
	Slug      string
	Title     string
	Summary   string
	Body      template.HTML
	UpdatedAt string
}

// BuildPageData fills the layout fields shared by every page.
func BuildPageData(store *content.Store, lang, fallback, path string, now time.Time) PageData {
	b := store.Business()
	oh := store.OpeningHours()
	return PageData{
		Title:       b.Name,
		Description: b.ShortDescription.In(lang, fallback),
		Lang:        lang,
		Path:        path,
		HomeHref:    homeHref(lang),
		ContactHref: locale.Anchor(lang, "kontakt"),
		PrivacyHref: locale.Path(lang, "/privacy"),
		Nav:         nav.Build(lang),
		Languages:   nav.Languages(path, lang),
		Year:        now.Year(),
		Brand: BrandData{
			Name:    b.Name,
			Tagline: b.Tagline.In(lang, fallback),
			Short:   b.ShortDescription.In(lang, fallback),
			Hours:   oh.Note.In(lang, fallback),
			Since:   b.Since,
		},
		Contact: BuildContactInfo(store.Contact(), lang, fallback),
	}
}

// BuildContactInfo resolves contact details for lang.
func BuildContactInfo(c content.ContactInfo, lang, fallback string) ContactInfoView {
	return ContactInfoView{
		Address:             c.Address,
		PostalCode:          c.PostalCode,
		City:                c.City,
		Country:             c.Country.In(lang, fallback),
		Phone:               c.Phone,
		PhoneHref:           template.URL(format.TelHref(c.Phone)),
		AdditionalPhone:     c.AdditionalPhone,
		AdditionalPhoneHref: template.URL(format.TelHref(c.AdditionalPhone)),
		Email:               c.Email,
		EmailHref:           format.MailtoHref(c.Email),
		OrgNumber:           c.OrgNumber,
		MapsURL:             c.MapsURL,
	}
}

// BuildPageView converts a content page for rendering.
func BuildPageView(p content.Page) *PageView {
	return &PageView{
		Slug:      p.Slug,
		Title:     p.Title,
		Summary:   p.Summary,
		Body:      p.Body,
		UpdatedAt: format.FmtDate(p.UpdatedAt, p.Lang),
	}
}
