package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rjvillar/lmstudio-musikkservice-site/internal/contact"
	"github.com/rjvillar/lmstudio-musikkservice-site/internal/content"
	"github.com/rjvillar/lmstudio-musikkservice-site/internal/gallery"
	handlersPkg "github.com/rjvillar/lmstudio-musikkservice-site/internal/handlers"
	"github.com/rjvillar/lmstudio-musikkservice-site/internal/locale"
	"github.com/rjvillar/lmstudio-musikkservice-site/internal/logging"
	mw "github.com/rjvillar/lmstudio-musikkservice-site/internal/middleware"
	"github.com/rjvillar/lmstudio-musikkservice-site/internal/nav"
)

func (a *app) pageData(r *http.Request) handlersPkg.PageData {
	lang := mw.Lang(r)
	vm := handlersPkg.BuildPageData(a.store, lang, locale.Default, r.URL.Path, a.now())
	vm.CSRFToken = mw.CSRFToken(r)
	return vm
}

func (a *app) homeData(r *http.Request, lang, category string) *handlersPkg.HomeData {
	home := handlersPkg.BuildHomeData(a.store, lang, locale.Default, handlersPkg.HomeOptions{
		Now:             a.now(),
		GalleryInterval: a.cfg.Site.GalleryInterval,
		MapsAPIKey:      a.cfg.Site.MapsAPIKey,
		RequireConsent:  a.contact.RequireConsent(),
		Rand:            a.rand,
	})
	if category != "" && category != gallery.All {
		home.Gallery = handlersPkg.BuildGalleryData(a.store, lang, locale.Default, category, a.now(), a.cfg.Site.GalleryInterval)
	}
	home.Contact.CSRFToken = mw.CSRFToken(r)
	return home
}

// HomeHandler renders the single-page layout.
func (a *app) HomeHandler(w http.ResponseWriter, r *http.Request) {
	vm := a.pageData(r)
	vm.Home = a.homeData(r, vm.Lang, "")
	a.renderPage(w, r, "home", vm)
}

// GalleryHandler returns the gallery fragment for htmx, or the home page
// with the category preselected otherwise.
func (a *app) GalleryHandler(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	if category == "" {
		category = gallery.All
	}
	if mw.IsHTMX(r.Context()) {
		data := handlersPkg.BuildGalleryData(a.store, lang, locale.Default, category, a.now(), a.cfg.Site.GalleryInterval)
		w.Header().Set("Cache-Control", "no-store")
		a.renderTemplate(w, r, "frag_gallery", map[string]any{
			"Lang":    lang,
			"Gallery": data,
		})
		return
	}
	vm := a.pageData(r)
	vm.Home = a.homeData(r, lang, category)
	a.renderPage(w, r, "home", vm)
}

// ContactHandler validates and submits the contact form.
func (a *app) ContactHandler(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	if err := r.ParseForm(); err != nil {
		mw.WriteError(w, r, http.StatusBadRequest, "invalid form")
		return
	}
	form := contact.ParseForm(r.PostForm)
	res, err := a.contact.Submit(r.Context(), lang, mw.ClientIP(r), form)

	view := handlersPkg.ContactFormData{
		Action:         locale.Path(lang, "/contact"),
		Values:         form,
		Errors:         res.Errors,
		Status:         res.Status,
		RequireConsent: a.contact.RequireConsent(),
		CSRFToken:      mw.CSRFToken(r),
	}
	status := http.StatusOK
	switch {
	case errors.Is(err, contact.ErrRateLimited):
		status = http.StatusTooManyRequests
		view.Message = a.i18nOrDefault(lang, "contact.rate_limited", "Too many messages. Please try again later.")
	case err != nil:
		status = http.StatusBadGateway
		view.Message = a.i18nOrDefault(lang, "contact.failure", "Something went wrong. Please try again.")
		logging.FromContext(r.Context()).Warn("contact submission failed", zap.Error(err))
	case res.Status == contact.StatusInvalid:
		status = http.StatusUnprocessableEntity
	case res.Status == contact.StatusSuccess:
		view.Message = a.i18nOrDefault(lang, "contact.success", "Thank you for your message! We will be in touch soon.")
		// clear the form after a successful send
		view.Values = contact.Form{}
	}

	if mw.IsHTMX(r.Context()) {
		mw.TriggerEvent(w, "contact:status", map[string]string{"status": string(view.Status)})
		a.renderTemplateStatus(w, r, status, "frag_contact_form", map[string]any{
			"Lang": lang,
			"Form": view,
		})
		return
	}
	vm := a.pageData(r)
	vm.Home = a.homeData(r, lang, "")
	vm.Home.Contact = view
	a.renderPageStatus(w, r, status, "home", vm)
}

// PageHandler renders a markdown page such as /privacy.
func (a *app) PageHandler(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	slug := chi.URLParam(r, "slug")
	page, err := a.pages.Get(slug, lang)
	if err != nil {
		if !errors.Is(err, content.ErrNotFound) {
			logging.FromContext(r.Context()).Error("load page", zap.String("slug", slug), zap.Error(err))
		}
		a.NotFoundHandler(w, r)
		return
	}
	vm := a.pageData(r)
	vm.Page = handlersPkg.BuildPageView(page)
	if page.Summary != "" {
		vm.Description = page.Summary
	}
	vm.Breadcrumbs = nav.Breadcrumbs(lang, r.URL.Path)
	if len(vm.Breadcrumbs) > 1 {
		vm.Breadcrumbs[len(vm.Breadcrumbs)-1].Label = page.Title
	}
	a.renderPage(w, r, "page", vm)
}

// NotFoundHandler renders the localized 404 page.
func (a *app) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	if mw.IsHTMX(r.Context()) {
		mw.WriteError(w, r, http.StatusNotFound, "not found")
		return
	}
	vm := a.pageData(r)
	vm.NotFound = true
	vm.Description = a.i18nOrDefault(vm.Lang, "notfound.body", "Sorry, the page you're looking for doesn't exist.")
	a.renderPageStatus(w, r, http.StatusNotFound, "not_found", vm)
}

// HealthzHandler reports liveness and dependency reachability.
func (a *app) HealthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := a.ping(r.Context()); err != nil {
		logging.FromContext(r.Context()).Warn("healthz dependency check failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("degraded"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
