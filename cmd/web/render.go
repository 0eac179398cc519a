package main

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rjvillar/lmstudio-musikkservice-site/internal/i18n"
	"github.com/rjvillar/lmstudio-musikkservice-site/internal/logging"
)

// renderer owns the parsed template sets. Each page under pages/ is parsed
// together with layouts/ and partials/ and defines "content"; fragments live
// in partials/ and can be executed from the shared set.
type renderer struct {
	fsys   fs.FS
	bundle *i18n.Bundle

	mu    sync.RWMutex
	pages map[string]*template.Template
	frags *template.Template
}

func newRenderer(fsys fs.FS, bundle *i18n.Bundle) (*renderer, error) {
	r := &renderer{fsys: fsys, bundle: bundle}
	if err := r.parse(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *renderer) funcs() template.FuncMap {
	return template.FuncMap{
		"t": func(lang, key string) string { return r.bundle.T(lang, key) },
		"tf": func(lang, key string, args ...any) string {
			return fmt.Sprintf(r.bundle.T(lang, key), args...)
		},
		"dict": dict,
		"ms":   func(d time.Duration) int64 { return d.Milliseconds() },
		"now":  time.Now,
		"join": strings.Join,
		"add":  func(a, b int) int { return a + b },
		"odd":  func(i int) bool { return i%2 == 1 },
	}
}

func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, errors.New("dict: odd number of arguments")
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
		}
		m[k] = kv[i+1]
	}
	return m, nil
}

func (r *renderer) glob(dir string) ([]string, error) {
	var files []string
	err := fs.WalkDir(r.fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, ".tmpl") {
			files = append(files, p)
		}
		return nil
	})
	return files, err
}

func (r *renderer) parse() error {
	shared := []string{}
	for _, dir := range []string{"layouts", "partials"} {
		files, err := r.glob(dir)
		if err != nil {
			return fmt.Errorf("templates: %s: %w", dir, err)
		}
		shared = append(shared, files...)
	}
	if len(shared) == 0 {
		return errors.New("templates: no layouts or partials found")
	}
	frags, err := template.New("_root").Funcs(r.funcs()).ParseFS(r.fsys, shared...)
	if err != nil {
		return fmt.Errorf("templates: parse shared: %w", err)
	}

	pageFiles, err := r.glob("pages")
	if err != nil {
		return fmt.Errorf("templates: pages: %w", err)
	}
	pages := make(map[string]*template.Template, len(pageFiles))
	for _, pf := range pageFiles {
		t, err := frags.Clone()
		if err != nil {
			return err
		}
		if _, err := t.ParseFS(r.fsys, pf); err != nil {
			return fmt.Errorf("templates: parse %s: %w", pf, err)
		}
		pages[strings.TrimSuffix(path.Base(pf), ".tmpl")] = t
	}

	r.mu.Lock()
	r.pages = pages
	r.frags = frags
	r.mu.Unlock()
	return nil
}

func (r *renderer) current() (map[string]*template.Template, *template.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.frags == nil {
		return nil, nil, errors.New("templates: not parsed")
	}
	return r.pages, r.frags, nil
}

// page executes the base layout with the named page's "content".
func (r *renderer) page(name string, data any) ([]byte, error) {
	pages, _, err := r.current()
	if err != nil {
		return nil, err
	}
	t, ok := pages[name]
	if !ok {
		return nil, fmt.Errorf("templates: unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fragment executes a named partial.
func (r *renderer) fragment(name string, data any) ([]byte, error) {
	_, frags, err := r.current()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := frags.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderPage writes a full page with status 200.
func (a *app) renderPage(w http.ResponseWriter, r *http.Request, name string, data any) {
	a.renderPageStatus(w, r, http.StatusOK, name, data)
}

// renderPageStatus buffers the page so template errors never produce half a response.
func (a *app) renderPageStatus(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	body, err := a.tmpl.page(name, data)
	if err != nil {
		a.renderError(w, r, "page", name, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// renderTemplate writes an htmx fragment with status 200.
func (a *app) renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	a.renderTemplateStatus(w, r, http.StatusOK, name, data)
}

func (a *app) renderTemplateStatus(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	body, err := a.tmpl.fragment(name, data)
	if err != nil {
		a.renderError(w, r, "fragment", name, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (a *app) renderError(w http.ResponseWriter, r *http.Request, kind, name string, err error) {
	logging.FromContext(r.Context()).Error("template exec error",
		zap.String("kind", kind), zap.String("template", name), zap.Error(err))
	msg := "internal server error"
	if a.cfg.Server.Dev {
		msg = fmt.Sprintf("template %s %s: %v", kind, name, err)
	}
	http.Error(w, msg, http.StatusInternalServerError)
}

// i18nOrDefault returns the translation for key or def when no catalog has it.
func (a *app) i18nOrDefault(lang, key, def string) string {
	if a.bundle == nil {
		return def
	}
	if v := a.bundle.T(lang, key); v != "" && v != key {
		return v
	}
	return def
}

// translationKeys scans every template for literal keys passed to t/tf.
func (r *renderer) translationKeys(pattern *regexp.Regexp) ([]string, error) {
	var keys []string
	err := fs.WalkDir(r.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(p, ".tmpl") {
			return err
		}
		raw, err := fs.ReadFile(r.fsys, p)
		if err != nil {
			return err
		}
		for _, m := range pattern.FindAllStringSubmatch(string(raw), -1) {
			keys = append(keys, m[1])
		}
		return nil
	})
	return keys, err
}
