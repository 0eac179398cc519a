package middleware

import (
	"net/http"
	"strings"

	"github.com/rjvillar/lmstudio-musikkservice-site/internal/i18n"
	"github.com/rjvillar/lmstudio-musikkservice-site/internal/locale"
)

const localeCookieName = "hl"

// LocaleOptions configures Locale.
type LocaleOptions struct {
	Bundle *i18n.Bundle
	// Detect redirects unprefixed page requests to the remembered or
	// Accept-Language locale. Off by default: the bare path is Norwegian.
	Detect bool
	Secure bool
	// SkipPrefixes are left untouched (assets, health checks).
	SkipPrefixes []string
}

// Locale resolves the language from the URL prefix. "/en/..." is served in
// English with the prefix stripped before routing; "/no/..." redirects to the
// unprefixed path; everything else is Norwegian.
func Locale(opts LocaleOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, p := range opts.SkipPrefixes {
				if strings.HasPrefix(r.URL.Path, p) {
					next.ServeHTTP(w, r.WithContext(WithLang(r.Context(), locale.Default)))
					return
				}
			}

			lang, rest, prefixed := locale.Split(r.URL.Path)
			if prefixed {
				rememberLocale(w, lang, opts.Secure)
			}
			if prefixed && lang == locale.Default {
				redirect(w, r, rest)
				return
			}
			if !prefixed && opts.Detect && isSafeMethod(r.Method) {
				w.Header().Add("Vary", "Accept-Language")
				if want := detect(r, opts.Bundle); want != locale.Default {
					redirect(w, r, locale.Path(want, rest))
					return
				}
			}

			w.Header().Set("Content-Language", lang)
			ctx := WithLang(r.Context(), lang)
			r2 := r.WithContext(ctx)
			if prefixed {
				u := *r.URL
				u.Path = rest
				u.RawPath = ""
				r2.URL = &u
			}
			next.ServeHTTP(w, r2)
		})
	}
}

// Lang returns the locale chosen by Locale, or the default.
func Lang(r *http.Request) string {
	if v, ok := r.Context().Value(ctxKeyLang).(string); ok && v != "" {
		return v
	}
	return locale.Default
}

func detect(r *http.Request, bundle *i18n.Bundle) string {
	if c, err := r.Cookie(localeCookieName); err == nil && locale.IsSupported(c.Value) {
		return strings.ToLower(c.Value)
	}
	if bundle == nil {
		return locale.Default
	}
	return bundle.Resolve(r.Header.Get("Accept-Language"))
}

func rememberLocale(w http.ResponseWriter, lang string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     localeCookieName,
		Value:    lang,
		Path:     "/",
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   365 * 24 * 60 * 60,
	})
}

func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}
