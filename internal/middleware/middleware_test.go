package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/go-chi/chi/v5"
	chiMid "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rjvillar/lmstudio-musikkservice-site/internal/i18n"
	"github.com/rjvillar/lmstudio-musikkservice-site/internal/logging"
)

func testBundle(t *testing.T) *i18n.Bundle {
	t.Helper()
	fsys := fstest.MapFS{
		"no.json": {Data: []byte(`{"nav.home":"Hjem"}`)},
		"en.json": {Data: []byte(`{"nav.home":"Home"}`)},
	}
	b, err := i18n.Load(fsys, "no", []string{"no", "en"})
	require.NoError(t, err)
	return b
}

// echoRouter reports the routed path and resolved language.
func echoRouter(opts LocaleOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(Locale(opts))
	echo := func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(Lang(r) + " " + r.URL.Path))
	}
	r.Get("/", echo)
	r.Get("/privacy", echo)
	r.Get("/assets/*", echo)
	return r
}

func TestLocaleServesDefaultUnprefixed(t *testing.T) {
	h := echoRouter(LocaleOptions{Bundle: testBundle(t)})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/privacy", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no /privacy", rec.Body.String())
	assert.Equal(t, "no", rec.Header().Get("Content-Language"))
}

func TestLocaleStripsEnglishPrefix(t *testing.T) {
	h := echoRouter(LocaleOptions{Bundle: testBundle(t)})
	for path, want := range map[string]string{
		"/en":         "en /",
		"/en/":        "en /",
		"/en/privacy": "en /privacy",
		"/EN/privacy": "en /privacy",
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, want, rec.Body.String(), path)
		assert.Equal(t, "en", rec.Header().Get("Content-Language"), path)
	}
}

func TestLocaleRedirectsDefaultPrefix(t *testing.T) {
	h := echoRouter(LocaleOptions{Bundle: testBundle(t)})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/no/privacy?x=1", nil))
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/privacy?x=1", rec.Header().Get("Location"))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "hl=no")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/no", nil))
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestLocaleDetectionIsOptIn(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/privacy", nil)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	rec := httptest.NewRecorder()
	echoRouter(LocaleOptions{Bundle: testBundle(t)}).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "no detection by default")

	rec = httptest.NewRecorder()
	echoRouter(LocaleOptions{Bundle: testBundle(t), Detect: true}).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/en/privacy", rec.Header().Get("Location"))
	assert.Contains(t, rec.Header().Values("Vary"), "Accept-Language")
}

func TestLocaleDetectionHonorsRememberedChoice(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en")
	req.AddCookie(&http.Cookie{Name: "hl", Value: "no"})
	rec := httptest.NewRecorder()
	echoRouter(LocaleOptions{Bundle: testBundle(t), Detect: true}).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no /", rec.Body.String())
}

func TestLocaleSkipsPrefixes(t *testing.T) {
	h := echoRouter(LocaleOptions{Bundle: testBundle(t), Detect: true, SkipPrefixes: []string{"/assets/"}})
	req := httptest.NewRequest(http.MethodGet, "/assets/site.css", nil)
	req.Header.Set("Accept-Language", "en")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no /assets/site.css", rec.Body.String())
}

func sessionCookies(rec *httptest.ResponseRecorder) []*http.Cookie {
	return rec.Result().Cookies()
}

func csrfStack(store *SessionStore, next http.Handler) http.Handler {
	return store.Middleware(CSRF(false)(next))
}

func TestSessionIssuesSignedCookieAndCSRF(t *testing.T) {
	store := NewSessionStore(SessionOptions{SigningKey: []byte("k")})
	var token string
	h := csrfStack(store, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = CSRFToken(r)
		_, _ = w.Write([]byte("ok"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, token)

	names := map[string]string{}
	for _, c := range sessionCookies(rec) {
		names[c.Name] = c.Value
	}
	assert.Contains(t, names, sessionCookieName)
	assert.Equal(t, token, names[csrfCookieName])
}

func TestSessionRejectsTamperedCookie(t *testing.T) {
	store := NewSessionStore(SessionOptions{SigningKey: []byte("k")})
	var ids []string
	h := store.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, GetSession(r).ID)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := sessionCookies(rec)[0]

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	h.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookie.Name, Value: "x" + cookie.Value})
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, ids, 3)
	assert.Equal(t, ids[0], ids[1], "valid cookie restores the session")
	assert.NotEqual(t, ids[0], ids[2], "tampered cookie starts over")
}

func TestCSRFRejectsMissingToken(t *testing.T) {
	store := NewSessionStore(SessionOptions{SigningKey: []byte("k")})
	var token string
	h := csrfStack(store, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = CSRFToken(r)
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := sessionCookies(rec)

	post := func(form url.Values, header string) int {
		req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if header != "" {
			req.Header.Set(CSRFHeader, header)
		}
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusForbidden, post(url.Values{}, ""))
	assert.Equal(t, http.StatusForbidden, post(url.Values{CSRFField: {"nope"}}, ""))
	assert.Equal(t, http.StatusNoContent, post(url.Values{CSRFField: {token}}, ""))
	assert.Equal(t, http.StatusNoContent, post(url.Values{}, token))
}

func TestLoggerRecordsRequest(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	var sawLogger bool
	h := chiMid.RequestID(Logger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.FromContext(r.Context()).Info("inside")
		sawLogger = true
		w.WriteHeader(http.StatusTeapot)
	})))
	req := httptest.NewRequest(http.MethodGet, "/en/privacy", nil)
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, sawLogger)
	require.Equal(t, 2, logs.Len())
	entry := logs.All()[1]
	assert.Equal(t, "request", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, int64(http.StatusTeapot), fields["status"])
	assert.Equal(t, "/en/privacy", fields["path"])
	assert.Equal(t, "192.0.2.1", fields["remote_ip"], "forwarded headers are not trusted here")
	assert.NotEmpty(t, fields["request_id"])
	assert.NotEmpty(t, logs.All()[0].ContextMap()["request_id"], "request logger carries the id")
}

func TestClientIPIgnoresForwardedHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/contact", nil)
	req.RemoteAddr = "203.0.113.9:51234"
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	req.Header.Set("X-Real-IP", "5.6.7.8")
	assert.Equal(t, "203.0.113.9", ClientIP(req))

	var got string
	h := chiMid.RealIP(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) { got = ClientIP(r) }))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "5.6.7.8", got, "behind RealIP the proxy header wins")
}

func TestAssetsWithCacheETag(t *testing.T) {
	fsys := fstest.MapFS{"assets/site.css": {Data: []byte("body{}")}}
	h := AssetsWithCache(fsys, false)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/site.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	et := rec.Header().Get("ETag")
	require.NotEmpty(t, et)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age")
	assert.True(t, bytes.Equal([]byte("body{}"), rec.Body.Bytes()))

	req := httptest.NewRequest(http.MethodGet, "/assets/site.css", nil)
	req.Header.Set("If-None-Match", et)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWriteErrorJSONForHTMX(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(WithHTMX(req.Context(), true))
	rec := httptest.NewRecorder()
	WriteError(rec, req, http.StatusForbidden, "nope")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"nope"}`, rec.Body.String())
}
