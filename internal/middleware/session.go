package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	sessionCookieName = "LMSTUDIO_SESSION"
	sessionTTL        = 30 * 24 * time.Hour
)

// SessionData is the state kept inside the signed session cookie.
type SessionData struct {
	ID        string    `json:"id"`
	CSRFToken string    `json:"csrf,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	dirty     bool
}

// SessionOptions configures the Session middleware.
type SessionOptions struct {
	// SigningKey authenticates cookies. Empty generates a process-ephemeral key.
	SigningKey []byte
	// Secure marks cookies Secure (set in prod).
	Secure bool
	Logger *zap.Logger
}

// SessionStore signs and verifies session cookies.
type SessionStore struct {
	key    []byte
	secure bool
}

// NewSessionStore builds a store; an empty key is replaced by a random one.
func NewSessionStore(opts SessionOptions) *SessionStore {
	key := opts.SigningKey
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			key = []byte("insecure-dev-key-set-LMSTUDIO_WEB_SESSION_SIGNING_KEY")
		}
		if opts.Logger != nil {
			opts.Logger.Warn("session: using ephemeral signing key; set LMSTUDIO_WEB_SESSION_SIGNING_KEY in production")
		}
	}
	return &SessionStore{key: key, secure: opts.Secure}
}

// Secure reports whether cookies are marked Secure.
func (s *SessionStore) Secure() bool { return s.secure }

// Middleware loads or initializes a session and stores it in request context.
func (s *SessionStore) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sd, fromCookie := s.read(r)
		if sd.ID == "" {
			now := time.Now().UTC()
			sd.ID = uuid.NewString()
			sd.CreatedAt = now
			sd.UpdatedAt = now
			sd.CSRFToken = newCSRFToken()
			sd.dirty = true
		}
		ctx := context.WithValue(r.Context(), ctxKeySession, sd)
		rw := NewResponseRecorder(w)
		// ensure cookie is set just before first write if needed
		rw.SetBeforeWrite(func(w http.ResponseWriter) {
			if sd.dirty || !fromCookie {
				s.write(w, sd)
			}
		})
		next.ServeHTTP(rw, r.WithContext(ctx))
		// nothing written (e.g. HEAD with empty body): persist cookie now
		if !rw.Written() && (sd.dirty || !fromCookie) {
			s.write(w, sd)
		}
	})
}

// GetSession returns session data from context
func GetSession(r *http.Request) *SessionData {
	if v := r.Context().Value(ctxKeySession); v != nil {
		if sd, ok := v.(*SessionData); ok {
			return sd
		}
	}
	return &SessionData{}
}

// MarkDirty flags the session for writing at end of request
func (s *SessionData) MarkDirty() { s.dirty = true; s.UpdatedAt = time.Now().UTC() }

// read parses and verifies the session cookie
func (s *SessionStore) read(r *http.Request) (*SessionData, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return &SessionData{}, false
	}
	payloadB64, sigB64, ok := strings.Cut(c.Value, ".")
	if !ok {
		return &SessionData{}, false
	}
	payload, err := base64.RawURLEncoding.DecodeString(payloadB64)
	if err != nil {
		return &SessionData{}, false
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigB64)
	if err != nil {
		return &SessionData{}, false
	}
	if !hmac.Equal(sig, s.sign(payload)) {
		return &SessionData{}, false
	}
	var sd SessionData
	if err := json.Unmarshal(payload, &sd); err != nil {
		return &SessionData{}, false
	}
	if time.Since(sd.CreatedAt) > sessionTTL {
		return &SessionData{}, false
	}
	return &sd, true
}

func (s *SessionStore) write(w http.ResponseWriter, sd *SessionData) {
	b, _ := json.Marshal(sd)
	val := base64.RawURLEncoding.EncodeToString(b) + "." + base64.RawURLEncoding.EncodeToString(s.sign(b))
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    val,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(sessionTTL),
	})
}

func (s *SessionStore) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(payload)
	return mac.Sum(nil)
}
