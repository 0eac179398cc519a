package middleware

import (
	"encoding/json"
	"net/http"
)

// HTMX marks requests coming from htmx so handlers/middlewares can adapt responses
func HTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		is := r.Header.Get("HX-Request") == "true"
		ctx := WithHTMX(r.Context(), is)
		if is {
			w.Header().Add("Vary", "HX-Request")
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TriggerEvent sets HX-Trigger so the client fires name with detail.
func TriggerEvent(w http.ResponseWriter, name string, detail any) {
	b, err := json.Marshal(map[string]any{name: detail})
	if err != nil {
		return
	}
	w.Header().Set("HX-Trigger", string(b))
}
