package middleware

import (
	"net"
	"net/http"
	"time"

	chiMid "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/rjvillar/lmstudio-musikkservice-site/internal/logging"
)

// Logger emits one structured log entry per request and exposes a
// request-scoped logger through logging.FromContext.
func Logger(base *zap.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rid := chiMid.GetReqID(r.Context())
			reqLogger := base
			ctx := r.Context()
			if rid != "" {
				reqLogger = base.With(zap.String("request_id", rid))
				ctx = WithRequestID(ctx, rid)
			}
			ctx = logging.WithLogger(ctx, reqLogger)
			rw := NewResponseRecorder(w)
			r = r.WithContext(ctx)
			next.ServeHTTP(rw, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rw.Status()),
				zap.Int("bytes", rw.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_ip", ClientIP(r)),
				zap.Bool("htmx", r.Header.Get("HX-Request") == "true"),
			}
			switch {
			case rw.Status() >= 500:
				reqLogger.Error("request", fields...)
			case rw.Status() >= 400:
				reqLogger.Warn("request", fields...)
			default:
				reqLogger.Info("request", fields...)
			}
		})
	}
}

// ClientIP returns the host part of RemoteAddr. Forwarded headers are only
// honoured when chi's RealIP runs earlier in the chain (server.trust_proxy).
func ClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
