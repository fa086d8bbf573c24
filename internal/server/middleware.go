package server

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// requestContext holds request-scoped data for logging
type requestContext struct {
	RequestID string
	VideoID   string
	CacheHit  bool
}

type ctxKey string

const reqCtxKey ctxKey = "requestContext"

func setRequestContext(r *http.Request, rc *requestContext) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), reqCtxKey, rc))
}

func getRequestContext(r *http.Request) *requestContext {
	if rc, ok := r.Context().Value(reqCtxKey).(*requestContext); ok {
		return rc
	}
	return &requestContext{}
}

// logRequests logs each request once it completes. 5xx logs at error, 4xx
// at warn.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rc := &requestContext{RequestID: r.Header.Get("X-Request-ID")}
		if rc.RequestID == "" {
			rc.RequestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", rc.RequestID)
		r = setRequestContext(r, rc)

		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		attrs := []any{
			slog.String("request_id", rc.RequestID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", wrapped.status),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			slog.String("ip", getClientIP(r)),
		}
		if rc.VideoID != "" {
			attrs = append(attrs,
				slog.String("video_id", rc.VideoID),
				slog.Bool("cache_hit", rc.CacheHit))
		}

		switch {
		case wrapped.status >= 500:
			s.logger.Error("request failed", attrs...)
		case wrapped.status >= 400:
			s.logger.Warn("request error", attrs...)
		default:
			s.logger.Info("request completed", attrs...)
		}
	})
}

// auth requires the configured API key in X-API-Key or as a Bearer token.
// It is a no-op when no key is configured.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.APIKey != "" {
			provided := r.Header.Get("X-API-Key")
			if provided == "" {
				if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
					provided = bearer
				}
			}
			if subtle.ConstantTimeCompare([]byte(provided), []byte(s.cfg.APIKey)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid or missing API key")
				return
			}
		}
		next(w, r)
	}
}
