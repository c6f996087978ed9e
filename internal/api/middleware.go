package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"islandstay/internal/logging"
	"islandstay/internal/metrics"
	"islandstay/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

type ctxKey int

const (
	sessionCtxKey ctxKey = iota
)

// sessionFromContext returns the session loaded by loadSession, if any.
func sessionFromContext(ctx context.Context) *models.Session {
	s, _ := ctx.Value(sessionCtxKey).(*models.Session)
	return s
}

// credentialsFromContext returns the caller's credentials or anonymous ones.
func credentialsFromContext(ctx context.Context) models.Credentials {
	if s := sessionFromContext(ctx); s != nil {
		return s.Credentials
	}
	return models.Credentials{}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogger tags the request with an id, attaches a child logger to the
// context and logs the outcome.
func (s *HTTPServer) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		reqLogger := s.log.With().Str("request_id", requestID).Logger()
		r = r.WithContext(reqLogger.WithContext(r.Context()))

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		metrics.IncHTTP(route, fmt.Sprintf("%dxx", recorder.status/100))

		event := reqLogger.Info()
		if recorder.status >= http.StatusInternalServerError {
			event = reqLogger.Warn()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", route).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func (s *HTTPServer) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.FromContext(r.Context(), s.log).Error().Interface("panic", rec).Msg("handler panic")
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(clientKey(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey identifies a caller for rate limiting: the resolved session when
// there is one, otherwise the remote IP. Runs after loadSession, so an unknown
// token falls back to the IP.
func clientKey(r *http.Request) string {
	if session := sessionFromContext(r.Context()); session != nil {
		return "session:" + session.ID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return clientKeyUnknown
}

// sessionID reads the session id from the cookie or an Authorization bearer.
func (s *HTTPServer) sessionID(r *http.Request) string {
	if c, err := r.Cookie(s.session.CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// loadSession resolves the session when the request carries one. Anonymous
// requests pass through; a stale or unknown session id is treated the same.
func (s *HTTPServer) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := s.sessionID(r)
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}

		session, err := s.sessions.Resolve(r.Context(), id)
		if err != nil {
			logging.FromContext(r.Context(), s.log).Debug().Err(err).Msg("session not resolved")
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), sessionCtxKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sessionFromContext(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := sessionFromContext(r.Context())
			if session == nil {
				writeError(w, http.StatusUnauthorized, "sign in required")
				return
			}
			if session.Role != role {
				writeError(w, http.StatusForbidden, "permission denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
