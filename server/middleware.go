package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vincentlearning/token-gateway/internal/resterrors"
)

// ChainMiddleware wraps a handler with middleware, applied in reverse
// order so the first listed middleware runs outermost.
func ChainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}

// secret form fields and headers never appear in the access log.
var (
	redactedFormFields = map[string]bool{"password": true, "refresh_token": true}
	redactedHeaders    = map[string]bool{"Authorization": true, "Cookie": true}
)

// requestSnapshot is the immutable view of a request handed to the
// access log: method, URI, headers and form with secrets redacted. The
// live request object is never logged.
type requestSnapshot struct {
	ID      string
	Method  string
	URI     string
	Headers map[string]string
	Form    map[string]string
}

func snapshotRequest(r *http.Request) requestSnapshot {
	snapshot := requestSnapshot{
		ID:      uuid.New().String(),
		Method:  r.Method,
		URI:     r.URL.RequestURI(),
		Headers: make(map[string]string, len(r.Header)),
		Form:    make(map[string]string, len(r.PostForm)),
	}
	for name := range r.Header {
		if redactedHeaders[name] {
			snapshot.Headers[name] = "[REDACTED]"
			continue
		}
		snapshot.Headers[name] = strings.Join(r.Header.Values(name), ", ")
	}
	for field := range r.PostForm {
		if redactedFormFields[field] {
			snapshot.Form[field] = "[REDACTED]"
			continue
		}
		snapshot.Form[field] = r.PostForm.Get(field)
	}
	return snapshot
}

// statusRecorder captures the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// AccessLogMiddleware logs one line per request from a redacted
// snapshot taken before the handler runs.
func (s *Server) AccessLogMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		snapshot := snapshotRequest(r)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(recorder, r)

		log.Info().
			Str("request_id", snapshot.ID).
			Str("method", snapshot.Method).
			Str("uri", snapshot.URI).
			Int("status", recorder.status).
			Interface("form", snapshot.Form).
			Msg("api access")
	}
}

// RecoverMiddleware converts a panicking handler into the internal
// error envelope. The panic detail is logged, never returned.
func (s *Server) RecoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				log.Error().Interface("panic", recovered).Str("uri", r.URL.RequestURI()).Msg("handler panicked")
				writeRestError(w, resterrors.Internal())
			}
		}()
		next(w, r)
	}
}
