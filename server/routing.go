package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/teranos/fuzzykea/logger"
)

// Handler returns the HTTP handler with every route and middleware installed
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	analyze := http.Handler(http.HandlerFunc(s.HandleAnalyze))
	if s.opts.RequestTimeout > 0 {
		analyze = http.TimeoutHandler(analyze, s.opts.RequestTimeout, `{"error":"analysis timed out"}`)
	}

	s.route(mux, "/api/analyze", analyze)
	s.route(mux, "/api/reference/reload", http.HandlerFunc(s.HandleReferenceReload))
	s.route(mux, "/api/reference", http.HandlerFunc(s.HandleReference))
	s.route(mux, "/api/example", http.HandlerFunc(s.HandleExample))
	s.route(mux, "/healthz", http.HandlerFunc(s.HandleHealth))
	mux.Handle("/metrics", s.metrics.handler())

	return s.requestIDMiddleware(mux)
}

// route registers h at pattern behind CORS and access logging
func (s *Server) route(mux *http.ServeMux, pattern string, h http.Handler) {
	mux.Handle(pattern, s.corsMiddleware(s.instrument(pattern, h)))
}

// checkOrigin validates the Origin header against configured allowed origins.
// Prefix matching allows any port.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	origins := s.origins.Load()
	if origins == nil {
		return false
	}
	for _, allowed := range *origins {
		if strings.HasPrefix(origin, allowed) {
			return true
		}
	}
	return false
}

// corsMiddleware adds CORS headers for allowed origins and answers preflight requests
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.checkOrigin(r) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestIDMiddleware assigns every request an id, echoes it in the
// response and attaches it to the request's logging context.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := logger.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusRecorder captures the status code for logging and metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rr *statusRecorder) WriteHeader(code int) {
	if rr.status == 0 {
		rr.status = code
	}
	rr.ResponseWriter.WriteHeader(code)
}

func (rr *statusRecorder) Write(b []byte) (int, error) {
	if rr.status == 0 {
		rr.status = http.StatusOK
	}
	return rr.ResponseWriter.Write(b)
}

// instrument logs each request and counts it by route and status
func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		s.metrics.requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		s.logger.With(logger.FieldsFromContext(r.Context())...).Debugw("HTTP request",
			logger.FieldMethod, r.Method,
			logger.FieldPath, r.URL.Path,
			"status", rec.status,
			logger.FieldDurationMS, time.Since(start).Milliseconds())
	})
}
