package server

import (
	"net/http"
	"time"

	"github.com/teranos/fuzzykea/enrich"
	"github.com/teranos/fuzzykea/logger"
	"github.com/teranos/fuzzykea/site"
	"github.com/teranos/fuzzykea/version"
)

// HandleAnalyze runs one enrichment over the submitted text.
// POST /api/analyze
func (s *Server) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if s.limiter != nil && !s.limiter.Allow() {
		s.metrics.rateLimited.Inc()
		w.Header().Set("Retry-After", "1")
		writeError(w, r, http.StatusTooManyRequests, "too many analysis requests")
		return
	}
	if s.opts.MaxInputBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxInputBytes)
	}

	var req AnalyzeRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}

	ds, idx := s.served()
	if ds == nil {
		writeWrappedError(w, r, s.logger, ErrReferenceUnavailable, "analysis unavailable")
		return
	}

	cfg, err := s.analysis.Load().With(req.Config).Engine()
	if err != nil {
		writeWrappedError(w, r, s.logger, err, "invalid analysis config")
		return
	}

	start := time.Now()
	out, err := enrich.Run(r.Context(), req.Text, ds, cfg)
	s.metrics.observeRun(out, err, time.Since(start))
	if err != nil {
		writeWrappedError(w, r, s.logger.With(logger.FieldsFromContext(r.Context())...), err, "analysis failed")
		return
	}

	resp := AnalyzeResponse{
		RequestID: logger.RequestIDFromContext(r.Context()),
		Outcome:   out,
	}
	if req.Pathways && idx != nil {
		resp.Pathways = &PathwayCounts{
			Kinase: idx.Count(out.KinaseAccessions()),
			Input:  idx.Count(site.Accessions(site.Parse(req.Text).Records)),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleReference describes the datasets being served.
// GET /api/reference
func (s *Server) HandleReference(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	s.writeReference(w, r)
}

// HandleReferenceReload reloads reference data from the configured source.
// POST /api/reference/reload
func (s *Server) HandleReferenceReload(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if err := s.Reload(r.Context()); err != nil {
		writeWrappedError(w, r, s.logger, err, "reload failed")
		return
	}
	s.writeReference(w, r)
}

func (s *Server) writeReference(w http.ResponseWriter, r *http.Request) {
	ds, idx := s.served()
	if ds == nil {
		writeWrappedError(w, r, s.logger, ErrReferenceUnavailable, "no reference")
		return
	}
	writeJSON(w, http.StatusOK, ReferenceResponse{
		Reference: ds.Summary(),
		Pathways:  idx.Len(),
		Reloads:   s.reloads.Load(),
	})
}

// HandleExample returns sample input for the analyze form.
// GET /api/example
func (s *Server) HandleExample(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": site.ExampleInput})
}

// HandleHealth reports 200 once a reference is loaded and the server is running
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	state := s.getState()
	ds := s.Dataset()
	info := version.Get()

	resp := HealthResponse{
		Status:    "ok",
		State:     stateString(state),
		Version:   info.Version,
		Commit:    info.CommitHash,
		Reference: ds.Len(),
	}
	status := http.StatusOK
	if state != ServerStateRunning || ds == nil {
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
