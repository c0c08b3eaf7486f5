// Package server exposes the enrichment engine over a small JSON HTTP API.
//
// The reference dataset and pathway index are held together behind one
// atomic pointer. Requests read whichever pair is current when they start;
// only Reload replaces it.
package server

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/fuzzykea/am"
	"github.com/teranos/fuzzykea/errors"
	"github.com/teranos/fuzzykea/logger"
	"github.com/teranos/fuzzykea/pathway"
	"github.com/teranos/fuzzykea/reference"
)

// Loader supplies the datasets the server analyses against
type Loader interface {
	LoadReference(ctx context.Context) (*reference.Dataset, error)
	// LoadPathways returns nil when pathways are disabled
	LoadPathways(ctx context.Context) (*pathway.Index, error)
}

// Options are the transport settings fixed at startup
type Options struct {
	Addr           string
	RequestTimeout time.Duration
	// MaxInputBytes limits analyze request bodies; 0 is unlimited
	MaxInputBytes int64
	// RateLimit is analyze requests per second; 0 disables limiting
	RateLimit float64
	RateBurst int
}

// OptionsFromConfig reads the server section
func OptionsFromConfig(cfg *am.Config) Options {
	return Options{
		Addr:           cfg.ServerAddr(),
		RequestTimeout: time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second,
		MaxInputBytes:  cfg.Server.MaxInputBytes,
		RateLimit:      cfg.Server.RateLimitPerSecond,
		RateBurst:      cfg.Server.RateLimitBurst,
	}
}

// snapshot pairs a dataset with the pathway index loaded alongside it.
// idx may be nil when pathways are disabled.
type snapshot struct {
	ds  *reference.Dataset
	idx *pathway.Index
}

// Server serves enrichment requests
type Server struct {
	opts    Options
	loader  Loader
	logger  *zap.SugaredLogger
	metrics *metrics
	limiter *rate.Limiter

	current  atomic.Pointer[snapshot]
	analysis atomic.Pointer[am.AnalysisConfig]
	origins  atomic.Pointer[[]string]

	reloadMu sync.Mutex
	reloads  atomic.Int64
	state    atomic.Int32

	httpServer    *http.Server
	configWatcher *am.ConfigWatcher
}

// New creates a server with cfg's analysis defaults. The reference is not
// loaded until Reload is called.
func New(cfg *am.Config, opts Options, loader Loader, log *zap.SugaredLogger) (*Server, error) {
	if loader == nil {
		return nil, errors.New("server requires a reference loader")
	}
	if log == nil {
		log = logger.ComponentLogger("server")
	}

	s := &Server{
		opts:    opts,
		loader:  loader,
		logger:  log,
		metrics: newMetrics(),
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	if err := s.ApplyConfig(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// ApplyConfig swaps in the analysis defaults and allowed origins of cfg.
// An invalid analysis section leaves the current settings untouched.
func (s *Server) ApplyConfig(cfg *am.Config) error {
	if _, err := cfg.Analysis.Engine(); err != nil {
		return errors.Wrap(err, "analysis defaults rejected")
	}
	analysis := cfg.Analysis
	origins := cfg.GetServerAllowedOrigins()
	s.analysis.Store(&analysis)
	s.origins.Store(&origins)

	s.logger.Infow("Applied analysis defaults",
		logger.FieldTolerance, analysis.Tolerance,
		logger.FieldMode, analysis.AAMode,
		logger.FieldTest, analysis.Test,
		logger.FieldCorrection, analysis.Correction)
	return nil
}

// Reload loads fresh reference and pathway data and swaps them in together.
// On failure the datasets being served stay in place.
func (s *Server) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	start := time.Now()
	ds, err := s.loader.LoadReference(ctx)
	if err != nil {
		s.metrics.reloads.WithLabelValues("error").Inc()
		return errors.Wrap(err, "reload reference")
	}
	idx, err := s.loader.LoadPathways(ctx)
	if err != nil {
		s.metrics.reloads.WithLabelValues("error").Inc()
		return errors.Wrap(err, "reload pathways")
	}

	s.current.Store(&snapshot{ds: ds, idx: idx})
	s.reloads.Add(1)
	s.metrics.reloads.WithLabelValues("ok").Inc()
	s.metrics.referenceEdges.Set(float64(ds.Len()))
	if s.getState() == ServerStateStarting {
		s.setState(ServerStateRunning)
	}

	s.logger.Infow("Reference loaded",
		logger.FieldSource, ds.Source(),
		logger.FieldCount, ds.Len(),
		"pathway_rows", idx.Len(),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return nil
}

// Dataset returns the dataset currently served, or nil before the first load
func (s *Server) Dataset() *reference.Dataset {
	ds, _ := s.served()
	return ds
}

// served returns the current dataset and pathway index as one pair
func (s *Server) served() (*reference.Dataset, *pathway.Index) {
	snap := s.current.Load()
	if snap == nil {
		return nil, nil
	}
	return snap.ds, snap.idx
}
