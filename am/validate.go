package am

import (
	"strings"

	"github.com/teranos/fuzzykea/enrich"
	"github.com/teranos/fuzzykea/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if _, err := c.Analysis.Engine(); err != nil {
		return errors.Wrap(err, "analysis")
	}

	switch c.Reference.Source {
	case "", ReferenceSourceFile, ReferenceSourceSQLite:
	default:
		return errors.WithHint(
			errors.NewInvalidConfigError("reference.source must be %q or %q, got %q",
				ReferenceSourceFile, ReferenceSourceSQLite, c.Reference.Source),
			"use sqlite after importing with 'fuzzykea ix psp'")
	}
	if c.Reference.Source == ReferenceSourceFile && strings.TrimSpace(c.Reference.Path) == "" {
		return errors.NewInvalidConfigError("reference.path cannot be empty when reference.source is %q", ReferenceSourceFile)
	}

	if c.Pathways.Enabled && strings.TrimSpace(c.Pathways.Path) == "" {
		return errors.NewInvalidConfigError("pathways.path cannot be empty when pathways are enabled")
	}

	// Server port: 0 is invalid (omit for default), negative is invalid
	if c.Server.Port != nil && *c.Server.Port == 0 {
		return errors.NewInvalidConfigError("server.port cannot be 0 (omit for default port %d)", DefaultServerPort)
	}
	if c.Server.Port != nil && (*c.Server.Port < 0 || *c.Server.Port > 65535) {
		return errors.NewInvalidConfigError("server.port must be in 1..65535, got %d", *c.Server.Port)
	}
	if c.Server.RequestTimeoutSeconds < 0 {
		return errors.NewInvalidConfigError("server.request_timeout_seconds must be >= 0, got %d", c.Server.RequestTimeoutSeconds)
	}

	// Rate limit: 0 = unlimited, negative = invalid
	if c.Server.RateLimitPerSecond < 0 {
		return errors.NewInvalidConfigError("server.rate_limit_per_second must be >= 0, got %f", c.Server.RateLimitPerSecond)
	}
	if c.Server.RateLimitPerSecond > 0 && c.Server.RateLimitBurst <= 0 {
		return errors.NewInvalidConfigError("server.rate_limit_burst must be > 0 when rate limiting, got %d", c.Server.RateLimitBurst)
	}
	if c.Server.MaxInputBytes < 0 {
		return errors.NewInvalidConfigError("server.max_input_bytes must be >= 0, got %d", c.Server.MaxInputBytes)
	}

	return nil
}

// Raw returns the analysis settings in the loosely typed form the engine parses
func (a AnalysisConfig) Raw() enrich.RawConfig {
	raw := enrich.RawConfig{
		Tolerance:  a.Tolerance,
		Mode:       a.AAMode,
		Test:       a.Test,
		Correction: a.Correction,
		AminoAcids: a.AminoAcids,
	}
	if !a.UnlimitedInferredHits {
		limit := a.InferredHitLimit
		raw.InferredHitLimit = &limit
	}
	return raw
}

// Engine parses and validates the analysis section into an engine configuration
func (a AnalysisConfig) Engine() (enrich.Config, error) {
	return enrich.ParseConfig(a.Raw())
}

// AnalysisOverrides replaces individual analysis settings for one run.
// Nil fields keep the configured value.
type AnalysisOverrides struct {
	Tolerance             *int     `json:"tolerance,omitempty"`
	AAMode                *string  `json:"aa_mode,omitempty"`
	Test                  *string  `json:"test,omitempty"`
	Correction            *string  `json:"correction,omitempty"`
	InferredHitLimit      *int     `json:"inferred_hit_limit,omitempty"`
	UnlimitedInferredHits *bool    `json:"unlimited_inferred_hits,omitempty"`
	AminoAcids            []string `json:"amino_acids,omitempty"`
}

// With returns a copy of a with the non-nil overrides applied
func (a AnalysisConfig) With(o AnalysisOverrides) AnalysisConfig {
	if o.Tolerance != nil {
		a.Tolerance = *o.Tolerance
	}
	if o.AAMode != nil {
		a.AAMode = *o.AAMode
	}
	if o.Test != nil {
		a.Test = *o.Test
	}
	if o.Correction != nil {
		a.Correction = *o.Correction
	}
	if o.InferredHitLimit != nil {
		a.InferredHitLimit = *o.InferredHitLimit
		a.UnlimitedInferredHits = false
	}
	if o.UnlimitedInferredHits != nil {
		a.UnlimitedInferredHits = *o.UnlimitedInferredHits
	}
	if o.AminoAcids != nil {
		a.AminoAcids = append([]string(nil), o.AminoAcids...)
	}
	return a
}
