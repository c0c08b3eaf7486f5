package enrich

import (
	"strings"

	"github.com/teranos/fuzzykea/errors"
	"github.com/teranos/fuzzykea/match"
	"github.com/teranos/fuzzykea/stats"
)

// Defaults used when no configuration overrides them
const (
	DefaultTolerance        = 5
	DefaultInferredHitLimit = 7
	DefaultAminoAcids       = "STY"
)

// SupportedAminoAcids are the residues a reference dataset can be filtered to
const SupportedAminoAcids = "STYH"

// Config is the typed, validated analysis configuration.
// Build it with DefaultConfig or ParseConfig and call Validate before Run.
type Config struct {
	Tolerance  int                    `json:"tolerance"`
	Mode       match.AAMode           `json:"aa_mode"`
	Test       stats.TestMethod       `json:"test"`
	Correction stats.CorrectionMethod `json:"correction"`
	// InferredHitLimit caps imputed matches per kinase; nil is unlimited
	InferredHitLimit *int `json:"inferred_hit_limit"`
	// AminoAcids is the reference residue filter, e.g. "STY"
	AminoAcids string `json:"amino_acids"`
}

// DefaultConfig returns the standard analysis settings
func DefaultConfig() Config {
	return Config{
		Tolerance:        DefaultTolerance,
		Mode:             match.ModeExact,
		Test:             stats.Fisher,
		Correction:       stats.BenjaminiHochberg,
		InferredHitLimit: match.Limit(DefaultInferredHitLimit),
		AminoAcids:       DefaultAminoAcids,
	}
}

// RawConfig is the loosely typed form read from config files, flags and requests
type RawConfig struct {
	Tolerance        int      `json:"tolerance"`
	Mode             string   `json:"aa_mode"`
	Test             string   `json:"test"`
	Correction       string   `json:"correction"`
	InferredHitLimit *int     `json:"inferred_hit_limit"`
	AminoAcids       []string `json:"amino_acids"`
}

// ParseConfig converts raw settings into a Config, rejecting unknown enum values
func ParseConfig(raw RawConfig) (Config, error) {
	mode, err := match.ParseAAMode(raw.Mode)
	if err != nil {
		return Config{}, err
	}
	test, err := stats.ParseTestMethod(raw.Test)
	if err != nil {
		return Config{}, err
	}
	correction, err := stats.ParseCorrectionMethod(raw.Correction)
	if err != nil {
		return Config{}, err
	}
	aas, err := ParseAminoAcids(raw.AminoAcids)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Tolerance:        raw.Tolerance,
		Mode:             mode,
		Test:             test,
		Correction:       correction,
		InferredHitLimit: raw.InferredHitLimit,
		AminoAcids:       aas,
	}
	return cfg, cfg.Validate()
}

// ParseAminoAcids accepts single letters ("S", "t") or runs ("STY")
func ParseAminoAcids(values []string) (string, error) {
	var out []byte
	seen := make(map[byte]bool)
	for _, v := range values {
		for _, r := range strings.ToUpper(strings.TrimSpace(v)) {
			if r == ',' || r == ' ' {
				continue
			}
			if r > 'Z' || !strings.ContainsRune(SupportedAminoAcids, r) {
				return "", errors.WithHint(
					errors.NewInvalidConfigError("unsupported amino acid %q", r),
					"allowed values: S, T, Y, H")
			}
			if !seen[byte(r)] {
				seen[byte(r)] = true
				out = append(out, byte(r))
			}
		}
	}
	return string(out), nil
}

// Validate checks the configuration before any computation starts
func (c Config) Validate() error {
	if err := c.MatchOptions().Validate(); err != nil {
		return err
	}
	if err := c.Test.Validate(); err != nil {
		return err
	}
	if err := c.Correction.Validate(); err != nil {
		return err
	}
	if len(c.AminoAcids) == 0 {
		return errors.WithHint(
			errors.NewInvalidConfigError("no amino acids selected"),
			"select at least one of S, T, Y, H")
	}
	for _, aa := range c.AminoAcids {
		if !strings.ContainsRune(SupportedAminoAcids, aa) {
			return errors.NewInvalidConfigError("unsupported amino acid %q", aa)
		}
	}
	return nil
}

// MatchOptions projects the matcher settings
func (c Config) MatchOptions() match.Options {
	return match.Options{
		Tolerance:        c.Tolerance,
		Mode:             c.Mode,
		InferredHitLimit: c.InferredHitLimit,
	}
}

// AminoAcidList returns the selected amino acids as one-letter strings
func (c Config) AminoAcidList() []string {
	out := make([]string, 0, len(c.AminoAcids))
	for _, aa := range c.AminoAcids {
		out = append(out, string(aa))
	}
	return out
}
