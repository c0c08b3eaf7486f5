package stats

import (
	"strings"

	"github.com/teranos/fuzzykea/errors"
)

// TestMethod names a per-kinase hypothesis test
type TestMethod string

const (
	Fisher TestMethod = "fisher"
	Chi2   TestMethod = "chi2"
)

// CorrectionMethod names a multiple-testing correction
type CorrectionMethod string

const (
	BenjaminiHochberg  CorrectionMethod = "fdr_bh"
	BenjaminiYekutieli CorrectionMethod = "fdr_by"
	Bonferroni         CorrectionMethod = "bonferroni"
)

// ParseTestMethod validates a test name from configuration
func ParseTestMethod(s string) (TestMethod, error) {
	switch TestMethod(strings.ToLower(strings.TrimSpace(s))) {
	case Fisher:
		return Fisher, nil
	case Chi2:
		return Chi2, nil
	}
	return "", unknown("statistical test", s, "fisher, chi2")
}

// ParseCorrectionMethod validates a correction name from configuration
func ParseCorrectionMethod(s string) (CorrectionMethod, error) {
	switch CorrectionMethod(strings.ToLower(strings.TrimSpace(s))) {
	case BenjaminiHochberg:
		return BenjaminiHochberg, nil
	case BenjaminiYekutieli:
		return BenjaminiYekutieli, nil
	case Bonferroni:
		return Bonferroni, nil
	}
	return "", unknown("correction method", s, "fdr_bh, fdr_by, bonferroni")
}

func unknown(what, value, allowed string) error {
	err := errors.Newf("unknown %s %q", what, value)
	err = errors.Mark(errors.Mark(err, errors.ErrUnknownMethod), errors.ErrInvalidConfig)
	return errors.WithHint(err, "allowed values: "+allowed)
}

// Valid reports whether m is a supported test
func (m TestMethod) Valid() bool {
	return m == Fisher || m == Chi2
}

// Valid reports whether m is a supported correction
func (m CorrectionMethod) Valid() bool {
	return m == BenjaminiHochberg || m == BenjaminiYekutieli || m == Bonferroni
}

// Validate returns ErrUnknownMethod unless m is supported as spelled
func (m TestMethod) Validate() error {
	if m.Valid() {
		return nil
	}
	return unknown("statistical test", string(m), "fisher, chi2")
}

// Validate returns ErrUnknownMethod unless m is supported as spelled
func (m CorrectionMethod) Validate() error {
	if m.Valid() {
		return nil
	}
	return unknown("correction method", string(m), "fdr_bh, fdr_by, bonferroni")
}
