package stats

import (
	"math"
	"sort"

	"github.com/teranos/fuzzykea/errors"
)

// Correct adjusts pvalues for multiple testing. The slice is one analysis
// pass; results line up with the input order.
//
// BH and BY follow the step-up procedure: p*m/rank, cumulative minimum from
// the largest p downward, capped at 1. BY additionally multiplies by the
// harmonic sum of 1..m. Bonferroni is min(p*m, 1).
func Correct(pvalues []float64, method CorrectionMethod) ([]float64, error) {
	for _, p := range pvalues {
		if err := CheckPValue(p); err != nil {
			return nil, errors.Wrap(err, "cannot correct")
		}
	}

	m := len(pvalues)
	adjusted := make([]float64, m)
	if m == 0 {
		return adjusted, nil
	}

	order := ascending(pvalues)

	switch method {
	case Bonferroni:
		for i, p := range pvalues {
			adjusted[i] = math.Min(p*float64(m), 1)
		}

	case BenjaminiHochberg, BenjaminiYekutieli:
		factor := 1.0
		if method == BenjaminiYekutieli {
			factor = harmonic(m)
		}
		running := math.Inf(1)
		for rank := m; rank >= 1; rank-- {
			idx := order[rank-1]
			raw := pvalues[idx] * (float64(m) / float64(rank)) * factor
			running = math.Min(running, raw)
			adjusted[idx] = math.Min(running, 1)
		}

	default:
		return nil, unknown("correction method", string(method), "fdr_bh, fdr_by, bonferroni")
	}

	if err := CheckMonotonic(pvalues, adjusted); err != nil {
		return nil, errors.Wrapf(err, "%s correction", method)
	}
	return adjusted, nil
}

// CheckMonotonic verifies that adjusted values, ordered by ascending raw
// p-value, never decrease and stay within [0,1].
func CheckMonotonic(raw, adjusted []float64) error {
	if len(raw) != len(adjusted) {
		return errors.Newf("length mismatch: %d raw, %d adjusted", len(raw), len(adjusted))
	}
	prev := math.Inf(-1)
	for _, idx := range ascending(raw) {
		q := adjusted[idx]
		if err := CheckPValue(q); err != nil {
			return err
		}
		if q < prev {
			return errors.Wrapf(errors.ErrNotMonotonic, "adjusted %v follows %v at raw p=%v", q, prev, raw[idx])
		}
		prev = q
	}
	return nil
}

// ascending returns indices of values in ascending order, stable on ties
func ascending(values []float64) []int {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })
	return order
}

func harmonic(m int) float64 {
	var sum float64
	for i := 1; i <= m; i++ {
		sum += 1 / float64(i)
	}
	return sum
}
