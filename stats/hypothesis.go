// Package stats holds the per-kinase significance tests and the
// multiple-testing corrections applied across one analysis pass.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/teranos/fuzzykea/contingency"
	"github.com/teranos/fuzzykea/errors"
)

// Test returns the p-value of table under method.
// Out-of-range results are returned as ErrPValueOutOfRange, never clamped.
func Test(table contingency.Table, method TestMethod) (float64, error) {
	if !table.Valid() {
		return 0, errors.Newf("cannot test table with negative cells: %v", table)
	}

	var p float64
	switch method {
	case Fisher:
		p = FisherGreater(table)
	case Chi2:
		p = ChiSquare(table)
	default:
		return 0, unknown("statistical test", string(method), "fisher, chi2")
	}

	if err := CheckPValue(p); err != nil {
		return 0, errors.Wrapf(err, "%s test on %v", method, table)
	}
	return p, nil
}

// CheckPValue returns ErrPValueOutOfRange unless p is a number in [0,1]
func CheckPValue(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return errors.Wrapf(errors.ErrPValueOutOfRange, "p=%v", p)
	}
	return nil
}

// FisherGreater is the one-sided Fisher exact test for over-representation
// of the top-left cell: P(X >= a) under the hypergeometric null with the
// table margins fixed.
func FisherGreater(t contingency.Table) float64 {
	a := t[0][0]
	row := t[0][0] + t[0][1]
	col := t[0][0] + t[1][0]
	total := row + t[1][0] + t[1][1]

	lo := max(0, row+col-total)
	hi := min(row, col)
	if a <= lo {
		return 1
	}

	// Summing every pmf term and dividing keeps the result within [0,1]
	// even when the log-space terms carry rounding error.
	logs := make([]float64, 0, hi-lo+1)
	peak := math.Inf(-1)
	for k := lo; k <= hi; k++ {
		l := logChoose(col, k) + logChoose(total-col, row-k)
		logs = append(logs, l)
		peak = math.Max(peak, l)
	}

	var tail, all float64
	for i, l := range logs {
		w := math.Exp(l - peak)
		all += w
		if lo+i >= a {
			tail += w
		}
	}
	return tail / all
}

// ChiSquare is Pearson's chi-square test of independence on a 2x2 table
// with Yates' continuity correction. A zero expected frequency gives 1.
func ChiSquare(t contingency.Table) float64 {
	rows := [2]float64{float64(t[0][0] + t[0][1]), float64(t[1][0] + t[1][1])}
	cols := [2]float64{float64(t[0][0] + t[1][0]), float64(t[0][1] + t[1][1])}
	total := rows[0] + rows[1]
	if total == 0 {
		return 1
	}

	var stat float64
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			expected := rows[i] * cols[j] / total
			if expected == 0 {
				return 1
			}
			observed := float64(t[i][j])
			diff := expected - observed
			observed += math.Copysign(math.Min(0.5, math.Abs(diff)), diff)
			stat += (observed - expected) * (observed - expected) / expected
		}
	}

	return distuv.ChiSquared{K: 1}.Survival(stat)
}

func logChoose(n, k int) float64 {
	a, _ := math.Lgamma(float64(n + 1))
	b, _ := math.Lgamma(float64(k + 1))
	c, _ := math.Lgamma(float64(n - k + 1))
	return a - b - c
}
