// Package contingency derives per-kinase 2x2 tables from sample and
// background units.
//
// A unit is one countable thing labelled with the kinase it belongs to: a
// match record at site level, a kinase-substrate pair at substrate level.
// For kinase k:
//
//	x = sample units for k        n = background units for k
//	N = all sample units          M = all background units
//
//	[[x,     n-x      ],
//	 [N-x,   M-N-n+x  ]]
package contingency

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/teranos/fuzzykea/logger"
	"github.com/teranos/fuzzykea/reference"
)

// Mode controls how x > n is handled
type Mode int

const (
	// Strict builds the table from raw counts
	Strict Mode = iota
	// Limit clamps x to n. Used at site level where several input residues
	// can land on the same reference residue under tolerance.
	Limit
)

// Diagnostic kinds
const (
	KindClamped      = "clamped"
	KindInvalidTable = "invalid_table"
)

// Diagnostic records a kinase-level adjustment the caller should surface
type Diagnostic struct {
	Kinase  reference.KinaseKey `json:"kinase"`
	Kind    string              `json:"kind"`
	Message string              `json:"message"`
}

// Table is a 2x2 contingency table
type Table [2][2]int

// Valid reports whether every cell is non-negative
func (t Table) Valid() bool {
	for _, row := range t {
		for _, cell := range row {
			if cell < 0 {
				return false
			}
		}
	}
	return true
}

// Counts are the per-kinase inputs to a table
type Counts struct {
	Kinase          reference.KinaseKey `json:"kinase"`
	Observed        int                 `json:"observed"`
	Annotated       int                 `json:"annotated"`
	SampleTotal     int                 `json:"sample_total"`
	BackgroundTotal int                 `json:"background_total"`
	Clamped         bool                `json:"clamped,omitempty"`
}

// Table lays the counts out as [[x, n-x], [N-x, M-N-n+x]]
func (c Counts) Table() Table {
	x, n, N, M := c.Observed, c.Annotated, c.SampleTotal, c.BackgroundTotal
	return Table{
		{x, n - x},
		{N - x, M - N - n + x},
	}
}

// Build counts units per kinase and returns one Counts per kinase present in
// the sample, ordered by kinase key. Kinases with no sample units are not
// tested and do not appear.
func Build(sample, background []reference.KinaseKey, mode Mode, log *zap.SugaredLogger) ([]Counts, []Diagnostic) {
	if log == nil {
		log = logger.ComponentLogger("contingency")
	}

	observed := tally(sample)
	annotated := tally(background)

	keys := make([]reference.KinaseKey, 0, len(observed))
	for k := range observed {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	var (
		out   = make([]Counts, 0, len(keys))
		diags []Diagnostic
	)
	for _, k := range keys {
		c := Counts{
			Kinase:          k,
			Observed:        observed[k],
			Annotated:       annotated[k],
			SampleTotal:     len(sample),
			BackgroundTotal: len(background),
		}

		if mode == Limit && c.Observed > c.Annotated {
			d := Diagnostic{
				Kinase:  k,
				Kind:    KindClamped,
				Message: fmt.Sprintf("observed %d exceeds annotated %d; clamped to %d", c.Observed, c.Annotated, c.Annotated),
			}
			log.Warnw("Clamped observed count",
				logger.FieldKinase, k.Name,
				logger.FieldKinaseAcc, k.Accession,
				"observed", c.Observed,
				"annotated", c.Annotated)
			diags = append(diags, d)
			c.Observed = c.Annotated
			c.Clamped = true
		}

		if !c.Table().Valid() {
			log.Warnw("Invalid contingency table, using neutral p-value",
				logger.FieldKinase, k.Name,
				logger.FieldKinaseAcc, k.Accession,
				"table", c.Table())
			diags = append(diags, Diagnostic{
				Kinase:  k,
				Kind:    KindInvalidTable,
				Message: fmt.Sprintf("negative cell in %v; p-value set to 1", c.Table()),
			})
		}

		out = append(out, c)
	}

	return out, diags
}

func tally(units []reference.KinaseKey) map[reference.KinaseKey]int {
	counts := make(map[reference.KinaseKey]int)
	for _, k := range units {
		counts[k]++
	}
	return counts
}
