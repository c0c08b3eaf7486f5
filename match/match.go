// Package match joins input sites to reference annotations within a
// positional tolerance.
//
// Each input site maps to at most one reference edge: the closest compatible
// one. Ties on distance are broken by kinase name, kinase accession,
// reference position and reference amino acid, in that order, so the result
// never depends on dataset row order. After the 1:1 pass, imputed matches
// (distance > 0) are capped per kinase.
package match

import (
	"sort"

	"go.uber.org/zap"

	"github.com/teranos/fuzzykea/errors"
	"github.com/teranos/fuzzykea/logger"
	"github.com/teranos/fuzzykea/reference"
	"github.com/teranos/fuzzykea/site"
)

// Record is a surviving input site -> reference edge pairing
type Record struct {
	Accession        string       `json:"accession"`
	Gene             string       `json:"gene"`
	InputResidue     site.Residue `json:"input_residue"`
	ReferenceResidue site.Residue `json:"reference_residue"`
	Kinase           string       `json:"kinase"`
	KinaseAccession  string       `json:"kinase_accession"`
	Imputed          bool         `json:"imputed"`
	Distance         int          `json:"distance"`
}

// KinaseKey returns the kinase identity of the match
func (r Record) KinaseKey() reference.KinaseKey {
	return reference.KinaseKey{Name: r.Kinase, Accession: r.KinaseAccession}
}

// Options configures a Match call
type Options struct {
	Tolerance int
	Mode      AAMode
	// InferredHitLimit caps imputed matches per kinase; nil means unlimited
	InferredHitLimit *int
	Logger           *zap.SugaredLogger
}

// Limit returns a pointer suitable for Options.InferredHitLimit
func Limit(n int) *int {
	return &n
}

// Validate rejects options Match cannot honour
func (o Options) Validate() error {
	if o.Tolerance < 0 {
		return errors.NewInvalidConfigError("tolerance must be >= 0, got %d", o.Tolerance)
	}
	if !o.Mode.Valid() {
		err := errors.NewInvalidConfigError("unknown amino-acid mode %q", o.Mode)
		return errors.WithHint(err, "allowed values: exact, st-similar, ignore")
	}
	if o.InferredHitLimit != nil && *o.InferredHitLimit < 0 {
		return errors.NewInvalidConfigError("inferred hit limit must be >= 0, got %d", *o.InferredHitLimit)
	}
	return nil
}

type siteKey struct {
	accession string
	residue   site.Residue
}

// Match pairs samples with reference edges sharing their accession.
// An empty result is not an error.
func Match(samples []site.Record, ds *reference.Dataset, opts Options) []Record {
	log := opts.Logger
	if log == nil {
		log = logger.ComponentLogger("match")
	}

	best := make(map[siteKey]Record)
	candidates := 0

	for _, s := range samples {
		key := siteKey{accession: s.Accession, residue: s.Residue}
		for _, e := range ds.ByAccession(s.Accession) {
			if !opts.Mode.Compatible(s.Residue.AminoAcid, e.Residue.AminoAcid) {
				continue
			}
			dist := abs(s.Residue.Position - e.Residue.Position)
			if dist > opts.Tolerance {
				continue
			}
			candidates++

			cand := Record{
				Accession:        s.Accession,
				Gene:             gene(s, e),
				InputResidue:     s.Residue,
				ReferenceResidue: e.Residue,
				Kinase:           e.Kinase,
				KinaseAccession:  e.KinaseAccession,
				Imputed:          dist > 0,
				Distance:         dist,
			}
			if cur, ok := best[key]; !ok || closer(cand, cur) {
				best[key] = cand
			}
		}
	}

	matched := make([]Record, 0, len(best))
	for _, r := range best {
		matched = append(matched, r)
	}

	out := capImputed(matched, opts.InferredHitLimit, log)
	sortRecords(out)

	log.Debugw("Matched input sites",
		logger.FieldTolerance, opts.Tolerance,
		logger.FieldMode, string(opts.Mode),
		"candidates", candidates,
		logger.FieldMatches, len(out))

	return out
}

// closer is the 1:1 tie-break comparator
func closer(a, b Record) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	if a.Kinase != b.Kinase {
		return a.Kinase < b.Kinase
	}
	if a.KinaseAccession != b.KinaseAccession {
		return a.KinaseAccession < b.KinaseAccession
	}
	return a.ReferenceResidue.Less(b.ReferenceResidue)
}

// capImputed keeps every exact match and at most limit imputed matches per kinase,
// preferring the smallest distances.
func capImputed(records []Record, limit *int, log *zap.SugaredLogger) []Record {
	if limit == nil {
		return records
	}

	byKinase := make(map[reference.KinaseKey][]Record)
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if !r.Imputed {
			out = append(out, r)
			continue
		}
		k := r.KinaseKey()
		byKinase[k] = append(byKinase[k], r)
	}

	for k, imputed := range byKinase {
		sort.Slice(imputed, func(i, j int) bool {
			a, b := imputed[i], imputed[j]
			if a.Distance != b.Distance {
				return a.Distance < b.Distance
			}
			if a.Accession != b.Accession {
				return a.Accession < b.Accession
			}
			return a.InputResidue.Less(b.InputResidue)
		})

		keep := imputed
		if len(imputed) > *limit {
			keep = imputed[:*limit]
			log.Debugw("Capped imputed matches",
				logger.FieldKinase, k.Name,
				logger.FieldKinaseAcc, k.Accession,
				logger.FieldCount, len(keep),
				logger.FieldDropped, len(imputed)-len(keep))
		}
		out = append(out, keep...)
	}
	return out
}

func sortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Kinase != b.Kinase {
			return a.Kinase < b.Kinase
		}
		if a.KinaseAccession != b.KinaseAccession {
			return a.KinaseAccession < b.KinaseAccession
		}
		if a.Accession != b.Accession {
			return a.Accession < b.Accession
		}
		return a.InputResidue.Less(b.InputResidue)
	})
}

// gene prefers the curated substrate gene over the user's label
func gene(s site.Record, e reference.Edge) string {
	if e.SubstrateGene != "" {
		return e.SubstrateGene
	}
	return s.Gene
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
