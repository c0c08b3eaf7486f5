// Package enrich runs the kinase-substrate enrichment pipeline: parse the
// input sites, match them against the reference dataset, then test every
// kinase at site level and at substrate level.
//
// Run is a pure function of its arguments. The dataset is only read, and all
// intermediate state belongs to the call, so concurrent runs are safe.
package enrich

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/fuzzykea/contingency"
	"github.com/teranos/fuzzykea/errors"
	"github.com/teranos/fuzzykea/logger"
	"github.com/teranos/fuzzykea/match"
	"github.com/teranos/fuzzykea/reference"
	"github.com/teranos/fuzzykea/site"
	"github.com/teranos/fuzzykea/stats"
)

// Run analyses text against ds. Configuration errors are returned before
// any work starts; computation defects (out-of-range or non-monotonic
// p-values) abort the run. "Nothing to report" is an Outcome with
// StatusEmpty, not an error.
func Run(ctx context.Context, text string, ds *reference.Dataset, cfg Config) (*Outcome, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := logger.LoggerFromContext(logger.WithRunID(ctx, runID)).Named("enrich")
	start := time.Now()

	out := &Outcome{
		RunID:            runID,
		Status:           StatusOK,
		Config:           cfg,
		SiteResults:      []Result{},
		SubstrateResults: []Result{},
		SiteHits:         []match.Record{},
		SubstrateHits:    []SubstrateHit{},
		Diagnostics:      []Diagnostic{},
	}

	filtered := ds.FilterAminoAcids([]byte(cfg.AminoAcids))
	out.ReferenceEdges = filtered.Len()
	if filtered.Len() == 0 {
		return empty(out, EmptyReference, log), nil
	}

	parsed := site.Parse(text)
	out.Parse = ParseReport{
		Records:    len(parsed.Records),
		Accessions: len(site.Accessions(parsed.Records)),
		Dropped:    parsed.Dropped,
	}
	if out.Parse.Dropped == nil {
		out.Parse.Dropped = []site.Rejected{}
	}
	if len(parsed.Dropped) > 0 {
		log.Infow("Dropped malformed input",
			logger.FieldDropped, len(parsed.Dropped),
			logger.FieldCount, len(parsed.Records))
	}
	if parsed.Empty() {
		return empty(out, EmptyInput, log), nil
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "analysis cancelled")
	}

	// Site level
	opts := cfg.MatchOptions()
	opts.Logger = log
	hits := match.Match(parsed.Records, filtered, opts)
	siteResults, siteDiags, err := siteLevel(hits, filtered, cfg, log)
	if err != nil {
		return nil, errors.Wrap(err, "site-level analysis failed")
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "analysis cancelled")
	}

	// Substrate level
	subResults, subHits, subDiags, err := substrateLevel(parsed.Records, filtered, cfg, log)
	if err != nil {
		return nil, errors.Wrap(err, "substrate-level analysis failed")
	}

	out.SiteHits = hits
	out.SiteResults = siteResults
	out.SubstrateResults = subResults
	out.SubstrateHits = subHits
	out.Diagnostics = append(out.Diagnostics, siteDiags...)
	out.Diagnostics = append(out.Diagnostics, subDiags...)

	if len(siteResults) == 0 && len(subResults) == 0 {
		return empty(out, NoMatches, log), nil
	}

	log.Infow("Analysis complete",
		logger.FieldMatches, len(hits),
		logger.FieldKinases, len(siteResults),
		"substrate_kinases", len(subResults),
		logger.FieldDurationMS, time.Since(start).Milliseconds())

	return out, nil
}

func empty(out *Outcome, reason EmptyReason, log *zap.SugaredLogger) *Outcome {
	out.Status = StatusEmpty
	out.EmptyReason = reason
	log.Infow("Analysis produced no results", logger.FieldReason, string(reason))
	return out
}

// siteLevel counts one unit per match record against one unit per reference edge
func siteLevel(hits []match.Record, ds *reference.Dataset, cfg Config, log *zap.SugaredLogger) ([]Result, []Diagnostic, error) {
	sample := make([]reference.KinaseKey, len(hits))
	for i, h := range hits {
		sample[i] = h.KinaseKey()
	}
	background := make([]reference.KinaseKey, ds.Len())
	for i, e := range ds.Edges() {
		background[i] = e.KinaseKey()
	}

	counts, diags := contingency.Build(sample, background, contingency.Limit, log.With(logger.FieldLevel, LevelSite))
	results, err := score(counts, cfg)
	return results, tag(LevelSite, diags), err
}

type pairKey struct {
	kinase    reference.KinaseKey
	accession string
}

// substrateLevel ignores residues: the background is the set of distinct
// kinase-substrate pairs and the sample is the subset whose substrate
// appears in the input.
func substrateLevel(records []site.Record, ds *reference.Dataset, cfg Config, log *zap.SugaredLogger) ([]Result, []SubstrateHit, []Diagnostic, error) {
	inputResidues := make(map[string][]site.Residue)
	inputGenes := make(map[string]string)
	for _, r := range records {
		inputResidues[r.Accession] = append(inputResidues[r.Accession], r.Residue)
		if _, ok := inputGenes[r.Accession]; !ok {
			inputGenes[r.Accession] = r.Gene
		}
	}

	pairs := make(map[pairKey]string)
	var order []pairKey
	for _, e := range ds.Edges() {
		k := pairKey{kinase: e.KinaseKey(), accession: e.SubstrateAccession}
		if _, ok := pairs[k]; ok {
			continue
		}
		pairs[k] = e.SubstrateGene
		order = append(order, k)
	}

	background := make([]reference.KinaseKey, 0, len(order))
	var sample []reference.KinaseKey
	var hits []SubstrateHit
	for _, k := range order {
		background = append(background, k.kinase)
		residues, ok := inputResidues[k.accession]
		if !ok {
			continue
		}
		sample = append(sample, k.kinase)

		gene := pairs[k]
		if gene == "" {
			gene = inputGenes[k.accession]
		}
		sorted := append([]site.Residue(nil), residues...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })
		hits = append(hits, SubstrateHit{
			Kinase:          k.kinase.Name,
			KinaseAccession: k.kinase.Accession,
			Accession:       k.accession,
			Gene:            gene,
			Residues:        sorted,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.Kinase != b.Kinase {
			return a.Kinase < b.Kinase
		}
		if a.KinaseAccession != b.KinaseAccession {
			return a.KinaseAccession < b.KinaseAccession
		}
		return a.Accession < b.Accession
	})
	if hits == nil {
		hits = []SubstrateHit{}
	}

	counts, diags := contingency.Build(sample, background, contingency.Strict, log.With(logger.FieldLevel, LevelSubstrate))
	results, err := score(counts, cfg)
	return results, hits, tag(LevelSubstrate, diags), err
}

// score tests every kinase and corrects across all of them at once
func score(counts []contingency.Counts, cfg Config) ([]Result, error) {
	results := make([]Result, len(counts))
	pvalues := make([]float64, len(counts))

	for i, c := range counts {
		r := Result{
			Kinase:          c.Kinase.Name,
			KinaseAccession: c.Kinase.Accession,
			Found:           c.Observed,
			SubstrateCount:  c.Annotated,
		}

		table := c.Table()
		if !table.Valid() {
			r.PValue, r.Chi2PValue = 1, 1
			r.OddsRatio = stats.Ratio(math.NaN())
			r.Neutral = true
		} else {
			p, err := stats.Test(table, cfg.Test)
			if err != nil {
				return nil, errors.Wrapf(err, "kinase %s", c.Kinase.Name)
			}
			chi, err := stats.Test(table, stats.Chi2)
			if err != nil {
				return nil, errors.Wrapf(err, "kinase %s", c.Kinase.Name)
			}
			r.PValue, r.Chi2PValue = p, chi
			r.OddsRatio = stats.OddsRatio(table)
		}

		results[i] = r
		pvalues[i] = r.PValue
	}

	adjusted, err := stats.Correct(pvalues, cfg.Correction)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].AdjPValue = adjusted[i]
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.AdjPValue != b.AdjPValue {
			return a.AdjPValue < b.AdjPValue
		}
		if a.PValue != b.PValue {
			return a.PValue < b.PValue
		}
		if a.Kinase != b.Kinase {
			return a.Kinase < b.Kinase
		}
		return a.KinaseAccession < b.KinaseAccession
	})
	return results, nil
}

func tag(level Level, diags []contingency.Diagnostic) []Diagnostic {
	out := make([]Diagnostic, len(diags))
	for i, d := range diags {
		out[i] = Diagnostic{Level: level, Diagnostic: d}
	}
	return out
}
