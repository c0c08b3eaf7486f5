// Package export writes analysis outcomes as tab-separated result files,
// either to any io.Writer or through a blob store.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/teranos/fuzzykea/enrich"
	"github.com/teranos/fuzzykea/errors"
	"github.com/teranos/fuzzykea/match"
	"github.com/teranos/fuzzykea/reference"
)

// DefaultTitle prefixes exported filenames when the caller gives none
const DefaultTitle = "fuzzyKEA_results"

// Column names shared by both result tables
const (
	ColKinase     = "KINASE"
	ColKinaseAcc  = "KIN_ACC_ID"
	ColUniProt    = "UNIPROT"
	ColPValue     = "P_VALUE"
	ColAdjPValue  = "ADJ_P_VALUE"
	ColChi2PValue = "CHI2_P_VALUE"
	ColOddsRatio  = "ODDS_RATIO"
	ColFound      = "FOUND"
	ColSubstrates = "SUB#"

	ColHits                 = "HITS"
	ColAssociatedSubstrates = "ASSOCIATED_SUBSTRATES"
)

// Hit detail columns
const (
	ColSubGene       = "SUB_GENE"
	ColSubAcc        = "SUB_ACC_ID"
	ColSampleResidue = "SUB_MOD_RSD_sample"
	ColBgResidue     = "SUB_MOD_RSD_bg"
	ColImputed       = "IMPUTED"
	ColDistance      = "POS_DISTANCE"
)

// ImputedSuffix marks imputed hits in the HITS column
const ImputedSuffix = "(i)"

// Options controls number formatting
type Options struct {
	// Raw writes full-precision p-values instead of the display format
	Raw bool
}

// FormatPValue renders significant values in scientific notation and the
// rest with two decimals.
func FormatPValue(p float64) string {
	if p < 0.05 {
		return fmt.Sprintf("%.2e", p)
	}
	return fmt.Sprintf("%.2f", p)
}

// FormatOddsRatio renders an odds ratio; undefined ratios are empty
func FormatOddsRatio(r float64) string {
	switch {
	case math.IsNaN(r):
		return ""
	case math.IsInf(r, 1):
		return "inf"
	}
	return strconv.FormatFloat(r, 'f', 2, 64)
}

// UniProtURL links an accession to its UniProtKB entry
func UniProtURL(acc string) string {
	if acc == "" {
		return ""
	}
	return "https://www.uniprot.org/uniprotkb/" + acc + "/entry"
}

// Filename builds the result filename for level from a user title
func Filename(title string, level enrich.Level) string {
	return base(title) + "_" + levelSuffix(level) + "_level.tsv"
}

// HitsFilename builds the hit detail filename for level
func HitsFilename(title string, level enrich.Level) string {
	return base(title) + "_" + levelSuffix(level) + "_hits.tsv"
}

func levelSuffix(level enrich.Level) string {
	if level == enrich.LevelSubstrate {
		return "sub"
	}
	return "site"
}

// base trims the title and keeps it a single path element
func base(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return DefaultTitle
	}
	return strings.NewReplacer("/", "_", "\\", "_", "\t", " ", "\n", " ").Replace(title)
}

func newWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	return cw
}

func resultHeader(extra string) []string {
	return []string{ColKinase, ColKinaseAcc, ColUniProt, ColPValue, ColAdjPValue, ColChi2PValue,
		ColOddsRatio, ColFound, ColSubstrates, extra}
}

func resultRow(r enrich.Result, opts Options, extra string) []string {
	p := FormatPValue
	if opts.Raw {
		p = func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	}
	return []string{
		r.Kinase,
		r.KinaseAccession,
		UniProtURL(r.KinaseAccession),
		p(r.PValue),
		p(r.AdjPValue),
		p(r.Chi2PValue),
		FormatOddsRatio(float64(r.OddsRatio)),
		strconv.Itoa(r.Found),
		strconv.Itoa(r.SubstrateCount),
		extra,
	}
}

// SiteHits groups the site hits per kinase as sorted, unique
// "ACCESSION-RESIDUE" strings, imputed hits suffixed with "(i)".
func SiteHits(hits []match.Record) map[reference.KinaseKey]string {
	sets := make(map[reference.KinaseKey]map[string]bool)
	for _, h := range hits {
		s := h.Accession + "-" + h.InputResidue.String()
		if h.Imputed {
			s += ImputedSuffix
		}
		key := h.KinaseKey()
		if sets[key] == nil {
			sets[key] = make(map[string]bool)
		}
		sets[key][s] = true
	}
	return joinSets(sets)
}

// AssociatedSubstrates groups substrate genes per kinase, sorted and unique
func AssociatedSubstrates(hits []enrich.SubstrateHit) map[reference.KinaseKey]string {
	sets := make(map[reference.KinaseKey]map[string]bool)
	for _, h := range hits {
		gene := h.Gene
		if gene == "" {
			gene = h.Accession
		}
		key := h.KinaseKey()
		if sets[key] == nil {
			sets[key] = make(map[string]bool)
		}
		sets[key][gene] = true
	}
	return joinSets(sets)
}

func joinSets(sets map[reference.KinaseKey]map[string]bool) map[reference.KinaseKey]string {
	out := make(map[reference.KinaseKey]string, len(sets))
	for kinase, set := range sets {
		items := make([]string, 0, len(set))
		for s := range set {
			items = append(items, s)
		}
		sort.Strings(items)
		out[kinase] = strings.Join(items, ", ")
	}
	return out
}

// WriteSiteLevel writes the site-level table with a HITS column
func WriteSiteLevel(w io.Writer, results []enrich.Result, hits []match.Record, opts Options) error {
	grouped := SiteHits(hits)
	return writeResults(w, results, ColHits, grouped, opts)
}

// WriteSubstrateLevel writes the substrate-level table with an
// ASSOCIATED_SUBSTRATES column
func WriteSubstrateLevel(w io.Writer, results []enrich.Result, hits []enrich.SubstrateHit, opts Options) error {
	grouped := AssociatedSubstrates(hits)
	return writeResults(w, results, ColAssociatedSubstrates, grouped, opts)
}

func writeResults(w io.Writer, results []enrich.Result, extraCol string, extra map[reference.KinaseKey]string, opts Options) error {
	cw := newWriter(w)
	if err := cw.Write(resultHeader(extraCol)); err != nil {
		return errors.Wrap(err, "failed to write header")
	}
	for _, r := range results {
		if err := cw.Write(resultRow(r, opts, extra[r.KinaseKey()])); err != nil {
			return errors.Wrapf(err, "failed to write result for %s", r.Kinase)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteHits writes one row per site match
func WriteHits(w io.Writer, hits []match.Record) error {
	cw := newWriter(w)
	header := []string{ColSubGene, ColSubAcc, ColSampleResidue, ColBgResidue, ColKinase, ColKinaseAcc, ColImputed, ColDistance}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "failed to write header")
	}
	for _, h := range hits {
		row := []string{
			h.Gene,
			h.Accession,
			h.InputResidue.String(),
			h.ReferenceResidue.String(),
			h.Kinase,
			h.KinaseAccession,
			strconv.FormatBool(h.Imputed),
			strconv.Itoa(h.Distance),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "failed to write hit")
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSubstrateHits writes one row per kinase-substrate pair seen in the input
func WriteSubstrateHits(w io.Writer, hits []enrich.SubstrateHit) error {
	cw := newWriter(w)
	header := []string{ColSubGene, ColSubAcc, ColSampleResidue, ColKinase, ColKinaseAcc}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "failed to write header")
	}
	for _, h := range hits {
		residues := make([]string, len(h.Residues))
		for i, r := range h.Residues {
			residues[i] = r.String()
		}
		row := []string{h.Gene, h.Accession, strings.Join(residues, ","), h.Kinase, h.KinaseAccession}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "failed to write substrate hit")
		}
	}
	cw.Flush()
	return cw.Error()
}
