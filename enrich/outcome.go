package enrich

import (
	"github.com/teranos/fuzzykea/contingency"
	"github.com/teranos/fuzzykea/match"
	"github.com/teranos/fuzzykea/reference"
	"github.com/teranos/fuzzykea/site"
	"github.com/teranos/fuzzykea/stats"
)

// Level is the counting granularity of a result table
type Level string

const (
	LevelSite      Level = "site"
	LevelSubstrate Level = "substrate"
)

// Status distinguishes "found nothing" from a completed analysis.
// Failures are returned as errors, never as an Outcome.
type Status string

const (
	StatusOK    Status = "ok"
	StatusEmpty Status = "empty"
)

// EmptyReason explains an empty outcome
type EmptyReason string

const (
	EmptyReference EmptyReason = "empty_reference"
	EmptyInput     EmptyReason = "empty_input"
	NoMatches      EmptyReason = "no_matches"
)

// Result is one kinase's enrichment at one level
type Result struct {
	Kinase          string      `json:"kinase"`
	KinaseAccession string      `json:"kinase_accession"`
	PValue          float64     `json:"p_value"`
	AdjPValue       float64     `json:"adj_p_value"`
	Chi2PValue      float64     `json:"chi2_p_value"`
	OddsRatio       stats.Ratio `json:"odds_ratio"`
	// Found is the sample count x; SubstrateCount is the background count n
	Found          int  `json:"found"`
	SubstrateCount int  `json:"substrate_count"`
	Neutral        bool `json:"neutral,omitempty"`
}

// KinaseKey identifies the kinase a result row belongs to
func (r Result) KinaseKey() reference.KinaseKey {
	return reference.KinaseKey{Name: r.Kinase, Accession: r.KinaseAccession}
}

// SubstrateHit is one kinase-substrate pair seen in the input
type SubstrateHit struct {
	Kinase          string         `json:"kinase"`
	KinaseAccession string         `json:"kinase_accession"`
	Accession       string         `json:"accession"`
	Gene            string         `json:"gene"`
	Residues        []site.Residue `json:"residues"`
}

func (h SubstrateHit) KinaseKey() reference.KinaseKey {
	return reference.KinaseKey{Name: h.Kinase, Accession: h.KinaseAccession}
}

// Diagnostic is a kinase-level adjustment made during the run
type Diagnostic struct {
	Level Level `json:"level"`
	contingency.Diagnostic
}

// ParseReport summarises input parsing for user feedback
type ParseReport struct {
	Records    int             `json:"records"`
	Accessions int             `json:"accessions"`
	Dropped    []site.Rejected `json:"dropped"`
}

// Outcome is the full result of one Run
type Outcome struct {
	RunID       string      `json:"run_id"`
	Status      Status      `json:"status"`
	EmptyReason EmptyReason `json:"empty_reason,omitempty"`
	Config      Config      `json:"config"`

	ReferenceEdges int         `json:"reference_edges"`
	Parse          ParseReport `json:"parse"`

	SiteResults      []Result       `json:"site_results"`
	SubstrateResults []Result       `json:"substrate_results"`
	SiteHits         []match.Record `json:"site_hits"`
	SubstrateHits    []SubstrateHit `json:"substrate_hits"`
	Diagnostics      []Diagnostic   `json:"diagnostics"`
}

// Empty reports whether the run ended without results
func (o *Outcome) Empty() bool {
	return o.Status == StatusEmpty
}

// Results returns the table for level
func (o *Outcome) Results(level Level) []Result {
	if level == LevelSubstrate {
		return o.SubstrateResults
	}
	return o.SiteResults
}

// KinaseAccessions returns the kinase accessions of the site-level results,
// in result order without duplicates.
func (o *Outcome) KinaseAccessions() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range o.SiteResults {
		if r.KinaseAccession == "" || seen[r.KinaseAccession] {
			continue
		}
		seen[r.KinaseAccession] = true
		out = append(out, r.KinaseAccession)
	}
	return out
}

// HitsFor returns the site hits of one kinase. Names alone are ambiguous,
// so the match is on name and accession.
func (o *Outcome) HitsFor(kinase reference.KinaseKey) []match.Record {
	var out []match.Record
	for _, h := range o.SiteHits {
		if h.KinaseKey() == kinase {
			out = append(out, h)
		}
	}
	return out
}

// SubstrateHitsFor returns the substrate hits of one kinase
func (o *Outcome) SubstrateHitsFor(kinase reference.KinaseKey) []SubstrateHit {
	var out []SubstrateHit
	for _, h := range o.SubstrateHits {
		if h.KinaseKey() == kinase {
			out = append(out, h)
		}
	}
	return out
}
