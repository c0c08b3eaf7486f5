package match

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/fuzzykea/errors"
	"github.com/teranos/fuzzykea/reference"
	"github.com/teranos/fuzzykea/site"
)

func ref(kinase, acc string, aa byte, pos int) reference.Edge {
	return reference.Edge{
		Kinase:             kinase,
		KinaseAccession:    "K_" + kinase,
		SubstrateAccession: acc,
		SubstrateGene:      "GENE_" + acc,
		Residue:            site.Residue{AminoAcid: aa, Position: pos},
	}
}

func sample(acc string, aa byte, pos int) site.Record {
	return site.Record{Accession: acc, Gene: "G", Residue: site.Residue{AminoAcid: aa, Position: pos}}
}

func scenarioDataset() *reference.Dataset {
	return reference.NewDataset("scenario", []reference.Edge{
		ref("AKT1", "P12345", 'S', 98),
		ref("MAPK1", "P12345", 'S', 100),
		ref("CDK1", "P12345", 'S', 102),
		ref("GSK3B", "P12345", 'T', 198),
		ref("SRC", "Q99999", 'Y', 50),
		ref("ABL1", "Q99999", 'Y', 52),
	})
}

func scenarioSamples() []site.Record {
	return []site.Record{
		sample("P12345", 'S', 100),
		sample("P12345", 'T', 200),
		sample("Q99999", 'Y', 50),
	}
}

type hit struct {
	input  string
	kinase string
	dist   int
	imp    bool
}

func hits(records []Record) []hit {
	out := make([]hit, len(records))
	for i, r := range records {
		out[i] = hit{input: r.InputResidue.String(), kinase: r.Kinase, dist: r.Distance, imp: r.Imputed}
	}
	return out
}

func TestMatch_Scenario(t *testing.T) {
	got := Match(scenarioSamples(), scenarioDataset(), Options{
		Tolerance: 5,
		Mode:      ModeExact,
		Logger:    zaptest.NewLogger(t).Sugar(),
	})

	assert.Equal(t, []hit{
		{input: "T200", kinase: "GSK3B", dist: 2, imp: true},
		{input: "S100", kinase: "MAPK1", dist: 0, imp: false},
		{input: "Y50", kinase: "SRC", dist: 0, imp: false},
	}, hits(got))

	for _, r := range got {
		if r.InputResidue.String() == "S100" {
			assert.Equal(t, "S100", r.ReferenceResidue.String(), "S98 and S102 must not win over the exact hit")
		}
	}
	assert.Equal(t, "GENE_P12345", got[0].Gene)
	assert.Equal(t, "T198", got[0].ReferenceResidue.String())
}

func TestMatch_InferredLimitZero(t *testing.T) {
	got := Match(scenarioSamples(), scenarioDataset(), Options{
		Tolerance:        5,
		Mode:             ModeExact,
		InferredHitLimit: Limit(0),
		Logger:           zaptest.NewLogger(t).Sugar(),
	})

	assert.Equal(t, []hit{
		{input: "S100", kinase: "MAPK1", dist: 0, imp: false},
		{input: "Y50", kinase: "SRC", dist: 0, imp: false},
	}, hits(got))
}

func TestMatch_InferredLimitKeepsClosest(t *testing.T) {
	ds := reference.NewDataset("cap", []reference.Edge{
		ref("AKT1", "P1", 'S', 10),
		ref("AKT1", "P2", 'S', 20),
		ref("AKT1", "P3", 'S', 30),
		ref("AKT1", "P4", 'S', 40),
	})
	samples := []site.Record{
		sample("P1", 'S', 13), // distance 3
		sample("P2", 'S', 21), // distance 1
		sample("P3", 'S', 32), // distance 2
		sample("P4", 'S', 40), // exact, never capped
	}

	got := Match(samples, ds, Options{Tolerance: 5, Mode: ModeExact, InferredHitLimit: Limit(1)})

	require.Len(t, got, 2)
	assert.Equal(t, "P2", got[0].Accession)
	assert.Equal(t, 1, got[0].Distance)
	assert.Equal(t, "P4", got[1].Accession)
	assert.False(t, got[1].Imputed)

	unlimited := Match(samples, ds, Options{Tolerance: 5, Mode: ModeExact})
	assert.Len(t, unlimited, 4)
}

func TestMatch_TieBreak(t *testing.T) {
	ds := reference.NewDataset("ties", []reference.Edge{
		ref("ZAP70", "P1", 'S', 10),
		ref("CSNK2A1", "P1", 'S', 12),
		ref("AKT1", "P1", 'S', 12),
		ref("ABL1", "P1", 'S', 8),
	})

	got := Match([]site.Record{sample("P1", 'S', 10), sample("P1", 'S', 11)}, ds, Options{Tolerance: 5, Mode: ModeExact})

	require.Len(t, got, 2)
	// S10: exact ZAP70 beats every kinase at distance 2
	// S11: AKT1@12, CSNK2A1@12, ZAP70@10 all at distance 1; AKT1 wins by name
	assert.Equal(t, []hit{
		{input: "S11", kinase: "AKT1", dist: 1, imp: true},
		{input: "S10", kinase: "ZAP70", dist: 0, imp: false},
	}, hits(got))
}

func TestMatch_AAModes(t *testing.T) {
	ds := reference.NewDataset("modes", []reference.Edge{
		ref("PKA", "P1", 'T', 10),
		ref("SRC", "P2", 'Y', 10),
	})
	samples := []site.Record{sample("P1", 'S', 10), sample("P2", 'S', 10)}

	tests := []struct {
		mode AAMode
		want int
	}{
		{ModeExact, 0},
		{ModeSTSimilar, 1},
		{ModeIgnore, 2},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			got := Match(samples, ds, Options{Tolerance: 0, Mode: tt.mode})
			assert.Len(t, got, tt.want)
			for _, r := range got {
				assert.False(t, r.Imputed, "distance 0 is never imputed even when letters differ")
			}
		})
	}
}

func TestMatch_Empty(t *testing.T) {
	assert.Empty(t, Match(nil, scenarioDataset(), Options{Tolerance: 5, Mode: ModeExact}))
	assert.Empty(t, Match(scenarioSamples(), nil, Options{Tolerance: 5, Mode: ModeExact}))
	assert.Empty(t, Match(scenarioSamples(), scenarioDataset(), Options{Tolerance: -1, Mode: ModeExact}))
}

func randomWorld(rng *rand.Rand) (*reference.Dataset, []site.Record) {
	letters := []byte("STYH")
	kinases := []string{"AKT1", "CDK1", "GSK3B", "MAPK1", "SRC"}

	var edges []reference.Edge
	var samples []site.Record
	for a := 0; a < 8; a++ {
		acc := fmt.Sprintf("P%05d", a)
		for i := 0; i < 12; i++ {
			edges = append(edges, ref(kinases[rng.Intn(len(kinases))], acc, letters[rng.Intn(len(letters))], rng.Intn(60)))
		}
		for i := 0; i < 6; i++ {
			samples = append(samples, sample(acc, letters[rng.Intn(len(letters))], rng.Intn(60)))
		}
	}
	return reference.NewDataset("random", edges), samples
}

func TestMatch_OneToOne(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		ds, samples := randomWorld(rng)
		for _, mode := range Modes {
			got := Match(samples, ds, Options{Tolerance: rng.Intn(8), Mode: mode})

			seen := make(map[string]bool)
			for _, r := range got {
				key := r.Accession + "/" + r.InputResidue.String()
				require.False(t, seen[key], "duplicate match for %s", key)
				seen[key] = true
				assert.Equal(t, r.Distance > 0, r.Imputed)
			}
		}
	}
}

func TestMatch_ToleranceZeroIsEqualityJoin(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		ds, samples := randomWorld(rng)

		want := make(map[string]bool)
		for _, s := range samples {
			for _, e := range ds.ByAccession(s.Accession) {
				if e.Residue == s.Residue {
					want[s.Accession+"/"+s.Residue.String()] = true
				}
			}
		}

		got := make(map[string]bool)
		for _, r := range Match(samples, ds, Options{Tolerance: 0, Mode: ModeExact}) {
			assert.Equal(t, r.InputResidue, r.ReferenceResidue)
			got[r.Accession+"/"+r.InputResidue.String()] = true
		}
		assert.Equal(t, want, got)
	}
}

func TestMatch_Deterministic(t *testing.T) {
	ds, samples := randomWorld(rand.New(rand.NewSource(3)))
	first := Match(samples, ds, Options{Tolerance: 4, Mode: ModeSTSimilar, InferredHitLimit: Limit(2)})

	// Reversing input and dataset order must not change the result
	reversed := make([]site.Record, len(samples))
	for i, s := range samples {
		reversed[len(samples)-1-i] = s
	}
	edges := ds.Edges()
	revEdges := make([]reference.Edge, len(edges))
	for i, e := range edges {
		revEdges[len(edges)-1-i] = e
	}

	second := Match(reversed, reference.NewDataset("rev", revEdges), Options{Tolerance: 4, Mode: ModeSTSimilar, InferredHitLimit: Limit(2)})
	assert.Equal(t, first, second)
}

func TestParseAAMode(t *testing.T) {
	for _, s := range []string{"exact", "EXACT", " st-similar ", "st_similar", "ignore"} {
		m, err := ParseAAMode(s)
		require.NoError(t, err, s)
		assert.True(t, m.Valid())
	}

	_, err := ParseAAMode("fuzzy")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidConfigError(err))
}

func TestOptionsValidate(t *testing.T) {
	assert.NoError(t, Options{Tolerance: 5, Mode: ModeExact, InferredHitLimit: Limit(7)}.Validate())
	assert.Error(t, Options{Tolerance: -1, Mode: ModeExact}.Validate())
	assert.Error(t, Options{Tolerance: 1, Mode: "nope"}.Validate())
	assert.Error(t, Options{Tolerance: 1, Mode: ModeIgnore, InferredHitLimit: Limit(-2)}.Validate())
}
