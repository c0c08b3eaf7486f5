package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/fuzzykea/contingency"
	"github.com/teranos/fuzzykea/errors"
	"github.com/teranos/fuzzykea/match"
	"github.com/teranos/fuzzykea/reference"
	"github.com/teranos/fuzzykea/site"
	"github.com/teranos/fuzzykea/stats"
)

func edge(kinase, acc string, aa byte, pos int) reference.Edge {
	return reference.Edge{
		Kinase:             kinase,
		KinaseAccession:    "K_" + kinase,
		SubstrateAccession: acc,
		SubstrateGene:      "GENE_" + acc,
		Residue:            site.Residue{AminoAcid: aa, Position: pos},
	}
}

func scenario() *reference.Dataset {
	return reference.NewDataset("scenario", []reference.Edge{
		edge("AKT1", "P12345", 'S', 98),
		edge("MAPK1", "P12345", 'S', 100),
		edge("CDK1", "P12345", 'S', 102),
		edge("GSK3B", "P12345", 'T', 198),
		edge("SRC", "Q99999", 'Y', 50),
		edge("ABL1", "Q99999", 'Y', 52),
	})
}

const scenarioInput = "P12345_ABC_S100\nP12345_ABC_T200;Q99999_XYZ_Y50"

func TestRun_Scenario(t *testing.T) {
	out, err := Run(context.Background(), scenarioInput, scenario(), DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, StatusOK, out.Status)
	assert.NotEmpty(t, out.RunID)
	assert.Equal(t, 6, out.ReferenceEdges)
	assert.Equal(t, 3, out.Parse.Records)
	assert.Equal(t, 2, out.Parse.Accessions)

	require.Len(t, out.SiteHits, 3)
	assert.Equal(t, "GSK3B", out.SiteHits[0].Kinase)
	assert.True(t, out.SiteHits[0].Imputed)
	assert.Equal(t, "MAPK1", out.SiteHits[1].Kinase)
	assert.Equal(t, "SRC", out.SiteHits[2].Kinase)

	require.Len(t, out.SiteResults, 3)
	for _, r := range out.SiteResults {
		assert.Equal(t, 1, r.Found)
		assert.Equal(t, 1, r.SubstrateCount)
		assert.InDelta(t, 0.5, r.PValue, 1e-12)
		assert.InDelta(t, 0.5, r.AdjPValue, 1e-12)
	}
	assert.Equal(t, []string{"GSK3B", "MAPK1", "SRC"}, kinases(out.SiteResults))

	// Every kinase-substrate pair is in the sample, so nothing is enriched
	require.Len(t, out.SubstrateResults, 6)
	for _, r := range out.SubstrateResults {
		assert.Equal(t, 1.0, r.PValue)
	}
	require.Len(t, out.SubstrateHits, 6)
	assert.Equal(t, SubstrateHit{
		Kinase:          "ABL1",
		KinaseAccession: "K_ABL1",
		Accession:       "Q99999",
		Gene:            "GENE_Q99999",
		Residues:        []site.Residue{{AminoAcid: 'Y', Position: 50}},
	}, out.SubstrateHits[0])

	assert.Equal(t, []string{"K_GSK3B", "K_MAPK1", "K_SRC"}, out.KinaseAccessions())
	assert.Len(t, out.HitsFor(reference.KinaseKey{Name: "SRC", Accession: "K_SRC"}), 1)
	assert.Len(t, out.SubstrateHitsFor(reference.KinaseKey{Name: "GSK3B", Accession: "K_GSK3B"}), 1)
}

func TestOutcome_HitsFor_SharedName(t *testing.T) {
	human := reference.KinaseKey{Name: "PKACA", Accession: "P17612"}
	mouse := reference.KinaseKey{Name: "PKACA", Accession: "P05132"}
	out := &Outcome{
		SiteHits: []match.Record{
			{Accession: "Q1", Kinase: human.Name, KinaseAccession: human.Accession},
			{Accession: "Q2", Kinase: mouse.Name, KinaseAccession: mouse.Accession},
		},
		SubstrateHits: []SubstrateHit{
			{Accession: "Q1", Kinase: human.Name, KinaseAccession: human.Accession},
			{Accession: "Q2", Kinase: mouse.Name, KinaseAccession: mouse.Accession},
		},
	}

	tests := []struct {
		key  reference.KinaseKey
		want string
	}{
		{human, "Q1"},
		{mouse, "Q2"},
	}
	for _, tt := range tests {
		t.Run(tt.key.Accession, func(t *testing.T) {
			hits := out.HitsFor(tt.key)
			require.Len(t, hits, 1)
			assert.Equal(t, tt.want, hits[0].Accession)

			subs := out.SubstrateHitsFor(tt.key)
			require.Len(t, subs, 1)
			assert.Equal(t, tt.want, subs[0].Accession)
		})
	}
	assert.Empty(t, out.HitsFor(reference.KinaseKey{Name: "PKACA"}))
}

func TestRun_InferredLimitZero(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InferredHitLimit = match.Limit(0)

	out, err := Run(context.Background(), scenarioInput, scenario(), cfg)
	require.NoError(t, err)

	require.Len(t, out.SiteHits, 2)
	for _, h := range out.SiteHits {
		assert.False(t, h.Imputed)
	}
	assert.Equal(t, []string{"MAPK1", "SRC"}, kinases(out.SiteResults))
}

func TestRun_EmptyInput(t *testing.T) {
	for _, text := range []string{"", "  \n ; ", "garbage"} {
		out, err := Run(context.Background(), text, scenario(), DefaultConfig())
		require.NoError(t, err)

		assert.True(t, out.Empty())
		assert.Equal(t, EmptyInput, out.EmptyReason)
		assert.NotNil(t, out.SiteResults)
		assert.Empty(t, out.SiteResults)
		assert.Empty(t, out.SubstrateResults)
		assert.Empty(t, out.SiteHits)
		assert.Empty(t, out.SubstrateHits)
	}
}

func TestRun_EmptyReference(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AminoAcids = "H"

	out, err := Run(context.Background(), scenarioInput, scenario(), cfg)
	require.NoError(t, err)
	assert.Equal(t, StatusEmpty, out.Status)
	assert.Equal(t, EmptyReference, out.EmptyReason)
	assert.Equal(t, 0, out.ReferenceEdges)

	out, err = Run(context.Background(), scenarioInput, nil, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, EmptyReference, out.EmptyReason)
}

func TestRun_NoMatches(t *testing.T) {
	out, err := Run(context.Background(), "O00000_NONE_S5", scenario(), DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, StatusEmpty, out.Status)
	assert.Equal(t, NoMatches, out.EmptyReason)
	assert.Equal(t, 1, out.Parse.Records)
}

func TestRun_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative tolerance", func(c *Config) { c.Tolerance = -1 }},
		{"unknown mode", func(c *Config) { c.Mode = "fuzzy" }},
		{"unknown test", func(c *Config) { c.Test = "t-test" }},
		{"unknown correction", func(c *Config) { c.Correction = "holm" }},
		{"negative limit", func(c *Config) { c.InferredHitLimit = match.Limit(-1) }},
		{"no amino acids", func(c *Config) { c.AminoAcids = "" }},
		{"bad amino acid", func(c *Config) { c.AminoAcids = "SQ" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			out, err := Run(context.Background(), scenarioInput, scenario(), cfg)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.True(t, errors.IsInvalidConfigError(err), "got %v", err)
		})
	}
}

func TestRun_ClampDiagnostic(t *testing.T) {
	ds := reference.NewDataset("clamp", []reference.Edge{
		edge("AKT1", "P1", 'S', 10),
		edge("SRC", "P2", 'Y', 5),
		edge("SRC", "P3", 'Y', 6),
		edge("CDK1", "P4", 'S', 1),
	})

	out, err := Run(context.Background(), "P1_G_S10,S11,S12", ds, DefaultConfig())
	require.NoError(t, err)

	require.Len(t, out.SiteResults, 1)
	assert.Equal(t, 1, out.SiteResults[0].Found)

	require.Len(t, out.Diagnostics, 1)
	assert.Equal(t, LevelSite, out.Diagnostics[0].Level)
	assert.Equal(t, contingency.KindClamped, out.Diagnostics[0].Kind)
}

func TestRun_Chi2AndCorrections(t *testing.T) {
	ds, text := world(rand.New(rand.NewSource(5)))

	for _, test := range []stats.TestMethod{stats.Fisher, stats.Chi2} {
		for _, corr := range []stats.CorrectionMethod{stats.BenjaminiHochberg, stats.BenjaminiYekutieli, stats.Bonferroni} {
			cfg := DefaultConfig()
			cfg.Test, cfg.Correction = test, corr

			out, err := Run(context.Background(), text, ds, cfg)
			require.NoError(t, err, "%s/%s", test, corr)
			assertWellFormed(t, out.SiteResults)
			assertWellFormed(t, out.SubstrateResults)

			if test == stats.Chi2 {
				for _, r := range out.SiteResults {
					assert.Equal(t, r.Chi2PValue, r.PValue)
				}
			}
		}
	}
}

func TestRun_Deterministic(t *testing.T) {
	ds, text := world(rand.New(rand.NewSource(9)))
	cfg := DefaultConfig()
	cfg.Mode = match.ModeSTSimilar
	cfg.Tolerance = 3

	first := snapshot(t, ds, text, cfg)
	for i := 0; i < 5; i++ {
		assert.JSONEq(t, first, snapshot(t, ds, text, cfg))
	}
}

func TestRun_Concurrent(t *testing.T) {
	ds, text := world(rand.New(rand.NewSource(13)))
	want := snapshot(t, ds, text, DefaultConfig())

	results := make(chan string, 8)
	for i := 0; i < 8; i++ {
		go func() {
			out, err := Run(context.Background(), text, ds, DefaultConfig())
			if err != nil {
				results <- err.Error()
				return
			}
			out.RunID = ""
			data, _ := json.Marshal(out)
			results <- string(data)
		}()
	}
	for i := 0; i < 8; i++ {
		assert.JSONEq(t, want, <-results)
	}
}

func TestParseConfig(t *testing.T) {
	limit := 3
	cfg, err := ParseConfig(RawConfig{
		Tolerance:        2,
		Mode:             "st_similar",
		Test:             "CHI2",
		Correction:       "bonferroni",
		InferredHitLimit: &limit,
		AminoAcids:       []string{"s", "T", "ys"},
	})
	require.NoError(t, err)
	assert.Equal(t, match.ModeSTSimilar, cfg.Mode)
	assert.Equal(t, stats.Chi2, cfg.Test)
	assert.Equal(t, "STY", cfg.AminoAcids)
	assert.Equal(t, []string{"S", "T", "Y"}, cfg.AminoAcidList())

	_, err = ParseConfig(RawConfig{Mode: "exact", Test: "fisher", Correction: "fdr_bh", AminoAcids: []string{"Q"}})
	assert.True(t, errors.IsInvalidConfigError(err))

	_, err = ParseConfig(RawConfig{Mode: "exact", Test: "anova", Correction: "fdr_bh", AminoAcids: []string{"S"}})
	assert.True(t, errors.Is(err, errors.ErrUnknownMethod))
}

func kinases(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Kinase
	}
	return out
}

func assertWellFormed(t *testing.T, results []Result) {
	t.Helper()
	for _, r := range results {
		assert.GreaterOrEqual(t, r.PValue, 0.0)
		assert.LessOrEqual(t, r.PValue, 1.0)
		assert.GreaterOrEqual(t, r.AdjPValue, 0.0)
		assert.LessOrEqual(t, r.AdjPValue, 1.0)
		assert.GreaterOrEqual(t, r.Chi2PValue, 0.0)
		assert.LessOrEqual(t, r.Chi2PValue, 1.0)
	}

	byRaw := append([]Result(nil), results...)
	sort.SliceStable(byRaw, func(i, j int) bool { return byRaw[i].PValue < byRaw[j].PValue })
	for i := 1; i < len(byRaw); i++ {
		if byRaw[i].PValue > byRaw[i-1].PValue {
			assert.GreaterOrEqual(t, byRaw[i].AdjPValue, byRaw[i-1].AdjPValue, "adjusted p-values must follow raw order")
		}
	}
}

func snapshot(t *testing.T, ds *reference.Dataset, text string, cfg Config) string {
	t.Helper()
	out, err := Run(context.Background(), text, ds, cfg)
	require.NoError(t, err)
	out.RunID = ""
	data, err := json.Marshal(out)
	require.NoError(t, err)
	return string(data)
}

// world builds a reference with a few kinases favouring a few substrates and
// an input drawn partly from their sites.
func world(rng *rand.Rand) (*reference.Dataset, string) {
	kinases := []string{"AKT1", "CDK1", "CSNK2A1", "GSK3B", "MAPK1", "PRKACA", "SRC"}
	letters := []byte("STY")

	var edges []reference.Edge
	for a := 0; a < 60; a++ {
		acc := fmt.Sprintf("P%05d", a)
		for i := 0; i < 1+rng.Intn(6); i++ {
			k := kinases[rng.Intn(len(kinases))]
			if a < 12 {
				k = kinases[a%2]
			}
			edges = append(edges, edge(k, acc, letters[rng.Intn(len(letters))], 1+rng.Intn(400)))
		}
	}

	var lines []string
	for _, e := range edges {
		if rng.Intn(3) == 0 {
			continue
		}
		pos := e.Residue.Position + rng.Intn(5) - 2
		if pos < 0 {
			pos = 0
		}
		lines = append(lines, fmt.Sprintf("%s_G_%c%d", e.SubstrateAccession, e.Residue.AminoAcid, pos))
	}
	return reference.NewDataset("world", edges), strings.Join(lines, "\n")
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, scenarioInput, scenario(), DefaultConfig())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
