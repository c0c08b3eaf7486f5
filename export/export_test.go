package export

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/fuzzykea/blob/fs"
	"github.com/teranos/fuzzykea/enrich"
	"github.com/teranos/fuzzykea/match"
	"github.com/teranos/fuzzykea/reference"
	"github.com/teranos/fuzzykea/site"
	"github.com/teranos/fuzzykea/stats"
)

func res(aa byte, pos int) site.Residue {
	return site.Residue{AminoAcid: aa, Position: pos}
}

func fixture() *enrich.Outcome {
	return &enrich.Outcome{
		RunID:  "run-1",
		Status: enrich.StatusOK,
		SiteResults: []enrich.Result{
			{Kinase: "AKT1", KinaseAccession: "P31749", PValue: 0.001234, AdjPValue: 0.01, Chi2PValue: 0.2, OddsRatio: stats.Ratio(math.Inf(1)), Found: 2, SubstrateCount: 3},
			{Kinase: "SRC", KinaseAccession: "P12931", PValue: 0.5, AdjPValue: 1, Chi2PValue: 1, OddsRatio: 1.5, Found: 1, SubstrateCount: 9},
		},
		SubstrateResults: []enrich.Result{
			{Kinase: "AKT1", KinaseAccession: "P31749", PValue: 0.04, AdjPValue: 0.08, Chi2PValue: 0.3, OddsRatio: stats.Ratio(math.NaN()), Found: 1, SubstrateCount: 2},
		},
		SiteHits: []match.Record{
			{Accession: "P49841", Gene: "GSK3B", InputResidue: res('S', 9), ReferenceResidue: res('S', 9), Kinase: "AKT1", KinaseAccession: "P31749"},
			{Accession: "P12345", Gene: "ABC", InputResidue: res('S', 102), ReferenceResidue: res('S', 100), Kinase: "AKT1", KinaseAccession: "P31749", Imputed: true, Distance: 2},
			{Accession: "P49841", Gene: "GSK3B", InputResidue: res('S', 9), ReferenceResidue: res('S', 9), Kinase: "AKT1", KinaseAccession: "P31749"},
			{Accession: "P12345", Gene: "ABC", InputResidue: res('Y', 416), ReferenceResidue: res('Y', 416), Kinase: "SRC", KinaseAccession: "P12931"},
		},
		SubstrateHits: []enrich.SubstrateHit{
			{Kinase: "AKT1", KinaseAccession: "P31749", Accession: "P49841", Gene: "GSK3B", Residues: []site.Residue{res('S', 9)}},
			{Kinase: "AKT1", KinaseAccession: "P31749", Accession: "P12345", Gene: "", Residues: []site.Residue{res('S', 102), res('T', 105)}},
		},
	}
}

func TestFormatPValue(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.001234, "1.23e-03"},
		{0.049, "4.90e-02"},
		{0.05, "0.05"},
		{0.123, "0.12"},
		{1, "1.00"},
		{0, "0.00e+00"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPValue(tt.in))
		})
	}
}

func TestFormatOddsRatio(t *testing.T) {
	assert.Equal(t, "inf", FormatOddsRatio(math.Inf(1)))
	assert.Equal(t, "", FormatOddsRatio(math.NaN()))
	assert.Equal(t, "2.50", FormatOddsRatio(2.5))
}

func TestUniProtURL(t *testing.T) {
	assert.Equal(t, "https://www.uniprot.org/uniprotkb/P31749/entry", UniProtURL("P31749"))
	assert.Empty(t, UniProtURL(""))
}

func TestFilename(t *testing.T) {
	tests := []struct {
		title string
		level enrich.Level
		want  string
	}{
		{"", enrich.LevelSite, "fuzzyKEA_results_site_level.tsv"},
		{"  ", enrich.LevelSubstrate, "fuzzyKEA_results_sub_level.tsv"},
		{"experiment 4", enrich.LevelSite, "experiment 4_site_level.tsv"},
		{"../etc/x", enrich.LevelSubstrate, ".._etc_x_sub_level.tsv"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.title, tt.level))
		})
	}
	assert.Equal(t, "run_site_hits.tsv", HitsFilename("run", enrich.LevelSite))
}

func TestSiteHits(t *testing.T) {
	got := SiteHits(fixture().SiteHits)
	assert.Equal(t, map[reference.KinaseKey]string{
		{Name: "AKT1", Accession: "P31749"}: "P12345-S102(i), P49841-S9",
		{Name: "SRC", Accession: "P12931"}:  "P12345-Y416",
	}, got)
}

func TestAssociatedSubstrates(t *testing.T) {
	got := AssociatedSubstrates(fixture().SubstrateHits)
	assert.Equal(t, map[reference.KinaseKey]string{{Name: "AKT1", Accession: "P31749"}: "GSK3B, P12345"}, got)
}

// Kinase names repeat across accessions when the organism filter is off;
// each row carries only the hits of its own accession.
func TestWriteResults_SharedKinaseName(t *testing.T) {
	results := []enrich.Result{
		{Kinase: "PKACA", KinaseAccession: "P17612", PValue: 0.1, AdjPValue: 0.2, Chi2PValue: 0.3, OddsRatio: 2, Found: 1, SubstrateCount: 4},
		{Kinase: "PKACA", KinaseAccession: "P05132", PValue: 0.1, AdjPValue: 0.2, Chi2PValue: 0.3, OddsRatio: 2, Found: 1, SubstrateCount: 4},
	}
	siteHits := []match.Record{
		{Accession: "Q1", InputResidue: res('S', 10), ReferenceResidue: res('S', 10), Kinase: "PKACA", KinaseAccession: "P17612"},
		{Accession: "Q2", InputResidue: res('S', 20), ReferenceResidue: res('S', 20), Kinase: "PKACA", KinaseAccession: "P05132"},
	}
	substrateHits := []enrich.SubstrateHit{
		{Kinase: "PKACA", KinaseAccession: "P17612", Accession: "Q1", Gene: "GENE1"},
		{Kinase: "PKACA", KinaseAccession: "P05132", Accession: "Q2", Gene: "GENE2"},
	}

	tests := []struct {
		name  string
		write func(*bytes.Buffer) error
		want  []string
	}{
		{
			name:  "site level",
			write: func(b *bytes.Buffer) error { return WriteSiteLevel(b, results, siteHits, Options{}) },
			want:  []string{"Q1-S10", "Q2-S20"},
		},
		{
			name:  "substrate level",
			write: func(b *bytes.Buffer) error { return WriteSubstrateLevel(b, results, substrateHits, Options{}) },
			want:  []string{"GENE1", "GENE2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tt.write(&buf))

			lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
			require.Len(t, lines, 3)
			for i, want := range tt.want {
				cols := strings.Split(lines[i+1], "\t")
				assert.Equal(t, results[i].KinaseAccession, cols[1])
				assert.Equal(t, want, cols[len(cols)-1])
			}
		})
	}
}

func TestWriteSiteLevel(t *testing.T) {
	out := fixture()
	var buf bytes.Buffer
	require.NoError(t, WriteSiteLevel(&buf, out.SiteResults, out.SiteHits, Options{}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "KINASE\tKIN_ACC_ID\tUNIPROT\tP_VALUE\tADJ_P_VALUE\tCHI2_P_VALUE\tODDS_RATIO\tFOUND\tSUB#\tHITS", lines[0])
	assert.Equal(t, "AKT1\tP31749\thttps://www.uniprot.org/uniprotkb/P31749/entry\t1.23e-03\t1.00e-02\t0.20\tinf\t2\t3\tP12345-S102(i), P49841-S9", lines[1])
	assert.Equal(t, "SRC\tP12931\thttps://www.uniprot.org/uniprotkb/P12931/entry\t0.50\t1.00\t1.00\t1.50\t1\t9\tP12345-Y416", lines[2])
}

func TestWriteSiteLevel_Raw(t *testing.T) {
	out := fixture()
	var buf bytes.Buffer
	require.NoError(t, WriteSiteLevel(&buf, out.SiteResults[:1], nil, Options{Raw: true}))
	assert.Contains(t, buf.String(), "\t0.001234\t0.01\t0.2\t")
	assert.True(t, strings.HasSuffix(buf.String(), "\t2\t3\t\n"), "empty HITS column")
}

func TestWriteSubstrateLevel(t *testing.T) {
	out := fixture()
	var buf bytes.Buffer
	require.NoError(t, WriteSubstrateLevel(&buf, out.SubstrateResults, out.SubstrateHits, Options{}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "\tASSOCIATED_SUBSTRATES"))
	assert.True(t, strings.HasSuffix(lines[1], "\t4.00e-02\t0.08\t0.30\t\t1\t2\tGSK3B, P12345"), lines[1])
}

func TestWriteHits(t *testing.T) {
	out := fixture()
	var buf bytes.Buffer
	require.NoError(t, WriteHits(&buf, out.SiteHits[:2]))

	assert.Equal(t,
		"SUB_GENE\tSUB_ACC_ID\tSUB_MOD_RSD_sample\tSUB_MOD_RSD_bg\tKINASE\tKIN_ACC_ID\tIMPUTED\tPOS_DISTANCE\n"+
			"GSK3B\tP49841\tS9\tS9\tAKT1\tP31749\tfalse\t0\n"+
			"ABC\tP12345\tS102\tS100\tAKT1\tP31749\ttrue\t2\n",
		buf.String())
}

func TestWriteSubstrateHits(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSubstrateHits(&buf, fixture().SubstrateHits))
	assert.Contains(t, buf.String(), "\tP12345\tS102,T105\tAKT1\tP31749\n")
}

func TestSink_Write(t *testing.T) {
	root := t.TempDir()
	store, err := fs.New(root)
	require.NoError(t, err)

	sink := NewSink(store, zaptest.NewLogger(t).Sugar())
	sink.RunDirs = true
	infos, err := sink.Write(context.Background(), fixture(), "exp")
	require.NoError(t, err)
	require.Len(t, infos, 4)

	for _, name := range []string{"exp_site_level.tsv", "exp_sub_level.tsv", "exp_site_hits.tsv", "exp_sub_hits.tsv"} {
		assert.FileExists(t, filepath.Join(root, "run-1", name))
	}
	data, err := os.ReadFile(filepath.Join(root, "run-1", "exp_site_level.tsv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "KINASE\t"))
}

func TestSink_WriteEmpty(t *testing.T) {
	store, err := fs.New(t.TempDir())
	require.NoError(t, err)

	infos, err := NewSink(store, nil).Write(context.Background(), &enrich.Outcome{Status: enrich.StatusEmpty}, "")
	require.NoError(t, err)
	assert.Empty(t, infos)
}
