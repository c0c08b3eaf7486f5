package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/fuzzykea/blob/fs"
	"github.com/teranos/fuzzykea/enrich"
	"github.com/teranos/fuzzykea/errors"
	"github.com/teranos/fuzzykea/export"
	"github.com/teranos/fuzzykea/pathway"
	"github.com/teranos/fuzzykea/reference"
	"github.com/teranos/fuzzykea/site"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestReadInputs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "P12345_ABC_S100")
	writeFile(t, filepath.Join(dir, "nested", "b.txt"), "Q99999_XYZ_Y50")
	writeFile(t, filepath.Join(dir, "notes.md"), "ignored")

	t.Run("stdin", func(t *testing.T) {
		inputs, err := readInputs("-", strings.NewReader("P1_G_S1"))
		require.NoError(t, err)
		assert.Equal(t, []input{{Name: "stdin", Text: "P1_G_S1"}}, inputs)
	})

	t.Run("single file", func(t *testing.T) {
		inputs, err := readInputs(filepath.Join(dir, "a.txt"), nil)
		require.NoError(t, err)
		require.Len(t, inputs, 1)
		assert.Equal(t, "P12345_ABC_S100", inputs[0].Text)
	})

	t.Run("recursive glob", func(t *testing.T) {
		inputs, err := readInputs(filepath.Join(dir, "**", "*.txt"), nil)
		require.NoError(t, err)
		require.Len(t, inputs, 2)
		assert.Equal(t, filepath.Join(dir, "a.txt"), inputs[0].Name)
		assert.Equal(t, filepath.Join(dir, "nested", "b.txt"), inputs[1].Name)
	})

	t.Run("glob without matches", func(t *testing.T) {
		_, err := readInputs(filepath.Join(dir, "*.tsv"), nil)
		require.Error(t, err)
		assert.True(t, errors.IsNotFoundError(err))
		assert.NotEmpty(t, Hints(err))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := readInputs(filepath.Join(dir, "missing.txt"), nil)
		assert.True(t, errors.IsNotFoundError(err))
	})
}

func TestOverridesFromFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "analyze"}
	addAnalysisFlags(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--tolerance", "2", "--test", "chi2", "--aa", "S,T"}))

	o := overridesFromFlags(cmd)
	require.NotNil(t, o.Tolerance)
	assert.Equal(t, 2, *o.Tolerance)
	require.NotNil(t, o.Test)
	assert.Equal(t, "chi2", *o.Test)
	assert.Equal(t, []string{"S", "T"}, o.AminoAcids)
	assert.Nil(t, o.AAMode)
	assert.Nil(t, o.Correction)
	assert.Nil(t, o.InferredHitLimit)
	assert.Nil(t, o.UnlimitedInferredHits)
}

func TestExportTitle(t *testing.T) {
	in := input{Name: "runs/day1/sites.txt"}
	assert.Equal(t, "kea", exportTitle("kea", in, 1))
	assert.Equal(t, "kea_sites", exportTitle("kea", in, 3))
}

func testDataset() *reference.Dataset {
	edge := func(kinase, acc string, aa byte, pos int) reference.Edge {
		return reference.Edge{
			Kinase: kinase, KinaseAccession: "K_" + kinase,
			SubstrateAccession: acc, SubstrateGene: "GENE_" + acc,
			Residue: site.Residue{AminoAcid: aa, Position: pos},
		}
	}
	return reference.NewDataset("test", []reference.Edge{
		edge("AKT1", "P12345", 'S', 98),
		edge("MAPK1", "P12345", 'S', 100),
		edge("SRC", "Q99999", 'Y', 50),
	})
}

func TestAnalyzeOne_ExportsAndPathways(t *testing.T) {
	dir := t.TempDir()
	store, err := fs.New(dir)
	require.NoError(t, err)
	sink := export.NewSink(store, zaptest.NewLogger(t).Sugar())

	idx := pathway.NewIndex([]pathway.Entry{
		{Accession: "K_MAPK1", Name: "MAPK cascade"},
		{Accession: "P12345", Name: "Signal Transduction"},
	})
	in := input{Name: "stdin", Text: "P12345_ABC_S100\nQ99999_XYZ_Y50"}

	res, err := analyzeOne(context.Background(), in, testDataset(), idx, enrich.DefaultConfig(), sink, "kea")
	require.NoError(t, err)
	assert.Equal(t, enrich.StatusOK, res.Status)
	assert.Contains(t, res.KinasePathways, pathway.Count{Pathway: "MAPK cascade", Count: 1})
	assert.Equal(t, []pathway.Count{{Pathway: "Signal Transduction", Count: 1}}, res.InputPathways)

	require.Len(t, res.Exported, 4)
	for _, name := range []string{"kea_site_level.tsv", "kea_sub_level.tsv", "kea_site_hits.tsv", "kea_sub_hits.tsv"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
}

func TestAnalyzeOne_EmptyInputSkipsExport(t *testing.T) {
	dir := t.TempDir()
	store, err := fs.New(dir)
	require.NoError(t, err)

	res, err := analyzeOne(context.Background(), input{Name: "stdin", Text: "nonsense"},
		testDataset(), nil, enrich.DefaultConfig(), export.NewSink(store, nil), "kea")
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Empty(t, res.Exported)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExampleCmd(t *testing.T) {
	root := &cobra.Command{Use: "fuzzykea"}
	root.PersistentFlags().Bool("json", false, "")
	root.AddCommand(ExampleCmd)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"example"})
	require.NoError(t, root.Execute())

	assert.Equal(t, site.ExampleInput+"\n", out.String())
	parsed := site.Parse(out.String())
	assert.Empty(t, parsed.Dropped)
	assert.NotEmpty(t, parsed.Records)
}
