package pathway

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "P12345\tR-HSA-1\thttps://reactome.org/PathwayBrowser/#/R-HSA-1\tSignal Transduction\tIEA\tHomo sapiens\n" +
	"P12345\tR-HSA-2\thttps://reactome.org/PathwayBrowser/#/R-HSA-2\tCell Cycle\tTAS\tHomo sapiens\n" +
	"Q99999\tR-HSA-1\thttps://reactome.org/PathwayBrowser/#/R-HSA-1\tSignal Transduction\tIEA\tHomo sapiens\n" +
	"Q99999\tR-MMU-1\thttps://reactome.org/PathwayBrowser/#/R-MMU-1\tSignal Transduction\tIEA\tMus musculus\n" +
	"O11111\tR-HSA-3\thttps://reactome.org/PathwayBrowser/#/R-HSA-3\tApoptosis\tIEA\tHomo sapiens\n" +
	"\n"

func TestLoadReactome(t *testing.T) {
	entries, err := LoadReactome(strings.NewReader(sample), DefaultSpecies)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, Entry{
		Accession: "P12345",
		ID:        "R-HSA-1",
		URL:       "https://reactome.org/PathwayBrowser/#/R-HSA-1",
		Name:      "Signal Transduction",
		Evidence:  "IEA",
		Species:   "Homo sapiens",
	}, entries[0])

	all, err := LoadReactome(strings.NewReader(sample), "")
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestLoadReactome_ShortRow(t *testing.T) {
	_, err := LoadReactome(strings.NewReader("P12345\tR-HSA-1\n"), DefaultSpecies)
	assert.Error(t, err)
}

func TestIndex_Count(t *testing.T) {
	entries, err := LoadReactome(strings.NewReader(sample), DefaultSpecies)
	require.NoError(t, err)
	idx := NewIndex(entries)

	tests := []struct {
		name       string
		accessions []string
		want       []Count
	}{
		{
			name:       "ordered by count then name",
			accessions: []string{"P12345", "Q99999", "O11111"},
			want: []Count{
				{Pathway: "Signal Transduction", Count: 2},
				{Pathway: "Apoptosis", Count: 1},
				{Pathway: "Cell Cycle", Count: 1},
			},
		},
		{
			name:       "repeated accessions count once",
			accessions: []string{"Q99999", "Q99999", ""},
			want:       []Count{{Pathway: "Signal Transduction", Count: 1}},
		},
		{
			name:       "unknown accession",
			accessions: []string{"X00000"},
			want:       []Count{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, idx.Count(tt.accessions))
		})
	}
}

func TestNewIndex_Dedupes(t *testing.T) {
	e := Entry{Accession: "P1", Name: "A", Species: DefaultSpecies}
	idx := NewIndex([]Entry{e, e})
	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, []Entry{e}, idx.Entries())

	var nilIdx *Index
	assert.Equal(t, 0, nilIdx.Len())
	assert.Empty(t, nilIdx.Count([]string{"P1"}))
}
