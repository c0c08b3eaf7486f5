// Package pathway maps UniProt accessions to Reactome pathways and counts
// how often each pathway is hit by a set of proteins.
package pathway

import (
	"encoding/csv"
	"io"
	"sort"
	"strings"

	"github.com/teranos/fuzzykea/errors"
)

// DefaultSpecies is the Reactome species name for human
const DefaultSpecies = "Homo sapiens"

// Entry is one UniProt2Reactome row
type Entry struct {
	Accession string `json:"accession"`
	ID        string `json:"reactome_id"`
	URL       string `json:"url,omitempty"`
	Name      string `json:"name"`
	Evidence  string `json:"evidence,omitempty"`
	Species   string `json:"species"`
}

// Count is the number of distinct accessions annotated to a pathway
type Count struct {
	Pathway string `json:"pathway"`
	Count   int    `json:"count"`
}

// Index answers accession -> pathway lookups
type Index struct {
	byAccession map[string][]Entry
	entries     int
}

// NewIndex builds an index, dropping repeated (accession, pathway) pairs
func NewIndex(entries []Entry) *Index {
	idx := &Index{byAccession: make(map[string][]Entry)}
	seen := make(map[[2]string]bool)
	for _, e := range entries {
		k := [2]string{e.Accession, e.Name}
		if seen[k] {
			continue
		}
		seen[k] = true
		idx.byAccession[e.Accession] = append(idx.byAccession[e.Accession], e)
		idx.entries++
	}
	return idx
}

// Len returns the number of indexed rows
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return idx.entries
}

// Entries returns all indexed rows ordered by accession, then pathway name
func (idx *Index) Entries() []Entry {
	if idx == nil {
		return nil
	}
	out := make([]Entry, 0, idx.entries)
	for _, es := range idx.byAccession {
		out = append(out, es...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Accession != out[j].Accession {
			return out[i].Accession < out[j].Accession
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Lookup returns the pathways of one accession
func (idx *Index) Lookup(accession string) []Entry {
	if idx == nil {
		return nil
	}
	return idx.byAccession[accession]
}

// Count tallies pathways over the distinct accessions given.
// Results are sorted by count descending, then pathway name.
func (idx *Index) Count(accessions []string) []Count {
	counts := make(map[string]int)
	seen := make(map[string]bool)
	for _, acc := range accessions {
		if acc == "" || seen[acc] {
			continue
		}
		seen[acc] = true
		for _, e := range idx.Lookup(acc) {
			counts[e.Name]++
		}
	}

	out := make([]Count, 0, len(counts))
	for name, n := range counts {
		out = append(out, Count{Pathway: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Pathway < out[j].Pathway
	})
	return out
}

// LoadReactome reads a headerless UniProt2Reactome TSV:
// accession, pathway id, url, pathway name, evidence code, species.
// Rows from other species are skipped; an empty species keeps everything.
func LoadReactome(r io.Reader, species string) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var out []Entry
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.Wrapf(err, "reactome line %d", line)
		}
		if len(record) < 6 {
			if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
				continue
			}
			return nil, errors.Newf("reactome line %d: expected 6 columns, got %d", line, len(record))
		}

		e := Entry{
			Accession: strings.TrimSpace(record[0]),
			ID:        strings.TrimSpace(record[1]),
			URL:       strings.TrimSpace(record[2]),
			Name:      strings.TrimSpace(record[3]),
			Evidence:  strings.TrimSpace(record[4]),
			Species:   strings.TrimSpace(record[5]),
		}
		if species != "" && e.Species != species {
			continue
		}
		if e.Accession == "" || e.Name == "" {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
