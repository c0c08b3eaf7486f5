package reference

import (
	"sort"
	"time"
)

// Dataset is an immutable, accession-indexed set of reference edges.
// Slices returned by its methods are shared and must not be modified.
type Dataset struct {
	edges    []Edge
	byAcc    map[string][]Edge
	source   string
	loadedAt time.Time
}

// Summary describes a dataset for status endpoints and CLI output
type Summary struct {
	Source     string    `json:"source"`
	Edges      int       `json:"edges"`
	Substrates int       `json:"substrates"`
	Kinases    int       `json:"kinases"`
	LoadedAt   time.Time `json:"loaded_at"`
}

// NewDataset copies edges into a new indexed dataset.
func NewDataset(source string, edges []Edge) *Dataset {
	owned := make([]Edge, len(edges))
	copy(owned, edges)

	byAcc := make(map[string][]Edge)
	for _, e := range owned {
		byAcc[e.SubstrateAccession] = append(byAcc[e.SubstrateAccession], e)
	}

	return &Dataset{
		edges:    owned,
		byAcc:    byAcc,
		source:   source,
		loadedAt: time.Now().UTC(),
	}
}

// Edges returns every edge in load order
func (d *Dataset) Edges() []Edge {
	if d == nil {
		return nil
	}
	return d.edges
}

// ByAccession returns the edges whose substrate has the given accession
func (d *Dataset) ByAccession(acc string) []Edge {
	if d == nil {
		return nil
	}
	return d.byAcc[acc]
}

// Len returns the number of edges
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.edges)
}

// Source names where the dataset was loaded from
func (d *Dataset) Source() string {
	if d == nil {
		return ""
	}
	return d.source
}

// Accessions returns the sorted substrate accessions
func (d *Dataset) Accessions() []string {
	if d == nil {
		return nil
	}
	accs := make([]string, 0, len(d.byAcc))
	for acc := range d.byAcc {
		accs = append(accs, acc)
	}
	sort.Strings(accs)
	return accs
}

// Kinases returns the sorted distinct kinase keys
func (d *Dataset) Kinases() []KinaseKey {
	if d == nil {
		return nil
	}
	seen := make(map[KinaseKey]struct{})
	for _, e := range d.edges {
		seen[e.KinaseKey()] = struct{}{}
	}
	keys := make([]KinaseKey, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// FilterAminoAcids returns a new dataset keeping only edges whose residue
// amino acid is in allowed. Letters are compared upper-case.
func (d *Dataset) FilterAminoAcids(allowed []byte) *Dataset {
	keep := make(map[byte]bool, len(allowed))
	for _, aa := range allowed {
		if aa >= 'a' && aa <= 'z' {
			aa -= 'a' - 'A'
		}
		keep[aa] = true
	}

	var filtered []Edge
	for _, e := range d.Edges() {
		if keep[e.Residue.AminoAcid] {
			filtered = append(filtered, e)
		}
	}

	out := NewDataset(d.Source(), filtered)
	if d != nil {
		out.loadedAt = d.loadedAt
	}
	return out
}

// Summary reports dataset size
func (d *Dataset) Summary() Summary {
	if d == nil {
		return Summary{}
	}
	return Summary{
		Source:     d.source,
		Edges:      len(d.edges),
		Substrates: len(d.byAcc),
		Kinases:    len(d.Kinases()),
		LoadedAt:   d.loadedAt,
	}
}
