// Package reference holds the kinase-substrate annotation dataset that
// every analysis runs against.
//
// A Dataset is immutable once built. Loaders produce a new Dataset and callers
// swap it in explicitly; nothing in this package keeps process-wide state.
package reference

import (
	"github.com/teranos/fuzzykea/site"
)

// Organism values used by PhosphoSitePlus
const (
	OrganismHuman = "human"
	OrganismMouse = "mouse"
	OrganismRat   = "rat"
)

// Edge is one annotated kinase -> substrate residue relation.
type Edge struct {
	Kinase             string       `json:"kinase"`
	KinaseAccession    string       `json:"kinase_accession"`
	KinaseGene         string       `json:"kinase_gene,omitempty"`
	KinaseOrganism     string       `json:"kinase_organism,omitempty"`
	Substrate          string       `json:"substrate,omitempty"`
	SubstrateAccession string       `json:"substrate_accession"`
	SubstrateGene      string       `json:"substrate_gene"`
	SubstrateOrganism  string       `json:"substrate_organism,omitempty"`
	Residue            site.Residue `json:"residue"`
}

// KinaseKey identifies a kinase in contingency tables and results.
// Name alone is not unique in PhosphoSitePlus (isoforms share names).
type KinaseKey struct {
	Name      string `json:"kinase"`
	Accession string `json:"kinase_accession"`
}

// Less orders keys by name, then accession
func (k KinaseKey) Less(other KinaseKey) bool {
	if k.Name != other.Name {
		return k.Name < other.Name
	}
	return k.Accession < other.Accession
}

// KinaseKey returns the kinase identity of the edge
func (e Edge) KinaseKey() KinaseKey {
	return KinaseKey{Name: e.Kinase, Accession: e.KinaseAccession}
}
