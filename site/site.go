// Package site parses positional phosphosite identifiers such as
// "P23327_HRC_S139,S145" into structured records.
package site

import (
	"fmt"
	"strconv"

	"github.com/teranos/fuzzykea/errors"
)

// Residue is a single amino-acid letter plus its sequence position (e.g. S100).
type Residue struct {
	AminoAcid byte `json:"amino_acid"`
	Position  int  `json:"position"`
}

// String renders the residue in its canonical form ("S100")
func (r Residue) String() string {
	return fmt.Sprintf("%c%d", r.AminoAcid, r.Position)
}

// MarshalText lets residues appear as "S100" in JSON and map keys
func (r Residue) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText parses the canonical form
func (r *Residue) UnmarshalText(text []byte) error {
	parsed, err := ParseResidue(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Less orders residues by position, then amino acid
func (r Residue) Less(other Residue) bool {
	if r.Position != other.Position {
		return r.Position < other.Position
	}
	return r.AminoAcid < other.AminoAcid
}

// Record is one modified residue of one protein from the user's input.
type Record struct {
	Accession string  `json:"accession"`
	Gene      string  `json:"gene"`
	Residue   Residue `json:"residue"`
}

// String renders the record as ACCESSION_GENE_RESIDUE
func (r Record) String() string {
	return r.Accession + "_" + r.Gene + "_" + r.Residue.String()
}

// ErrInvalidResidue is returned for tokens that are not a letter followed by digits
var ErrInvalidResidue = errors.New("invalid residue")

// ParseResidue parses a token of the form <letter><digits>.
// The letter is upper-cased; surrounding whitespace is not accepted.
func ParseResidue(token string) (Residue, error) {
	if len(token) < 2 {
		return Residue{}, errors.Wrapf(ErrInvalidResidue, "%q is too short", token)
	}

	aa := token[0]
	if !isASCIILetter(aa) {
		return Residue{}, errors.Wrapf(ErrInvalidResidue, "%q does not start with an amino-acid letter", token)
	}

	digits := token[1:]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return Residue{}, errors.Wrapf(ErrInvalidResidue, "%q has a non-numeric position", token)
		}
	}

	pos, err := strconv.Atoi(digits)
	if err != nil {
		return Residue{}, errors.Wrapf(ErrInvalidResidue, "%q: %v", token, err)
	}

	return Residue{AminoAcid: toUpper(aa), Position: pos}, nil
}

func isASCIILetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func toUpper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}
