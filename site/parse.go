package site

import (
	"strings"
)

// Rejection reasons reported back to the user
const (
	ReasonMissingFields = "expected ACCESSION_GENE_RESIDUES"
	ReasonEmptyField    = "empty accession or residue list"
	ReasonBadResidue    = "residue must be one letter followed by digits"
)

// Rejected describes an entry or residue token dropped during parsing.
// Token is empty when the whole entry was rejected.
type Rejected struct {
	Entry  string `json:"entry"`
	Token  string `json:"token,omitempty"`
	Reason string `json:"reason"`
}

// Parsed is the result of Parse. Dropped rows never make parsing fail.
type Parsed struct {
	Records []Record   `json:"records"`
	Dropped []Rejected `json:"dropped,omitempty"`
}

// Empty reports whether no records survived parsing
func (p Parsed) Empty() bool {
	return len(p.Records) == 0
}

// Parse turns free-form site text into records.
//
// Entries are separated by newlines or semicolons. Each entry has the shape
// ACCESSION_GENE_RESIDUE[,RESIDUE...]. The accession ends at the first
// underscore and the residue list starts after the last one, so gene names
// containing underscores survive intact. Exact duplicates are removed,
// keeping first-seen order.
func Parse(text string) Parsed {
	var out Parsed
	seen := make(map[Record]struct{})

	for _, entry := range splitEntries(text) {
		acc, gene, residues, ok := splitFields(entry)
		if !ok {
			out.Dropped = append(out.Dropped, Rejected{Entry: entry, Reason: ReasonMissingFields})
			continue
		}
		if acc == "" || residues == "" {
			out.Dropped = append(out.Dropped, Rejected{Entry: entry, Reason: ReasonEmptyField})
			continue
		}

		for _, token := range strings.Split(residues, ",") {
			token = strings.TrimSpace(token)
			if token == "" {
				continue
			}
			res, err := ParseResidue(token)
			if err != nil {
				out.Dropped = append(out.Dropped, Rejected{Entry: entry, Token: token, Reason: ReasonBadResidue})
				continue
			}

			rec := Record{Accession: acc, Gene: gene, Residue: res}
			if _, dup := seen[rec]; dup {
				continue
			}
			seen[rec] = struct{}{}
			out.Records = append(out.Records, rec)
		}
	}

	return out
}

func splitEntries(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ';'
	})

	entries := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			entries = append(entries, f)
		}
	}
	return entries
}

func splitFields(entry string) (acc, gene, residues string, ok bool) {
	first := strings.IndexByte(entry, '_')
	last := strings.LastIndexByte(entry, '_')
	if first < 0 || first == last {
		return "", "", "", false
	}
	acc = strings.TrimSpace(entry[:first])
	gene = strings.TrimSpace(entry[first+1 : last])
	residues = strings.TrimSpace(entry[last+1:])
	return acc, gene, residues, true
}

// Accessions returns the unique accessions of records in first-seen order
func Accessions(records []Record) []string {
	seen := make(map[string]struct{}, len(records))
	var accs []string
	for _, r := range records {
		if _, ok := seen[r.Accession]; ok {
			continue
		}
		seen[r.Accession] = struct{}{}
		accs = append(accs, r.Accession)
	}
	return accs
}
