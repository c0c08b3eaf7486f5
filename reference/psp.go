package reference

import (
	"encoding/csv"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/fuzzykea/errors"
	"github.com/teranos/fuzzykea/logger"
	"github.com/teranos/fuzzykea/site"
)

// PhosphoSitePlus Kinase_Substrate_Dataset column names
const (
	ColGene              = "GENE"
	ColKinase            = "KINASE"
	ColKinaseAccession   = "KIN_ACC_ID"
	ColKinaseOrganism    = "KIN_ORGANISM"
	ColSubstrate         = "SUBSTRATE"
	ColSubstrateAcc      = "SUB_ACC_ID"
	ColSubstrateGene     = "SUB_GENE"
	ColSubstrateOrganism = "SUB_ORGANISM"
	ColModifiedResidue   = "SUB_MOD_RSD"
)

var requiredColumns = []string{ColKinase, ColKinaseAccession, ColSubstrateAcc, ColModifiedResidue}

// ErrMissingHeader is returned when no row carries the required PSP columns
var ErrMissingHeader = errors.New("kinase-substrate header not found")

// LoadOptions controls LoadPSP
type LoadOptions struct {
	// Source is recorded on the dataset (file path, s3 URI, "sqlite")
	Source string
	// Organism filters; empty disables the filter for that side
	KinaseOrganism    string
	SubstrateOrganism string
	Logger            *zap.SugaredLogger
}

// LoadReport counts what happened to each data row
type LoadReport struct {
	Rows             int `json:"rows"`
	Kept             int `json:"kept"`
	OrganismFiltered int `json:"organism_filtered"`
	Malformed        int `json:"malformed"`
	Duplicates       int `json:"duplicates"`
}

// LoadPSP reads a tab-separated PhosphoSitePlus kinase-substrate table.
//
// Preamble lines before the header (the PSP license banner) are skipped.
// Columns are located by name, so extra or reordered columns are fine.
func LoadPSP(r io.Reader, opts LoadOptions) (*Dataset, LoadReport, error) {
	log := opts.Logger
	if log == nil {
		log = logger.ComponentLogger("reference")
	}

	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = false

	var (
		report LoadReport
		cols   map[string]int
		edges  []Edge
		seen   = make(map[Edge]struct{})
	)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, report, errors.Wrap(err, "failed to read kinase-substrate table")
		}

		if cols == nil {
			cols = headerIndex(record)
			continue
		}

		report.Rows++
		edge, ok := edgeFromRecord(record, cols)
		if !ok {
			report.Malformed++
			continue
		}

		if !organismMatches(edge.KinaseOrganism, opts.KinaseOrganism) ||
			!organismMatches(edge.SubstrateOrganism, opts.SubstrateOrganism) {
			report.OrganismFiltered++
			continue
		}

		if _, dup := seen[edge]; dup {
			report.Duplicates++
			continue
		}
		seen[edge] = struct{}{}
		edges = append(edges, edge)
	}

	if cols == nil {
		return nil, report, errors.WithHint(ErrMissingHeader,
			"expected a tab-separated header with "+strings.Join(requiredColumns, ", "))
	}

	report.Kept = len(edges)
	log.Infow("Loaded kinase-substrate dataset",
		logger.FieldSource, opts.Source,
		logger.FieldCount, report.Kept,
		logger.FieldDropped, report.Rows-report.Kept)

	return NewDataset(opts.Source, edges), report, nil
}

// headerIndex returns column positions when record is a PSP header, nil otherwise
func headerIndex(record []string) map[string]int {
	idx := make(map[string]int, len(record))
	for i, name := range record {
		idx[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil
		}
	}
	return idx
}

func edgeFromRecord(record []string, cols map[string]int) (Edge, bool) {
	get := func(col string) string {
		i, ok := cols[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	// Phosphorylation_site_dataset style residues carry a "-p" suffix
	rsd := strings.TrimSuffix(get(ColModifiedResidue), "-p")
	res, err := site.ParseResidue(rsd)
	if err != nil {
		return Edge{}, false
	}

	acc := get(ColSubstrateAcc)
	if acc == "" || get(ColKinase) == "" {
		return Edge{}, false
	}

	return Edge{
		Kinase:             get(ColKinase),
		KinaseAccession:    get(ColKinaseAccession),
		KinaseGene:         get(ColGene),
		KinaseOrganism:     get(ColKinaseOrganism),
		Substrate:          get(ColSubstrate),
		SubstrateAccession: acc,
		SubstrateGene:      get(ColSubstrateGene),
		SubstrateOrganism:  get(ColSubstrateOrganism),
		Residue:            res,
	}, true
}

// organismMatches is lenient when the column is absent from the file
func organismMatches(value, want string) bool {
	if want == "" || value == "" {
		return true
	}
	return strings.EqualFold(value, want)
}

// WriteTSV writes edges in PSP column layout so exported datasets round-trip through LoadPSP.
func WriteTSV(w io.Writer, edges []Edge) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	header := []string{ColGene, ColKinase, ColKinaseAccession, ColKinaseOrganism, ColSubstrate,
		ColSubstrateAcc, ColSubstrateGene, ColSubstrateOrganism, ColModifiedResidue}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "failed to write header")
	}
	for _, e := range edges {
		row := []string{e.KinaseGene, e.Kinase, e.KinaseAccession, e.KinaseOrganism, e.Substrate,
			e.SubstrateAccession, e.SubstrateGene, e.SubstrateOrganism, e.Residue.String()}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "failed to write edge")
		}
	}
	cw.Flush()
	return cw.Error()
}
