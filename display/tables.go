package display

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pterm/pterm"

	"github.com/teranos/fuzzykea/db"
	"github.com/teranos/fuzzykea/enrich"
	"github.com/teranos/fuzzykea/export"
	"github.com/teranos/fuzzykea/pathway"
	"github.com/teranos/fuzzykea/reference"
)

// DefaultMaxRows limits result tables unless the caller asks for more
const DefaultMaxRows = 25

// OutcomeOptions controls terminal rendering of an outcome
type OutcomeOptions struct {
	// MaxRows per table; 0 uses DefaultMaxRows, negative shows all
	MaxRows int
	// ShowHits adds the per-kinase hit column
	ShowHits bool
}

func (o OutcomeOptions) limit(n int) int {
	switch {
	case o.MaxRows < 0:
		return n
	case o.MaxRows == 0:
		return min(n, DefaultMaxRows)
	}
	return min(n, o.MaxRows)
}

// ResultTable builds the table data for one level's results
func ResultTable(results []enrich.Result, hits map[reference.KinaseKey]string, rows int) pterm.TableData {
	header := []string{export.ColKinase, export.ColKinaseAcc, export.ColPValue, export.ColAdjPValue,
		export.ColChi2PValue, export.ColOddsRatio, export.ColFound, export.ColSubstrates}
	if hits != nil {
		header = append(header, export.ColHits)
	}

	data := pterm.TableData{header}
	for _, r := range results[:rows] {
		row := []string{
			r.Kinase,
			r.KinaseAccession,
			export.FormatPValue(r.PValue),
			export.FormatPValue(r.AdjPValue),
			export.FormatPValue(r.Chi2PValue),
			export.FormatOddsRatio(float64(r.OddsRatio)),
			strconv.Itoa(r.Found),
			strconv.Itoa(r.SubstrateCount),
		}
		if hits != nil {
			row = append(row, hits[r.KinaseKey()])
		}
		data = append(data, row)
	}
	return data
}

func renderTable(w io.Writer, data pterm.TableData) error {
	s, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, s)
	return err
}

// RenderOutcome writes both result tables plus parse and diagnostic notes
func RenderOutcome(w io.Writer, out *enrich.Outcome, opts OutcomeOptions) error {
	fmt.Fprint(w, pterm.Info.Sprintf("Run %s: %d records from %d proteins against %d reference edges\n",
		out.RunID, out.Parse.Records, out.Parse.Accessions, out.ReferenceEdges))

	if n := len(out.Parse.Dropped); n > 0 {
		fmt.Fprint(w, pterm.Warning.Sprintf("Dropped %d malformed input entries\n", n))
		for _, d := range out.Parse.Dropped[:min(n, 5)] {
			fmt.Fprintf(w, "  %s: %s\n", d.Entry, d.Reason)
		}
	}

	if out.Empty() {
		fmt.Fprint(w, pterm.Warning.Sprintf("No results: %s\n", out.EmptyReason))
		return nil
	}

	levels := []struct {
		title   string
		results []enrich.Result
		hits    map[reference.KinaseKey]string
	}{
		{"Site level", out.SiteResults, nil},
		{"Substrate level", out.SubstrateResults, nil},
	}
	if opts.ShowHits {
		levels[0].hits = export.SiteHits(out.SiteHits)
		levels[1].hits = export.AssociatedSubstrates(out.SubstrateHits)
	}

	for _, l := range levels {
		fmt.Fprint(w, pterm.DefaultSection.Sprintf("%s (%d kinases)", l.title, len(l.results)))
		if len(l.results) == 0 {
			fmt.Fprintln(w, "  no kinases")
			continue
		}
		rows := opts.limit(len(l.results))
		if err := renderTable(w, ResultTable(l.results, l.hits, rows)); err != nil {
			return err
		}
		if rows < len(l.results) {
			fmt.Fprintf(w, "  ... %d more\n", len(l.results)-rows)
		}
	}

	if len(out.Diagnostics) > 0 {
		fmt.Fprint(w, pterm.Warning.Sprintf("%d diagnostics\n", len(out.Diagnostics)))
		for _, d := range out.Diagnostics {
			fmt.Fprintf(w, "  [%s] %s %s: %s\n", d.Level, d.Kinase.Name, d.Kind, d.Message)
		}
	}
	return nil
}

// RenderPathways writes the top pathway counts under title
func RenderPathways(w io.Writer, title string, counts []pathway.Count, top int) error {
	fmt.Fprint(w, pterm.DefaultSection.Sprintf("%s (%d pathways)", title, len(counts)))
	if len(counts) == 0 {
		fmt.Fprintln(w, "  no pathways")
		return nil
	}
	if top <= 0 || top > len(counts) {
		top = len(counts)
	}
	data := pterm.TableData{{"PATHWAY", "COUNT"}}
	for _, c := range counts[:top] {
		data = append(data, []string{c.Pathway, strconv.Itoa(c.Count)})
	}
	return renderTable(w, data)
}

// RenderReference writes a dataset summary
func RenderReference(w io.Writer, s reference.Summary) error {
	data := pterm.TableData{
		{"SOURCE", "EDGES", "SUBSTRATES", "KINASES"},
		{s.Source, strconv.Itoa(s.Edges), strconv.Itoa(s.Substrates), strconv.Itoa(s.Kinases)},
	}
	return renderTable(w, data)
}

// RenderStats writes the reference store contents
func RenderStats(w io.Writer, st *db.Stats) error {
	data := pterm.TableData{
		{"TABLE", "ROWS", "SOURCE", "RUN", "IMPORTED"},
		statsRow("kinase_substrates", st.Edges, st.LatestPSP),
		statsRow("reactome_pathways", st.Pathways, st.LatestReactome),
	}
	if err := renderTable(w, data); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d substrates, %d kinases\n", st.Substrates, st.Kinases)
	return err
}

func statsRow(table string, rows int, imp *db.Import) []string {
	row := []string{table, strconv.Itoa(rows), "-", "-", "-"}
	if imp != nil {
		row[2] = imp.Source
		row[3] = imp.RunID
		row[4] = imp.ImportedAt.Format("2006-01-02 15:04:05")
	}
	return row
}
