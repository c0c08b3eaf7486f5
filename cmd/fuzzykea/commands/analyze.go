package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/fuzzykea/am"
	"github.com/teranos/fuzzykea/blob"
	"github.com/teranos/fuzzykea/display"
	"github.com/teranos/fuzzykea/enrich"
	"github.com/teranos/fuzzykea/errors"
	"github.com/teranos/fuzzykea/export"
	"github.com/teranos/fuzzykea/internal/loader"
	"github.com/teranos/fuzzykea/logger"
	"github.com/teranos/fuzzykea/pathway"
	"github.com/teranos/fuzzykea/reference"
	"github.com/teranos/fuzzykea/site"
)

// AnalyzeCmd runs the enrichment engine over one or more site lists
var AnalyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run kinase enrichment on a phosphosite list",
	Long: `Run kinase enrichment on a phosphosite list.

Input is text of ACCESSION_GENE_SITES entries separated by newlines or
semicolons, e.g. "P12345_ABC_S100,T102". Use --input to read a file, a
glob of files (each analysed separately) or "-" for stdin.

Analysis settings default to the "analysis" section of the configuration;
flags override them for this run only.

Examples:
  fuzzykea example | fuzzykea analyze
  fuzzykea analyze --input sites.txt --tolerance 3 --mode exact
  fuzzykea analyze --input 'runs/**/*.txt' --export s3://results/kea
  fuzzykea analyze --input sites.txt --json > outcome.json`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

var (
	analyzeInput    string
	analyzeExport   string
	analyzeTitle    string
	analyzeAll      bool
	analyzeHits     bool
	analyzeRaw      bool
	analyzeRunDirs  bool
	analyzePathways int
	analyzeDBPath   string
)

func init() {
	f := AnalyzeCmd.Flags()
	f.StringVarP(&analyzeInput, "input", "i", "-", "Input file, glob or - for stdin")
	addAnalysisFlags(AnalyzeCmd)
	f.StringVar(&analyzeExport, "export", "", "Write result TSVs to a directory or s3://bucket/prefix")
	f.StringVar(&analyzeTitle, "title", "", "Filename prefix for exported results")
	f.BoolVar(&analyzeRaw, "raw", false, "Export unformatted p-values and odds ratios")
	f.BoolVar(&analyzeRunDirs, "run-dirs", false, "Export each run under a directory named by its run id")
	f.BoolVar(&analyzeAll, "all", false, "Show every result row")
	f.BoolVar(&analyzeHits, "hits", false, "Show matched sites per kinase")
	f.IntVar(&analyzePathways, "pathways", 10, "Pathways to list when pathway data is enabled (0 hides them)")
	f.StringVar(&analyzeDBPath, "db-path", "", "Custom database path (overrides config)")
}

// addAnalysisFlags registers the per-run overrides read by overridesFromFlags
func addAnalysisFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("tolerance", enrich.DefaultTolerance, "Maximum position distance for imputed matches")
	f.String("mode", "", "Amino acid matching: exact, st-similar, ignore")
	f.String("test", "", "Statistical test: fisher, chi2")
	f.String("correction", "", "Multiple testing correction: fdr_bh, fdr_by, bonferroni")
	f.Int("limit", enrich.DefaultInferredHitLimit, "Imputed matches kept per kinase")
	f.Bool("unlimited", false, "Keep every imputed match")
	f.StringSlice("aa", nil, "Reference amino acids to include (S,T,Y,H)")
}

// input is one named site list
type input struct {
	Name string
	Text string
}

// analyzeResult is the JSON shape of one analysed input
type analyzeResult struct {
	Input string `json:"input"`
	*enrich.Outcome
	KinasePathways []pathway.Count `json:"kinase_pathways,omitempty"`
	InputPathways  []pathway.Count `json:"input_pathways,omitempty"`
	Exported       []blob.Info     `json:"exported,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	jsonOut := display.ShouldOutputJSON(cmd)

	inputs, err := readInputs(analyzeInput, cmd.InOrStdin())
	if err != nil {
		return err
	}

	sess, err := newSession(analyzeDBPath)
	if err != nil {
		return err
	}
	defer sess.Close()

	cfg, err := sess.cfg.Analysis.With(overridesFromFlags(cmd)).Engine()
	if err != nil {
		return errors.Wrap(err, "invalid analysis settings")
	}

	spinner := startSpinner(jsonOut, "Loading reference data...")
	ds, idx, err := sess.load(ctx)
	stopSpinner(spinner, err)
	if err != nil {
		return err
	}

	var sink *export.Sink
	if target := exportTarget(sess.cfg); target != "" {
		store, err := blob.Open(ctx, target, loader.S3Options(sess.cfg))
		if err != nil {
			return errors.Wrapf(err, "failed to open export target %s", target)
		}
		sink = export.NewSink(store, logger.Logger.Named("export"))
		sink.RunDirs = analyzeRunDirs
		sink.Options = export.Options{Raw: analyzeRaw}
	}

	title := analyzeTitle
	if title == "" {
		title = sess.cfg.GetExportTitle()
	}

	for _, in := range inputs {
		res, err := analyzeOne(ctx, in, ds, idx, cfg, sink, exportTitle(title, in, len(inputs)))
		if err != nil {
			return errors.Wrapf(err, "analysis of %s failed", in.Name)
		}
		if jsonOut {
			if err := display.OutputJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			continue
		}
		if err := renderResult(cmd.OutOrStdout(), res, len(inputs) > 1); err != nil {
			return err
		}
	}
	return nil
}

func analyzeOne(ctx context.Context, in input, ds *reference.Dataset, idx *pathway.Index, cfg enrich.Config, sink *export.Sink, title string) (*analyzeResult, error) {
	out, err := enrich.Run(ctx, in.Text, ds, cfg)
	if err != nil {
		return nil, err
	}
	res := &analyzeResult{Input: in.Name, Outcome: out}

	if idx != nil && !out.Empty() {
		res.KinasePathways = idx.Count(out.KinaseAccessions())
		res.InputPathways = idx.Count(site.Accessions(site.Parse(in.Text).Records))
	}

	if sink != nil {
		infos, err := sink.Write(ctx, out, title)
		if err != nil {
			return nil, errors.Wrap(err, "export failed")
		}
		res.Exported = infos
	}
	return res, nil
}

func renderResult(w io.Writer, res *analyzeResult, named bool) error {
	if named {
		fmt.Fprint(w, pterm.DefaultSection.Sprint(res.Input))
	}
	opts := display.OutcomeOptions{ShowHits: analyzeHits}
	if analyzeAll {
		opts.MaxRows = -1
	}
	if err := display.RenderOutcome(w, res.Outcome, opts); err != nil {
		return err
	}
	if analyzePathways > 0 && len(res.KinasePathways) > 0 {
		if err := display.RenderPathways(w, "Kinase pathways", res.KinasePathways, analyzePathways); err != nil {
			return err
		}
		if err := display.RenderPathways(w, "Input pathways", res.InputPathways, analyzePathways); err != nil {
			return err
		}
	}
	for _, info := range res.Exported {
		fmt.Fprint(w, pterm.Success.Sprintf("Exported %s\n", info.Location))
	}
	return nil
}

// readInputs resolves pattern to one or more inputs. "-" reads r; a pattern
// with glob metacharacters is expanded and every match analysed on its own.
func readInputs(pattern string, r io.Reader) ([]input, error) {
	if pattern == "" || pattern == "-" {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read stdin")
		}
		return []input{{Name: "stdin", Text: string(data)}}, nil
	}

	paths := []string{pattern}
	if strings.ContainsAny(pattern, "*?[{") {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Wrapf(err, "invalid input pattern %q", pattern)
		}
		if len(matches) == 0 {
			return nil, errors.WithHint(
				errors.NewNotFoundError("no input files match %q", pattern),
				"quote the pattern so the shell does not expand it")
		}
		sort.Strings(matches)
		paths = matches
	}

	inputs := make([]input, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.NewNotFoundError("input file %s does not exist", p)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", p)
		}
		inputs = append(inputs, input{Name: p, Text: string(data)})
	}
	return inputs, nil
}

// overridesFromFlags collects the analysis flags the user actually set
func overridesFromFlags(cmd *cobra.Command) am.AnalysisOverrides {
	var o am.AnalysisOverrides
	f := cmd.Flags()
	if f.Changed("tolerance") {
		v, _ := f.GetInt("tolerance")
		o.Tolerance = &v
	}
	if f.Changed("mode") {
		v, _ := f.GetString("mode")
		o.AAMode = &v
	}
	if f.Changed("test") {
		v, _ := f.GetString("test")
		o.Test = &v
	}
	if f.Changed("correction") {
		v, _ := f.GetString("correction")
		o.Correction = &v
	}
	if f.Changed("limit") {
		v, _ := f.GetInt("limit")
		o.InferredHitLimit = &v
	}
	if f.Changed("unlimited") {
		v, _ := f.GetBool("unlimited")
		o.UnlimitedInferredHits = &v
	}
	if f.Changed("aa") {
		o.AminoAcids, _ = f.GetStringSlice("aa")
	}
	return o
}

func exportTarget(cfg *am.Config) string {
	if analyzeExport != "" {
		return analyzeExport
	}
	return cfg.Export.Target
}

// exportTitle keeps batch exports apart by suffixing the input's base name
func exportTitle(title string, in input, n int) string {
	if n <= 1 {
		return title
	}
	name := strings.TrimSuffix(filepath.Base(in.Name), filepath.Ext(in.Name))
	return title + "_" + name
}

func startSpinner(quiet bool, text string) *pterm.SpinnerPrinter {
	if quiet {
		return nil
	}
	spinner, err := pterm.DefaultSpinner.WithWriter(os.Stderr).WithRemoveWhenDone(true).Start(text)
	if err != nil {
		return nil
	}
	return spinner
}

func stopSpinner(spinner *pterm.SpinnerPrinter, err error) {
	if spinner == nil {
		return
	}
	if err != nil {
		spinner.Fail(err.Error())
		return
	}
	_ = spinner.Stop()
}
