package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tageval/internal/corpus"
	"tageval/internal/evaluate"
	"tageval/internal/format"
	"tageval/internal/report"
	"tageval/internal/store"
)

var evaluateFlags struct {
	config string

	id            string
	keySet        string
	responseSet   string
	types         []string
	features      []string
	spanOnly      bool
	scoreFeature  string
	thresholdStep float64
	rankFeature   string
	nilTreatment  string
	nilValue      string
	nilFeature    string
	beta          float64
	workers       int

	tsv        string
	rankTSV    string
	indicators string
	dbPath     string
	output     string
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <corpus>",
	Short: "Evaluate a corpus and print per-type precision/recall totals",
	Long: `Evaluate compares the response annotation set of every document in the
corpus against its key set, per annotation type, and prints the corpus totals.
The corpus is a YAML file or a directory of YAML files.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.StringVar(&evaluateFlags.config, "config", "", "Run config YAML; flags override its fields")
	f.StringVar(&evaluateFlags.id, "id", "", "Evaluation id recorded in reports")
	f.StringVar(&evaluateFlags.keySet, "key-set", "", "Gold annotation set name (default key)")
	f.StringVar(&evaluateFlags.responseSet, "response-set", "", "Response annotation set name (default response)")
	f.StringSliceVar(&evaluateFlags.types, "types", nil, "Annotation types to evaluate (default: all observed)")
	f.StringSliceVar(&evaluateFlags.features, "features", nil, "Significant feature names (default: all features)")
	f.BoolVar(&evaluateFlags.spanOnly, "span-only", false, "Ignore features, compare spans only")
	f.StringVar(&evaluateFlags.scoreFeature, "score-feature", "", "Confidence feature enabling the threshold curve")
	f.Float64Var(&evaluateFlags.thresholdStep, "threshold-step", 0, "Seed the curve at 0..1 with this step")
	f.StringVar(&evaluateFlags.rankFeature, "rank-feature", "", "Rank feature enabling the rank curve")
	f.StringVar(&evaluateFlags.nilTreatment, "nil-treatment", "", "NIL policy: keep or drop")
	f.StringVar(&evaluateFlags.nilValue, "nil-value", "", "Feature value marking a NIL annotation (default NIL)")
	f.StringVar(&evaluateFlags.nilFeature, "nil-feature", "", "Feature checked for the NIL value (default: first significant feature)")
	f.Float64Var(&evaluateFlags.beta, "beta", 0, "F-measure beta (default 1)")
	f.IntVar(&evaluateFlags.workers, "workers", 0, "Parallel document workers (default 4)")
	f.StringVar(&evaluateFlags.tsv, "tsv", "", "Write the full statistics TSV to this path")
	f.StringVar(&evaluateFlags.rankTSV, "rank-tsv", "", "Write the rank-curve TSV to this path")
	f.StringVar(&evaluateFlags.indicators, "indicators", "", "Write the per-annotation indicator TSV to this path")
	f.StringVar(&evaluateFlags.dbPath, "db", "", "Persist the run to this SQLite database")
	f.StringVar(&evaluateFlags.output, "output", "ascii", "Table format (ascii, markdown)")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := evaluateConfig(cmd)
	if err != nil {
		return err
	}

	c, err := corpus.Load(args[0])
	if err != nil {
		return err
	}
	res, err := evaluate.Run(cmd.Context(), c, cfg)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), report.SummaryTable(res, format.ParseMode(evaluateFlags.output)))

	if evaluateFlags.tsv != "" {
		if err := writeReport(evaluateFlags.tsv, res, report.WriteTSV); err != nil {
			return err
		}
	}
	if evaluateFlags.rankTSV != "" {
		if err := writeReport(evaluateFlags.rankTSV, res, report.WriteRankTSV); err != nil {
			return err
		}
	}
	if evaluateFlags.indicators != "" {
		if err := writeReport(evaluateFlags.indicators, res, report.WriteIndicatorTSV); err != nil {
			return err
		}
	}

	if evaluateFlags.dbPath != "" {
		s, err := store.Open(evaluateFlags.dbPath)
		if err != nil {
			return err
		}
		defer s.Close()
		runID, err := s.SaveRun(args[0], res)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved run %d to %s\n", runID, evaluateFlags.dbPath)
	}
	return nil
}

// evaluateConfig builds the run config from the optional config file, then
// lays explicitly set flags over it.
func evaluateConfig(cmd *cobra.Command) (evaluate.Config, error) {
	var cfg evaluate.Config
	if evaluateFlags.config != "" {
		var err error
		cfg, err = evaluate.LoadConfig(evaluateFlags.config)
		if err != nil {
			return evaluate.Config{}, err
		}
	}

	set := cmd.Flags().Changed
	if set("id") {
		cfg.EvaluationID = evaluateFlags.id
	}
	if set("key-set") {
		cfg.KeySet = evaluateFlags.keySet
	}
	if set("response-set") {
		cfg.ResponseSet = evaluateFlags.responseSet
	}
	if set("types") {
		cfg.Types = evaluateFlags.types
	}
	if set("features") {
		cfg.Features = evaluateFlags.features
	}
	if set("span-only") {
		cfg.SpanOnly = evaluateFlags.spanOnly
	}
	if set("score-feature") {
		cfg.ScoreFeature = evaluateFlags.scoreFeature
	}
	if set("threshold-step") {
		cfg.ThresholdStep = evaluateFlags.thresholdStep
	}
	if set("rank-feature") {
		cfg.RankFeature = evaluateFlags.rankFeature
	}
	if set("nil-treatment") {
		cfg.NilTreatment = evaluate.NilTreatment(evaluateFlags.nilTreatment)
	}
	if set("nil-value") {
		cfg.NilValue = evaluateFlags.nilValue
	}
	if set("nil-feature") {
		cfg.NilFeature = evaluateFlags.nilFeature
	}
	if set("beta") {
		cfg.Beta = evaluateFlags.beta
	}
	if set("workers") {
		cfg.Workers = evaluateFlags.workers
	}
	return cfg, nil
}

func writeReport(path string, res *evaluate.Result, write func(w io.Writer, res *evaluate.Result) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f, res); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
