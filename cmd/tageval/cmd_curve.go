package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tageval/internal/corpus"
	"tageval/internal/evaluate"
	"tageval/internal/format"
	"tageval/internal/report"
)

var curveFlags struct {
	annotationType string
	keySet         string
	responseSet    string
	features       []string
	spanOnly       bool
	scoreFeature   string
	thresholdStep  float64
	rankFeature    string
	beta           float64
	workers        int
	tsv            string
	output         string
}

var curveCmd = &cobra.Command{
	Use:   "curve <corpus>",
	Short: "Print the precision/recall curve over confidence thresholds or ranks",
	Long: `Curve evaluates the corpus once and prints the measure curve for one
annotation type: over confidence thresholds with --score-feature, or over
cumulative candidate ranks with --rank-feature.`,
	Args: cobra.ExactArgs(1),
	RunE: runCurve,
}

func init() {
	f := curveCmd.Flags()
	f.StringVar(&curveFlags.annotationType, "type", "", "Annotation type (default: all types combined)")
	f.StringVar(&curveFlags.keySet, "key-set", "", "Gold annotation set name (default key)")
	f.StringVar(&curveFlags.responseSet, "response-set", "", "Response annotation set name (default response)")
	f.StringSliceVar(&curveFlags.features, "features", nil, "Significant feature names (default: all features)")
	f.BoolVar(&curveFlags.spanOnly, "span-only", false, "Ignore features, compare spans only")
	f.StringVar(&curveFlags.scoreFeature, "score-feature", "", "Confidence feature on responses")
	f.Float64Var(&curveFlags.thresholdStep, "threshold-step", 0, "Seed the curve at 0..1 with this step")
	f.StringVar(&curveFlags.rankFeature, "rank-feature", "", "Rank feature on responses")
	f.Float64Var(&curveFlags.beta, "beta", 0, "F-measure beta (default 1)")
	f.IntVar(&curveFlags.workers, "workers", 0, "Parallel document workers (default 4)")
	f.StringVar(&curveFlags.tsv, "tsv", "", "Also write the curve TSV to this path")
	f.StringVar(&curveFlags.output, "output", "ascii", "Table format (ascii, markdown)")
}

func runCurve(cmd *cobra.Command, args []string) error {
	if curveFlags.scoreFeature == "" && curveFlags.rankFeature == "" {
		return fmt.Errorf("curve needs --score-feature or --rank-feature")
	}

	c, err := corpus.Load(args[0])
	if err != nil {
		return err
	}
	cfg := evaluate.Config{
		KeySet:        curveFlags.keySet,
		ResponseSet:   curveFlags.responseSet,
		Features:      curveFlags.features,
		SpanOnly:      curveFlags.spanOnly,
		ScoreFeature:  curveFlags.scoreFeature,
		ThresholdStep: curveFlags.thresholdStep,
		RankFeature:   curveFlags.rankFeature,
		Beta:          curveFlags.beta,
		Workers:       curveFlags.workers,
	}
	res, err := evaluate.Run(cmd.Context(), c, cfg)
	if err != nil {
		return err
	}

	typ := curveFlags.annotationType
	if typ == "" {
		typ = evaluate.AllTypes
	}
	mode := format.ParseMode(curveFlags.output)

	if curveFlags.scoreFeature != "" {
		curve := res.Curves[typ]
		if curve == nil {
			return fmt.Errorf("no threshold curve for type %q", typ)
		}
		fmt.Fprintln(cmd.OutOrStdout(), report.CurveTable(curve, res.Config.Beta, mode))
	}
	if curveFlags.rankFeature != "" {
		curve := res.RankCurves[typ]
		if curve == nil {
			return fmt.Errorf("no rank curve for type %q", typ)
		}
		fmt.Fprintln(cmd.OutOrStdout(), report.RankTable(curve, res.Config.Beta, mode))
	}

	if curveFlags.tsv != "" {
		write := report.WriteTSV
		if curveFlags.scoreFeature == "" {
			write = report.WriteRankTSV
		}
		if err := writeReport(curveFlags.tsv, res, write); err != nil {
			return err
		}
	}
	return nil
}
