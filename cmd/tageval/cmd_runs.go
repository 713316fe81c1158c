package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tageval/internal/display"
	"tageval/internal/format"
	"tageval/internal/store"
)

var runsFlags struct {
	dbPath    string
	show      int64
	curveType string
	curveKind string
	output    string
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List and inspect evaluation runs persisted with evaluate --db",
	Long: `Runs lists the evaluations stored in the SQLite database. With --show it
prints the stat rows of one run; add --curve to print its stored curve points.`,
	RunE: runRuns,
}

func init() {
	f := runsCmd.Flags()
	f.StringVar(&runsFlags.dbPath, "db", "tageval.db", "SQLite database path")
	f.Int64Var(&runsFlags.show, "show", 0, "Show the stat rows of this run id")
	f.StringVar(&runsFlags.curveType, "curve", "", "With --show: print the stored curve for this annotation type")
	f.StringVar(&runsFlags.curveKind, "kind", store.CurveThreshold, "Curve kind (threshold, rank)")
	f.StringVar(&runsFlags.output, "output", "ascii", "Table format (ascii, markdown)")
}

func runRuns(cmd *cobra.Command, _ []string) error {
	s, err := store.Open(runsFlags.dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	mode := format.ParseMode(runsFlags.output)
	if runsFlags.show != 0 {
		return showRun(cmd, s, runsFlags.show, mode)
	}

	runs, err := s.ListRuns()
	if err != nil {
		return err
	}
	tb := format.NewTable(mode)
	tb.Header("ID", "Evaluation", "Corpus", "Created")
	for _, r := range runs {
		tb.Row(r.ID, r.EvaluationID, r.Corpus, r.CreatedAt)
	}
	fmt.Fprintln(cmd.OutOrStdout(), tb.String())
	return nil
}

func showRun(cmd *cobra.Command, s *store.Store, id int64, mode format.Mode) error {
	run, err := s.GetRun(id)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %d not found", id)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "run %d: %s on %s (%s, %s)\n",
		run.ID, run.EvaluationID, run.Corpus, run.CreatedAt,
		display.NilTreatment(string(run.Config.NilTreatment)))

	if runsFlags.curveType != "" {
		return showCurve(cmd, s, id, mode)
	}

	rows, err := s.RunStats(id)
	if err != nil {
		return err
	}
	tb := format.NewTable(mode)
	tb.Header("Document", "Type", "Targets", "Responses", "CS", "CP", "IS", "IP")
	for _, r := range rows {
		tb.Row(display.Scope(r.DocName), display.Scope(r.AnnotationType),
			r.Stats.Targets, r.Stats.Responses,
			r.Stats.CorrectStrict, r.Stats.CorrectPartial,
			r.Stats.IncorrectStrict, r.Stats.IncorrectPartial)
	}
	fmt.Fprintln(cmd.OutOrStdout(), tb.String())
	return nil
}

func showCurve(cmd *cobra.Command, s *store.Store, id int64, mode format.Mode) error {
	points, err := s.RunCurve(id, runsFlags.curveType, runsFlags.curveKind)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return fmt.Errorf("run %d has no %s curve for type %q", id, runsFlags.curveKind, runsFlags.curveType)
	}
	tb := format.NewTable(mode)
	tb.Header("Cutoff", "Targets", "Responses", "CS", "CP", "P(strict)", "R(strict)")
	for _, p := range points {
		tb.Row(p.Cutoff, p.Stats.Targets, p.Stats.Responses,
			p.Stats.CorrectStrict, p.Stats.CorrectPartial,
			fmt.Sprintf("%.4f", p.Stats.PrecisionStrict()),
			fmt.Sprintf("%.4f", p.Stats.RecallStrict()))
	}
	fmt.Fprintln(cmd.OutOrStdout(), tb.String())
	return nil
}
