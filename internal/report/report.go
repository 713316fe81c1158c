// Package report renders completed evaluations: tab-separated files for
// downstream tooling and go-pretty tables for the terminal.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"tageval/internal/annotation"
	"tageval/internal/diff"
	"tageval/internal/evaluate"
	"tageval/internal/format"
	"tageval/internal/stats"
)

// tsvColumns is the fixed column set of the statistics TSV. The fifth column
// holds the confidence threshold for curve rows and NaN for plain rows.
var tsvColumns = []string{
	"evaluationId", "docName", "setName", "annotationType", "threshold",
	"targets", "responses",
	"correctStrict", "correctPartial", "incorrectStrict", "incorrectPartial",
	"missingLenient", "spuriousLenient",
	"trueMissingStrict", "trueMissingLenient",
	"trueSpuriousStrict", "trueSpuriousLenient",
	"precisionStrict", "recallStrict", "fStrict",
	"precisionLenient", "recallLenient", "fLenient",
	"precisionAverage", "recallAverage", "fAverage",
	"singleCorrectStrict", "singleCorrectPartial",
}

// WriteTSV writes the full statistics table: one row per (document, type),
// per-document micro rows, corpus totals per type, the cross-type total, and
// one row per threshold bucket for every curve.
func WriteTSV(w io.Writer, res *evaluate.Result) error {
	buf := &strings.Builder{}
	buf.WriteString(strings.Join(tsvColumns, "\t"))
	buf.WriteByte('\n')

	id := res.Config.EvaluationID
	set := res.Config.ResponseSet

	for _, row := range res.Rows {
		statLine(buf, id, row.Doc, set, row.Type, "NaN", row.Stats, res.Config.Beta)
	}
	for _, t := range res.Types {
		statLine(buf, id, evaluate.AllDocs, set, t, "NaN", res.TypeTotals[t], res.Config.Beta)
	}
	statLine(buf, id, evaluate.AllDocs, set, evaluate.AllTypes, "NaN", res.Total, res.Config.Beta)

	for _, t := range append(append([]string{}, res.Types...), evaluate.AllTypes) {
		curve := res.Curves[t]
		if curve == nil {
			continue
		}
		for _, th := range curve.Thresholds() {
			b, _ := curve.Get(th)
			statLine(buf, id, evaluate.AllDocs, set, t, formatFloat(th), b, res.Config.Beta)
		}
	}

	_, err := io.WriteString(w, buf.String())
	return err
}

// WriteRankTSV writes the rank-curve table, one row per (type, rank) bucket.
func WriteRankTSV(w io.Writer, res *evaluate.Result) error {
	buf := &strings.Builder{}
	cols := append([]string{}, tsvColumns...)
	cols[4] = "rank"
	buf.WriteString(strings.Join(cols, "\t"))
	buf.WriteByte('\n')

	id := res.Config.EvaluationID
	set := res.Config.ResponseSet
	for _, t := range append(append([]string{}, res.Types...), evaluate.AllTypes) {
		curve := res.RankCurves[t]
		if curve == nil {
			continue
		}
		for _, k := range curve.Ranks() {
			b, _ := curve.Get(k)
			statLine(buf, id, evaluate.AllDocs, set, t, strconv.Itoa(k), b, res.Config.Beta)
		}
	}

	_, err := io.WriteString(w, buf.String())
	return err
}

func statLine(buf *strings.Builder, id, doc, set, typ, threshold string, s stats.EvalStats, beta float64) {
	fields := []string{
		id, doc, set, typ, threshold,
		strconv.Itoa(s.Targets), strconv.Itoa(s.Responses),
		strconv.Itoa(s.CorrectStrict), strconv.Itoa(s.CorrectPartial),
		strconv.Itoa(s.IncorrectStrict), strconv.Itoa(s.IncorrectPartial),
		strconv.Itoa(s.MissingLenient()), strconv.Itoa(s.SpuriousLenient()),
		strconv.Itoa(s.TrueMissingStrict()), strconv.Itoa(s.TrueMissingLenient()),
		strconv.Itoa(s.TrueSpuriousStrict()), strconv.Itoa(s.TrueSpuriousLenient()),
		formatFloat(s.PrecisionStrict()), formatFloat(s.RecallStrict()), formatFloat(s.FMeasureStrict(beta)),
		formatFloat(s.PrecisionLenient()), formatFloat(s.RecallLenient()), formatFloat(s.FMeasureLenient(beta)),
		formatFloat(s.PrecisionAverage()), formatFloat(s.RecallAverage()), formatFloat(s.FMeasureAverage(beta)),
		strconv.Itoa(s.SingleCorrectStrict), strconv.Itoa(s.SingleCorrectPartial),
	}
	buf.WriteString(strings.Join(fields, "\t"))
	buf.WriteByte('\n')
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteIndicatorTSV writes one row per classified annotation, tagging its
// type with the bucket suffix (_CS, _CP, _IS, _IP, _ML, _SL) so callers can
// materialize which item fell where.
func WriteIndicatorTSV(w io.Writer, res *evaluate.Result) error {
	buf := &strings.Builder{}
	buf.WriteString("evaluationId\tdocName\tsetName\tannotationType\tstart\tend\n")

	id := res.Config.EvaluationID
	for _, row := range res.Rows {
		if row.Diff == nil {
			continue
		}
		d := row.Diff
		writeIndicators(buf, id, row, res.Config.ResponseSet, diff.SuffixCorrectStrict, d.CorrectStrict, row.Responses)
		writeIndicators(buf, id, row, res.Config.ResponseSet, diff.SuffixCorrectPartial, d.CorrectPartial, row.Responses)
		writeIndicators(buf, id, row, res.Config.ResponseSet, diff.SuffixIncorrectStrict, d.IncorrectStrict, row.Responses)
		writeIndicators(buf, id, row, res.Config.ResponseSet, diff.SuffixIncorrectPartial, d.IncorrectPartial, row.Responses)
		writeIndicators(buf, id, row, res.Config.KeySet, diff.SuffixMissingLenient, d.Missing, row.Targets)
		writeIndicators(buf, id, row, res.Config.ResponseSet, diff.SuffixSpuriousLenient, d.Spurious, row.Responses)
	}

	_, err := io.WriteString(w, buf.String())
	return err
}

func writeIndicators(buf *strings.Builder, id string, row evaluate.Row, set, suffix string, idx []int, anns []annotation.Annotation) {
	for _, i := range idx {
		a := anns[i]
		fmt.Fprintf(buf, "%s\t%s\t%s\t%s%s\t%d\t%d\n", id, row.Doc, set, row.Type, suffix, a.Start, a.End)
	}
}

// SummaryTable renders the per-type corpus totals plus the micro total as a
// terminal table.
func SummaryTable(res *evaluate.Result, mode format.Mode) string {
	tb := format.NewTable(mode)
	tb.Header("Type", "Targets", "Responses", "CS", "CP", "IS", "IP", "Missing", "Spurious",
		"P(strict)", "R(strict)", "F(strict)", "P(lenient)", "R(lenient)", "F(lenient)")
	for _, t := range res.Types {
		s := res.TypeTotals[t]
		tb.Row(summaryRow(t, s, res.Config.Beta)...)
	}
	tb.Footer(summaryRow(evaluate.AllTypes, res.Total, res.Config.Beta)...)
	tb.Columns(numericColumns(15)...)
	return tb.String()
}

// CurveTable renders one threshold curve as a terminal table.
func CurveTable(curve *stats.ThresholdCurve, beta float64, mode format.Mode) string {
	tb := format.NewTable(mode)
	tb.Header("Threshold", "Targets", "Responses", "CS", "CP",
		"P(strict)", "R(strict)", "F(strict)", "P(lenient)", "R(lenient)", "F(lenient)")
	for _, th := range curve.Thresholds() {
		s, _ := curve.Get(th)
		tb.Row(fmt.Sprintf("%.2f", th), s.Targets, s.Responses, s.CorrectStrict, s.CorrectPartial,
			measure(s.PrecisionStrict()), measure(s.RecallStrict()), measure(s.FMeasureStrict(beta)),
			measure(s.PrecisionLenient()), measure(s.RecallLenient()), measure(s.FMeasureLenient(beta)))
	}
	tb.Columns(numericColumns(11)...)
	return tb.String()
}

// RankTable renders one rank curve as a terminal table.
func RankTable(curve *stats.RankCurve, beta float64, mode format.Mode) string {
	tb := format.NewTable(mode)
	tb.Header("Rank", "Targets", "Responses", "CS", "CP",
		"P(strict)", "R(strict)", "F(strict)", "P(lenient)", "R(lenient)", "F(lenient)")
	for _, k := range curve.Ranks() {
		s, _ := curve.Get(k)
		tb.Row(k, s.Targets, s.Responses, s.CorrectStrict, s.CorrectPartial,
			measure(s.PrecisionStrict()), measure(s.RecallStrict()), measure(s.FMeasureStrict(beta)),
			measure(s.PrecisionLenient()), measure(s.RecallLenient()), measure(s.FMeasureLenient(beta)))
	}
	tb.Columns(numericColumns(11)...)
	return tb.String()
}

func summaryRow(t string, s stats.EvalStats, beta float64) []any {
	return []any{
		t, s.Targets, s.Responses,
		s.CorrectStrict, s.CorrectPartial, s.IncorrectStrict, s.IncorrectPartial,
		s.MissingLenient(), s.SpuriousLenient(),
		measure(s.PrecisionStrict()), measure(s.RecallStrict()), measure(s.FMeasureStrict(beta)),
		measure(s.PrecisionLenient()), measure(s.RecallLenient()), measure(s.FMeasureLenient(beta)),
	}
}

func measure(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

func numericColumns(n int) []format.ColumnConfig {
	cfgs := make([]format.ColumnConfig, 0, n-1)
	for i := 2; i <= n; i++ {
		cfgs = append(cfgs, format.ColumnConfig{Number: i, Align: format.AlignRight})
	}
	return cfgs
}
