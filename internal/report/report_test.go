package report

import (
	"context"
	"strings"
	"testing"

	"tageval/internal/annotation"
	"tageval/internal/corpus"
	"tageval/internal/evaluate"
	"tageval/internal/format"
)

func ann(start, end int64, typ string, kv ...any) annotation.Annotation {
	a := annotation.Annotation{Start: start, End: end, Type: typ}
	if len(kv) > 0 {
		a.Features = annotation.Features{}
		for i := 0; i+1 < len(kv); i += 2 {
			a.Features[kv[i].(string)] = kv[i+1]
		}
	}
	return a
}

func evaluated(t *testing.T, cfg evaluate.Config) *evaluate.Result {
	t.Helper()
	c := &corpus.Corpus{Documents: []corpus.Document{{
		Name: "d1",
		Sets: map[string][]annotation.Annotation{
			"key": {
				ann(0, 4, "Person", "id", "p1"),
				ann(10, 15, "Person", "id", "p2"),
			},
			"response": {
				ann(0, 4, "Person", "id", "p1", "conf", 0.9),
				ann(10, 15, "Person", "id", "nope", "conf", 0.4),
				ann(20, 24, "Person", "id", "p9", "conf", 0.2),
			},
		},
	}}}
	res, err := evaluate.Run(context.Background(), c, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

func TestWriteTSV(t *testing.T) {
	res := evaluated(t, evaluate.Config{
		EvaluationID: "run-1",
		Features:     []string{"id"},
		ScoreFeature: "conf",
	})

	var buf strings.Builder
	if err := WriteTSV(&buf, res); err != nil {
		t.Fatalf("WriteTSV: %v", err)
	}
	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	if !strings.HasPrefix(lines[0], "evaluationId\tdocName\tsetName\tannotationType\tthreshold\t") {
		t.Fatalf("header = %q", lines[0])
	}
	cols := strings.Split(lines[0], "\t")
	for i, line := range lines[1:] {
		if got := len(strings.Split(line, "\t")); got != len(cols) {
			t.Fatalf("row %d has %d fields, want %d: %q", i+1, got, len(cols), line)
		}
	}

	// One per-doc row, the corpus per-type total, the cross-type total, and
	// curve rows for the three observed scores on both curves.
	if !strings.Contains(out, "run-1\td1\tresponse\tPerson\tNaN\t2\t3\t1\t") {
		t.Errorf("missing per-document row:\n%s", out)
	}
	if !strings.Contains(out, "run-1\t[doc:all:micro]\tresponse\tPerson\tNaN\t") {
		t.Errorf("missing per-type total row:\n%s", out)
	}
	if !strings.Contains(out, "run-1\t[doc:all:micro]\tresponse\t[type:all:micro]\tNaN\t") {
		t.Errorf("missing cross-type total row:\n%s", out)
	}
	if !strings.Contains(out, "\tPerson\t0.9\t2\t1\t1\t") {
		t.Errorf("missing threshold 0.9 curve row:\n%s", out)
	}
}

func TestWriteTSVWithoutCurves(t *testing.T) {
	res := evaluated(t, evaluate.Config{Features: []string{"id"}})

	var buf strings.Builder
	if err := WriteTSV(&buf, res); err != nil {
		t.Fatalf("WriteTSV: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	// Header, one doc row, one type total, one cross-type total.
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), buf.String())
	}
}

func TestWriteIndicatorTSV(t *testing.T) {
	res := evaluated(t, evaluate.Config{EvaluationID: "run-1", Features: []string{"id"}})

	var buf strings.Builder
	if err := WriteIndicatorTSV(&buf, res); err != nil {
		t.Fatalf("WriteIndicatorTSV: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "run-1\td1\tresponse\tPerson_CS\t0\t4\n") {
		t.Errorf("missing correct-strict indicator:\n%s", out)
	}
	if !strings.Contains(out, "run-1\td1\tresponse\tPerson_IS\t10\t15\n") {
		t.Errorf("missing incorrect-strict indicator:\n%s", out)
	}
	if !strings.Contains(out, "run-1\td1\tresponse\tPerson_SL\t20\t24\n") {
		t.Errorf("missing spurious indicator:\n%s", out)
	}
	if strings.Contains(out, "_ML") {
		t.Errorf("unexpected missing indicator, every target was matched:\n%s", out)
	}
}

func TestWriteRankTSV(t *testing.T) {
	c := &corpus.Corpus{Documents: []corpus.Document{{
		Name: "d",
		Sets: map[string][]annotation.Annotation{
			"key": {ann(0, 4, "Person", "id", "p1")},
			"response": {
				ann(0, 4, "Person", "id", "nope", "rank", 0),
				ann(0, 4, "Person", "id", "p1", "rank", 1),
			},
		},
	}}}
	res, err := evaluate.Run(context.Background(), c, evaluate.Config{
		Features:    []string{"id"},
		RankFeature: "rank",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var buf strings.Builder
	if err := WriteRankTSV(&buf, res); err != nil {
		t.Fatalf("WriteRankTSV: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "\trank\t") {
		t.Fatalf("header missing rank column:\n%s", out)
	}
	if !strings.Contains(out, "\tPerson\t0\t1\t1\t0\t") {
		t.Errorf("missing rank-0 row:\n%s", out)
	}
	if !strings.Contains(out, "\tPerson\t1\t1\t2\t1\t") {
		t.Errorf("missing rank-1 row:\n%s", out)
	}
}

func TestSummaryTable(t *testing.T) {
	res := evaluated(t, evaluate.Config{Features: []string{"id"}})

	ascii := SummaryTable(res, format.ASCII)
	if !strings.Contains(ascii, "Person") {
		t.Errorf("ASCII summary missing type row:\n%s", ascii)
	}
	if !strings.Contains(ascii, "0.3333") {
		// 1 correct of 3 responses.
		t.Errorf("ASCII summary missing strict precision:\n%s", ascii)
	}

	md := SummaryTable(res, format.Markdown)
	if !strings.Contains(md, "|") {
		t.Errorf("Markdown summary not a table:\n%s", md)
	}
}

func TestCurveTable(t *testing.T) {
	res := evaluated(t, evaluate.Config{
		Features:     []string{"id"},
		ScoreFeature: "conf",
	})
	out := CurveTable(res.Curves["Person"], 1, format.ASCII)
	if !strings.Contains(out, "0.90") || !strings.Contains(out, "0.20") {
		t.Errorf("curve table missing threshold rows:\n%s", out)
	}
}
