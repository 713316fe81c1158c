package store

import (
	"context"
	"path/filepath"
	"testing"

	"tageval/internal/annotation"
	"tageval/internal/corpus"
	"tageval/internal/evaluate"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "tageval.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

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

func sampleResult(t *testing.T) *evaluate.Result {
	t.Helper()
	c := &corpus.Corpus{Documents: []corpus.Document{{
		Name: "d1",
		Sets: map[string][]annotation.Annotation{
			"key": {ann(0, 4, "Person", "id", "p1")},
			"response": {
				ann(0, 4, "Person", "id", "p1", "conf", 0.9),
				ann(8, 12, "Person", "id", "p2", "conf", 0.4),
			},
		},
	}}}
	res, err := evaluate.Run(context.Background(), c, evaluate.Config{
		EvaluationID: "run-x",
		Features:     []string{"id"},
		ScoreFeature: "conf",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tageval.db")
	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	_ = s2.Close()
}

func TestSaveAndLoadRun(t *testing.T) {
	s := openTestStore(t)
	res := sampleResult(t)

	runID, err := s.SaveRun("corpus/dir", res)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if runID == 0 {
		t.Fatal("runID = 0")
	}

	run, err := s.GetRun(runID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run == nil {
		t.Fatal("run not found")
	}
	if run.EvaluationID != "run-x" || run.Corpus != "corpus/dir" {
		t.Errorf("run = %+v", run)
	}
	if run.Config.ScoreFeature != "conf" || len(run.Config.Features) != 1 {
		t.Errorf("config round trip = %+v", run.Config)
	}
	if run.CreatedAt == "" {
		t.Error("missing created_at")
	}

	statRows, err := s.RunStats(runID)
	if err != nil {
		t.Fatalf("RunStats: %v", err)
	}
	// One document row, the per-type total, the cross-type total.
	if len(statRows) != 3 {
		t.Fatalf("got %d stat rows, want 3: %+v", len(statRows), statRows)
	}
	total := statRows[len(statRows)-1]
	if total.DocName != evaluate.AllDocs || total.AnnotationType != evaluate.AllTypes {
		t.Errorf("last row = %+v, want aggregate sentinels", total)
	}
	if total.Stats != res.Total {
		t.Errorf("total = %+v, want %+v", total.Stats, res.Total)
	}
}

func TestRunCurveRoundTrip(t *testing.T) {
	s := openTestStore(t)
	res := sampleResult(t)

	runID, err := s.SaveRun("corpus", res)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	points, err := s.RunCurve(runID, "Person", CurveThreshold)
	if err != nil {
		t.Fatalf("RunCurve: %v", err)
	}
	want := res.Curves["Person"]
	if len(points) != want.Len() {
		t.Fatalf("got %d points, want %d", len(points), want.Len())
	}
	for i, th := range want.Thresholds() {
		b, _ := want.Get(th)
		if points[i].Cutoff != th || points[i].Stats != b {
			t.Errorf("point %d = %+v, want cutoff %v stats %+v", i, points[i], th, b)
		}
	}

	if pts, err := s.RunCurve(runID, "Person", CurveRank); err != nil || len(pts) != 0 {
		t.Errorf("rank points = %v, %v; want none", pts, err)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	res := sampleResult(t)

	first, err := s.SaveRun("a", res)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	second, err := s.SaveRun("b", res)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	runs, err := s.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != second || runs[1].ID != first {
		t.Errorf("runs = %+v, want newest first", runs)
	}
}

func TestGetRunMissing(t *testing.T) {
	s := openTestStore(t)
	run, err := s.GetRun(12345)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run != nil {
		t.Errorf("run = %+v, want nil", run)
	}
}
