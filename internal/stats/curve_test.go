package stats

import (
	"errors"
	"testing"
)

// perfectDoc simulates a document whose responses all match correctly, each
// carrying one of the given confidence scores.
func perfectDoc(targets int, scores ...float64) CompareAtThreshold {
	return func(th float64) (EvalStats, error) {
		s := EvalStats{Targets: targets}
		for _, sc := range scores {
			if sc >= th {
				s.Responses++
				s.CorrectStrict++
			}
		}
		return s, nil
	}
}

func TestThresholdCurveFoldSingleDocument(t *testing.T) {
	c := NewThresholdCurve()
	if err := c.Fold([]float64{0.9, 0.5}, perfectDoc(2, 0.9, 0.5)); err != nil {
		t.Fatalf("Fold: %v", err)
	}

	if got := c.Thresholds(); len(got) != 2 || got[0] != 0.5 || got[1] != 0.9 {
		t.Fatalf("Thresholds = %v, want [0.5 0.9]", got)
	}

	high, ok := c.Get(0.9)
	if !ok || high.Responses != 1 || high.CorrectStrict != 1 || high.Targets != 2 {
		t.Errorf("bucket 0.9 = %+v, want T=2 R=1 CS=1", high)
	}
	low, ok := c.Get(0.5)
	if !ok || low.Responses != 2 || low.CorrectStrict != 2 {
		t.Errorf("bucket 0.5 = %+v, want R=2 CS=2", low)
	}
}

func TestThresholdCurveStepFunction(t *testing.T) {
	c := NewThresholdCurve()
	if err := c.Fold([]float64{0.9, 0.5}, perfectDoc(2, 0.9, 0.5)); err != nil {
		t.Fatalf("Fold: %v", err)
	}

	// Between buckets the nearest higher bucket governs.
	mid, ok := c.At(0.7)
	if !ok || mid.Responses != 1 {
		t.Errorf("At(0.7) = %+v ok=%v, want the 0.9 bucket", mid, ok)
	}
	exact, ok := c.At(0.5)
	if !ok || exact.Responses != 2 {
		t.Errorf("At(0.5) = %+v ok=%v, want the 0.5 bucket", exact, ok)
	}
	if _, ok := c.At(0.95); ok {
		t.Error("At above the highest bucket should report false")
	}
}

func TestThresholdCurveFoldTwoDocuments(t *testing.T) {
	c := NewThresholdCurve()
	if err := c.Fold([]float64{0.9, 0.5}, perfectDoc(2, 0.9, 0.5)); err != nil {
		t.Fatalf("Fold A: %v", err)
	}
	if err := c.Fold([]float64{0.7}, perfectDoc(1, 0.7)); err != nil {
		t.Fatalf("Fold B: %v", err)
	}

	// The new 0.7 bucket must inherit the first document's 0.9-level stats
	// before the second document's counts land.
	mid, ok := c.Get(0.7)
	if !ok {
		t.Fatal("bucket 0.7 missing")
	}
	if mid.Targets != 3 || mid.Responses != 2 || mid.CorrectStrict != 2 {
		t.Errorf("bucket 0.7 = %+v, want T=3 R=2 CS=2", mid)
	}

	low, _ := c.Get(0.5)
	if low.Targets != 3 || low.Responses != 3 || low.CorrectStrict != 3 {
		t.Errorf("bucket 0.5 = %+v, want T=3 R=3 CS=3", low)
	}
	high, _ := c.Get(0.9)
	if high.Targets != 2 || high.Responses != 1 {
		t.Errorf("bucket 0.9 = %+v, want the first document only", high)
	}
}

func TestThresholdCurveSeed(t *testing.T) {
	c := NewThresholdCurve()
	c.Seed(0, 0.25, 0.5, 0.75, 1)
	if c.Len() != 5 {
		t.Fatalf("Len = %d, want 5", c.Len())
	}

	if err := c.Fold([]float64{0.6}, perfectDoc(1, 0.6)); err != nil {
		t.Fatalf("Fold: %v", err)
	}

	// Seeds at or below the document's score receive its stats; seeds above
	// it stay empty.
	for _, th := range []float64{0, 0.25, 0.5} {
		b, _ := c.Get(th)
		if b.Responses != 1 || b.CorrectStrict != 1 {
			t.Errorf("seed %v = %+v, want R=1 CS=1", th, b)
		}
	}
	for _, th := range []float64{0.75, 1} {
		b, _ := c.Get(th)
		if b != (EvalStats{}) {
			t.Errorf("seed %v = %+v, want empty", th, b)
		}
	}
}

func TestThresholdCurveFoldCallsOncePerDistinctScore(t *testing.T) {
	c := NewThresholdCurve()
	c.Seed(0, 0.2, 0.4, 0.6, 0.8, 1)

	calls := 0
	compare := func(th float64) (EvalStats, error) {
		calls++
		return perfectDoc(3, 0.9, 0.5, 0.5, 0.3)(th)
	}
	if err := c.Fold([]float64{0.9, 0.5, 0.5, 0.3}, compare); err != nil {
		t.Fatalf("Fold: %v", err)
	}
	if calls != 3 {
		t.Errorf("compare called %d times, want once per distinct score (3)", calls)
	}
}

func TestThresholdCurveFoldError(t *testing.T) {
	boom := errors.New("boom")
	c := NewThresholdCurve()
	err := c.Fold([]float64{0.5}, func(float64) (EvalStats, error) {
		return EvalStats{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
}

func TestThresholdCurveFoldEmpty(t *testing.T) {
	c := NewThresholdCurve()
	if err := c.Fold(nil, perfectDoc(1)); err != nil {
		t.Fatalf("Fold: %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestThresholdCurveMerge(t *testing.T) {
	a := NewThresholdCurve()
	if err := a.Fold([]float64{0.8}, perfectDoc(1, 0.8)); err != nil {
		t.Fatalf("Fold a: %v", err)
	}
	b := NewThresholdCurve()
	if err := b.Fold([]float64{0.4}, perfectDoc(2, 0.4)); err != nil {
		t.Fatalf("Fold b: %v", err)
	}

	a.Merge(b)

	high, _ := a.Get(0.8)
	if high.Targets != 1 || high.Responses != 1 {
		t.Errorf("merged 0.8 = %+v, want only the first curve", high)
	}
	low, _ := a.Get(0.4)
	if low.Targets != 3 || low.Responses != 2 || low.CorrectStrict != 2 {
		t.Errorf("merged 0.4 = %+v, want T=3 R=2 CS=2", low)
	}
}

// perfectList simulates a candidate list whose entries carry the given ranks
// and all match correctly.
func perfectList(targets int, ranks ...int) CompareAtRank {
	return func(k int) (EvalStats, error) {
		s := EvalStats{Targets: targets}
		for _, r := range ranks {
			if r <= k {
				s.Responses++
				s.CorrectStrict++
			}
		}
		return s, nil
	}
}

func TestRankCurveFold(t *testing.T) {
	c := NewRankCurve()
	if err := c.Fold([]int{0, 1, 2}, perfectList(3, 0, 1, 2)); err != nil {
		t.Fatalf("Fold: %v", err)
	}

	if got := c.Ranks(); len(got) != 3 || got[0] != 0 || got[2] != 2 {
		t.Fatalf("Ranks = %v, want [0 1 2]", got)
	}
	for k := 0; k <= 2; k++ {
		b, _ := c.Get(k)
		if b.Responses != k+1 || b.CorrectStrict != k+1 {
			t.Errorf("rank %d = %+v, want cumulative R=CS=%d", k, b, k+1)
		}
	}

	// Step function extends upward, not downward.
	above, ok := c.At(10)
	if !ok || above.Responses != 3 {
		t.Errorf("At(10) = %+v ok=%v, want the rank-2 bucket", above, ok)
	}
	if _, ok := c.At(-1); ok {
		t.Error("At below the lowest bucket should report false")
	}
}

func TestRankCurveFoldTwoLists(t *testing.T) {
	c := NewRankCurve()
	if err := c.Fold([]int{0, 1}, perfectList(2, 0, 1)); err != nil {
		t.Fatalf("Fold A: %v", err)
	}
	if err := c.Fold([]int{0}, perfectList(1, 0)); err != nil {
		t.Fatalf("Fold B: %v", err)
	}

	first, _ := c.Get(0)
	if first.Targets != 3 || first.Responses != 2 {
		t.Errorf("rank 0 = %+v, want T=3 R=2", first)
	}
	// The second list has no rank-1 entry; its rank-0 stats keep governing.
	second, _ := c.Get(1)
	if second.Targets != 3 || second.Responses != 3 || second.CorrectStrict != 3 {
		t.Errorf("rank 1 = %+v, want T=3 R=3 CS=3", second)
	}
}

func TestRankCurveMerge(t *testing.T) {
	a := NewRankCurve()
	if err := a.Fold([]int{0}, perfectList(1, 0)); err != nil {
		t.Fatalf("Fold a: %v", err)
	}
	b := NewRankCurve()
	if err := b.Fold([]int{0, 1}, perfectList(2, 0, 1)); err != nil {
		t.Fatalf("Fold b: %v", err)
	}

	a.Merge(b)

	first, _ := a.Get(0)
	if first.Targets != 3 || first.Responses != 2 {
		t.Errorf("merged rank 0 = %+v, want T=3 R=2", first)
	}
	second, _ := a.Get(1)
	if second.Targets != 3 || second.Responses != 3 {
		t.Errorf("merged rank 1 = %+v, want T=3 R=3", second)
	}
}
