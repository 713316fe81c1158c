package stats

import (
	"math"
	"testing"
)

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestDerivedCounts(t *testing.T) {
	s := EvalStats{
		Targets:          10,
		Responses:        9,
		CorrectStrict:    4,
		CorrectPartial:   2,
		IncorrectStrict:  1,
		IncorrectPartial: 1,
	}

	if got := s.CorrectLenient(); got != 6 {
		t.Errorf("CorrectLenient = %d, want 6", got)
	}
	if got := s.IncorrectLenient(); got != 2 {
		t.Errorf("IncorrectLenient = %d, want 2", got)
	}
	if got := s.MissingLenient(); got != 4 {
		t.Errorf("MissingLenient = %d, want 4", got)
	}
	if got := s.SpuriousLenient(); got != 3 {
		t.Errorf("SpuriousLenient = %d, want 3", got)
	}
	if got := s.TrueMissingLenient(); got != 2 {
		t.Errorf("TrueMissingLenient = %d, want 2", got)
	}
	if got := s.TrueSpuriousLenient(); got != 1 {
		t.Errorf("TrueSpuriousLenient = %d, want 1", got)
	}
	if got := s.TrueMissingStrict(); got != 5 {
		t.Errorf("TrueMissingStrict = %d, want 5", got)
	}
	if got := s.TrueSpuriousStrict(); got != 4 {
		t.Errorf("TrueSpuriousStrict = %d, want 4", got)
	}
}

func TestMeasures(t *testing.T) {
	s := EvalStats{
		Targets:        8,
		Responses:      10,
		CorrectStrict:  4,
		CorrectPartial: 2,
	}

	approx(t, "PrecisionStrict", s.PrecisionStrict(), 0.4)
	approx(t, "RecallStrict", s.RecallStrict(), 0.5)
	approx(t, "PrecisionLenient", s.PrecisionLenient(), 0.6)
	approx(t, "RecallLenient", s.RecallLenient(), 0.75)
	approx(t, "PrecisionAverage", s.PrecisionAverage(), 0.5)
	approx(t, "RecallAverage", s.RecallAverage(), 0.625)

	approx(t, "FMeasureStrict", s.FMeasureStrict(1), 2*0.4*0.5/0.9)
	approx(t, "FMeasureLenient", s.FMeasureLenient(1), 2*0.6*0.75/1.35)
	approx(t, "FMeasureAverage", s.FMeasureAverage(1),
		(s.FMeasureStrict(1)+s.FMeasureLenient(1))/2)
}

func TestMeasuresZeroDenominators(t *testing.T) {
	var s EvalStats
	approx(t, "PrecisionStrict", s.PrecisionStrict(), 0)
	approx(t, "RecallStrict", s.RecallStrict(), 0)
	approx(t, "FMeasureStrict", s.FMeasureStrict(1), 0)

	onlyTargets := EvalStats{Targets: 3}
	approx(t, "PrecisionStrict", onlyTargets.PrecisionStrict(), 0)
	approx(t, "RecallStrict", onlyTargets.RecallStrict(), 0)

	onlyResponses := EvalStats{Responses: 3}
	approx(t, "PrecisionStrict", onlyResponses.PrecisionStrict(), 0)
	approx(t, "RecallStrict", onlyResponses.RecallStrict(), 0)
}

func TestFMeasureBeta(t *testing.T) {
	// beta > 1 weighs recall more, beta < 1 weighs precision more.
	p, r := 0.8, 0.4
	f1 := FMeasure(1, p, r)
	f2 := FMeasure(2, p, r)
	fHalf := FMeasure(0.5, p, r)
	if !(f2 < f1 && f1 < fHalf) {
		t.Errorf("expected F2 < F1 < F0.5, got %v, %v, %v", f2, f1, fHalf)
	}
	approx(t, "F1", f1, 2*p*r/(p+r))
	approx(t, "F symmetric", FMeasure(1, r, p), f1)
}

func TestAddOrderIndependent(t *testing.T) {
	parts := []EvalStats{
		{Targets: 3, Responses: 2, CorrectStrict: 1, IncorrectStrict: 1},
		{Targets: 1, Responses: 4, CorrectPartial: 2, IncorrectPartial: 1},
		{Targets: 5, Responses: 5, CorrectStrict: 4, SingleCorrectStrict: 2, SingleCorrectPartial: 1},
	}

	var forward EvalStats
	for _, p := range parts {
		forward.Add(p)
	}
	var backward EvalStats
	for i := len(parts) - 1; i >= 0; i-- {
		backward.Add(parts[i])
	}
	if forward != backward {
		t.Errorf("Add is order dependent: %+v vs %+v", forward, backward)
	}

	if forward.Targets != 9 || forward.Responses != 11 {
		t.Errorf("totals = (%d,%d), want (9,11)", forward.Targets, forward.Responses)
	}
	if forward.CorrectStrict != 5 || forward.CorrectPartial != 2 {
		t.Errorf("correct = (%d,%d), want (5,2)", forward.CorrectStrict, forward.CorrectPartial)
	}
	if forward.SingleCorrectStrict != 2 || forward.SingleCorrectPartial != 1 {
		t.Errorf("single correct = (%d,%d), want (2,1)",
			forward.SingleCorrectStrict, forward.SingleCorrectPartial)
	}
}
