// Package stats holds the evaluation counters and the derived
// precision/recall/F measures, plus the threshold- and rank-indexed curves
// built from them. Counters are plain integers so per-document results can be
// merged into corpus totals in any order.
package stats

// EvalStats is one set of evaluation counters. It is populated once by the
// classification pass and afterwards only ever merged via Add.
type EvalStats struct {
	Targets   int `json:"targets" yaml:"targets"`
	Responses int `json:"responses" yaml:"responses"`

	CorrectStrict    int `json:"correct_strict" yaml:"correctStrict"`
	CorrectPartial   int `json:"correct_partial" yaml:"correctPartial"`
	IncorrectStrict  int `json:"incorrect_strict" yaml:"incorrectStrict"`
	IncorrectPartial int `json:"incorrect_partial" yaml:"incorrectPartial"`

	// Single-correct counts: correct matches whose target overlaps no
	// spurious response. Only populated when no confidence filter was active.
	SingleCorrectStrict  int `json:"single_correct_strict" yaml:"singleCorrectStrict"`
	SingleCorrectPartial int `json:"single_correct_partial" yaml:"singleCorrectPartial"`
}

// Add merges other into s field by field. Associative and commutative, so
// per-document stats fold into longer-lived accumulators in any order.
func (s *EvalStats) Add(other EvalStats) {
	s.Targets += other.Targets
	s.Responses += other.Responses
	s.CorrectStrict += other.CorrectStrict
	s.CorrectPartial += other.CorrectPartial
	s.IncorrectStrict += other.IncorrectStrict
	s.IncorrectPartial += other.IncorrectPartial
	s.SingleCorrectStrict += other.SingleCorrectStrict
	s.SingleCorrectPartial += other.SingleCorrectPartial
}

// CorrectLenient counts partial matches as correct.
func (s EvalStats) CorrectLenient() int { return s.CorrectStrict + s.CorrectPartial }

// IncorrectLenient is the total of strict and partial incorrect matches.
func (s EvalStats) IncorrectLenient() int { return s.IncorrectStrict + s.IncorrectPartial }

// MissingLenient counts targets without a correct or partially correct match.
func (s EvalStats) MissingLenient() int { return s.Targets - s.CorrectLenient() }

// SpuriousLenient counts responses that are not correct or partially correct.
func (s EvalStats) SpuriousLenient() int { return s.Responses - s.CorrectLenient() }

// TrueMissingLenient counts targets that were not matched to any response at
// all, not even incorrectly.
func (s EvalStats) TrueMissingLenient() int {
	return s.Targets - s.CorrectLenient() - s.IncorrectLenient()
}

// TrueSpuriousLenient counts responses that were not matched to any target.
func (s EvalStats) TrueSpuriousLenient() int {
	return s.Responses - s.CorrectLenient() - s.IncorrectLenient()
}

// TrueMissingStrict counts targets with no coextensive counterpart among the
// responses, correct or not.
func (s EvalStats) TrueMissingStrict() int {
	return s.Targets - s.CorrectStrict - s.IncorrectStrict
}

// TrueSpuriousStrict counts responses with no coextensive counterpart among
// the targets.
func (s EvalStats) TrueSpuriousStrict() int {
	return s.Responses - s.CorrectStrict - s.IncorrectStrict
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// PrecisionStrict is correctStrict / responses (0 when there are none).
func (s EvalStats) PrecisionStrict() float64 { return ratio(s.CorrectStrict, s.Responses) }

// RecallStrict is correctStrict / targets (0 when there are none).
func (s EvalStats) RecallStrict() float64 { return ratio(s.CorrectStrict, s.Targets) }

// PrecisionLenient counts partial matches as correct.
func (s EvalStats) PrecisionLenient() float64 { return ratio(s.CorrectLenient(), s.Responses) }

// RecallLenient counts partial matches as correct.
func (s EvalStats) RecallLenient() float64 { return ratio(s.CorrectLenient(), s.Targets) }

// PrecisionAverage is the arithmetic mean of the strict and lenient precision.
func (s EvalStats) PrecisionAverage() float64 {
	return (s.PrecisionStrict() + s.PrecisionLenient()) / 2
}

// RecallAverage is the arithmetic mean of the strict and lenient recall.
func (s EvalStats) RecallAverage() float64 {
	return (s.RecallStrict() + s.RecallLenient()) / 2
}

// FMeasure is the weighted harmonic mean of p and r, 0 when p+r is 0.
// beta = 1 weighs precision and recall equally.
func FMeasure(beta, p, r float64) float64 {
	b2 := beta * beta
	den := b2*p + r
	if den == 0 {
		return 0
	}
	return (1 + b2) * p * r / den
}

// FMeasureStrict applies FMeasure to the strict precision and recall.
func (s EvalStats) FMeasureStrict(beta float64) float64 {
	return FMeasure(beta, s.PrecisionStrict(), s.RecallStrict())
}

// FMeasureLenient applies FMeasure to the lenient precision and recall.
func (s EvalStats) FMeasureLenient(beta float64) float64 {
	return FMeasure(beta, s.PrecisionLenient(), s.RecallLenient())
}

// FMeasureAverage is the arithmetic mean of the strict and lenient F values.
func (s EvalStats) FMeasureAverage(beta float64) float64 {
	return (s.FMeasureStrict(beta) + s.FMeasureLenient(beta)) / 2
}
