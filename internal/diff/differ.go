// Package diff reconciles a target (gold standard) annotation collection with
// a response collection, producing the classification buckets and counters
// behind precision/recall/F statistics.
//
// Matching follows the classic greedy pairing scheme: every structurally
// possible (target, response) pair is classified on a value lattice, each
// candidate is scored as its own value minus the values of every candidate it
// conflicts with, and candidates are then consumed best-first, each selection
// foreclosing all alternatives for both endpoints. The heuristic is not an
// exact maximum-weight matching; its deterministic tie-breaks are part of the
// contract and downstream consumers depend on them.
package diff

import (
	"fmt"
	"slices"

	"tageval/internal/annotation"
	"tageval/internal/stats"
)

// Options configures one comparison.
type Options struct {
	// Features selects which feature names must agree. The zero value treats
	// every feature as significant.
	Features annotation.FeatureSelector
	// Equals overrides the feature-value equivalence. Nil means strict
	// equality with numeric widening.
	Equals annotation.ValueEquals
	// ScoreFeature names the confidence feature on responses. Required for
	// CompareAt and for score extraction; ignored by Compare.
	ScoreFeature string
}

// Result is one completed comparison: the finalized pairing set, the six
// classification buckets as indices into the caller's input slices, and the
// counter set. No annotations are copied.
type Result struct {
	Stats stats.EvalStats

	// Pairings lists every finalized pairing: resolved matches in selection
	// order, then missing targets, then spurious responses.
	Pairings []Pairing

	CorrectStrict    []int // response indices with a strict correct match
	CorrectPartial   []int // response indices with a partial correct match
	IncorrectStrict  []int // response indices coextensive with an incompatible target
	IncorrectPartial []int // response indices overlapping an incompatible target
	Missing          []int // target indices with no surviving pairing
	Spurious         []int // response indices with no surviving pairing
}

// Compare reconciles targets against responses without a confidence filter.
// All responses participate and single-correct counts are computed.
func Compare(targets, responses []annotation.Annotation, opts Options) (*Result, error) {
	return run(targets, responses, opts, nil, true)
}

// CompareAt reconciles targets against only the responses whose confidence
// feature is at or above threshold. Every response must carry the score
// feature, present and numeric, or the call fails; responses below the
// threshold are excluded from the universe rather than counted spurious.
// Single-correct counts are not computed under a threshold.
func CompareAt(targets, responses []annotation.Annotation, opts Options, threshold float64) (*Result, error) {
	scores, err := ResponseScores(responses, opts.ScoreFeature)
	if err != nil {
		return nil, err
	}
	kept, keptIdx := filterResponses(responses, func(j int) bool { return scores[j] >= threshold })
	return run(targets, kept, opts, keptIdx, false)
}

// CompareAtRank reconciles targets against only the responses whose integer
// rank feature is at or below rank, for cumulative candidate-list evaluation.
func CompareAtRank(targets, responses []annotation.Annotation, opts Options, rankFeature string, rank int) (*Result, error) {
	ranks, err := ResponseRanks(responses, rankFeature)
	if err != nil {
		return nil, err
	}
	kept, keptIdx := filterResponses(responses, func(j int) bool { return ranks[j] <= rank })
	return run(targets, kept, opts, keptIdx, false)
}

// ResponseScores extracts the confidence score of every response. A missing
// feature yields ErrMissingScoreFeature, a non-numeric one
// ErrInvalidFeatureValue.
func ResponseScores(responses []annotation.Annotation, feature string) ([]float64, error) {
	out := make([]float64, len(responses))
	for j, r := range responses {
		f, present, err := annotation.FeatureFloat(r, feature)
		if err != nil {
			return nil, fmt.Errorf("response %d: %v: %w", j, err, ErrInvalidFeatureValue)
		}
		if !present {
			return nil, fmt.Errorf("response %d [%d,%d): %w %q",
				j, r.Start, r.End, ErrMissingScoreFeature, feature)
		}
		out[j] = f
	}
	return out, nil
}

// ResponseRanks extracts the integer rank of every response.
func ResponseRanks(responses []annotation.Annotation, feature string) ([]int, error) {
	out := make([]int, len(responses))
	for j, r := range responses {
		n, present, err := annotation.FeatureInt(r, feature)
		if err != nil {
			return nil, fmt.Errorf("response %d: %v: %w", j, err, ErrInvalidFeatureValue)
		}
		if !present {
			return nil, fmt.Errorf("response %d [%d,%d): %w %q",
				j, r.Start, r.End, ErrMissingScoreFeature, feature)
		}
		out[j] = n
	}
	return out, nil
}

func filterResponses(responses []annotation.Annotation, keep func(int) bool) ([]annotation.Annotation, []int) {
	var kept []annotation.Annotation
	var idx []int
	for j := range responses {
		if keep(j) {
			kept = append(kept, responses[j])
			idx = append(idx, j)
		}
	}
	return kept, idx
}

// candidate is one arena entry in the pairing graph. Consumption marks
// entries dead in the alive bitmask instead of removing them from shared
// adjacency lists.
type candidate struct {
	target   int
	response int
	value    Value
	score    int
}

// run executes the full pipeline: graph build, greedy resolution,
// classification and counting. respIdx maps the (possibly filtered) response
// slice back to the caller's original indices; nil means identity.
func run(targets, responses []annotation.Annotation, opts Options, respIdx []int, withSingles bool) (*Result, error) {
	var cands []candidate
	byTarget := make([][]int, len(targets))
	byResponse := make([][]int, len(responses))

	for i := range targets {
		for j := range responses {
			rel := targets[i].Relate(responses[j])
			if rel == annotation.Disjoint {
				continue
			}
			compatible := annotation.Compatible(targets[i], responses[j], opts.Features, opts.Equals)
			var v Value
			switch {
			case rel == annotation.Coextensive && compatible:
				v = ValueCorrect
			case rel == annotation.Coextensive:
				v = ValueMismatch
			case compatible:
				v = ValuePartialCorrect
			default:
				v = ValueWrong
			}
			id := len(cands)
			cands = append(cands, candidate{target: i, response: j, value: v})
			byTarget[i] = append(byTarget[i], id)
			byResponse[j] = append(byResponse[j], id)
		}
	}

	// Score every candidate against the complete graph before any selection:
	// value minus the values of all conflicting candidates. A conflict shares
	// the target or the response; no candidate can share both.
	sumT := make([]int, len(targets))
	sumR := make([]int, len(responses))
	for _, c := range cands {
		sumT[c.target] += int(c.value)
		sumR[c.response] += int(c.value)
	}
	for id := range cands {
		c := &cands[id]
		c.score = 3*int(c.value) - sumT[c.target] - sumR[c.response]
	}

	// Highest score first; ties prefer the better match value, then build
	// order for full determinism.
	order := make([]int, len(cands))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		if d := cands[b].score - cands[a].score; d != 0 {
			return d
		}
		if d := int(cands[b].value) - int(cands[a].value); d != 0 {
			return d
		}
		return a - b
	})

	alive := make([]bool, len(cands))
	for i := range alive {
		alive[i] = true
	}
	chosenT := make([]int, len(targets))
	chosenR := make([]int, len(responses))
	for i := range chosenT {
		chosenT[i] = -1
	}
	for j := range chosenR {
		chosenR[j] = -1
	}

	var resolved []int
	for _, id := range order {
		if !alive[id] {
			continue
		}
		c := cands[id]
		resolved = append(resolved, id)
		chosenT[c.target] = id
		chosenR[c.response] = id
		// Consume: every other candidate touching either endpoint is dead.
		for _, o := range byTarget[c.target] {
			alive[o] = false
		}
		for _, o := range byResponse[c.response] {
			alive[o] = false
		}
	}

	if err := verifyReciprocity(cands, resolved, chosenT, chosenR); err != nil {
		return nil, err
	}

	ridx := func(j int) int {
		if respIdx != nil {
			return respIdx[j]
		}
		return j
	}

	res := &Result{}
	res.Stats.Targets = len(targets)
	res.Stats.Responses = len(responses)

	for _, id := range resolved {
		c := cands[id]
		p := Pairing{Target: At(c.target), Response: At(ridx(c.response)), Value: c.value, Score: c.score}
		switch c.value {
		case ValueCorrect:
			p.Kind = KindCorrect
			res.Stats.CorrectStrict++
			res.CorrectStrict = append(res.CorrectStrict, ridx(c.response))
		case ValuePartialCorrect:
			p.Kind = KindPartialCorrect
			res.Stats.CorrectPartial++
			res.CorrectPartial = append(res.CorrectPartial, ridx(c.response))
		case ValueMismatch:
			p.Kind = KindMismatch
			res.Stats.IncorrectStrict++
			res.IncorrectStrict = append(res.IncorrectStrict, ridx(c.response))
		case ValueWrong:
			p.Kind = KindMismatch
			res.Stats.IncorrectPartial++
			res.IncorrectPartial = append(res.IncorrectPartial, ridx(c.response))
		}
		res.Pairings = append(res.Pairings, p)
	}

	for i, id := range chosenT {
		if id == -1 {
			res.Missing = append(res.Missing, i)
			res.Pairings = append(res.Pairings, Pairing{Target: At(i), Response: Absent, Value: ValueWrong, Kind: KindMissing})
		}
	}
	var spuriousLocal []int
	for j, id := range chosenR {
		if id == -1 {
			spuriousLocal = append(spuriousLocal, j)
			res.Spurious = append(res.Spurious, ridx(j))
			res.Pairings = append(res.Pairings, Pairing{Target: Absent, Response: At(ridx(j)), Value: ValueWrong, Kind: KindSpurious})
		}
	}

	// Single-correct: a correct match whose target overlaps no spurious
	// response would have been uniquely identified even without ranking.
	// Meaningless once a confidence filter partitions the response universe,
	// so only computed for unfiltered comparisons.
	if withSingles {
		for _, id := range resolved {
			c := cands[id]
			if c.value != ValueCorrect && c.value != ValuePartialCorrect {
				continue
			}
			t := targets[c.target]
			overlapped := false
			for _, sj := range spuriousLocal {
				if t.Overlaps(responses[sj]) {
					overlapped = true
					break
				}
			}
			if overlapped {
				continue
			}
			if c.value == ValueCorrect {
				res.Stats.SingleCorrectStrict++
			} else {
				res.Stats.SingleCorrectPartial++
			}
		}
	}

	return res, nil
}

// verifyReciprocity checks the resolver contract: every endpoint retains at
// most one surviving pairing, and the survivor recorded for a target names a
// response whose survivor is the same pairing.
func verifyReciprocity(cands []candidate, resolved []int, chosenT, chosenR []int) error {
	seenT := make(map[int]int, len(resolved))
	seenR := make(map[int]int, len(resolved))
	for _, id := range resolved {
		c := cands[id]
		if _, dup := seenT[c.target]; dup {
			return fmt.Errorf("target %d retained multiple pairings: %w", c.target, ErrReciprocityViolation)
		}
		if _, dup := seenR[c.response]; dup {
			return fmt.Errorf("response %d retained multiple pairings: %w", c.response, ErrReciprocityViolation)
		}
		seenT[c.target] = id
		seenR[c.response] = id
	}
	for t, id := range chosenT {
		if id == -1 {
			continue
		}
		if cands[id].target != t || chosenR[cands[id].response] != id {
			return fmt.Errorf("target %d survivor not mirrored by its response: %w", t, ErrReciprocityViolation)
		}
	}
	for r, id := range chosenR {
		if id == -1 {
			continue
		}
		if cands[id].response != r || chosenT[cands[id].target] != id {
			return fmt.Errorf("response %d survivor not mirrored by its target: %w", r, ErrReciprocityViolation)
		}
	}
	return nil
}
