package stats

import (
	"fmt"
	"sort"
)

// CompareAtThreshold computes one document's full EvalStats using only the
// responses whose confidence is at or above the given threshold. The curve
// never runs the matcher itself; the evaluation layer injects it.
type CompareAtThreshold func(threshold float64) (EvalStats, error)

// CompareAtRank is the rank-indexed counterpart: full EvalStats using only
// the responses whose rank is at or below the cutoff.
type CompareAtRank func(rank int) (EvalStats, error)

// ThresholdCurve is an ordered map from confidence threshold to cumulative
// EvalStats over every document folded so far. A bucket at threshold t holds
// the statistics computed with only the responses scored >= t. The curve is a
// step function: a threshold between two buckets takes the value of the
// nearest higher bucket.
//
// A curve is owned by the caller and shared across documents; Fold is the only
// mutation path. For parallel evaluation each worker owns its own curve and
// the results are combined with Merge after the workers are done.
type ThresholdCurve struct {
	keys    []float64 // ascending
	buckets map[float64]*EvalStats
}

// NewThresholdCurve returns an empty curve.
func NewThresholdCurve() *ThresholdCurve {
	return &ThresholdCurve{buckets: make(map[float64]*EvalStats)}
}

// Len returns the number of populated threshold buckets.
func (c *ThresholdCurve) Len() int { return len(c.keys) }

// Thresholds returns all populated threshold keys in ascending order.
func (c *ThresholdCurve) Thresholds() []float64 {
	out := make([]float64, len(c.keys))
	copy(out, c.keys)
	return out
}

// Get returns the bucket stored exactly at th.
func (c *ThresholdCurve) Get(th float64) (EvalStats, bool) {
	b, ok := c.buckets[th]
	if !ok {
		return EvalStats{}, false
	}
	return *b, true
}

// At evaluates the step function at th: the bucket at the smallest populated
// threshold >= th. Above the highest bucket it reports false.
func (c *ThresholdCurve) At(th float64) (EvalStats, bool) {
	i := sort.SearchFloat64s(c.keys, th)
	if i == len(c.keys) {
		return EvalStats{}, false
	}
	return *c.buckets[c.keys[i]], true
}

// Seed inserts empty buckets at the given thresholds so that exported curves
// align on preset cutoffs regardless of which scores were observed. Buckets
// already present are left alone; new ones inherit the nearest higher bucket.
func (c *ThresholdCurve) Seed(thresholds ...float64) {
	for _, th := range thresholds {
		c.ensure(th)
	}
}

// ensure returns the bucket at th, creating it from the nearest higher
// bucket's snapshot (or zero) if absent.
func (c *ThresholdCurve) ensure(th float64) *EvalStats {
	if b, ok := c.buckets[th]; ok {
		return b
	}
	b := &EvalStats{}
	if i := sort.SearchFloat64s(c.keys, th); i < len(c.keys) {
		*b = *c.buckets[c.keys[i]]
	}
	c.buckets[th] = b
	i := sort.SearchFloat64s(c.keys, th)
	c.keys = append(c.keys, 0)
	copy(c.keys[i+1:], c.keys[i:])
	c.keys[i] = th
	return b
}

// Fold adds one document's contribution to the curve. scores holds the
// document's response confidence values (duplicates allowed); compareAt is
// invoked once per distinct score, in descending order. Every existing bucket
// at or below the document's highest score receives the document's full stats
// at the smallest document score covering it; buckets above the document's
// highest score are unaffected.
func (c *ThresholdCurve) Fold(scores []float64, compareAt CompareAtThreshold) error {
	if len(scores) == 0 {
		return nil
	}
	distinct := distinctDescending(scores)

	// Materialize a bucket for every document score first, so inheritance
	// snapshots are taken before this document's counts land anywhere.
	for _, s := range distinct {
		c.ensure(s)
	}

	// Walk buckets from high to low alongside the document scores. The
	// governing score for bucket key t is the smallest document score >= t;
	// below the document's lowest score every response qualifies, so the
	// lowest score keeps governing.
	si := 0
	full, err := compareAt(distinct[0])
	if err != nil {
		return fmt.Errorf("curve fold at %v: %w", distinct[0], err)
	}
	for ki := len(c.keys) - 1; ki >= 0; ki-- {
		t := c.keys[ki]
		if t > distinct[0] {
			continue
		}
		for si+1 < len(distinct) && distinct[si+1] >= t {
			si++
			full, err = compareAt(distinct[si])
			if err != nil {
				return fmt.Errorf("curve fold at %v: %w", distinct[si], err)
			}
		}
		c.buckets[t].Add(full)
	}
	return nil
}

// Merge folds another curve's buckets into this one, evaluating the other
// curve's step function at every key of the union. Used to combine
// per-worker curves after a parallel run.
func (c *ThresholdCurve) Merge(other *ThresholdCurve) {
	for _, th := range other.keys {
		c.ensure(th)
	}
	for _, th := range c.keys {
		if es, ok := other.At(th); ok {
			c.buckets[th].Add(es)
		}
	}
}

func distinctDescending(scores []float64) []float64 {
	out := make([]float64, len(scores))
	copy(out, scores)
	sort.Sort(sort.Reverse(sort.Float64Slice(out)))
	w := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[w-1] {
			out[w] = out[i]
			w++
		}
	}
	return out[:w]
}

// RankCurve is the rank-indexed sibling of ThresholdCurve, used for
// candidate-list evaluation. A bucket at rank k holds cumulative statistics
// computed with only the responses ranked <= k, so lower ranks include fewer
// responses and the step function inherits from the nearest lower bucket.
type RankCurve struct {
	keys    []int // ascending
	buckets map[int]*EvalStats
}

// NewRankCurve returns an empty rank curve.
func NewRankCurve() *RankCurve {
	return &RankCurve{buckets: make(map[int]*EvalStats)}
}

// Len returns the number of populated rank buckets.
func (c *RankCurve) Len() int { return len(c.keys) }

// Ranks returns all populated rank keys in ascending order.
func (c *RankCurve) Ranks() []int {
	out := make([]int, len(c.keys))
	copy(out, c.keys)
	return out
}

// Get returns the bucket stored exactly at rank k.
func (c *RankCurve) Get(k int) (EvalStats, bool) {
	b, ok := c.buckets[k]
	if !ok {
		return EvalStats{}, false
	}
	return *b, true
}

// At evaluates the step function at rank k: the bucket at the largest
// populated rank <= k. Below the lowest bucket it reports false.
func (c *RankCurve) At(k int) (EvalStats, bool) {
	i := sort.SearchInts(c.keys, k+1) - 1
	if i < 0 {
		return EvalStats{}, false
	}
	return *c.buckets[c.keys[i]], true
}

func (c *RankCurve) ensure(k int) *EvalStats {
	if b, ok := c.buckets[k]; ok {
		return b
	}
	b := &EvalStats{}
	if i := sort.SearchInts(c.keys, k) - 1; i >= 0 {
		*b = *c.buckets[c.keys[i]]
	}
	c.buckets[k] = b
	i := sort.SearchInts(c.keys, k)
	c.keys = append(c.keys, 0)
	copy(c.keys[i+1:], c.keys[i:])
	c.keys[i] = k
	return b
}

// Fold adds one document's contribution, mirroring ThresholdCurve.Fold with
// the direction inverted: ranks ascend, and every existing bucket at or above
// the document's lowest rank receives the document's full stats at the
// largest document rank covering it.
func (c *RankCurve) Fold(ranks []int, compareAt CompareAtRank) error {
	if len(ranks) == 0 {
		return nil
	}
	distinct := distinctAscending(ranks)

	for _, r := range distinct {
		c.ensure(r)
	}

	ri := 0
	full, err := compareAt(distinct[0])
	if err != nil {
		return fmt.Errorf("rank curve fold at %d: %w", distinct[0], err)
	}
	for ki := 0; ki < len(c.keys); ki++ {
		k := c.keys[ki]
		if k < distinct[0] {
			continue
		}
		for ri+1 < len(distinct) && distinct[ri+1] <= k {
			ri++
			full, err = compareAt(distinct[ri])
			if err != nil {
				return fmt.Errorf("rank curve fold at %d: %w", distinct[ri], err)
			}
		}
		c.buckets[k].Add(full)
	}
	return nil
}

// Merge folds another rank curve into this one.
func (c *RankCurve) Merge(other *RankCurve) {
	for _, k := range other.keys {
		c.ensure(k)
	}
	for _, k := range c.keys {
		if es, ok := other.At(k); ok {
			c.buckets[k].Add(es)
		}
	}
}

func distinctAscending(ranks []int) []int {
	out := make([]int, len(ranks))
	copy(out, ranks)
	sort.Ints(out)
	w := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[w-1] {
			out[w] = out[i]
			w++
		}
	}
	return out[:w]
}
