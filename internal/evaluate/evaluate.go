// Package evaluate runs the matching engine over a corpus and aggregates the
// per-document results into per-type and cross-type totals, threshold curves
// and rank curves.
package evaluate

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"tageval/internal/annotation"
	"tageval/internal/corpus"
	"tageval/internal/diff"
	"tageval/internal/logging"
	"tageval/internal/stats"
)

// Sentinel names used for aggregate rows and curves.
const (
	AllDocs  = "[doc:all:micro]"
	AllTypes = "[type:all:micro]"
)

// Row is one evaluated (document, type) cell. Targets and Responses are the
// filtered annotation slices the diff indices refer to. Micro rows aggregate
// all types of one document and carry no Diff.
type Row struct {
	Doc       string
	Type      string
	Stats     stats.EvalStats
	Diff      *diff.Result
	Targets   []annotation.Annotation
	Responses []annotation.Annotation
}

// Result is one completed corpus evaluation.
type Result struct {
	Config Config
	Types  []string

	// Rows holds one row per (document, type) in corpus order, followed by
	// the document's micro row when more than one type was evaluated.
	Rows []Row

	// TypeTotals accumulates corpus-wide stats per type; Total is the micro
	// average over everything.
	TypeTotals map[string]stats.EvalStats
	Total      stats.EvalStats

	// Curves maps a type (or AllTypes) to its merged threshold curve. Only
	// populated when the config names a score feature; RankCurves likewise
	// for the rank feature.
	Curves     map[string]*stats.ThresholdCurve
	RankCurves map[string]*stats.RankCurve
}

type docResult struct {
	rows       []Row
	curves     map[string]*stats.ThresholdCurve
	rankCurves map[string]*stats.RankCurve
	err        error
}

// Run evaluates the corpus under cfg. Documents are processed by a bounded
// worker pool; every worker accumulates into its own document result, and the
// totals and curves are merged only after all workers are done.
func Run(ctx context.Context, c *corpus.Corpus, cfg Config) (*Result, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	types := cfg.Types
	if len(types) == 0 {
		types = observedTypes(c, cfg)
	}
	if len(types) == 0 {
		return nil, fmt.Errorf("corpus has no annotations in sets %q/%q", cfg.KeySet, cfg.ResponseSet)
	}

	logger := logging.New("evaluate")
	logger.Info("evaluating corpus",
		"evaluation_id", cfg.EvaluationID,
		"documents", len(c.Documents),
		"types", len(types),
		"workers", cfg.Workers)

	docResults := make([]docResult, len(c.Documents))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := range c.Documents {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			docResults[i] = evaluateDocument(&c.Documents[i], types, cfg)
			return docResults[i].err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{
		Config:     cfg,
		Types:      types,
		TypeTotals: make(map[string]stats.EvalStats, len(types)),
	}
	if cfg.ScoreFeature != "" {
		res.Curves = make(map[string]*stats.ThresholdCurve, len(types)+1)
	}
	if cfg.RankFeature != "" {
		res.RankCurves = make(map[string]*stats.RankCurve, len(types)+1)
	}

	for _, dr := range docResults {
		for _, row := range dr.rows {
			res.Rows = append(res.Rows, row)
			if row.Type == AllTypes {
				continue
			}
			tt := res.TypeTotals[row.Type]
			tt.Add(row.Stats)
			res.TypeTotals[row.Type] = tt
			res.Total.Add(row.Stats)
		}
		for t, cv := range dr.curves {
			if res.Curves[t] == nil {
				res.Curves[t] = stats.NewThresholdCurve()
			}
			res.Curves[t].Merge(cv)
		}
		for t, cv := range dr.rankCurves {
			if res.RankCurves[t] == nil {
				res.RankCurves[t] = stats.NewRankCurve()
			}
			res.RankCurves[t].Merge(cv)
		}
	}

	if res.Curves != nil {
		all := stats.NewThresholdCurve()
		for _, t := range types {
			if cv := res.Curves[t]; cv != nil {
				all.Merge(cv)
			}
		}
		res.Curves[AllTypes] = all
	}
	if res.RankCurves != nil {
		all := stats.NewRankCurve()
		for _, t := range types {
			if cv := res.RankCurves[t]; cv != nil {
				all.Merge(cv)
			}
		}
		res.RankCurves[AllTypes] = all
	}

	logger.Info("evaluation complete",
		"evaluation_id", cfg.EvaluationID,
		"targets", res.Total.Targets,
		"responses", res.Total.Responses,
		"f1_strict", res.Total.FMeasureStrict(cfg.Beta))
	return res, nil
}

func evaluateDocument(d *corpus.Document, types []string, cfg Config) docResult {
	opts := diff.Options{Features: cfg.Selector(), ScoreFeature: cfg.ScoreFeature}
	keys := filterNil(d.Set(cfg.KeySet), cfg)
	resps := filterNil(d.Set(cfg.ResponseSet), cfg)

	var dr docResult
	for _, t := range types {
		kt := ofType(keys, t)
		rt := ofType(resps, t)

		res, err := diff.Compare(kt, rt, opts)
		if err != nil {
			dr.err = fmt.Errorf("document %s type %s: %w", d.Name, t, err)
			return dr
		}
		dr.rows = append(dr.rows, Row{
			Doc: d.Name, Type: t, Stats: res.Stats, Diff: res,
			Targets: kt, Responses: rt,
		})

		if cfg.ScoreFeature != "" {
			curve, err := foldThresholdCurve(kt, rt, opts, cfg)
			if err != nil {
				dr.err = fmt.Errorf("document %s type %s: %w", d.Name, t, err)
				return dr
			}
			if dr.curves == nil {
				dr.curves = make(map[string]*stats.ThresholdCurve)
			}
			dr.curves[t] = curve
		}
		if cfg.RankFeature != "" {
			curve, err := foldRankCurve(kt, rt, opts, cfg)
			if err != nil {
				dr.err = fmt.Errorf("document %s type %s: %w", d.Name, t, err)
				return dr
			}
			if dr.rankCurves == nil {
				dr.rankCurves = make(map[string]*stats.RankCurve)
			}
			dr.rankCurves[t] = curve
		}
	}

	if len(types) > 1 {
		micro := Row{Doc: d.Name, Type: AllTypes}
		for _, row := range dr.rows {
			micro.Stats.Add(row.Stats)
		}
		dr.rows = append(dr.rows, micro)
	}
	return dr
}

func foldThresholdCurve(kt, rt []annotation.Annotation, opts diff.Options, cfg Config) (*stats.ThresholdCurve, error) {
	scores, err := diff.ResponseScores(rt, cfg.ScoreFeature)
	if err != nil {
		return nil, err
	}
	curve := stats.NewThresholdCurve()
	if seeds := cfg.ThresholdSeeds(); seeds != nil {
		curve.Seed(seeds...)
	}
	err = curve.Fold(scores, func(th float64) (stats.EvalStats, error) {
		r, err := diff.CompareAt(kt, rt, opts, th)
		if err != nil {
			return stats.EvalStats{}, err
		}
		return r.Stats, nil
	})
	if err != nil {
		return nil, err
	}
	return curve, nil
}

func foldRankCurve(kt, rt []annotation.Annotation, opts diff.Options, cfg Config) (*stats.RankCurve, error) {
	ranks, err := diff.ResponseRanks(rt, cfg.RankFeature)
	if err != nil {
		return nil, err
	}
	curve := stats.NewRankCurve()
	err = curve.Fold(ranks, func(k int) (stats.EvalStats, error) {
		r, err := diff.CompareAtRank(kt, rt, opts, cfg.RankFeature, k)
		if err != nil {
			return stats.EvalStats{}, err
		}
		return r.Stats, nil
	})
	if err != nil {
		return nil, err
	}
	return curve, nil
}

// observedTypes collects every annotation type present in either configured
// set across the corpus, sorted.
func observedTypes(c *corpus.Corpus, cfg Config) []string {
	seen := make(map[string]struct{})
	for i := range c.Documents {
		for _, a := range c.Documents[i].Set(cfg.KeySet) {
			seen[a.Type] = struct{}{}
		}
		for _, a := range c.Documents[i].Set(cfg.ResponseSet) {
			seen[a.Type] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func ofType(anns []annotation.Annotation, t string) []annotation.Annotation {
	var out []annotation.Annotation
	for _, a := range anns {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

// filterNil drops annotations whose nil feature equals the configured NIL
// value when the drop treatment is active.
func filterNil(anns []annotation.Annotation, cfg Config) []annotation.Annotation {
	if cfg.NilTreatment != NilDrop {
		return anns
	}
	var out []annotation.Annotation
	for _, a := range anns {
		if v, ok := a.Features[cfg.NilFeature]; ok && annotation.StrictEquals(v, cfg.NilValue) {
			continue
		}
		out = append(out, a)
	}
	return out
}
