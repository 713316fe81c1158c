// Package mcpserver exposes the evaluation engine over the Model Context
// Protocol. All tools are stateless: each call carries its full input and
// returns a complete result.
package mcpserver

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"tageval/internal/annotation"
	"tageval/internal/corpus"
	"tageval/internal/diff"
	"tageval/internal/evaluate"
	"tageval/internal/logging"
	"tageval/internal/stats"
)

// Server wraps the MCP SDK server with the evaluation tools registered.
type Server struct {
	MCPServer *sdkmcp.Server
}

// NewServer creates an MCP server exposing compare_sets, evaluate_corpus and
// get_curve. Run it with srv.MCPServer.Run(ctx, &sdkmcp.StdioTransport{}).
func NewServer(version string) *Server {
	s := &Server{}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "tageval", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "compare_sets",
		Description: "Compare a target (gold) annotation list against a response list and return counters, measures and classification buckets.",
	}, s.handleCompareSets)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "evaluate_corpus",
		Description: "Evaluate a YAML corpus (file or directory) and return per-type and cross-type totals.",
	}, s.handleEvaluateCorpus)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_curve",
		Description: "Evaluate a YAML corpus and return the precision/recall curve over confidence thresholds for one annotation type.",
	}, s.handleGetCurve)
}

// --- Tool input/output types ---

type annotationIn struct {
	Start    int64          `json:"start" jsonschema:"span start offset (inclusive)"`
	End      int64          `json:"end" jsonschema:"span end offset (exclusive)"`
	Type     string         `json:"type,omitempty" jsonschema:"annotation type tag"`
	Features map[string]any `json:"features,omitempty" jsonschema:"feature name to value map"`
}

type statsOut struct {
	Targets              int `json:"targets"`
	Responses            int `json:"responses"`
	CorrectStrict        int `json:"correct_strict"`
	CorrectPartial       int `json:"correct_partial"`
	IncorrectStrict      int `json:"incorrect_strict"`
	IncorrectPartial     int `json:"incorrect_partial"`
	MissingLenient       int `json:"missing_lenient"`
	SpuriousLenient      int `json:"spurious_lenient"`
	SingleCorrectStrict  int `json:"single_correct_strict"`
	SingleCorrectPartial int `json:"single_correct_partial"`

	PrecisionStrict  float64 `json:"precision_strict"`
	RecallStrict     float64 `json:"recall_strict"`
	FStrict          float64 `json:"f_strict"`
	PrecisionLenient float64 `json:"precision_lenient"`
	RecallLenient    float64 `json:"recall_lenient"`
	FLenient         float64 `json:"f_lenient"`
}

func newStatsOut(s stats.EvalStats, beta float64) statsOut {
	if beta == 0 {
		beta = 1
	}
	return statsOut{
		Targets:              s.Targets,
		Responses:            s.Responses,
		CorrectStrict:        s.CorrectStrict,
		CorrectPartial:       s.CorrectPartial,
		IncorrectStrict:      s.IncorrectStrict,
		IncorrectPartial:     s.IncorrectPartial,
		MissingLenient:       s.MissingLenient(),
		SpuriousLenient:      s.SpuriousLenient(),
		SingleCorrectStrict:  s.SingleCorrectStrict,
		SingleCorrectPartial: s.SingleCorrectPartial,
		PrecisionStrict:      s.PrecisionStrict(),
		RecallStrict:         s.RecallStrict(),
		FStrict:              s.FMeasureStrict(beta),
		PrecisionLenient:     s.PrecisionLenient(),
		RecallLenient:        s.RecallLenient(),
		FLenient:             s.FMeasureLenient(beta),
	}
}

type compareSetsInput struct {
	Targets   []annotationIn `json:"targets" jsonschema:"gold standard annotations"`
	Responses []annotationIn `json:"responses" jsonschema:"system response annotations"`
	Features  []string       `json:"features,omitempty" jsonschema:"significant feature names (empty = all features)"`
	SpanOnly  bool           `json:"span_only,omitempty" jsonschema:"ignore features, compare spans only"`

	ScoreFeature string   `json:"score_feature,omitempty" jsonschema:"confidence feature name, required with threshold"`
	Threshold    *float64 `json:"threshold,omitempty" jsonschema:"drop responses scored below this before matching"`

	Beta float64 `json:"beta,omitempty" jsonschema:"F-measure beta (default 1)"`
}

type compareSetsOutput struct {
	Stats statsOut `json:"stats"`

	CorrectStrict    []int `json:"correct_strict_responses,omitempty"`
	CorrectPartial   []int `json:"correct_partial_responses,omitempty"`
	IncorrectStrict  []int `json:"incorrect_strict_responses,omitempty"`
	IncorrectPartial []int `json:"incorrect_partial_responses,omitempty"`
	Missing          []int `json:"missing_targets,omitempty"`
	Spurious         []int `json:"spurious_responses,omitempty"`
}

type evaluateCorpusInput struct {
	Path string `json:"path" jsonschema:"corpus path: a YAML file or a directory of YAML files"`

	KeySet      string   `json:"key_set,omitempty" jsonschema:"name of the gold annotation set (default key)"`
	ResponseSet string   `json:"response_set,omitempty" jsonschema:"name of the response annotation set (default response)"`
	Types       []string `json:"types,omitempty" jsonschema:"annotation types to evaluate (empty = all observed)"`
	Features    []string `json:"features,omitempty" jsonschema:"significant feature names (empty = all features)"`
	SpanOnly    bool     `json:"span_only,omitempty" jsonschema:"ignore features, compare spans only"`
	Beta        float64  `json:"beta,omitempty" jsonschema:"F-measure beta (default 1)"`
}

type evaluateCorpusOutput struct {
	Documents int                 `json:"documents"`
	ByType    map[string]statsOut `json:"by_type"`
	Total     statsOut            `json:"total"`
}

type getCurveInput struct {
	Path         string `json:"path" jsonschema:"corpus path: a YAML file or a directory of YAML files"`
	ScoreFeature string `json:"score_feature" jsonschema:"confidence feature name on responses"`

	Type          string   `json:"type,omitempty" jsonschema:"annotation type (empty = all types combined)"`
	KeySet        string   `json:"key_set,omitempty" jsonschema:"name of the gold annotation set (default key)"`
	ResponseSet   string   `json:"response_set,omitempty" jsonschema:"name of the response annotation set (default response)"`
	Features      []string `json:"features,omitempty" jsonschema:"significant feature names (empty = all features)"`
	ThresholdStep float64  `json:"threshold_step,omitempty" jsonschema:"seed the curve at 0..1 with this step (0 = observed scores only)"`
	Beta          float64  `json:"beta,omitempty" jsonschema:"F-measure beta (default 1)"`
}

type curvePointOut struct {
	Threshold float64  `json:"threshold"`
	Stats     statsOut `json:"stats"`
}

type getCurveOutput struct {
	Type   string          `json:"type"`
	Points []curvePointOut `json:"points"`
}

// --- Tool handlers ---

func (s *Server) handleCompareSets(ctx context.Context, _ *sdkmcp.CallToolRequest, input compareSetsInput) (*sdkmcp.CallToolResult, compareSetsOutput, error) {
	opts := diff.Options{ScoreFeature: input.ScoreFeature}
	switch {
	case input.SpanOnly:
		opts.Features = annotation.NoFeatures()
	case len(input.Features) > 0:
		opts.Features = annotation.SelectFeatures(input.Features...)
	default:
		opts.Features = annotation.AllFeatures()
	}

	targets := toAnnotations(input.Targets)
	responses := toAnnotations(input.Responses)

	var res *diff.Result
	var err error
	if input.Threshold != nil {
		if input.ScoreFeature == "" {
			return nil, compareSetsOutput{}, fmt.Errorf("threshold needs a score_feature")
		}
		res, err = diff.CompareAt(targets, responses, opts, *input.Threshold)
	} else {
		res, err = diff.Compare(targets, responses, opts)
	}
	if err != nil {
		return nil, compareSetsOutput{}, fmt.Errorf("compare_sets: %w", err)
	}

	return nil, compareSetsOutput{
		Stats:            newStatsOut(res.Stats, input.Beta),
		CorrectStrict:    res.CorrectStrict,
		CorrectPartial:   res.CorrectPartial,
		IncorrectStrict:  res.IncorrectStrict,
		IncorrectPartial: res.IncorrectPartial,
		Missing:          res.Missing,
		Spurious:         res.Spurious,
	}, nil
}

func (s *Server) handleEvaluateCorpus(ctx context.Context, _ *sdkmcp.CallToolRequest, input evaluateCorpusInput) (*sdkmcp.CallToolResult, evaluateCorpusOutput, error) {
	logger := logging.New("mcp")
	c, err := corpus.Load(input.Path)
	if err != nil {
		return nil, evaluateCorpusOutput{}, err
	}

	cfg := evaluate.Config{
		KeySet:      input.KeySet,
		ResponseSet: input.ResponseSet,
		Types:       input.Types,
		Features:    input.Features,
		SpanOnly:    input.SpanOnly,
		Beta:        input.Beta,
	}
	res, err := evaluate.Run(ctx, c, cfg)
	if err != nil {
		return nil, evaluateCorpusOutput{}, fmt.Errorf("evaluate_corpus: %w", err)
	}
	logger.Info("corpus evaluated", "path", input.Path, "documents", len(c.Documents))

	out := evaluateCorpusOutput{
		Documents: len(c.Documents),
		ByType:    make(map[string]statsOut, len(res.Types)),
		Total:     newStatsOut(res.Total, res.Config.Beta),
	}
	for _, t := range res.Types {
		out.ByType[t] = newStatsOut(res.TypeTotals[t], res.Config.Beta)
	}
	return nil, out, nil
}

func (s *Server) handleGetCurve(ctx context.Context, _ *sdkmcp.CallToolRequest, input getCurveInput) (*sdkmcp.CallToolResult, getCurveOutput, error) {
	if input.ScoreFeature == "" {
		return nil, getCurveOutput{}, fmt.Errorf("score_feature is required")
	}
	c, err := corpus.Load(input.Path)
	if err != nil {
		return nil, getCurveOutput{}, err
	}

	cfg := evaluate.Config{
		KeySet:        input.KeySet,
		ResponseSet:   input.ResponseSet,
		Features:      input.Features,
		ScoreFeature:  input.ScoreFeature,
		ThresholdStep: input.ThresholdStep,
		Beta:          input.Beta,
	}
	res, err := evaluate.Run(ctx, c, cfg)
	if err != nil {
		return nil, getCurveOutput{}, fmt.Errorf("get_curve: %w", err)
	}

	typ := input.Type
	if typ == "" {
		typ = evaluate.AllTypes
	}
	curve := res.Curves[typ]
	if curve == nil {
		return nil, getCurveOutput{}, fmt.Errorf("no curve for type %q", typ)
	}

	out := getCurveOutput{Type: typ}
	for _, th := range curve.Thresholds() {
		b, _ := curve.Get(th)
		out.Points = append(out.Points, curvePointOut{
			Threshold: th,
			Stats:     newStatsOut(b, res.Config.Beta),
		})
	}
	return nil, out, nil
}

func toAnnotations(in []annotationIn) []annotation.Annotation {
	out := make([]annotation.Annotation, len(in))
	for i, a := range in {
		out[i] = annotation.Annotation{
			Start:    a.Start,
			End:      a.End,
			Type:     a.Type,
			Features: annotation.Features(a.Features),
		}
	}
	return out
}
