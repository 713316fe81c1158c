package evaluate

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"tageval/internal/annotation"
)

// NilTreatment controls what happens to annotations whose nil feature carries
// the configured NIL value.
type NilTreatment string

const (
	// NilKeep treats the NIL value like any other value.
	NilKeep NilTreatment = "keep"
	// NilDrop removes NIL-valued annotations from both sets before matching.
	NilDrop NilTreatment = "drop"
)

// Config describes one evaluation run. Zero values fall back to the defaults
// applied by Normalize.
type Config struct {
	EvaluationID string `yaml:"evaluationId"`

	// KeySet and ResponseSet name the document annotation sets to compare.
	KeySet      string `yaml:"keySet"`
	ResponseSet string `yaml:"responseSet"`

	// Types restricts the evaluation to the listed annotation types. Empty
	// means every type observed in either set.
	Types []string `yaml:"types"`

	// Features lists the significant feature names. Empty means all features;
	// SpanOnly ignores features entirely.
	Features []string `yaml:"features"`
	SpanOnly bool     `yaml:"spanOnly"`

	// ScoreFeature enables the confidence threshold curve. ThresholdStep
	// seeds the curve with preset cutoffs 0..1 at the given step (0 seeds
	// nothing beyond the observed scores).
	ScoreFeature  string  `yaml:"scoreFeature"`
	ThresholdStep float64 `yaml:"thresholdStep"`

	// RankFeature enables cumulative candidate-list evaluation by rank.
	RankFeature string `yaml:"rankFeature"`

	// NIL handling: annotations whose NilFeature equals NilValue are dropped
	// from both sets when NilTreatment is NilDrop. NilFeature defaults to the
	// first significant feature.
	NilTreatment NilTreatment `yaml:"nilTreatment"`
	NilValue     string       `yaml:"nilValue"`
	NilFeature   string       `yaml:"nilFeature"`

	Beta    float64 `yaml:"beta"`
	Workers int     `yaml:"workers"`
}

// LoadConfig reads a run config from a YAML file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Normalize applies defaults and validates the config.
func (c *Config) Normalize() error {
	if c.EvaluationID == "" {
		c.EvaluationID = "evaluation"
	}
	if c.KeySet == "" {
		c.KeySet = "key"
	}
	if c.ResponseSet == "" {
		c.ResponseSet = "response"
	}
	if c.Beta == 0 {
		c.Beta = 1
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.NilTreatment == "" {
		c.NilTreatment = NilKeep
	}
	if c.NilValue == "" {
		c.NilValue = "NIL"
	}
	if c.NilFeature == "" && len(c.Features) > 0 {
		c.NilFeature = c.Features[0]
	}

	switch c.NilTreatment {
	case NilKeep, NilDrop:
	default:
		return fmt.Errorf("unknown nil treatment %q", c.NilTreatment)
	}
	if c.NilTreatment == NilDrop && c.NilFeature == "" {
		return fmt.Errorf("nil treatment %q needs a nil feature or at least one significant feature", NilDrop)
	}
	if c.ThresholdStep < 0 || c.ThresholdStep > 1 {
		return fmt.Errorf("threshold step %v out of range [0,1]", c.ThresholdStep)
	}
	if c.ThresholdStep > 0 && c.ScoreFeature == "" {
		return fmt.Errorf("threshold step needs a score feature")
	}
	if c.Beta < 0 {
		return fmt.Errorf("beta %v must not be negative", c.Beta)
	}
	return nil
}

// Selector returns the significant-feature policy for this config.
func (c Config) Selector() annotation.FeatureSelector {
	if c.SpanOnly {
		return annotation.NoFeatures()
	}
	if len(c.Features) > 0 {
		return annotation.SelectFeatures(c.Features...)
	}
	return annotation.AllFeatures()
}

// ThresholdSeeds returns the preset curve cutoffs, or nil when none are
// configured.
func (c Config) ThresholdSeeds() []float64 {
	if c.ThresholdStep <= 0 {
		return nil
	}
	var seeds []float64
	for i := 0; ; i++ {
		v := math.Round(float64(i)*c.ThresholdStep*1e9) / 1e9
		if v > 1 {
			break
		}
		seeds = append(seeds, v)
	}
	return seeds
}
