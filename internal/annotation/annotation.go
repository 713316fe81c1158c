// Package annotation holds the span-and-feature item model consumed by the
// differ. Items are borrowed from the caller's document; nothing here owns or
// mutates them.
package annotation

import (
	"fmt"
	"sort"
	"strconv"
)

// Features maps a feature name to its value. Values come from YAML or caller
// code and are compared by the equivalence policy in effect.
type Features map[string]any

// Annotation is one span-annotated, feature-bearing item. Offsets follow the
// usual half-open convention: the span covers [Start, End). The Type tag is
// carried for reporting but never consulted by the matcher; callers pre-filter
// by type.
type Annotation struct {
	Start    int64    `yaml:"start" json:"start"`
	End      int64    `yaml:"end" json:"end"`
	Type     string   `yaml:"type,omitempty" json:"type,omitempty"`
	Features Features `yaml:"features,omitempty" json:"features,omitempty"`
}

// Relation classifies how two spans sit relative to each other.
type Relation int

const (
	Disjoint Relation = iota
	Overlapping
	Coextensive
)

func (r Relation) String() string {
	switch r {
	case Disjoint:
		return "disjoint"
	case Overlapping:
		return "overlapping"
	case Coextensive:
		return "coextensive"
	}
	return fmt.Sprintf("Relation(%d)", int(r))
}

// Coextensive reports whether both spans have identical offsets.
func (a Annotation) Coextensive(b Annotation) bool {
	return a.Start == b.Start && a.End == b.End
}

// Overlaps reports whether the spans share at least one position.
// Coextensive spans overlap.
func (a Annotation) Overlaps(b Annotation) bool {
	return a.Start < b.End && b.Start < a.End
}

// Relate returns the span relation between a and b.
func (a Annotation) Relate(b Annotation) Relation {
	switch {
	case a.Coextensive(b):
		return Coextensive
	case a.Overlaps(b):
		return Overlapping
	}
	return Disjoint
}

// selectorMode distinguishes the three significant-feature policies.
type selectorMode int

const (
	selectAll selectorMode = iota
	selectNone
	selectNamed
)

// FeatureSelector decides which feature names must agree for two items to be
// considered the same. The zero value selects all features.
type FeatureSelector struct {
	mode  selectorMode
	names map[string]struct{}
}

// AllFeatures returns a selector under which every feature is significant.
func AllFeatures() FeatureSelector { return FeatureSelector{mode: selectAll} }

// NoFeatures returns a selector under which no feature is significant, so
// span agreement alone decides compatibility.
func NoFeatures() FeatureSelector { return FeatureSelector{mode: selectNone} }

// SelectFeatures returns a selector restricted to the named features.
// An empty list behaves like NoFeatures.
func SelectFeatures(names ...string) FeatureSelector {
	if len(names) == 0 {
		return NoFeatures()
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return FeatureSelector{mode: selectNamed, names: set}
}

// Significant reports whether the named feature participates in compatibility.
func (s FeatureSelector) Significant(name string) bool {
	switch s.mode {
	case selectAll:
		return true
	case selectNone:
		return false
	}
	_, ok := s.names[name]
	return ok
}

// Names returns the explicit feature names, sorted, or nil for the all/none
// modes. Used when echoing configuration into reports.
func (s FeatureSelector) Names() []string {
	if s.mode != selectNamed {
		return nil
	}
	out := make([]string, 0, len(s.names))
	for n := range s.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ValueEquals decides whether two feature values count as the same. The
// default policy is strict equality with numeric widening; callers may supply
// a looser equivalence (case folding, alias tables) instead.
type ValueEquals func(a, b any) bool

// StrictEquals is the default feature-value policy: numeric values compare by
// value regardless of Go type, everything else by ==, with a string fallback
// for uncomparable kinds.
func StrictEquals(a, b any) bool {
	if af, ok := asFloat(a); ok {
		bf, ok := asFloat(b)
		return ok && af == bf
	}
	switch a.(type) {
	case string, bool, nil:
		return a == b
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// Compatible reports whether a and b agree on every significant feature
// present on either side: the feature must exist on both and the values must
// be equivalent under eq (StrictEquals if eq is nil).
func Compatible(a, b Annotation, sel FeatureSelector, eq ValueEquals) bool {
	if eq == nil {
		eq = StrictEquals
	}
	check := func(from, other Features) bool {
		for name, v := range from {
			if !sel.Significant(name) {
				continue
			}
			ov, ok := other[name]
			if !ok || !eq(v, ov) {
				return false
			}
		}
		return true
	}
	return check(a.Features, b.Features) && check(b.Features, a.Features)
}

// FeatureFloat extracts a numeric feature value. The second result reports
// presence; a present but non-numeric value yields an error.
func FeatureFloat(a Annotation, name string) (float64, bool, error) {
	v, ok := a.Features[name]
	if !ok {
		return 0, false, nil
	}
	f, ok := asFloat(v)
	if !ok {
		return 0, true, fmt.Errorf("feature %q: value %v is not numeric", name, v)
	}
	return f, true, nil
}

// FeatureInt extracts an integer feature value, used for rank features.
func FeatureInt(a Annotation, name string) (int, bool, error) {
	f, present, err := FeatureFloat(a, name)
	if err != nil || !present {
		return 0, present, err
	}
	n := int(f)
	if float64(n) != f {
		return 0, true, fmt.Errorf("feature %q: value %v is not an integer", name, f)
	}
	return n, true, nil
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
