package diff

import "fmt"

// Value is the match quality assigned to a candidate pairing before
// resolution, ordered so that better matches rank higher.
type Value int

const (
	ValueWrong          Value = 0 // overlapping spans, incompatible features
	ValueMismatch       Value = 1 // coextensive spans, incompatible features
	ValuePartialCorrect Value = 2 // overlapping spans, compatible features
	ValueCorrect        Value = 3 // coextensive spans, compatible features
)

func (v Value) String() string {
	switch v {
	case ValueWrong:
		return "wrong"
	case ValueMismatch:
		return "mismatch"
	case ValuePartialCorrect:
		return "partially-correct"
	case ValueCorrect:
		return "correct"
	}
	return fmt.Sprintf("Value(%d)", int(v))
}

// Kind is the finalized classification of a pairing after resolution.
type Kind int

const (
	KindCorrect Kind = iota
	KindPartialCorrect
	KindMissing
	KindSpurious
	KindMismatch
)

func (k Kind) String() string {
	switch k {
	case KindCorrect:
		return "correct"
	case KindPartialCorrect:
		return "partially-correct"
	case KindMissing:
		return "missing"
	case KindSpurious:
		return "spurious"
	case KindMismatch:
		return "mismatch"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Indicator suffixes attached to item type names when materializing which
// item landed in which classification bucket.
const (
	SuffixCorrectStrict    = "_CS"
	SuffixCorrectPartial   = "_CP"
	SuffixIncorrectStrict  = "_IS"
	SuffixIncorrectPartial = "_IP"
	SuffixMissingLenient   = "_ML"
	SuffixSpuriousLenient  = "_SL"
)

// Endpoint names one side of a pairing. Missing targets and spurious
// responses have an absent counterpart, so Present is false and Index is
// meaningless rather than a sentinel index.
type Endpoint struct {
	Index   int
	Present bool
}

// At returns a present endpoint for index i.
func At(i int) Endpoint { return Endpoint{Index: i, Present: true} }

// Absent is the missing side of an unmatched pairing.
var Absent = Endpoint{}

// Pairing is a finalized association between a target and a response, or
// between one of them and an absent counterpart. At most one side is absent.
type Pairing struct {
	Target   Endpoint
	Response Endpoint
	Value    Value
	Score    int
	Kind     Kind
}
