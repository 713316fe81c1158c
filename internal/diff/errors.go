package diff

import "errors"

// ErrMissingScoreFeature reports a response without the declared confidence
// feature when a threshold or curve comparison was requested. Fatal to the
// single comparison call; the caller decides whether to skip or abort.
var ErrMissingScoreFeature = errors.New("response is missing the score feature")

// ErrInvalidFeatureValue reports a feature value that cannot be interpreted
// under the requested comparison, e.g. a non-numeric confidence.
var ErrInvalidFeatureValue = errors.New("invalid feature value")

// ErrReciprocityViolation reports a resolver defect: an endpoint left with
// more than one surviving pairing, or asymmetric survivors. A programming
// contract failure, never expected in correct operation.
var ErrReciprocityViolation = errors.New("pairing reciprocity violated")
