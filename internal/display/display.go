// Package display provides human-readable names for machine codes.
//
// Rule: code is for machines, words are for humans.
// Use these functions in CLI output, markdown reports, logs, and docs.
// Keep raw codes for TSV columns, map keys, and equality comparisons.
package display

import "strings"

// --- Classification Buckets ---

var buckets = map[string]string{
	"CS": "Correct (strict)",
	"CP": "Partially Correct",
	"IS": "Incorrect (strict)",
	"IP": "Incorrect (partial)",
	"ML": "Missing",
	"SL": "Spurious",
}

// Bucket returns the human-readable name for a classification bucket code.
// Unknown codes are returned as-is.
func Bucket(code string) string {
	if name, ok := buckets[code]; ok {
		return name
	}
	return code
}

// BucketWithCode returns "Correct (strict) (CS)" format.
func BucketWithCode(code string) string {
	if name, ok := buckets[code]; ok {
		return name + " (" + code + ")"
	}
	return code
}

// BucketSuffix resolves an indicator type suffix such as "_CS" to its bucket
// name. Non-suffix input is returned as-is.
func BucketSuffix(suffix string) string {
	return Bucket(strings.TrimPrefix(suffix, "_"))
}

// --- Measures ---

var measures = map[string]string{
	"precisionStrict":  "Precision (strict)",
	"precisionLenient": "Precision (lenient)",
	"precisionAverage": "Precision (average)",
	"recallStrict":     "Recall (strict)",
	"recallLenient":    "Recall (lenient)",
	"recallAverage":    "Recall (average)",
	"fStrict":          "F (strict)",
	"fLenient":         "F (lenient)",
	"fAverage":         "F (average)",

	"singleCorrectAccuracyStrict":  "Single-Correct Accuracy (strict)",
	"singleCorrectAccuracyLenient": "Single-Correct Accuracy (lenient)",
}

// Measure returns the human-readable name for a measure column id.
// "precisionStrict" -> "Precision (strict)".
func Measure(id string) string {
	if name, ok := measures[id]; ok {
		return name
	}
	return id
}

// MeasureWithCode returns "Precision (strict) (precisionStrict)" format.
func MeasureWithCode(id string) string {
	if name, ok := measures[id]; ok {
		return name + " (" + id + ")"
	}
	return id
}

// --- Aggregate Sentinels ---

var scopes = map[string]string{
	"[doc:all:micro]":  "all documents (micro)",
	"[type:all:micro]": "all types (micro)",
}

// Scope humanizes the aggregate row sentinels used in reports.
// "[doc:all:micro]" -> "all documents (micro)".
func Scope(name string) string {
	if human, ok := scopes[name]; ok {
		return human
	}
	return name
}

// --- Nil Treatments ---

var nilTreatments = map[string]string{
	"keep": "NIL kept as ordinary value",
	"drop": "NIL annotations dropped",
}

// NilTreatment returns the human-readable description of a NIL policy code.
func NilTreatment(code string) string {
	if name, ok := nilTreatments[code]; ok {
		return name
	}
	return code
}
