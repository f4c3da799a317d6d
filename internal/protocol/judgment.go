// Package protocol defines the OpenTrust Protocol value types and the
// validity predicates a conformant implementation must satisfy.
//
// This package does NOT implement the protocol (no judgment construction,
// no fusion math). It only encodes the invariants that candidate-produced
// values are checked against.
package protocol

import "strings"

// Attestation is one record in a judgment's provenance chain.
type Attestation struct {
	SourceID  string `json:"source_id"`
	Timestamp string `json:"timestamp"`
}

// Judgment is the protocol's core value: three bounded reals plus an
// append-only provenance chain.
//
// Conformance invariant: 0 <= T <= 1, 0 <= I <= 1, 0 <= F <= 1, and
// T + I + F <= 1. The provenance chain must be immutable after construction.
type Judgment struct {
	T               float64       `json:"T"`
	I               float64       `json:"I"`
	F               float64       `json:"F"`
	ProvenanceChain []Attestation `json:"provenance_chain"`
}

// Fusion operator names a candidate must expose.
const (
	OpConflictAwareWeightedAverage = "conflict_aware_weighted_average"
	OpOptimisticFusion             = "optimistic_fusion"
	OpPessimisticFusion            = "pessimistic_fusion"
)

// Operators returns the fusion operator names in canonical probe order.
func Operators() []string {
	return []string{
		OpConflictAwareWeightedAverage,
		OpOptimisticFusion,
		OpPessimisticFusion,
	}
}

// IsWeighted reports whether the operator takes a parallel weights sequence.
func IsWeighted(operator string) bool {
	return operator == OpConflictAwareWeightedAverage
}

// IsValid reports whether a candidate-produced judgment satisfies the
// protocol invariant. A nil judgment is invalid: a malformed result object
// is a validity failure, not a harness crash. NaN components fail the range
// comparisons and therefore report invalid.
func IsValid(j *Judgment) bool {
	if j == nil {
		return false
	}
	return inUnit(j.T) && inUnit(j.I) && inUnit(j.F) && j.T+j.I+j.F <= 1.0
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}

// MatchesExpectedError reports whether a candidate's raw error message
// satisfies the expected-error clause of a test vector: the expected string
// must be non-empty and appear verbatim as a substring of the actual
// message. An empty expected string always reports false, which routes the
// probe to the WARN path ("fails when it must fail" is normative, exact
// wording is not).
func MatchesExpectedError(actual, expected string) bool {
	return expected != "" && strings.Contains(actual, expected)
}
