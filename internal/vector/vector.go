// Package vector defines the declarative test-vector model and its loader.
//
// Vectors are loaded once at startup and are immutable for the run. File
// order is preserved: it determines probe execution order and therefore
// report ordering, so runs are diffable byte-for-byte.
package vector

import (
	"errors"
	"fmt"

	"github.com/opentrust/otpconform/internal/protocol"
)

// JudgmentInput is the raw input of a judgment-creation vector.
type JudgmentInput struct {
	T               float64                `json:"T"`
	I               float64                `json:"I"`
	F               float64                `json:"F"`
	ProvenanceChain []protocol.Attestation `json:"provenance_chain"`
}

// JudgmentVector is one judgment-creation test case.
//
// If ExpectedValid is true, ExpectedError is ignored. An empty ExpectedError
// on an expected-invalid vector means "we know it should fail but have not
// pinned the wording"; the engine records WARN instead of PASS for such
// failures.
type JudgmentVector struct {
	Name          string        `json:"name"`
	Input         JudgmentInput `json:"input"`
	ExpectedValid bool          `json:"expected_valid"`
	ExpectedError string        `json:"expected_error,omitempty"`
}

// FusionVector is one named fusion scenario. Fusion vectors are loaded and
// schema-checked for forward compatibility but are not yet driven by the
// engine; the fixed canonical fusion probes remain normative.
type FusionVector struct {
	Name     string          `json:"name"`
	Operator string          `json:"operator"`
	Inputs   []JudgmentInput `json:"inputs"`
	Weights  []float64       `json:"weights,omitempty"`
}

// Suite holds all vectors loaded for a run, in file order.
type Suite struct {
	Judgments []JudgmentVector
	Fusion    []FusionVector
}

// LoadError is a fatal fixture-load failure: the file exists but is not
// parseable, fails the schema, or violates a vector invariant. A missing
// file is not a LoadError; it simply contributes zero vectors.
type LoadError struct {
	Path   string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fixture %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("fixture %s: %s", e.Path, e.Reason)
}

// Unwrap returns the underlying error, if any.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsLoadError reports whether err is (or wraps) a fixture LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// validateJudgmentVectors enforces vector invariants the schema cannot
// express: non-empty unique names.
func validateJudgmentVectors(path string, vectors []JudgmentVector) error {
	seen := make(map[string]struct{}, len(vectors))
	for i, v := range vectors {
		if v.Name == "" {
			return &LoadError{Path: path, Reason: fmt.Sprintf("test_vectors[%d]: name is required", i)}
		}
		if _, dup := seen[v.Name]; dup {
			return &LoadError{Path: path, Reason: fmt.Sprintf("test_vectors[%d]: duplicate name %q", i, v.Name)}
		}
		seen[v.Name] = struct{}{}
	}
	return nil
}

// validateFusionVectors enforces the weighted-operator invariant:
// when weights are present, their length must match the input count.
func validateFusionVectors(path string, vectors []FusionVector) error {
	seen := make(map[string]struct{}, len(vectors))
	for i, v := range vectors {
		if v.Name == "" {
			return &LoadError{Path: path, Reason: fmt.Sprintf("test_vectors[%d]: name is required", i)}
		}
		if _, dup := seen[v.Name]; dup {
			return &LoadError{Path: path, Reason: fmt.Sprintf("test_vectors[%d]: duplicate name %q", i, v.Name)}
		}
		seen[v.Name] = struct{}{}
		if protocol.IsWeighted(v.Operator) && v.Weights != nil && len(v.Weights) != len(v.Inputs) {
			return &LoadError{
				Path: path,
				Reason: fmt.Sprintf("test_vectors[%d] (%s): %d weights for %d inputs",
					i, v.Name, len(v.Weights), len(v.Inputs)),
			}
		}
	}
	return nil
}
