package protocol

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validJudgment() *Judgment {
	return &Judgment{
		T: 0.7, I: 0.2, F: 0.1,
		ProvenanceChain: []Attestation{
			{SourceID: "s1", Timestamp: "2025-01-01T00:00:00Z"},
		},
	}
}

func TestIsValid_InRange(t *testing.T) {
	assert.True(t, IsValid(validJudgment()))
}

func TestIsValid_Nil(t *testing.T) {
	assert.False(t, IsValid(nil))
}

func TestIsValid_Boundaries(t *testing.T) {
	assert.True(t, IsValid(&Judgment{T: 1.0, I: 0.0, F: 0.0}))
	assert.True(t, IsValid(&Judgment{T: 0.0, I: 0.0, F: 0.0}))
	assert.True(t, IsValid(&Judgment{T: 0.5, I: 0.3, F: 0.2})) // sum exactly 1
}

// Perturbing any single field outside [0,1], or pushing the sum above 1,
// must flip a valid judgment to invalid.
func TestIsValid_Monotonic(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Judgment)
	}{
		{"T below zero", func(j *Judgment) { j.T = -0.01 }},
		{"T above one", func(j *Judgment) { j.T = 1.01 }},
		{"I below zero", func(j *Judgment) { j.I = -0.01 }},
		{"I above one", func(j *Judgment) { j.I = 1.01 }},
		{"F below zero", func(j *Judgment) { j.F = -0.01 }},
		{"F above one", func(j *Judgment) { j.F = 1.01 }},
		{"sum exceeds one", func(j *Judgment) { j.I = 0.5 }},
		{"NaN T", func(j *Judgment) { j.T = math.NaN() }},
		{"NaN F", func(j *Judgment) { j.F = math.NaN() }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			j := validJudgment()
			tc.mutate(j)
			assert.False(t, IsValid(j))
		})
	}
}

func TestMatchesExpectedError(t *testing.T) {
	assert.True(t, MatchesExpectedError("T must be in [0, 1]", "T must"))
	assert.True(t, MatchesExpectedError("sum exceeds 1.0", "sum"))

	// Verbatim substring only: "sum" does not appear in this wording.
	assert.False(t, MatchesExpectedError("T+I+F exceeds 1.0", "sum"))

	// Empty expected always reports false (WARN path).
	assert.False(t, MatchesExpectedError("anything", ""))
	assert.False(t, MatchesExpectedError("", ""))
}

func TestOperators_Order(t *testing.T) {
	assert.Equal(t, []string{
		OpConflictAwareWeightedAverage,
		OpOptimisticFusion,
		OpPessimisticFusion,
	}, Operators())
}

func TestIsWeighted(t *testing.T) {
	assert.True(t, IsWeighted(OpConflictAwareWeightedAverage))
	assert.False(t, IsWeighted(OpOptimisticFusion))
	assert.False(t, IsWeighted(OpPessimisticFusion))
}
