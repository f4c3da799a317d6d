// Package testutil provides a scripted in-process candidate for engine and
// CLI tests. The fake is conformant by default; each field switches on one
// specific defect so tests can probe a single verdict path at a time.
package testutil

import (
	"context"
	"fmt"

	"github.com/opentrust/otpconform/internal/candidate"
	"github.com/opentrust/otpconform/internal/protocol"
)

// Default error wordings of the fake SDK. Tests that exercise the
// substring-matching policy rely on these exact strings.
const (
	DefaultRangeError = "component must be in [0, 1]"
	DefaultSumError   = "T+I+F exceeds 1.0"
	ImmutableError    = "provenance chain is immutable"
)

// Fake implements candidate.Candidate without a subprocess.
type Fake struct {
	// RangeError and SumError override the construction error wordings.
	RangeError string
	SumError   string

	// ConstructError, when set, makes every construction fail with this
	// message regardless of input.
	ConstructError string

	// AcceptInvalid disables input validation: out-of-range judgments are
	// silently accepted (a non-conformant candidate).
	AcceptInvalid bool

	// MutableChain makes AppendProvenance succeed (non-conformant).
	MutableChain bool

	// FusionErrors maps operator names to error messages returned instead
	// of a result.
	FusionErrors map[string]string

	// InvalidFusion lists operators that return an out-of-range result.
	InvalidFusion map[string]bool

	// BreakIdentity perturbs T on single-judgment weighted fusion.
	BreakIdentity bool

	// FailZeroWeights makes the weighted average error out instead of
	// falling back when all weights are zero.
	FailZeroWeights bool

	nextHandle int
	closed     bool
}

var _ candidate.Candidate = (*Fake)(nil)

func (f *Fake) errf(format string, args ...any) error {
	return &candidate.CallError{Message: fmt.Sprintf(format, args...)}
}

// ConstructJudgment implements candidate.Candidate.
func (f *Fake) ConstructJudgment(_ context.Context, t, i, fv float64, chain []protocol.Attestation) (*candidate.Judgment, error) {
	if f.ConstructError != "" {
		return nil, f.errf("%s", f.ConstructError)
	}
	if !f.AcceptInvalid {
		rangeErr := f.RangeError
		if rangeErr == "" {
			rangeErr = DefaultRangeError
		}
		sumErr := f.SumError
		if sumErr == "" {
			sumErr = DefaultSumError
		}
		for _, v := range []float64{t, i, fv} {
			if v < 0 || v > 1 {
				return nil, f.errf("%s", rangeErr)
			}
		}
		if t+i+fv > 1.0 {
			return nil, f.errf("%s", sumErr)
		}
	}
	return f.hold(t, i, fv, chain), nil
}

// Fuse implements candidate.Candidate.
func (f *Fake) Fuse(_ context.Context, operator string, judgments []*candidate.Judgment, weights []float64) (*candidate.Judgment, error) {
	if msg, bad := f.FusionErrors[operator]; bad {
		return nil, f.errf("%s", msg)
	}
	if len(judgments) == 0 {
		return nil, f.errf("%s requires at least one judgment", operator)
	}
	if f.InvalidFusion[operator] {
		return f.hold(1.5, -0.2, 0.1, mergedChain(judgments)), nil
	}

	var t, i, fv float64
	switch operator {
	case protocol.OpConflictAwareWeightedAverage:
		if weights != nil && len(weights) != len(judgments) {
			return nil, f.errf("%d weights for %d judgments", len(weights), len(judgments))
		}
		var sum float64
		for _, w := range weights {
			sum += w
		}
		if weights == nil || sum == 0 {
			if weights != nil && f.FailZeroWeights {
				return nil, f.errf("weight sum is zero")
			}
			// Fallback: equal weights.
			weights = make([]float64, len(judgments))
			for n := range weights {
				weights[n] = 1
			}
			sum = float64(len(judgments))
		}
		for n, j := range judgments {
			t += j.T * weights[n] / sum
			i += j.I * weights[n] / sum
			fv += j.F * weights[n] / sum
		}
		if f.BreakIdentity && len(judgments) == 1 {
			t = t / 2
		}
	case protocol.OpOptimisticFusion:
		fv = 1
		for _, j := range judgments {
			t = max(t, j.T)
			fv = min(fv, j.F)
		}
		i = max(0, 1-t-fv)
	case protocol.OpPessimisticFusion:
		t = 1
		for _, j := range judgments {
			t = min(t, j.T)
			fv = max(fv, j.F)
		}
		i = max(0, 1-t-fv)
	default:
		return nil, f.errf("unknown operator %q", operator)
	}
	return f.hold(t, i, fv, mergedChain(judgments)), nil
}

// AppendProvenance implements candidate.Candidate.
func (f *Fake) AppendProvenance(_ context.Context, j *candidate.Judgment, rec protocol.Attestation) error {
	if f.MutableChain {
		j.ProvenanceChain = append(j.ProvenanceChain, rec)
		return nil
	}
	return f.errf("%s", ImmutableError)
}

// Close implements candidate.Candidate.
func (f *Fake) Close() error {
	f.closed = true
	return nil
}

// Closed reports whether Close was called.
func (f *Fake) Closed() bool {
	return f.closed
}

func (f *Fake) hold(t, i, fv float64, chain []protocol.Attestation) *candidate.Judgment {
	f.nextHandle++
	held := make([]protocol.Attestation, len(chain))
	copy(held, chain)
	return &candidate.Judgment{
		Judgment: protocol.Judgment{T: t, I: i, F: fv, ProvenanceChain: held},
		Handle:   fmt.Sprintf("fake-%d", f.nextHandle),
	}
}

func mergedChain(judgments []*candidate.Judgment) []protocol.Attestation {
	var chain []protocol.Attestation
	for _, j := range judgments {
		chain = append(chain, j.ProvenanceChain...)
	}
	return chain
}
