// Package candidate wraps an implementation under test behind a narrow
// capability surface. The engine programs only against the Candidate
// interface; how a concrete candidate is reached (subprocess, in-process
// test double) is this package's concern alone.
package candidate

import (
	"context"
	"errors"
	"fmt"

	"github.com/opentrust/otpconform/internal/protocol"
)

// Judgment is an adapter-held reference to a candidate-produced judgment.
// The embedded value is the candidate's reported view; Handle is the opaque
// token the candidate uses to identify the judgment in later operations.
type Judgment struct {
	protocol.Judgment
	Handle string
}

// Candidate is the capability surface required of any implementation under
// test. Errors returned from ConstructJudgment and Fuse carry the
// candidate's raw message unchanged; the engine's error-matching policy
// depends on that exact text.
type Candidate interface {
	// ConstructJudgment asks the candidate to build a judgment from raw
	// components. A conformant candidate rejects out-of-range input.
	ConstructJudgment(ctx context.Context, t, i, f float64, chain []protocol.Attestation) (*Judgment, error)

	// Fuse invokes the named fusion operator. Weights may be nil for
	// unweighted operators.
	Fuse(ctx context.Context, operator string, judgments []*Judgment, weights []float64) (*Judgment, error)

	// AppendProvenance attempts to mutate a constructed judgment's chain.
	// A conformant candidate returns an error; a nil return means the
	// mutation was accepted.
	AppendProvenance(ctx context.Context, j *Judgment, rec protocol.Attestation) error

	// Close releases the candidate binding.
	Close() error
}

// CallError is a failure reported by the candidate itself, as opposed to a
// transport failure reaching it. Message is the candidate's error text,
// passed through without translation.
type CallError struct {
	Message string
}

// Error implements the error interface.
func (e *CallError) Error() string {
	return e.Message
}

// IsCallError reports whether err is (or wraps) a candidate-reported error.
func IsCallError(err error) bool {
	var ce *CallError
	return errors.As(err, &ce)
}

// LoadError is a fatal failure to bind the candidate at all: the binary is
// missing, fails to start, or does not answer the handshake. It
// short-circuits the entire run.
type LoadError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("cannot load candidate %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsLoadError reports whether err is (or wraps) a candidate LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}
