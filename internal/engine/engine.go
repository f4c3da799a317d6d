// Package engine drives the conformance probes against a candidate and
// assembles the report.
//
// Probes run strictly sequentially in a fixed category order (judgment
// creation, fusion operators, provenance chain, edge cases) so report
// output is reproducible byte-for-byte. Any error a candidate raises inside
// a probe is contained at the probe boundary and recorded per the
// category's matching policy; nothing a candidate does during a probe can
// abort the run.
package engine

import (
	"context"
	"io"
	"log/slog"

	"github.com/opentrust/otpconform/internal/candidate"
	"github.com/opentrust/otpconform/internal/report"
	"github.com/opentrust/otpconform/internal/vector"
)

// Engine runs the probe categories against one candidate.
type Engine struct {
	label  string
	cand   candidate.Candidate
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the diagnostic logger. The default discards everything;
// probe outcomes belong in the report, not the log.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an engine for the given candidate. label names the candidate
// in the report (typically the SDK path).
func New(label string, cand candidate.Candidate, opts ...Option) *Engine {
	e := &Engine{
		label:  label,
		cand:   cand,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes all categories in fixed order and returns the finalized
// report. Fixture and candidate load failures happen before Run; by this
// point every candidate failure is a probe verdict, never an error.
func (e *Engine) Run(ctx context.Context, suite *vector.Suite) *report.Overall {
	b := report.NewBuilder(e.label)
	b.Add(e.runJudgmentCreation(ctx, suite.Judgments))
	b.Add(e.runFusionOperators(ctx))
	b.Add(e.runProvenanceChain(ctx))
	b.Add(e.runEdgeCases(ctx))
	return b.Finalize()
}
