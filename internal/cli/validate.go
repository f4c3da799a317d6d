package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/opentrust/otpconform/internal/candidate"
	"github.com/opentrust/otpconform/internal/engine"
	"github.com/opentrust/otpconform/internal/history"
	"github.com/opentrust/otpconform/internal/report"
	"github.com/opentrust/otpconform/internal/vector"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	SDK        string
	VectorsDir string
	Output     string
	HistoryDB  string
}

// newCandidate is swapped out in tests so the pipeline can run against
// an in-process candidate instead of spawning a binary.
var newCandidate = func(ctx context.Context, path string) (candidate.Candidate, error) {
	return candidate.Exec(ctx, path)
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run the conformance suite against a candidate SDK",
		Long: `Run the conformance suite against a candidate SDK binary.

Loads judgment and fusion test vectors, drives the candidate through
construction, fusion, provenance, and edge-case probes, and prints a
scored report. The exit code mirrors the verdict: 0 highly conformant,
1 partially conformant, 2 not conformant.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SDK, "sdk", "", "path to the candidate SDK binary (required)")
	cmd.Flags().StringVar(&opts.VectorsDir, "test-vectors", "test-vectors", "directory holding judgment and fusion test vectors")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "also write the JSON report to this file")
	cmd.Flags().StringVar(&opts.HistoryDB, "history", "", "record the run in this history database")
	_ = cmd.MarkFlagRequired("sdk")

	return cmd
}

func runValidate(ctx context.Context, rootOpts *RootOptions, opts *ValidateOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	overall, err := executeRun(ctx, rootOpts, opts, formatter)
	if err != nil {
		return err
	}

	code := report.ExitCode(overall.Verdict)
	if code != ExitSuccess {
		return NewExitError(code, fmt.Sprintf("candidate is %s (score %.1f%%)", overall.Verdict, overall.Summary.Score))
	}
	return nil
}

// executeRun drives the full pipeline once: load vectors, start the
// candidate, probe it, render the report, and persist the optional
// artifacts. Shared by validate and watch.
func executeRun(ctx context.Context, rootOpts *RootOptions, opts *ValidateOptions, formatter *OutputFormatter) (*report.Overall, error) {
	suite, err := vector.Load(opts.VectorsDir)
	if err != nil {
		return nil, WrapExitError(ExitFatal, "loading test vectors", err)
	}
	formatter.VerboseLog("Loaded %d judgment and %d fusion vector(s) from %s", len(suite.Judgments), len(suite.Fusion), opts.VectorsDir)

	cand, err := newCandidate(ctx, opts.SDK)
	if err != nil {
		return nil, WrapExitError(ExitFatal, "starting candidate", err)
	}
	defer cand.Close()

	engOpts := []engine.Option{}
	if rootOpts.Verbose {
		engOpts = append(engOpts, engine.WithLogger(slog.New(slog.NewTextHandler(formatter.GetErrWriter(), nil))))
	}
	overall := engine.New(opts.SDK, cand, engOpts...).Run(ctx, suite)

	if err := renderReport(formatter, overall, rootOpts.Verbose); err != nil {
		return nil, err
	}

	if opts.Output != "" {
		data, err := report.RenderJSON(overall)
		if err != nil {
			return nil, WrapExitError(ExitFatal, "encoding report", err)
		}
		if err := os.WriteFile(opts.Output, append(data, '\n'), 0o644); err != nil {
			return nil, WrapExitError(ExitFatal, "writing report", err)
		}
		formatter.VerboseLog("Report written to %s", opts.Output)
	}

	if opts.HistoryDB != "" {
		if err := recordRun(ctx, opts.HistoryDB, overall); err != nil {
			return nil, WrapExitError(ExitFatal, "recording history", err)
		}
		formatter.VerboseLog("Run recorded in %s", opts.HistoryDB)
	}

	return overall, nil
}

func renderReport(formatter *OutputFormatter, overall *report.Overall, verbose bool) error {
	if formatter.Format == "json" {
		data, err := report.RenderJSON(overall)
		if err != nil {
			return WrapExitError(ExitFatal, "encoding report", err)
		}
		fmt.Fprintln(formatter.Writer, string(data))
		return nil
	}
	report.RenderText(formatter.Writer, overall, verbose)
	return nil
}

func recordRun(ctx context.Context, dbPath string, overall *report.Overall) error {
	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Record(ctx, history.Entry{
		Candidate: overall.Candidate,
		Verdict:   overall.Verdict,
		Score:     overall.Summary.Score,
		Passed:    overall.Summary.Passed,
		Total:     overall.Summary.Total,
	})
}
