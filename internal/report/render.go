package report

import (
	"encoding/json"
	"fmt"
	"io"
)

// statusGlyph maps a probe status to its console glyph.
func statusGlyph(s Status) string {
	switch s {
	case StatusPass:
		return "✓"
	case StatusWarn:
		return "!"
	default:
		return "✗"
	}
}

// verdictLine maps a verdict to its human-readable closing line.
func verdictLine(v Verdict) string {
	switch v {
	case VerdictHighlyConformant:
		return "Candidate is highly conformant."
	case VerdictPartiallyConformant:
		return "Candidate is partially conformant."
	default:
		return "Candidate is not conformant."
	}
}

// RenderJSON produces the indented JSON form of the report. The output is a
// pure projection of the finalized report and round-trips back to an equal
// Overall.
func RenderJSON(o *Overall) ([]byte, error) {
	if o == nil {
		return nil, fmt.Errorf("render: nil report")
	}
	b, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render: json marshal: %w", err)
	}
	return b, nil
}

// RenderText writes the console form of the report: one pass/total line per
// category, the overall score line, and the verdict line. Verbose mode adds
// one glyph line per probe. Nothing is recomputed here.
func RenderText(w io.Writer, o *Overall, verbose bool) {
	if o == nil {
		return
	}
	fmt.Fprintf(w, "Validation results for %s\n", o.Candidate)
	for _, c := range o.Categories {
		fmt.Fprintf(w, "  %s: %d/%d\n", c.Title, c.Passed, c.Total)
		if !verbose {
			continue
		}
		for _, p := range c.Probes {
			fmt.Fprintf(w, "    %s %s: %s\n", statusGlyph(p.Status), p.Test, p.Message)
		}
	}
	fmt.Fprintf(w, "  Overall Score: %.1f%% (%d/%d)\n", o.Summary.Score, o.Summary.Passed, o.Summary.Total)
	fmt.Fprintln(w, verdictLine(o.Verdict))
}
