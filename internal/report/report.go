// Package report defines the canonical output types of a validation run,
// the score-to-verdict mapping, and the renderers. Reports are assembled
// through explicit builders and are immutable once finalized; nothing in
// this package re-derives a verdict after Finalize.
package report

// Status is the terminal state of one probe.
type Status string

const (
	StatusPass Status = "PASS"
	StatusWarn Status = "WARN"
	StatusFail Status = "FAIL"
)

// Probe is the outcome of a single probe.
type Probe struct {
	Test    string `json:"test"`
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// Category is a sealed per-category tally.
//
// Passed includes WARN probes: a candidate that fails when it must fail but
// with different wording is conformant, and WARN exists for visibility, not
// penalty. This lenience is normative.
type Category struct {
	Name   string  `json:"name"`
	Title  string  `json:"title"`
	Passed int     `json:"passed"`
	Total  int     `json:"total"`
	Probes []Probe `json:"details"`
}

// Summary is the aggregate tally across all categories.
type Summary struct {
	Passed int     `json:"passed"`
	Total  int     `json:"total"`
	Score  float64 `json:"score"`
}

// Overall is the top-level report. Categories appear in execution order and
// the body carries no timestamps or generated ids, so two runs against the
// same candidate and fixtures render byte-identically.
type Overall struct {
	Candidate  string     `json:"candidate"`
	Categories []Category `json:"categories"`
	Summary    Summary    `json:"overall"`
	Verdict    Verdict    `json:"verdict"`
}

// CategoryBuilder accumulates probe results for one category. It is owned
// by the engine and never shared; Seal produces the immutable Category.
type CategoryBuilder struct {
	name   string
	title  string
	passed int
	probes []Probe
}

// NewCategory starts an accumulator for the named category.
func NewCategory(name, title string) *CategoryBuilder {
	return &CategoryBuilder{name: name, title: title}
}

// Pass records a passing probe.
func (b *CategoryBuilder) Pass(test, message string) {
	b.passed++
	b.probes = append(b.probes, Probe{Test: test, Status: StatusPass, Message: message})
}

// Warn records a probe that passed with a caveat. Counted toward passed.
func (b *CategoryBuilder) Warn(test, message string) {
	b.passed++
	b.probes = append(b.probes, Probe{Test: test, Status: StatusWarn, Message: message})
}

// Fail records a failing probe.
func (b *CategoryBuilder) Fail(test, message string) {
	b.probes = append(b.probes, Probe{Test: test, Status: StatusFail, Message: message})
}

// Seal closes the accumulator.
func (b *CategoryBuilder) Seal() Category {
	return Category{
		Name:   b.name,
		Title:  b.title,
		Passed: b.passed,
		Total:  len(b.probes),
		Probes: b.probes,
	}
}

// Builder assembles the overall report from sealed categories.
type Builder struct {
	candidate  string
	categories []Category
}

// NewBuilder starts a report for the named candidate.
func NewBuilder(candidate string) *Builder {
	return &Builder{candidate: candidate}
}

// Add appends a sealed category. Insertion order is preserved.
func (b *Builder) Add(c Category) {
	b.categories = append(b.categories, c)
}

// Finalize computes the aggregate score and verdict and returns the
// immutable overall report.
func (b *Builder) Finalize() *Overall {
	var passed, total int
	for _, c := range b.categories {
		passed += c.Passed
		total += c.Total
	}
	score := Score(passed, total)
	return &Overall{
		Candidate:  b.candidate,
		Categories: b.categories,
		Summary:    Summary{Passed: passed, Total: total, Score: score},
		Verdict:    DetermineVerdict(score),
	}
}
