package report

// Verdict is the tri-level conformance verdict.
type Verdict string

const (
	VerdictHighlyConformant    Verdict = "highly_conformant"
	VerdictPartiallyConformant Verdict = "partially_conformant"
	VerdictNotConformant       Verdict = "not_conformant"
)

// Exit codes. Fatal load errors also exit with ExitPartiallyConformant's
// code (1), keeping 2 reserved for a scored not-conformant result.
const (
	ExitHighlyConformant    = 0
	ExitPartiallyConformant = 1
	ExitNotConformant       = 2
)

// Score returns 100 * passed / total, or 0 when total is 0 (an empty suite
// is not a division fault).
func Score(passed, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(passed) / float64(total)
}

// DetermineVerdict maps a score to a verdict: >=90 highly conformant,
// >=70 partially conformant, otherwise not conformant.
func DetermineVerdict(score float64) Verdict {
	switch {
	case score >= 90:
		return VerdictHighlyConformant
	case score >= 70:
		return VerdictPartiallyConformant
	default:
		return VerdictNotConformant
	}
}

// ExitCode returns the process exit code for a verdict.
func ExitCode(v Verdict) int {
	switch v {
	case VerdictHighlyConformant:
		return ExitHighlyConformant
	case VerdictPartiallyConformant:
		return ExitPartiallyConformant
	default:
		return ExitNotConformant
	}
}
