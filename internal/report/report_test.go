package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleOverall builds a fixed report used by builder and render tests.
func sampleOverall() *Overall {
	creation := NewCategory("judgment_creation", "Judgment Creation")
	creation.Pass("basic_valid", "valid judgment created")
	creation.Warn("sum_exceeds_one", "failed as expected but wrong error: T+I+F exceeds 1.0")
	creation.Fail("silent_accept", "should have failed but didn't")

	fusion := NewCategory("fusion_operators", "Fusion Operators")
	fusion.Pass("conflict_aware_weighted_average", "valid fusion result")
	fusion.Pass("optimistic_fusion", "valid fusion result")

	b := NewBuilder("./sdk-under-test")
	b.Add(creation.Seal())
	b.Add(fusion.Seal())
	return b.Finalize()
}

func TestCategoryBuilder_WarnCountsTowardPassed(t *testing.T) {
	b := NewCategory("c", "C")
	b.Pass("p", "ok")
	b.Warn("w", "wrong wording")
	b.Fail("f", "bad")

	c := b.Seal()
	assert.Equal(t, 2, c.Passed)
	assert.Equal(t, 3, c.Total)
	require.Len(t, c.Probes, 3)
	assert.Equal(t, StatusPass, c.Probes[0].Status)
	assert.Equal(t, StatusWarn, c.Probes[1].Status)
	assert.Equal(t, StatusFail, c.Probes[2].Status)
}

func TestBuilder_Finalize(t *testing.T) {
	o := sampleOverall()
	assert.Equal(t, "./sdk-under-test", o.Candidate)
	require.Len(t, o.Categories, 2)
	assert.Equal(t, "judgment_creation", o.Categories[0].Name)
	assert.Equal(t, "fusion_operators", o.Categories[1].Name)
	assert.Equal(t, 4, o.Summary.Passed)
	assert.Equal(t, 5, o.Summary.Total)
	assert.Equal(t, 80.0, o.Summary.Score)
	assert.Equal(t, VerdictPartiallyConformant, o.Verdict)
}

func TestScore(t *testing.T) {
	assert.Equal(t, 0.0, Score(0, 0))
	assert.Equal(t, 100.0, Score(3, 3))
	assert.Equal(t, 50.0, Score(1, 2))
	assert.Equal(t, 0.0, Score(0, 7))
}

func TestDetermineVerdict_Thresholds(t *testing.T) {
	assert.Equal(t, VerdictHighlyConformant, DetermineVerdict(100))
	assert.Equal(t, VerdictHighlyConformant, DetermineVerdict(90))
	assert.Equal(t, VerdictPartiallyConformant, DetermineVerdict(89.9))
	assert.Equal(t, VerdictPartiallyConformant, DetermineVerdict(70))
	assert.Equal(t, VerdictNotConformant, DetermineVerdict(69.9))
	assert.Equal(t, VerdictNotConformant, DetermineVerdict(0))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(VerdictHighlyConformant))
	assert.Equal(t, 1, ExitCode(VerdictPartiallyConformant))
	assert.Equal(t, 2, ExitCode(VerdictNotConformant))
	assert.Equal(t, 2, ExitCode(Verdict("bogus")))
}

func TestRenderJSON_RoundTrips(t *testing.T) {
	o := sampleOverall()
	data, err := RenderJSON(o)
	require.NoError(t, err)

	var back Overall
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, *o, back)
}

func TestRenderJSON_NilReport(t *testing.T) {
	_, err := RenderJSON(nil)
	require.Error(t, err)
}

// Two renders of the same finalized report must be byte-identical.
func TestRender_Deterministic(t *testing.T) {
	a, err := RenderJSON(sampleOverall())
	require.NoError(t, err)
	b, err := RenderJSON(sampleOverall())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
