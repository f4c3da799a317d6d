package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opentrust/otpconform/internal/history"
	"github.com/opentrust/otpconform/internal/report"
)

func seedHistory(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "history.db")

	store, err := history.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Record(ctx, history.Entry{
		Candidate: "./sdk-v1",
		Verdict:   report.VerdictNotConformant,
		Score:     40,
		Passed:    2,
		Total:     5,
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, store.Record(ctx, history.Entry{
		Candidate: "./sdk-v2",
		Verdict:   report.VerdictHighlyConformant,
		Score:     100,
		Passed:    5,
		Total:     5,
		CreatedAt: time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC),
	}))
	return dbPath
}

func execHistory(t *testing.T, rootOpts *RootOptions, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewHistoryCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func TestHistory_TextOutput(t *testing.T) {
	dbPath := seedHistory(t)

	buf, err := execHistory(t, &RootOptions{Format: "text"}, "--db", dbPath)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "./sdk-v1")
	assert.Contains(t, out, "./sdk-v2")
	assert.Contains(t, out, "highly_conformant")
	// Newest run listed first.
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("./sdk-v2")), bytes.Index(buf.Bytes(), []byte("./sdk-v1")))
}

func TestHistory_JSONOutput(t *testing.T) {
	dbPath := seedHistory(t)

	buf, err := execHistory(t, &RootOptions{Format: "json"}, "--db", dbPath)
	require.NoError(t, err)

	var entries []history.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "./sdk-v2", entries[0].Candidate)
}

func TestHistory_Limit(t *testing.T) {
	dbPath := seedHistory(t)

	buf, err := execHistory(t, &RootOptions{Format: "json"}, "--db", dbPath, "--limit", "1")
	require.NoError(t, err)

	var entries []history.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entries))
	assert.Len(t, entries, 1)
}

func TestHistory_EmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	buf, err := execHistory(t, &RootOptions{Format: "text"}, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No recorded runs.")
}
