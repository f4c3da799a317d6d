package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opentrust/otpconform/internal/report"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RecordAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	older := Entry{
		Candidate: "./sdk-v1",
		Verdict:   report.VerdictPartiallyConformant,
		Score:     80,
		Passed:    4,
		Total:     5,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	newer := Entry{
		Candidate: "./sdk-v2",
		Verdict:   report.VerdictHighlyConformant,
		Score:     100,
		Passed:    5,
		Total:     5,
		CreatedAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.Record(ctx, older))
	require.NoError(t, s.Record(ctx, newer))

	entries, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, "./sdk-v2", entries[0].Candidate)
	assert.Equal(t, report.VerdictHighlyConformant, entries[0].Verdict)
	assert.Equal(t, 100.0, entries[0].Score)
	assert.Equal(t, "./sdk-v1", entries[1].Candidate)
	assert.True(t, entries[1].CreatedAt.Equal(older.CreatedAt))

	// Missing ids are filled in.
	assert.NotEmpty(t, entries[0].ID)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)
}

func TestStore_ListLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for n := 0; n < 5; n++ {
		require.NoError(t, s.Record(ctx, Entry{
			Candidate: "./sdk",
			Verdict:   report.VerdictNotConformant,
			CreatedAt: time.Date(2025, 1, 1+n, 0, 0, 0, 0, time.UTC),
		}))
	}

	entries, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(context.Background(), Entry{Candidate: "./sdk"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	entries, err := s.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
