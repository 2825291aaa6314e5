package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepository_RunLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	started := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.StartRun(ctx, "run-1", "both", started))

	_, err := repo.RecordNote(ctx, NoteSync{
		RunID:        "run-1",
		Kind:         "daily",
		NoteKey:      "2024-01-05",
		Path:         "/vault/Daily/2024-01-05.md",
		WindowStart:  "2024-01-05",
		WindowEnd:    "2024-01-05",
		DaysWithData: 1,
		WorkSeconds:  3600,
		Status:       StatusWritten,
		SyncedAt:     started.Add(time.Second),
	})
	require.NoError(t, err)
	_, err = repo.RecordNote(ctx, NoteSync{
		RunID:       "run-1",
		Kind:        "weekly",
		NoteKey:     "2024-W01",
		Path:        "/vault/Weekly/2024-W01.md",
		WindowStart: "2024-01-01",
		WindowEnd:   "2024-01-07",
		Status:      StatusFailed,
		Error:       "permission denied",
		SyncedAt:    started.Add(2 * time.Second),
	})
	require.NoError(t, err)

	require.NoError(t, repo.FinishRun(ctx, "run-1", started.Add(time.Minute), 1, 0, 1))

	runs, err := repo.RecentRuns(ctx, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "both", runs[0].Mode)
	assert.True(t, runs[0].StartedAt.Equal(started))
	assert.True(t, runs[0].FinishedAt.Equal(started.Add(time.Minute)))
	assert.Equal(t, int64(1), runs[0].NotesWritten)
	assert.Equal(t, int64(1), runs[0].NotesFailed)

	notes, err := repo.NotesForRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "2024-01-05", notes[0].NoteKey)
	assert.Equal(t, int64(3600), notes[0].WorkSeconds)
	assert.Equal(t, "permission denied", notes[1].Error)
}

func TestRepository_RecentRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.StartRun(ctx, id, "daily", base.Add(time.Duration(i)*time.Hour)))
	}

	runs, err := repo.RecentRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
	assert.True(t, runs[0].FinishedAt.IsZero(), "unfinished run has no end time")
}

func TestRepository_FinishUnknownRun(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.FinishRun(context.Background(), "missing", time.Now(), 0, 0, 0)

	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRepository_LatestNote(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	now := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.StartRun(ctx, "r1", "daily", now))
	require.NoError(t, repo.StartRun(ctx, "r2", "daily", now.Add(time.Hour)))

	for _, run := range []string{"r1", "r2"} {
		_, err := repo.RecordNote(ctx, NoteSync{
			RunID: run, Kind: "daily", NoteKey: "2024-01-05", Path: "p",
			WindowStart: "2024-01-05", WindowEnd: "2024-01-05",
			Status: StatusWritten, SyncedAt: now,
		})
		require.NoError(t, err)
	}

	n, err := repo.LatestNote(ctx, "daily", "2024-01-05")
	require.NoError(t, err)
	assert.Equal(t, "r2", n.RunID)

	_, err = repo.LatestNote(ctx, "weekly", "2024-W01")
	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestRepository_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.StartRun(ctx, "persisted", "weekly", time.Now()))
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteRepository(path)
	require.NoError(t, err)
	defer repo.Close()

	runs, err := repo.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "persisted", runs[0].ID)
}
