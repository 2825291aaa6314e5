// Package storage is the SQLite sync ledger: one row per sync run and one
// row per note outcome within a run.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var (
	ErrRunNotFound  = errors.New("sync run not found")
	ErrNoteNotFound = errors.New("note sync not found")
)

const dsnPragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

// NewSQLiteRepository opens (creating if needed) the ledger at dbPath and
// applies pending migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// StartRun records the beginning of a sync run.
func (r *SQLiteRepository) StartRun(ctx context.Context, id, mode string, startedAt time.Time) error {
	if err := r.queries.CreateSyncRun(ctx, id, mode, startedAt); err != nil {
		return fmt.Errorf("create sync run %s: %w", id, err)
	}
	slog.DebugContext(ctx, "Sync run started", "run_id", id, "mode", mode)
	return nil
}

// RecordNote stores the outcome of one note and returns its row id.
func (r *SQLiteRepository) RecordNote(ctx context.Context, n NoteSync) (int64, error) {
	id, err := r.queries.CreateNoteSync(ctx, n)
	if err != nil {
		return 0, fmt.Errorf("record note %s %s: %w", n.Kind, n.NoteKey, err)
	}
	return id, nil
}

// FinishRun stamps the run with its end time and outcome counts.
func (r *SQLiteRepository) FinishRun(ctx context.Context, id string, finishedAt time.Time, written, skipped, failed int) error {
	n, err := r.queries.FinishSyncRun(ctx, FinishSyncRunParams{
		ID:           id,
		FinishedAt:   finishedAt,
		NotesWritten: int64(written),
		NotesSkipped: int64(skipped),
		NotesFailed:  int64(failed),
	})
	if err != nil {
		return fmt.Errorf("finish sync run %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("finish sync run %s: %w", id, ErrRunNotFound)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (r *SQLiteRepository) RecentRuns(ctx context.Context, limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = 10
	}
	runs, err := r.queries.ListRecentSyncRuns(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list recent runs: %w", err)
	}
	return runs, nil
}

// NotesForRun returns the note outcomes of one run in recording order.
func (r *SQLiteRepository) NotesForRun(ctx context.Context, runID string) ([]NoteSync, error) {
	notes, err := r.queries.ListNoteSyncsByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("list notes for run %s: %w", runID, err)
	}
	return notes, nil
}

// LatestNote returns the most recent outcome recorded for a note.
func (r *SQLiteRepository) LatestNote(ctx context.Context, kind, key string) (NoteSync, error) {
	n, err := r.queries.LatestNoteSync(ctx, kind, key)
	if errors.Is(err, sql.ErrNoRows) {
		return NoteSync{}, fmt.Errorf("%s %s: %w", kind, key, ErrNoteNotFound)
	}
	if err != nil {
		return NoteSync{}, fmt.Errorf("latest note %s %s: %w", kind, key, err)
	}
	return n, nil
}
