package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

// timestamps are stored as fixed-width RFC 3339 text in UTC so that they
// sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}

const createSyncRun = `
INSERT INTO sync_runs (id, mode, started_at) VALUES (?, ?, ?)
`

func (q *Queries) CreateSyncRun(ctx context.Context, id, mode string, startedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, createSyncRun, id, mode, formatTime(startedAt))
	return err
}

const finishSyncRun = `
UPDATE sync_runs
SET finished_at = ?, notes_written = ?, notes_skipped = ?, notes_failed = ?
WHERE id = ?
`

type FinishSyncRunParams struct {
	ID           string
	FinishedAt   time.Time
	NotesWritten int64
	NotesSkipped int64
	NotesFailed  int64
}

func (q *Queries) FinishSyncRun(ctx context.Context, arg FinishSyncRunParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, finishSyncRun,
		formatTime(arg.FinishedAt),
		arg.NotesWritten,
		arg.NotesSkipped,
		arg.NotesFailed,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const createNoteSync = `
INSERT INTO note_syncs (
    run_id, kind, note_key, path, window_start, window_end, days_with_data,
    work_seconds, focus_seconds, tracked_seconds, status, error, synced_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateNoteSync(ctx context.Context, n NoteSync) (int64, error) {
	res, err := q.db.ExecContext(ctx, createNoteSync,
		n.RunID,
		n.Kind,
		n.NoteKey,
		n.Path,
		n.WindowStart,
		n.WindowEnd,
		n.DaysWithData,
		n.WorkSeconds,
		n.FocusSeconds,
		n.TrackedSeconds,
		n.Status,
		n.Error,
		formatTime(n.SyncedAt),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const listRecentSyncRuns = `
SELECT id, mode, started_at, finished_at, notes_written, notes_skipped, notes_failed
FROM sync_runs
ORDER BY started_at DESC, rowid DESC
LIMIT ?
`

func (q *Queries) ListRecentSyncRuns(ctx context.Context, limit int64) ([]SyncRun, error) {
	rows, err := q.db.QueryContext(ctx, listRecentSyncRuns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SyncRun
	for rows.Next() {
		var (
			i        SyncRun
			started  string
			finished sql.NullString
		)
		if err := rows.Scan(&i.ID, &i.Mode, &started, &finished, &i.NotesWritten, &i.NotesSkipped, &i.NotesFailed); err != nil {
			return nil, err
		}
		if i.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if finished.Valid {
			if i.FinishedAt, err = parseTime(finished.String); err != nil {
				return nil, err
			}
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listNoteSyncsByRun = `
SELECT id, run_id, kind, note_key, path, window_start, window_end, days_with_data,
       work_seconds, focus_seconds, tracked_seconds, status, error, synced_at
FROM note_syncs
WHERE run_id = ?
ORDER BY id
`

func (q *Queries) ListNoteSyncsByRun(ctx context.Context, runID string) ([]NoteSync, error) {
	rows, err := q.db.QueryContext(ctx, listNoteSyncsByRun, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNoteSyncs(rows)
}

const latestNoteSync = `
SELECT id, run_id, kind, note_key, path, window_start, window_end, days_with_data,
       work_seconds, focus_seconds, tracked_seconds, status, error, synced_at
FROM note_syncs
WHERE kind = ? AND note_key = ?
ORDER BY id DESC
LIMIT 1
`

func (q *Queries) LatestNoteSync(ctx context.Context, kind, key string) (NoteSync, error) {
	rows, err := q.db.QueryContext(ctx, latestNoteSync, kind, key)
	if err != nil {
		return NoteSync{}, err
	}
	defer rows.Close()

	items, err := scanNoteSyncs(rows)
	if err != nil {
		return NoteSync{}, err
	}
	if len(items) == 0 {
		return NoteSync{}, sql.ErrNoRows
	}
	return items[0], nil
}

func scanNoteSyncs(rows *sql.Rows) ([]NoteSync, error) {
	var items []NoteSync
	for rows.Next() {
		var (
			i      NoteSync
			synced string
		)
		if err := rows.Scan(
			&i.ID,
			&i.RunID,
			&i.Kind,
			&i.NoteKey,
			&i.Path,
			&i.WindowStart,
			&i.WindowEnd,
			&i.DaysWithData,
			&i.WorkSeconds,
			&i.FocusSeconds,
			&i.TrackedSeconds,
			&i.Status,
			&i.Error,
			&synced,
		); err != nil {
			return nil, err
		}
		t, err := parseTime(synced)
		if err != nil {
			return nil, err
		}
		i.SyncedAt = t
		items = append(items, i)
	}
	return items, rows.Err()
}
