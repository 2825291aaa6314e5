package storage

import "time"

// Note outcomes as stored in note_syncs.status.
const (
	StatusWritten = "written"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// SyncRun is one invocation of the sync pass. FinishedAt is zero while the
// run is still in progress or when it crashed.
type SyncRun struct {
	ID           string
	Mode         string
	StartedAt    time.Time
	FinishedAt   time.Time
	NotesWritten int64
	NotesSkipped int64
	NotesFailed  int64
}

// NoteSync is the outcome of syncing one note within a run.
type NoteSync struct {
	ID             int64
	RunID          string
	Kind           string
	NoteKey        string
	Path           string
	WindowStart    string
	WindowEnd      string
	DaysWithData   int64
	WorkSeconds    int64
	FocusSeconds   int64
	TrackedSeconds int64
	Status         string
	Error          string
	SyncedAt       time.Time
}
