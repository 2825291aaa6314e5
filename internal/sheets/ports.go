// Package sheets defines the spreadsheet export port: one row per synced
// note, keyed by (kind, key), rewritten in place on every sync.
package sheets

import (
	"context"
	"time"
)

// Header is the first row of the export sheet.
var Header = []string{"Kind", "Key", "Work h", "Focus h", "Meeting h", "Break h", "Tracked h", "Synced at"}

// MetricsRow is the spreadsheet view of one note's rollup. Durations are in
// hours, rounded to two decimals.
type MetricsRow struct {
	Kind         string
	Key          string
	WorkHours    float64
	FocusHours   float64
	MeetingHours float64
	BreakHours   float64
	TrackedHours float64
	SyncedAt     time.Time
}

// Ports for outbound adapters.
type (
	MetricsExporter interface {
		// Upsert writes row, replacing an existing row with the same kind
		// and key. It returns a reference to the written row.
		Upsert(ctx context.Context, row MetricsRow) (rowRef string, err error)
	}
)
