package google

import (
	"testing"
	"time"

	ports "rizesync/internal/sheets"
)

func TestFindRow(t *testing.T) {
	values := [][]interface{}{
		{"Kind", "Key"},
		{"daily", "2024-01-01"},
		{"weekly", "2024-W01"},
		{},
		{"daily", " 2024-01-02 "},
	}

	tests := []struct {
		name string
		kind string
		key  string
		want int
	}{
		{"daily row", "daily", "2024-01-01", 2},
		{"weekly row", "weekly", "2024-W01", 3},
		{"trimmed cell", "daily", "2024-01-02", 5},
		{"kind must match", "weekly", "2024-01-01", 0},
		{"missing", "daily", "2024-12-31", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findRow(values, tt.kind, tt.key); got != tt.want {
				t.Errorf("findRow(%q, %q) = %d, want %d", tt.kind, tt.key, got, tt.want)
			}
		})
	}
}

func TestHasHeader(t *testing.T) {
	if hasHeader(nil) {
		t.Error("empty sheet has no header")
	}
	if !hasHeader([][]interface{}{{"kind", "KEY", "Work h"}}) {
		t.Error("header match should be case-insensitive")
	}
	if hasHeader([][]interface{}{{"daily", "2024-01-01"}}) {
		t.Error("data row is not a header")
	}
}

func TestRowValues(t *testing.T) {
	row := ports.MetricsRow{
		Kind:      "daily",
		Key:       "2024-01-01",
		WorkHours: 5,
		SyncedAt:  time.Date(2024, 1, 1, 18, 30, 0, 0, time.UTC),
	}

	got := rowValues(row)

	if len(got) != len(ports.Header) {
		t.Fatalf("rowValues() has %d cells, want %d", len(got), len(ports.Header))
	}
	if got[2] != 5.0 {
		t.Errorf("work hours cell = %v, want 5", got[2])
	}
	if got[7] != "2024-01-01 18:30" {
		t.Errorf("synced at cell = %v, want 2024-01-01 18:30", got[7])
	}
}

func TestRowRange(t *testing.T) {
	if got := rowRange("Rize", 7); got != "Rize!A7:H7" {
		t.Errorf("rowRange() = %q", got)
	}
}
