package google

import (
	"fmt"
	"strings"

	ports "rizesync/internal/sheets"
)

const syncedAtLayout = "2006-01-02 15:04"

// findRow returns the 1-based sheet row holding kind/key in columns A and B,
// or 0 when no row matches. values is the A:B range as returned by the API.
func findRow(values [][]interface{}, kind, key string) int {
	for i, row := range values {
		cols := toStrings(row)
		if len(cols) < 2 {
			continue
		}
		if cols[0] == kind && cols[1] == key {
			return i + 1
		}
	}
	return 0
}

// hasHeader reports whether the first row of values is the export header.
func hasHeader(values [][]interface{}) bool {
	if len(values) == 0 {
		return false
	}
	cols := toStrings(values[0])
	return len(cols) >= 2 && strings.EqualFold(cols[0], ports.Header[0]) && strings.EqualFold(cols[1], ports.Header[1])
}

func rowValues(r ports.MetricsRow) []interface{} {
	return []interface{}{
		r.Kind,
		r.Key,
		r.WorkHours,
		r.FocusHours,
		r.MeetingHours,
		r.BreakHours,
		r.TrackedHours,
		r.SyncedAt.Format(syncedAtLayout),
	}
}

func headerValues() []interface{} {
	out := make([]interface{}, len(ports.Header))
	for i, h := range ports.Header {
		out[i] = h
	}
	return out
}

func rowRange(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:H%d", sheet, row, row)
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
