// Package report turns aggregated metrics into note content: frontmatter
// fields plus a markdown section that can be merged back into a note any
// number of times.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"rizesync/internal/core"
)

// Kind distinguishes the report sections a note may carry.
type Kind string

const (
	KindDaily  Kind = "daily"
	KindWeekly Kind = "weekly"
)

// Section header lines. Each one appears exactly once per note and is the
// only handle used to find a previously written section.
const (
	DailyMarker  = "## 📊 Rize Metrics"
	WeeklyMarker = "## 📈 Rize Weekly Metrics"
)

// TopN caps the rows of every table.
const TopN = 10

// Frontmatter keys.
const (
	KeyWorkHours      = "rize_work_hours"
	KeyFocusTime      = "rize_focus_time"
	KeyMeetingTime    = "rize_meeting_time"
	KeyBreakTime      = "rize_break_time"
	KeyTrackedTime    = "rize_tracked_time"
	KeyLastSync       = "rize_last_sync"
	KeyWeekTotalWork  = "rize_week_total_work_hours"
	KeyWeekTotalFocus = "rize_week_total_focus_time"
	KeyWeekDaysSynced = "rize_week_days_synced"
)

const (
	syncedLayout       = "2006-01-02 15:04"
	tableSeparatorLine = "| :--- | :--- |"
	escapedPipe        = `\|`
)

// YAML scalar tags for frontmatter values.
const (
	TagFloat     = "!!float"
	TagInt       = "!!int"
	TagTimestamp = "!!timestamp"
)

type (
	// Field is one frontmatter entry. Value is already formatted; Tag is
	// the YAML scalar tag it must be written with.
	Field struct {
		Key   string
		Value string
		Tag   string
	}

	// Section is a machine-owned block of a note.
	Section struct {
		Kind   Kind
		Marker string
		Text   string
	}

	// Input is everything a render needs.
	Input struct {
		Metrics  core.MetricBucket
		Projects core.Tally
		SyncedAt time.Time
	}

	// Rendered is the result of a render.
	Rendered struct {
		Fields  []Field
		Section Section
	}
)

// RenderDaily renders the report for a single day.
func RenderDaily(in Input) Rendered {
	fields := append(metricFields(in.Metrics), lastSync(in.SyncedAt))

	var b strings.Builder
	writeHeader(&b, DailyMarker, in.SyncedAt)
	writeTables(&b, in)

	return Rendered{
		Fields:  fields,
		Section: Section{Kind: KindDaily, Marker: DailyMarker, Text: b.String()},
	}
}

// RenderWeekly renders the report for the ISO week spanning start..end.
// days is the number of days that actually returned data.
func RenderWeekly(in Input, start, end time.Time, days int) Rendered {
	fields := metricFields(in.Metrics)
	fields = append(fields,
		hoursField(KeyWeekTotalWork, in.Metrics.WorkTime),
		hoursField(KeyWeekTotalFocus, in.Metrics.FocusTime),
		Field{Key: KeyWeekDaysSynced, Value: strconv.Itoa(days), Tag: TagInt},
		lastSync(in.SyncedAt),
	)

	var b strings.Builder
	writeHeader(&b, WeeklyMarker, in.SyncedAt)
	fmt.Fprintf(&b, "_Window: %s → %s (%d days with data)_\n", core.DayKey(start), core.DayKey(end), days)
	writeTables(&b, in)

	return Rendered{
		Fields:  fields,
		Section: Section{Kind: KindWeekly, Marker: WeeklyMarker, Text: b.String()},
	}
}

func metricFields(m core.MetricBucket) []Field {
	return []Field{
		hoursField(KeyWorkHours, m.WorkTime),
		hoursField(KeyFocusTime, m.FocusTime),
		hoursField(KeyMeetingTime, m.MeetingTime),
		hoursField(KeyBreakTime, m.BreakTime),
		hoursField(KeyTrackedTime, m.TrackedTime),
	}
}

func hoursField(key string, s core.Seconds) Field {
	return Field{Key: key, Value: FormatHours(Hours(s)), Tag: TagFloat}
}

func lastSync(t time.Time) Field {
	return Field{Key: KeyLastSync, Value: t.Format(time.RFC3339), Tag: TagTimestamp}
}

func writeHeader(b *strings.Builder, marker string, syncedAt time.Time) {
	b.WriteString(marker)
	b.WriteString("\n")
	fmt.Fprintf(b, "_Synced: %s_\n", syncedAt.Format(syncedLayout))
}

func writeTables(b *strings.Builder, in Input) {
	writeTable(b, "Top Categories", "Category", in.Metrics.Categories)
	writeTable(b, "Top Projects", "Project", in.Projects)
}

func writeTable(b *strings.Builder, title, column string, t core.Tally) {
	if t.Len() == 0 {
		return
	}
	fmt.Fprintf(b, "\n### %s\n", title)
	fmt.Fprintf(b, "| %s | Time |\n", column)
	b.WriteString(tableSeparatorLine + "\n")
	for _, row := range Top(t, TopN) {
		fmt.Fprintf(b, "| %s | %s |\n", cell(row.Name), FormatTime(row.Duration))
	}
}

// Top returns at most n rows by descending duration. Equal durations keep
// the order in which the names were first seen.
func Top(t core.Tally, n int) []core.NamedDuration {
	rows := t.Entries()
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Duration > rows[j].Duration
	})
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", escapedPipe)
}
