package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bucket(work, focus Seconds, cats ...NamedDuration) MetricBucket {
	b := MetricBucket{WorkTime: work, FocusTime: focus, TrackedTime: work}
	for _, c := range cats {
		b.Categories.Add(c.Name, c.Duration)
	}
	return b
}

func TestSum_AddsNumericFieldsAndCategories(t *testing.T) {
	mon := bucket(3600, 1800, NamedDuration{"Coding", 2000}, NamedDuration{"Email", 300})
	tue := bucket(7200, 0, NamedDuration{"Email", 600}, NamedDuration{"Design", 100})
	tue.MeetingTime = 900
	tue.BreakTime = 120

	got := Sum(mon, tue)

	assert.Equal(t, Seconds(10800), got.WorkTime)
	assert.Equal(t, Seconds(1800), got.FocusTime)
	assert.Equal(t, Seconds(900), got.MeetingTime)
	assert.Equal(t, Seconds(120), got.BreakTime)
	assert.Equal(t, Seconds(10800), got.TrackedTime)
	assert.Equal(t, []NamedDuration{
		{"Coding", 2000},
		{"Email", 900},
		{"Design", 100},
	}, got.Categories.Entries())
}

func TestSum_OrderIndependentTotals(t *testing.T) {
	days := []MetricBucket{
		bucket(100, 10, NamedDuration{"A", 1}, NamedDuration{"B", 2}),
		bucket(200, 20, NamedDuration{"B", 3}),
		bucket(0, 0),
		bucket(300, 30, NamedDuration{"C", 4}, NamedDuration{"A", 5}),
	}
	reversed := make([]MetricBucket, len(days))
	for i, d := range days {
		reversed[len(days)-1-i] = d
	}

	forward := Sum(days...)
	backward := Sum(reversed...)

	assert.Equal(t, forward.WorkTime, backward.WorkTime)
	assert.Equal(t, forward.FocusTime, backward.FocusTime)
	for _, name := range []string{"A", "B", "C"} {
		f, ok := forward.Categories.Get(name)
		require.True(t, ok, name)
		b, ok := backward.Categories.Get(name)
		require.True(t, ok, name)
		assert.Equal(t, f, b, name)
	}
	a, _ := forward.Categories.Get("A")
	assert.Equal(t, Seconds(6), a)
}

func TestSum_EmptyIsZero(t *testing.T) {
	assert.True(t, Sum().IsZero())
	assert.True(t, Sum(MetricBucket{}, MetricBucket{}).IsZero())
}

func TestSum_DoesNotMutateInputs(t *testing.T) {
	a := bucket(1, 1, NamedDuration{"X", 10})
	b := bucket(1, 1, NamedDuration{"X", 5})

	_ = Sum(a, b)

	x, _ := a.Categories.Get("X")
	assert.Equal(t, Seconds(10), x)
}

func TestTally_CaseSensitiveKeys(t *testing.T) {
	var tl Tally
	tl.Add("coding", 1)
	tl.Add("Coding", 2)
	tl.Add("coding", 3)

	assert.Equal(t, 2, tl.Len())
	lower, _ := tl.Get("coding")
	upper, _ := tl.Get("Coding")
	assert.Equal(t, Seconds(4), lower)
	assert.Equal(t, Seconds(2), upper)
	assert.Equal(t, Seconds(6), tl.Total())
}

func TestFoldProjectEntries(t *testing.T) {
	entries := []ProjectEntry{
		{Project: "Project A", Duration: 3600},
		{Project: "", Duration: 999},
		{Project: "Project B", Duration: 1800},
		{Project: "Project A", Duration: 600},
		{Project: UnknownName, Duration: 60},
	}

	got := FoldProjectEntries(entries)

	assert.Equal(t, []NamedDuration{
		{"Project A", 4200},
		{"Project B", 1800},
		{UnknownName, 60},
	}, got.Entries())
}

func TestMergeTallies(t *testing.T) {
	a := FoldProjectEntries([]ProjectEntry{{"P", 1}, {"Q", 2}})
	b := FoldProjectEntries([]ProjectEntry{{"Q", 3}, {"R", 4}})

	got := MergeTallies(a, b)

	assert.Equal(t, []NamedDuration{{"P", 1}, {"Q", 5}, {"R", 4}}, got.Entries())
	q, _ := a.Get("Q")
	assert.Equal(t, Seconds(2), q, "inputs stay untouched")
}

func TestWeekKey(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2026-10-18", "2026-W42"},
		{"2026-01-05", "2026-W02"},
		{"2024-12-30", "2025-W01"}, // ISO year rolls over early
		{"2021-01-03", "2020-W53"},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			d, err := ParseDay(tt.date, time.UTC)
			require.NoError(t, err)
			assert.Equal(t, tt.want, WeekKey(d))
		})
	}
}

func TestWeekBounds(t *testing.T) {
	sunday, err := ParseDay("2026-10-18", time.UTC)
	require.NoError(t, err)

	mon, sun := WeekBounds(sunday.Add(15 * time.Hour))

	assert.Equal(t, "2026-10-12", DayKey(mon))
	assert.Equal(t, "2026-10-18", DayKey(sun))
}

func TestDaysBetween(t *testing.T) {
	start, _ := ParseDay("2026-02-27", time.UTC)
	end, _ := ParseDay("2026-03-02", time.UTC)

	days := DaysBetween(start, end)

	keys := make([]string, 0, len(days))
	for _, d := range days {
		keys = append(keys, DayKey(d))
	}
	assert.Equal(t, []string{"2026-02-27", "2026-02-28", "2026-03-01", "2026-03-02"}, keys)
	assert.Nil(t, DaysBetween(end, start))
}

func TestAfter(t *testing.T) {
	day, _ := ParseDay("2026-10-18", time.UTC)

	assert.False(t, After(day.Add(23*time.Hour), day))
	assert.True(t, After(day.AddDate(0, 0, 1), day.Add(23*time.Hour)))
}
