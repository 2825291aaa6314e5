package report

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rizesync/internal/core"
)

var syncedAt = time.Date(2026, 10, 18, 14, 5, 0, 0, time.UTC)

func sampleInput(at time.Time) Input {
	var m core.MetricBucket
	m.WorkTime = 18000
	m.FocusTime = 3600
	m.BreakTime = 600
	m.TrackedTime = 18000
	m.Categories.Add("Coding", 7200)
	m.Categories.Add("Meeting", 3600)
	projects := core.FoldProjectEntries([]core.ProjectEntry{
		{Project: "Project A", Duration: 3600},
		{Project: "Project B", Duration: 1800},
	})
	return Input{Metrics: m, Projects: projects, SyncedAt: at}
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		seconds core.Seconds
		want    string
	}{
		{5400, "1h 30m"},
		{0, "0h 0m"},
		{59, "0h 0m"},
		{3661, "1h 1m"},
		{36000, "10h 0m"},
		{-5, "0h 0m"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.seconds), func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTime(tt.seconds))
		})
	}
}

func TestHours(t *testing.T) {
	assert.Equal(t, 0.0, Hours(0))
	assert.Equal(t, 1.5, Hours(5400))
	assert.Equal(t, 0.33, Hours(1200))
	assert.Equal(t, 2.78, Hours(10000))

	assert.Equal(t, "0.0", FormatHours(Hours(0)))
	assert.Equal(t, "5.0", FormatHours(Hours(18000)))
	assert.Equal(t, "0.33", FormatHours(Hours(1200)))
}

func TestRenderDaily_Fields(t *testing.T) {
	r := RenderDaily(sampleInput(syncedAt))

	got := map[string]string{}
	var keys []string
	for _, f := range r.Fields {
		got[f.Key] = f.Value
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{KeyWorkHours, KeyFocusTime, KeyMeetingTime, KeyBreakTime, KeyTrackedTime, KeyLastSync}, keys)
	assert.Equal(t, "5.0", got[KeyWorkHours])
	assert.Equal(t, "1.0", got[KeyFocusTime])
	assert.Equal(t, "0.0", got[KeyMeetingTime])
	assert.Equal(t, "0.17", got[KeyBreakTime])
	assert.Equal(t, "2026-10-18T14:05:00Z", got[KeyLastSync])
}

func TestRenderDaily_Body(t *testing.T) {
	r := RenderDaily(sampleInput(syncedAt))

	want := strings.Join([]string{
		DailyMarker,
		"_Synced: 2026-10-18 14:05_",
		"",
		"### Top Categories",
		"| Category | Time |",
		"| :--- | :--- |",
		"| Coding | 2h 0m |",
		"| Meeting | 1h 0m |",
		"",
		"### Top Projects",
		"| Project | Time |",
		"| :--- | :--- |",
		"| Project A | 1h 0m |",
		"| Project B | 0h 30m |",
		"",
	}, "\n")
	assert.Equal(t, want, r.Section.Text)
	assert.Equal(t, KindDaily, r.Section.Kind)
}

func TestRender_OmitsEmptyTables(t *testing.T) {
	r := RenderDaily(Input{SyncedAt: syncedAt})

	assert.NotContains(t, r.Section.Text, "Top Categories")
	assert.NotContains(t, r.Section.Text, "Top Projects")
	assert.Equal(t, DailyMarker+"\n_Synced: 2026-10-18 14:05_\n", r.Section.Text)
	for _, f := range r.Fields {
		if f.Tag == TagFloat {
			assert.Equal(t, "0.0", f.Value, f.Key)
		}
	}
}

func TestTop_StableForTies(t *testing.T) {
	var tl core.Tally
	tl.Add("Zeta", 100)
	tl.Add("Alpha", 300)
	tl.Add("Mid", 100)
	tl.Add("Beta", 300)

	rows := Top(tl, TopN)

	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"Alpha", "Beta", "Zeta", "Mid"}, names)
}

func TestTop_CapsAtTen(t *testing.T) {
	var tl core.Tally
	for i := 0; i < 15; i++ {
		tl.Add(fmt.Sprintf("cat-%02d", i), core.Seconds(i*60))
	}

	rows := Top(tl, TopN)

	require.Len(t, rows, TopN)
	assert.Equal(t, "cat-14", rows[0].Name)
	assert.Equal(t, "cat-05", rows[9].Name)
}

func TestRender_EscapesPipes(t *testing.T) {
	in := Input{SyncedAt: syncedAt}
	in.Projects.Add("a|b", 60)

	r := RenderDaily(in)

	assert.Contains(t, r.Section.Text, `| a\|b | 0h 1m |`)
}

func TestRenderWeekly(t *testing.T) {
	mon := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	sun := mon.AddDate(0, 0, 6)

	r := RenderWeekly(sampleInput(syncedAt), mon, sun, 5)

	assert.True(t, strings.HasPrefix(r.Section.Text, WeeklyMarker+"\n"))
	assert.Contains(t, r.Section.Text, "_Window: 2026-10-12 → 2026-10-18 (5 days with data)_")
	assert.NotEqual(t, DailyMarker, r.Section.Marker)

	got := map[string]Field{}
	for _, f := range r.Fields {
		got[f.Key] = f
	}
	assert.Equal(t, "5.0", got[KeyWeekTotalWork].Value)
	assert.Equal(t, "1.0", got[KeyWeekTotalFocus].Value)
	assert.Equal(t, Field{Key: KeyWeekDaysSynced, Value: "5", Tag: TagInt}, got[KeyWeekDaysSynced])
}
