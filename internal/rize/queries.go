package rize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"rizesync/internal/core"
)

const summariesQuery = `
query GetDailyMetrics($start: ISO8601Date!, $end: ISO8601Date!) {
  summaries(startDate: $start, endDate: $end, bucketSize: "day") {
    workHours
    focusTime
    breakTime
    meetingTime
    trackedTime
    categories {
      type: category {
        name
      }
      trackedTime: timeSpent
    }
  }
}`

const projectEntriesQuery = `
query GetProjectEntries($start: ISO8601DateTime!, $end: ISO8601DateTime!) {
  projectTimeEntries(startTime: $start, endTime: $end) {
    duration
    project {
      name
    }
  }
}`

type (
	named struct {
		Name string `json:"name"`
	}

	categoryDTO struct {
		Type        *named   `json:"type"`
		Category    *named   `json:"category"`
		TrackedTime *float64 `json:"trackedTime"`
		TimeSpent   *float64 `json:"timeSpent"`
	}

	summaryDTO struct {
		WorkHours   float64       `json:"workHours"`
		FocusTime   float64       `json:"focusTime"`
		BreakTime   float64       `json:"breakTime"`
		MeetingTime float64       `json:"meetingTime"`
		TrackedTime float64       `json:"trackedTime"`
		Categories  []categoryDTO `json:"categories"`
	}

	projectEntryDTO struct {
		Duration float64 `json:"duration"`
		Project  *named  `json:"project"`
	}
)

// FetchSummary queries the day bucket for day. The API answers either with
// a single summary object or with a list of buckets; a list is summed.
func (c *Client) FetchSummary(ctx context.Context, day time.Time) (core.MetricBucket, error) {
	date := core.DayKey(day)
	var data struct {
		Summaries json.RawMessage `json:"summaries"`
	}
	err := c.do(ctx, summariesQuery, map[string]any{"start": date, "end": date}, &data)
	if err != nil {
		return core.MetricBucket{}, fmt.Errorf("fetch summary %s: %w", date, err)
	}

	dtos, err := decodeSummaries(data.Summaries)
	if err != nil {
		return core.MetricBucket{}, fmt.Errorf("fetch summary %s: %w", date, err)
	}
	if len(dtos) == 0 {
		return core.MetricBucket{}, fmt.Errorf("fetch summary %s: %w", date, ErrNoData)
	}

	buckets := make([]core.MetricBucket, 0, len(dtos))
	for _, d := range dtos {
		buckets = append(buckets, d.bucket())
	}
	return core.Sum(buckets...), nil
}

func decodeSummaries(raw json.RawMessage) ([]summaryDTO, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if raw[0] == '[' {
		var list []summaryDTO
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("%w: decode summaries: %v", ErrQueryFailed, err)
		}
		return list, nil
	}
	var one summaryDTO
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, fmt.Errorf("%w: decode summary: %v", ErrQueryFailed, err)
	}
	return []summaryDTO{one}, nil
}

func (d summaryDTO) bucket() core.MetricBucket {
	b := core.MetricBucket{
		WorkTime:    seconds(d.WorkHours),
		FocusTime:   seconds(d.FocusTime),
		BreakTime:   seconds(d.BreakTime),
		MeetingTime: seconds(d.MeetingTime),
		TrackedTime: seconds(d.TrackedTime),
	}
	for _, c := range d.Categories {
		b.Categories.Add(c.name(), c.duration())
	}
	return b
}

func (c categoryDTO) name() string {
	switch {
	case c.Type != nil && c.Type.Name != "":
		return c.Type.Name
	case c.Category != nil && c.Category.Name != "":
		return c.Category.Name
	}
	return core.UnknownName
}

func (c categoryDTO) duration() core.Seconds {
	switch {
	case c.TrackedTime != nil:
		return seconds(*c.TrackedTime)
	case c.TimeSpent != nil:
		return seconds(*c.TimeSpent)
	}
	return 0
}

// FetchProjectEntries queries the project time entries that fall on day
// (UTC day boundaries, as the API expects).
func (c *Client) FetchProjectEntries(ctx context.Context, day time.Time) ([]core.ProjectEntry, error) {
	date := core.DayKey(day)
	vars := map[string]any{
		"start": date + "T00:00:00Z",
		"end":   date + "T23:59:59Z",
	}
	var data struct {
		Entries []projectEntryDTO `json:"projectTimeEntries"`
	}
	if err := c.do(ctx, projectEntriesQuery, vars, &data); err != nil {
		return nil, fmt.Errorf("fetch project entries %s: %w", date, err)
	}

	out := make([]core.ProjectEntry, 0, len(data.Entries))
	for _, e := range data.Entries {
		if e.Project == nil {
			continue
		}
		name := e.Project.Name
		if name == "" {
			name = core.UnknownName
		}
		out = append(out, core.ProjectEntry{Project: name, Duration: seconds(e.Duration)})
	}
	return out, nil
}

// seconds converts an API number to whole seconds. Negative values are
// treated as absent.
func seconds(v float64) core.Seconds {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	return core.Seconds(math.Round(v))
}
