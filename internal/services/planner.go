// Package services orchestrates a sync pass: it plans which notes to write,
// aggregates remote metrics for each one and merges the rendered report
// into the vault.
//
// This file implements the Strategy Pattern for target planning. Each sync
// mode maps to one or more planners that turn candidate dates into notes.
package services

import (
	"fmt"
	"time"

	"rizesync/internal/config"
	"rizesync/internal/core"
	"rizesync/internal/report"
)

// Target is one note to (re)write. Daily targets span a single day; weekly
// targets span Monday..Sunday of an ISO week.
type Target struct {
	Kind  report.Kind
	Key   string
	Start time.Time
	End   time.Time
}

// TargetPlanner is the strategy interface for turning candidate dates into
// note targets.
type TargetPlanner interface {
	Plan(dates []time.Time) []Target
}

// DailyPlanner yields one target per distinct date.
type DailyPlanner struct{}

func (DailyPlanner) Plan(dates []time.Time) []Target {
	seen := make(map[string]bool, len(dates))
	var out []Target
	for _, d := range dates {
		key := core.DayKey(d)
		if seen[key] {
			continue
		}
		seen[key] = true
		day := core.Day(d)
		out = append(out, Target{Kind: report.KindDaily, Key: key, Start: day, End: day})
	}
	return out
}

// WeeklyPlanner yields one target per distinct ISO week.
type WeeklyPlanner struct{}

func (WeeklyPlanner) Plan(dates []time.Time) []Target {
	seen := make(map[string]bool)
	var out []Target
	for _, d := range dates {
		key := core.WeekKey(d)
		if seen[key] {
			continue
		}
		seen[key] = true
		start, end := core.WeekBounds(d)
		out = append(out, Target{Kind: report.KindWeekly, Key: key, Start: start, End: end})
	}
	return out
}

// plannerStrategies maps sync modes to the planners they run, in order.
var plannerStrategies = map[string][]TargetPlanner{
	config.ModeDaily:  {DailyPlanner{}},
	config.ModeWeekly: {WeeklyPlanner{}},
	config.ModeBoth:   {DailyPlanner{}, WeeklyPlanner{}},
}

// GetPlanners returns the planners for mode.
func GetPlanners(mode string) ([]TargetPlanner, error) {
	planners, ok := plannerStrategies[mode]
	if !ok {
		return nil, fmt.Errorf("unknown sync mode: %s", mode)
	}
	return planners, nil
}

// Selection picks the candidate dates of a run: either one explicit date or
// the lookback window ending today.
type Selection struct {
	Date     time.Time // zero means "use Lookback"
	Lookback int
}

// SelectDates resolves sel against today. Dates after today are returned
// separately and must not be fetched.
func SelectDates(sel Selection, today time.Time) (dates, future []time.Time) {
	today = core.Day(today)
	if !sel.Date.IsZero() {
		d := core.Day(sel.Date)
		if core.After(d, today) {
			return nil, []time.Time{d}
		}
		return []time.Time{d}, nil
	}
	lookback := sel.Lookback
	if lookback < 0 {
		lookback = 0
	}
	return core.DaysBetween(today.AddDate(0, 0, -lookback), today), nil
}
