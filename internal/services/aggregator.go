package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rizesync/internal/core"
	"rizesync/internal/log"
	"rizesync/internal/source"
)

var ErrFutureDate = errors.New("date is after today")

// Window is the aggregated data of a date range.
type Window struct {
	Start    time.Time
	End      time.Time
	Metrics  core.MetricBucket
	Projects core.Tally

	DaysFetched int
	DaysFailed  int
	DaysSkipped int
}

// Aggregator fetches per-day data and folds it into windows. Days after
// today are never requested.
type Aggregator struct {
	src source.Source
	now func() time.Time
}

// NewAggregator returns an aggregator over src. A nil now uses time.Now.
func NewAggregator(src source.Source, now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	return &Aggregator{src: src, now: now}
}

// Day fetches one day. A summary failure is returned; a project failure
// only empties the project tally.
func (a *Aggregator) Day(ctx context.Context, day time.Time) (Window, error) {
	day = core.Day(day)
	if core.After(day, a.now()) {
		return Window{}, fmt.Errorf("%s: %w", core.DayKey(day), ErrFutureDate)
	}

	metrics, err := a.src.FetchSummary(ctx, day)
	if err != nil {
		return Window{}, err
	}

	entries, err := a.src.FetchProjectEntries(ctx, day)
	if err != nil {
		log.FromContext(ctx, log.ComponentRize).WarnContext(ctx, "Project entries unavailable",
			log.FieldDate, core.DayKey(day), log.FieldError, err)
		entries = nil
	}

	return Window{
		Start:       day,
		End:         day,
		Metrics:     metrics,
		Projects:    core.FoldProjectEntries(entries),
		DaysFetched: 1,
	}, nil
}

// Range sums every day from start to end inclusive. Failed days contribute
// nothing and do not stop the range; days after today are skipped without
// a fetch. Only context cancellation aborts.
func (a *Aggregator) Range(ctx context.Context, start, end time.Time) (Window, error) {
	w := Window{Start: core.Day(start), End: core.Day(end)}
	var (
		buckets []core.MetricBucket
		tallies []core.Tally
	)
	for _, day := range core.DaysBetween(start, end) {
		if err := ctx.Err(); err != nil {
			return Window{}, err
		}
		if core.After(day, a.now()) {
			w.DaysSkipped++
			continue
		}
		dw, err := a.Day(ctx, day)
		if err != nil {
			w.DaysFailed++
			log.FromContext(ctx, log.ComponentRize).WarnContext(ctx, "Day skipped in range",
				log.FieldDate, core.DayKey(day), log.FieldError, err)
			continue
		}
		w.DaysFetched++
		buckets = append(buckets, dw.Metrics)
		tallies = append(tallies, dw.Projects)
	}
	w.Metrics = core.Sum(buckets...)
	w.Projects = core.MergeTallies(tallies...)
	return w, nil
}
