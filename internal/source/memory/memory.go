// Package memory provides an in-process Source backed by fixed per-day data.
// It records every call so tests can assert on fetch behaviour.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"rizesync/internal/core"
	"rizesync/internal/source"
)

// ErrNoData is returned for days that were never seeded.
var ErrNoData = errors.New("memory: no data for day")

type Source struct {
	mu           sync.Mutex
	summaries    map[string]core.MetricBucket
	projects     map[string][]core.ProjectEntry
	failSummary  map[string]error
	failProjects map[string]error

	summaryCalls []string
	projectCalls []string
}

var _ source.Source = (*Source)(nil)

func New() *Source {
	return &Source{
		summaries:    make(map[string]core.MetricBucket),
		projects:     make(map[string][]core.ProjectEntry),
		failSummary:  make(map[string]error),
		failProjects: make(map[string]error),
	}
}

// SetDay seeds the summary and project entries returned for date
// (YYYY-MM-DD).
func (s *Source) SetDay(date string, b core.MetricBucket, entries ...core.ProjectEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[date] = b
	s.projects[date] = entries
}

// FailSummary makes every summary fetch for date return err.
func (s *Source) FailSummary(date string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSummary[date] = err
}

// FailProjects makes every project fetch for date return err.
func (s *Source) FailProjects(date string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failProjects[date] = err
}

func (s *Source) FetchSummary(ctx context.Context, day time.Time) (core.MetricBucket, error) {
	if err := ctx.Err(); err != nil {
		return core.MetricBucket{}, err
	}
	key := core.DayKey(day)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaryCalls = append(s.summaryCalls, key)
	if err := s.failSummary[key]; err != nil {
		return core.MetricBucket{}, err
	}
	b, ok := s.summaries[key]
	if !ok {
		return core.MetricBucket{}, ErrNoData
	}
	b.Categories = b.Categories.Clone()
	return b, nil
}

func (s *Source) FetchProjectEntries(ctx context.Context, day time.Time) ([]core.ProjectEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := core.DayKey(day)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.projectCalls = append(s.projectCalls, key)
	if err := s.failProjects[key]; err != nil {
		return nil, err
	}
	return append([]core.ProjectEntry(nil), s.projects[key]...), nil
}

// SummaryCalls returns the dates passed to FetchSummary, in call order.
func (s *Source) SummaryCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.summaryCalls...)
}

// ProjectCalls returns the dates passed to FetchProjectEntries, in call order.
func (s *Source) ProjectCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.projectCalls...)
}
