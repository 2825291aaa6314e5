// Package source defines the boundary to the remote analytics API and the
// decorators that sit in front of it.
package source

import (
	"context"
	"time"

	"rizesync/internal/core"
)

// Ports for the remote time-tracking API. Implementations fetch exactly one
// calendar day per call.
type (
	SummaryFetcher interface {
		// FetchSummary returns the totals and category breakdown for day.
		FetchSummary(ctx context.Context, day time.Time) (core.MetricBucket, error)
	}

	ProjectFetcher interface {
		// FetchProjectEntries returns the raw project time entries for day.
		FetchProjectEntries(ctx context.Context, day time.Time) ([]core.ProjectEntry, error)
	}

	Source interface {
		SummaryFetcher
		ProjectFetcher
	}
)
