// Package core holds the time-tracking domain: metric buckets, duration
// tallies and the calendar helpers used to name notes.
package core

// Seconds is a duration as reported by the remote analytics API.
type Seconds = int64

type (
	// MetricBucket is the set of totals for one time window. Values are
	// built once per fetch and never mutated afterwards; Sum returns a new
	// bucket.
	MetricBucket struct {
		WorkTime    Seconds
		FocusTime   Seconds
		BreakTime   Seconds
		MeetingTime Seconds
		TrackedTime Seconds
		Categories  Tally
	}

	// NamedDuration is one row of a Tally.
	NamedDuration struct {
		Name     string
		Duration Seconds
	}

	// ProjectEntry is a single time entry as returned by the remote API.
	// An empty Project means the entry is not attached to any project.
	ProjectEntry struct {
		Project  string
		Duration Seconds
	}
)

// Tally maps exact, case-sensitive names to accumulated durations while
// remembering the order in which names were first seen. The zero value is
// ready to use.
type Tally struct {
	order  []string
	totals map[string]Seconds
}

// Add accumulates d under name.
func (t *Tally) Add(name string, d Seconds) {
	if t.totals == nil {
		t.totals = make(map[string]Seconds)
	}
	if _, seen := t.totals[name]; !seen {
		t.order = append(t.order, name)
	}
	t.totals[name] += d
}

// Get returns the accumulated duration for name and whether it was seen.
func (t Tally) Get(name string) (Seconds, bool) {
	d, ok := t.totals[name]
	return d, ok
}

// Len returns the number of distinct names.
func (t Tally) Len() int {
	return len(t.order)
}

// Total returns the sum of all durations.
func (t Tally) Total() Seconds {
	var sum Seconds
	for _, d := range t.totals {
		sum += d
	}
	return sum
}

// Entries returns the rows in first-seen order.
func (t Tally) Entries() []NamedDuration {
	out := make([]NamedDuration, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, NamedDuration{Name: name, Duration: t.totals[name]})
	}
	return out
}

// Clone returns an independent copy.
func (t Tally) Clone() Tally {
	var c Tally
	for _, name := range t.order {
		c.Add(name, t.totals[name])
	}
	return c
}

// Merge adds every row of other into t, in other's order.
func (t *Tally) Merge(other Tally) {
	for _, name := range other.order {
		t.Add(name, other.totals[name])
	}
}

// IsZero reports whether the bucket carries no data at all.
func (b MetricBucket) IsZero() bool {
	return b.WorkTime == 0 && b.FocusTime == 0 && b.BreakTime == 0 &&
		b.MeetingTime == 0 && b.TrackedTime == 0 && b.Categories.Len() == 0
}
