package core

// UnknownName labels categories and projects the API returns without a name.
const UnknownName = "Unknown"

// Sum folds buckets into a single new bucket. Numeric fields add up and
// categories add per exact name; the first bucket that mentions a category
// fixes its position in the result.
func Sum(buckets ...MetricBucket) MetricBucket {
	var out MetricBucket
	for _, b := range buckets {
		out.WorkTime += b.WorkTime
		out.FocusTime += b.FocusTime
		out.BreakTime += b.BreakTime
		out.MeetingTime += b.MeetingTime
		out.TrackedTime += b.TrackedTime
		out.Categories.Merge(b.Categories)
	}
	return out
}

// FoldProjectEntries reduces raw time entries into a per-project tally.
// Entries marked as having no project are dropped.
func FoldProjectEntries(entries []ProjectEntry) Tally {
	var t Tally
	for _, e := range entries {
		if e.Project == "" {
			continue
		}
		t.Add(e.Project, e.Duration)
	}
	return t
}

// MergeTallies sums tallies into a new one.
func MergeTallies(tallies ...Tally) Tally {
	var out Tally
	for _, t := range tallies {
		out.Merge(t)
	}
	return out
}
