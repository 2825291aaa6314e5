// Package cache holds the in-process caches that sit in front of the remote
// analytics API. A long-running watch loop keeps one cache for its whole life
// and sweeps expired entries between cycles.
package cache

// Cache defines a generic keyed cache
type Cache[T any] interface {
	// Get retrieves a value; expired entries are reported as missing
	Get(key string) (T, bool)

	// Set stores a value, refreshing its expiry
	Set(key string, data T)

	// Delete removes a key
	Delete(key string)

	// Size returns the current number of items
	Size() int
}

// Expirer is implemented by caches that can drop expired entries on demand.
type Expirer interface {
	CleanExpired() int
}

// Sweeper drops expired entries from every registered cache. It runs on the
// caller's goroutine; the watch loop calls Sweep once per cycle.
type Sweeper struct {
	caches []Expirer
}

// NewSweeper creates an empty sweeper
func NewSweeper() *Sweeper {
	return &Sweeper{}
}

// Register adds a cache to the sweep set
func (s *Sweeper) Register(c Expirer) {
	s.caches = append(s.caches, c)
}

// Sweep cleans every registered cache and returns the number of entries
// removed.
func (s *Sweeper) Sweep() int {
	removed := 0
	for _, c := range s.caches {
		removed += c.CleanExpired()
	}
	return removed
}
