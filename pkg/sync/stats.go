package sync

import (
	"sort"
	"sync"
	"time"
)

// ErrorEntry records one failed sync for the end-of-run report.
type ErrorEntry struct {
	QuoteID    int
	DealID     string
	DealName   string
	ErrorClass string
	Message    string
	Timestamp  time.Time
}

// Stats aggregates outcomes across a batch run. All methods are safe for
// concurrent use; workers record results while the driver reads progress.
type Stats struct {
	mu sync.Mutex

	Total        int
	Synced       int
	Skipped      int
	NotFound     int
	Failed       int
	LineItems    int
	Associations int

	timings []time.Duration
	errors  []ErrorEntry
}

// NewStats creates stats for a run over total records.
func NewStats(total int) *Stats {
	return &Stats{Total: total}
}

// Record folds one result into the aggregates.
func (s *Stats) Record(res Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch res.Outcome {
	case OutcomeSynced:
		s.Synced++
		s.LineItems += res.LineItems
		s.Associations += res.Associations
		s.timings = append(s.timings, res.Duration)
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeNotFound:
		s.NotFound++
	case OutcomeFailed:
		s.Failed++
		s.errors = append(s.errors, ErrorEntry{
			QuoteID:    res.QuoteID,
			DealID:     res.DealID,
			DealName:   res.DealName,
			ErrorClass: res.ErrorClass,
			Message:    res.Message,
			Timestamp:  time.Now(),
		})
	}
}

// Completed returns how many records have reached a terminal outcome.
func (s *Stats) Completed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completedLocked()
}

func (s *Stats) completedLocked() int {
	return s.Synced + s.Skipped + s.NotFound + s.Failed
}

// Progress returns completed count, remaining count, and an ETA based on
// the average successful sync time.
func (s *Stats) Progress() (completed, remaining int, eta time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	completed = s.completedLocked()
	remaining = s.Total - completed
	if remaining < 0 {
		remaining = 0
	}
	if len(s.timings) > 0 {
		var sum time.Duration
		for _, d := range s.timings {
			sum += d
		}
		eta = time.Duration(remaining) * (sum / time.Duration(len(s.timings)))
	}
	return completed, remaining, eta
}

// Snapshot returns a copy of the aggregates for reporting.
func (s *Stats) Snapshot() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{
		Total:        s.Total,
		Synced:       s.Synced,
		Skipped:      s.Skipped,
		NotFound:     s.NotFound,
		Failed:       s.Failed,
		LineItems:    s.LineItems,
		Associations: s.Associations,
		Errors:       append([]ErrorEntry(nil), s.errors...),
	}

	if len(s.timings) > 0 {
		sorted := append([]time.Duration(nil), s.timings...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var total time.Duration
		for _, d := range sorted {
			total += d
		}
		sum.MinTime = sorted[0]
		sum.MaxTime = sorted[len(sorted)-1]
		sum.AvgTime = total / time.Duration(len(sorted))
		sum.P50Time = percentile(sorted, 50)
		sum.P95Time = percentile(sorted, 95)
	}

	return sum
}

// percentile returns the pth percentile of an ascending-sorted slice
// using nearest-rank.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

// Summary is an immutable view of the run's aggregates.
type Summary struct {
	Total        int
	Synced       int
	Skipped      int
	NotFound     int
	Failed       int
	LineItems    int
	Associations int

	MinTime time.Duration
	AvgTime time.Duration
	MaxTime time.Duration
	P50Time time.Duration
	P95Time time.Duration

	Errors []ErrorEntry
}

// SuccessRate returns synced over completed as a percentage.
func (s Summary) SuccessRate() float64 {
	completed := s.Synced + s.Skipped + s.NotFound + s.Failed
	if completed == 0 {
		return 0
	}
	return float64(s.Synced) / float64(completed) * 100
}
