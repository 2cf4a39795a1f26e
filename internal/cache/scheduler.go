package cache

import (
	"sync"
	"time"
)

// DefaultInterval is the nominal refresh period for a resource key.
const DefaultInterval = 2 * time.Second

// ScrollSuppressWindow is how long after the last scroll event polling stays
// paused. Scroll events arrive continuously while the operator is scrolling,
// so the window only has to outlive the gap between two events.
const ScrollSuppressWindow = 150 * time.Millisecond

// SuppressReason names why polling for a key is paused.
type SuppressReason string

const (
	// SuppressModal pauses a key while a modal editing that resource is open,
	// so a poll never overwrites form fields mid-edit.
	SuppressModal SuppressReason = "modal"
	// SuppressMutation pauses a key while a mutation touching it is in flight.
	SuppressMutation SuppressReason = "mutation"
)

// Scheduler decides, per resource key, whether a refresh should fire now.
// It is the single scheduling policy for all views; no component runs its
// own timers.
type Scheduler struct {
	mu         sync.Mutex
	intervals  map[Key]time.Duration
	nextDue    map[Key]time.Time
	suppressed map[Key]map[SuppressReason]bool
	lastScroll time.Time
	defaultInt time.Duration
}

// NewScheduler creates a scheduler with the given default interval.
// A non-positive interval falls back to DefaultInterval.
func NewScheduler(interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		intervals:  make(map[Key]time.Duration),
		nextDue:    make(map[Key]time.Time),
		suppressed: make(map[Key]map[SuppressReason]bool),
		defaultInt: interval,
	}
}

// SetInterval overrides the refresh period for one key.
func (s *Scheduler) SetInterval(key Key, interval time.Duration) {
	if interval <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intervals[key] = interval
}

// Interval returns the effective refresh period for a key.
func (s *Scheduler) Interval(key Key) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intervalLocked(key)
}

func (s *Scheduler) intervalLocked(key Key) time.Duration {
	if d, ok := s.intervals[key]; ok {
		return d
	}
	return s.defaultInt
}

// Due reports whether the key should refresh at the given instant. A key is
// never due while any suppression gate holds.
func (s *Scheduler) Due(key Key, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.suppressedLocked(key, now) {
		return false
	}
	return !now.Before(s.nextDue[key])
}

// MarkFired records that a refresh fired for the key and schedules the next
// one a full period out.
func (s *Scheduler) MarkFired(key Key, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextDue[key] = now.Add(s.intervalLocked(key))
}

// Suppress pauses polling for a key for the given reason. Multiple reasons
// stack; the key resumes only when all of them are released.
func (s *Scheduler) Suppress(key Key, reason SuppressReason) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reasons, ok := s.suppressed[key]
	if !ok {
		reasons = make(map[SuppressReason]bool)
		s.suppressed[key] = reasons
	}
	reasons[reason] = true
}

// Release lifts one suppression reason. When the last gate drops, the key
// becomes due immediately rather than waiting out a full period, so data is
// never more than one suppression window stale.
func (s *Scheduler) Release(key Key, reason SuppressReason) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reasons, ok := s.suppressed[key]
	if !ok || !reasons[reason] {
		return
	}
	delete(reasons, reason)
	if len(reasons) == 0 {
		delete(s.suppressed, key)
		s.nextDue[key] = time.Time{}
	}
}

// MarkScroll records a scroll event. All keys are paused until the window
// expires to avoid re-render churn under the operator's thumb.
func (s *Scheduler) MarkScroll(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastScroll = now
}

// Suppressed reports whether polling for the key is currently paused.
func (s *Scheduler) Suppressed(key Key, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suppressedLocked(key, now)
}

func (s *Scheduler) suppressedLocked(key Key, now time.Time) bool {
	if !s.lastScroll.IsZero() && now.Sub(s.lastScroll) < ScrollSuppressWindow {
		return true
	}
	return len(s.suppressed[key]) > 0
}

// DueKeys filters the given keys down to those due at the given instant.
func (s *Scheduler) DueKeys(keys []Key, now time.Time) []Key {
	var due []Key
	for _, key := range keys {
		if s.Due(key, now) {
			due = append(due, key)
		}
	}
	return due
}

// Forget drops all scheduling state for a key.
func (s *Scheduler) Forget(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.intervals, key)
	delete(s.nextDue, key)
	delete(s.suppressed, key)
}
